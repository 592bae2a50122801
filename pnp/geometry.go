package pnp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// normalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2: the centroid moves to
// the origin and the mean distance from it becomes sqrt(2).
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	mu := r2.Point{}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1. / float64(nPoints))

	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / float64(nPoints)
	}
	scale := math.Sqrt(2) / d
	transformData := []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	}
	T := mat.NewDense(3, 3, transformData)
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = pts[i].Sub(mu).Mul(scale)
	}
	return pointsTransformed, T
}

// normalizeObjectPoints is the 3D counterpart of normalizePoints with a target mean distance of sqrt(3).
// It returns the normalized points and the 4x4 similarity that produced them.
func normalizeObjectPoints(pts []r3.Vector) ([]r3.Vector, *mat.Dense) {
	c := centroid(pts)
	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(c).Norm() / float64(len(pts))
	}
	scale := math.Sqrt(3) / d
	T := mat.NewDense(4, 4, []float64{
		scale, 0, 0, -scale * c.X,
		0, scale, 0, -scale * c.Y,
		0, 0, scale, -scale * c.Z,
		0, 0, 0, 1,
	})
	out := make([]r3.Vector, len(pts))
	for i, pt := range pts {
		out[i] = pt.Sub(c).Mul(scale)
	}
	return out, T
}

func centroid(pts []r3.Vector) r3.Vector {
	c := r3.Vector{}
	for _, pt := range pts {
		c = c.Add(pt)
	}
	return c.Mul(1 / float64(len(pts)))
}

// eye create an identity matrix of size nxn.
func eye(n int) *mat.Dense {
	if n <= 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// matsSVD stores the matrices from SVD decomposition.
type matsSVD struct {
	U      *mat.Dense
	V      *mat.Dense
	Values []float64
}

// performSVD performs SVD on inputMatrix and returns U, V and the singular values in decreasing order.
func performSVD(inputMatrix mat.Matrix) (*matsSVD, bool) {
	var svd mat.SVD
	ok := svd.Factorize(inputMatrix, mat.SVDFull)
	if !ok {
		return nil, false
	}
	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return &matsSVD{U: u, V: v, Values: svd.Values(nil)}, true
}

// nullVector returns the right singular vector of the smallest singular value of a.
func nullVector(a mat.Matrix) ([]float64, bool) {
	mats, ok := performSVD(a)
	if !ok {
		return nil, false
	}
	_, c := mats.V.Dims()
	return mat.Col(nil, c-1, mats.V), true
}

// closestRotation projects a 3x3 matrix onto SO(3) with the SVD.
func closestRotation(m mat.Matrix) (*spatialmath.RotationMatrix, bool) {
	mats, ok := performSVD(m)
	if !ok {
		return nil, false
	}
	var r mat.Dense
	r.Mul(mats.U, mats.V.T())
	if mat.Det(&r) < 0 {
		d := eye(3)
		d.Set(2, 2, -1)
		var ud mat.Dense
		ud.Mul(mats.U, d)
		r.Mul(&ud, mats.V.T())
	}
	rm, err := spatialmath.NewRotationMatrix(r.RawMatrix().Data)
	if err != nil {
		return nil, false
	}
	return rm, true
}

func cross(a, b *mat.VecDense) *mat.VecDense {
	va := r3.Vector{X: a.AtVec(0), Y: a.AtVec(1), Z: a.AtVec(2)}
	vb := r3.Vector{X: b.AtVec(0), Y: b.AtVec(1), Z: b.AtVec(2)}
	c := va.Cross(vb)
	return mat.NewVecDense(3, []float64{c.X, c.Y, c.Z})
}
