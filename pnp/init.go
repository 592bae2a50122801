package pnp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// initDLT estimates a pose from at least six non-coplanar correspondences with the normalized direct
// linear transform, then projects the recovered 3x3 block onto SO(3).
func initDLT(obj []r3.Vector, img []r2.Point) (*spatialmath.RotationMatrix, r3.Vector, bool) {
	objN, tObj := normalizeObjectPoints(obj)
	imgN, tImg := normalizePoints(img)

	n := len(obj)
	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		X := []float64{objN[i].X, objN[i].Y, objN[i].Z, 1}
		u, v := imgN[i].X, imgN[i].Y
		for j := 0; j < 4; j++ {
			a.Set(2*i, j, X[j])
			a.Set(2*i, 8+j, -u*X[j])
			a.Set(2*i+1, 4+j, X[j])
			a.Set(2*i+1, 8+j, -v*X[j])
		}
	}
	p, ok := nullVector(a)
	if !ok {
		return nil, r3.Vector{}, false
	}
	pN := mat.NewDense(3, 4, p)

	// P = T_img^-1 * P_n * T_obj
	var tImgInv mat.Dense
	if err := tImgInv.Inverse(tImg); err != nil {
		return nil, r3.Vector{}, false
	}
	var tmp, proj mat.Dense
	tmp.Mul(&tImgInv, pN)
	proj.Mul(&tmp, tObj)

	m := mat.DenseCopyOf(proj.Slice(0, 3, 0, 3))
	if mat.Det(m) < 0 {
		proj.Scale(-1, &proj)
		m.Scale(-1, m)
	}
	mats, ok := performSVD(m)
	if !ok {
		return nil, r3.Vector{}, false
	}
	scale := (mats.Values[0] + mats.Values[1] + mats.Values[2]) / 3
	if scale == 0 {
		return nil, r3.Vector{}, false
	}
	rot, ok := closestRotation(m)
	if !ok {
		return nil, r3.Vector{}, false
	}
	t := r3.Vector{X: proj.At(0, 3), Y: proj.At(1, 3), Z: proj.At(2, 3)}.Mul(1 / scale)
	return rot, t, true
}

// initPlanar estimates a pose from correspondences whose object points lie on (or are fitted to) a plane,
// by decomposing the homography between plane coordinates and normalized image points.
func initPlanar(obj []r3.Vector, img []r2.Point) (*spatialmath.RotationMatrix, r3.Vector, bool) {
	basis, _, ok := principalAxes(obj)
	if !ok {
		return nil, r3.Vector{}, false
	}
	c := centroid(obj)
	plane := make([]r2.Point, len(obj))
	for i, p := range obj {
		d := p.Sub(c)
		plane[i] = r2.Point{
			X: basis.At(0, 0)*d.X + basis.At(1, 0)*d.Y + basis.At(2, 0)*d.Z,
			Y: basis.At(0, 1)*d.X + basis.At(1, 1)*d.Y + basis.At(2, 1)*d.Z,
		}
	}
	h, ok := estimateHomography(plane, img)
	if !ok {
		return nil, r3.Vector{}, false
	}

	h1 := mat.VecDenseCopyOf(h.ColView(0))
	h2 := mat.VecDenseCopyOf(h.ColView(1))
	h3 := mat.VecDenseCopyOf(h.ColView(2))
	norm := (mat.Norm(h1, 2) + mat.Norm(h2, 2)) / 2
	if norm == 0 {
		return nil, r3.Vector{}, false
	}
	lambda := 1 / norm
	// the plane centroid has to be in front of the camera
	if h3.AtVec(2) < 0 {
		lambda = -lambda
	}
	h1.ScaleVec(lambda, h1)
	h2.ScaleVec(lambda, h2)
	h3.ScaleVec(lambda, h3)
	r3col := cross(h1, h2)

	approx := mat.NewDense(3, 3, nil)
	approx.SetCol(0, h1.RawVector().Data)
	approx.SetCol(1, h2.RawVector().Data)
	approx.SetCol(2, r3col.RawVector().Data)
	rPlane, ok := closestRotation(approx)
	if !ok {
		return nil, r3.Vector{}, false
	}

	planeAxes, err := spatialmath.NewRotationMatrixFromDense(basis)
	if err != nil {
		return nil, r3.Vector{}, false
	}
	// object = basis * plane + c, so R = R_plane * basis^T and t = t_plane - R * c
	rot := rPlane.MulMatrix(planeAxes.Transpose())
	t := r3.Vector{X: h3.AtVec(0), Y: h3.AtVec(1), Z: h3.AtVec(2)}.Sub(rot.Mul(c))
	return rot, t, true
}

// estimateHomography finds H such that dst ~ H * src using the normalized DLT algorithm.
func estimateHomography(src, dst []r2.Point) (*mat.Dense, bool) {
	srcN, tSrc := normalizePoints(src)
	dstN, tDst := normalizePoints(dst)
	if hasNaN(tSrc) || hasNaN(tDst) {
		return nil, false
	}
	n := len(src)
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}
	h, ok := nullVector(a)
	if !ok {
		return nil, false
	}
	hN := mat.NewDense(3, 3, h)

	var tDstInv mat.Dense
	if err := tDstInv.Inverse(tDst); err != nil {
		return nil, false
	}
	var tmp, out mat.Dense
	tmp.Mul(&tDstInv, hN)
	out.Mul(&tmp, tSrc)
	return &out, true
}

func hasNaN(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
