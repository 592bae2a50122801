// Package pnp solves the perspective-n-point problem: recovering the pose of a calibrated camera from known
// 3D points and their 2D projections.
package pnp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/distortion"
	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// MinPoints is the minimum number of correspondences Solve accepts.
const MinPoints = 4

// planarityThreshold is the ratio between the smallest and largest singular values of the centered object
// points below which they are treated as lying on a plane.
const planarityThreshold = 1e-3

// ErrNoSolution is returned when no pose could be recovered from the correspondences.
var ErrNoSolution = errors.New("pnp: no solution")

// Solve estimates the rotation vector and translation that map objectPoints into the frame of a camera
// with matrix k, such that projecting them reproduces imagePoints. distCoeffs are Brown-Conrady
// coefficients in the order k1, k2, p1, p2[, k3]; an empty slice means no distortion.
func Solve(objectPoints []r3.Vector, imagePoints []r2.Point, k *mat.Dense, distCoeffs []float64) (rvec, tvec r3.Vector, err error) {
	if len(objectPoints) != len(imagePoints) {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrNoSolution,
			"got %d object points and %d image points", len(objectPoints), len(imagePoints))
	}
	if len(objectPoints) < MinPoints {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrNoSolution,
			"need at least %d correspondences, got %d", MinPoints, len(objectPoints))
	}
	normalized, err := normalizeImagePoints(imagePoints, k, distCoeffs)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}

	var rot *spatialmath.RotationMatrix
	var t r3.Vector
	var ok bool
	if len(objectPoints) >= 6 && !isPlanar(objectPoints) {
		rot, t, ok = initDLT(objectPoints, normalized)
	} else {
		rot, t, ok = initPlanar(objectPoints, normalized)
	}
	if !ok {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(ErrNoSolution, "initial pose estimate failed")
	}
	rvec, tvec = refine(objectPoints, normalized, spatialmath.RotationMatrixToR3(rot), t)
	if !finite(rvec) || !finite(tvec) {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(ErrNoSolution, "pose is not finite")
	}
	return rvec, tvec, nil
}

// normalizeImagePoints maps pixels through the inverse camera matrix and removes lens distortion.
func normalizeImagePoints(pts []r2.Point, k *mat.Dense, distCoeffs []float64) ([]r2.Point, error) {
	if k == nil {
		k = eye(3)
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(err, "camera matrix is not invertible")
	}
	var undistorter distortion.Distorter
	if len(distCoeffs) > 0 {
		var err error
		undistorter, err = distortion.NewDistorter(distortion.InverseRadialTangentialDistortionType, distCoeffs)
		if err != nil {
			return nil, err
		}
	}
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		x := kInv.At(0, 0)*p.X + kInv.At(0, 1)*p.Y + kInv.At(0, 2)
		y := kInv.At(1, 0)*p.X + kInv.At(1, 1)*p.Y + kInv.At(1, 2)
		w := kInv.At(2, 0)*p.X + kInv.At(2, 1)*p.Y + kInv.At(2, 2)
		out[i] = r2.Point{X: x / w, Y: y / w}
		if undistorter != nil {
			out[i].X, out[i].Y = undistorter.Transform(out[i].X, out[i].Y)
		}
		if math.IsNaN(out[i].X) || math.IsNaN(out[i].Y) || math.IsInf(out[i].X, 0) || math.IsInf(out[i].Y, 0) {
			return nil, errors.Wrapf(ErrNoSolution, "image point %d is not finite", i)
		}
	}
	return out, nil
}

// isPlanar reports whether the object points lie (numerically) on a plane.
func isPlanar(pts []r3.Vector) bool {
	_, values, ok := principalAxes(pts)
	if !ok {
		return true
	}
	return values[2] < planarityThreshold*values[0]
}

// principalAxes returns the right singular vectors of the centered points as a right-handed basis, along
// with the singular values in decreasing order.
func principalAxes(pts []r3.Vector) (*mat.Dense, []float64, bool) {
	c := centroid(pts)
	data := make([]float64, 0, 3*len(pts))
	for _, p := range pts {
		d := p.Sub(c)
		data = append(data, d.X, d.Y, d.Z)
	}
	mats, ok := performSVD(mat.NewDense(len(pts), 3, data))
	if !ok {
		return nil, nil, false
	}
	basis := mat.DenseCopyOf(mats.V)
	if mat.Det(basis) < 0 {
		for i := 0; i < 3; i++ {
			basis.Set(i, 2, -basis.At(i, 2))
		}
	}
	return basis, mats.Values, true
}

func finite(v r3.Vector) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
