package pnp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

const (
	maxIterations = 100
	// behindPenalty is the residual assigned to a point that lands behind the camera.
	behindPenalty = 1e3
)

// refine minimizes the squared distance between projected object points and the normalized image points
// with Levenberg-Marquardt over the six pose parameters.
func refine(obj []r3.Vector, img []r2.Point, rvec, tvec r3.Vector) (r3.Vector, r3.Vector) {
	residuals := func(dst, x []float64) {
		rm := spatialmath.R3ToRotationMatrix(r3.Vector{X: x[0], Y: x[1], Z: x[2]})
		t := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
		for i, p := range obj {
			pc := rm.Mul(p).Add(t)
			if pc.Z <= 0 {
				dst[2*i], dst[2*i+1] = behindPenalty, behindPenalty
				continue
			}
			dst[2*i] = pc.X/pc.Z - img[i].X
			dst[2*i+1] = pc.Y/pc.Z - img[i].Y
		}
	}

	m := 2 * len(obj)
	x := []float64{rvec.X, rvec.Y, rvec.Z, tvec.X, tvec.Y, tvec.Z}
	r := make([]float64, m)
	residuals(r, x)
	cost := floats.Dot(r, r)

	jac := mat.NewDense(m, 6, nil)
	settings := &fd.JacobianSettings{Formula: fd.Central}
	lambda := 1e-3
	candidate := make([]float64, 6)
	rCandidate := make([]float64, m)
	for iter := 0; iter < maxIterations && cost > 1e-24; iter++ {
		fd.Jacobian(jac, residuals, x, settings)
		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())
		var g mat.VecDense
		g.MulVec(jac.T(), mat.NewVecDense(m, r))

		improved := false
		for !improved && lambda < 1e12 {
			a := mat.NewDense(6, 6, nil)
			a.Copy(&jtj)
			for i := 0; i < 6; i++ {
				a.Set(i, i, jtj.At(i, i)*(1+lambda)+1e-12)
			}
			var delta mat.VecDense
			if err := delta.SolveVec(a, &g); err != nil {
				var cond mat.Condition
				if !errors.As(err, &cond) {
					lambda *= 10
					continue
				}
			}
			for i := range candidate {
				candidate[i] = x[i] - delta.AtVec(i)
			}
			residuals(rCandidate, candidate)
			newCost := floats.Dot(rCandidate, rCandidate)
			if newCost < cost && !math.IsNaN(newCost) {
				step := floats.Distance(candidate, x, 2)
				copy(x, candidate)
				copy(r, rCandidate)
				decrease := cost - newCost
				cost = newCost
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
				if step < 1e-14*(1+floats.Norm(x, 2)) || decrease < 1e-30 {
					return toVectors(x)
				}
			} else {
				lambda *= 10
			}
		}
		if !improved {
			break
		}
	}
	return toVectors(x)
}

func toVectors(x []float64) (r3.Vector, r3.Vector) {
	return r3.Vector{X: x[0], Y: x[1], Z: x[2]}, r3.Vector{X: x[3], Y: x[4], Z: x[5]}
}
