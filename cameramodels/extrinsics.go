package cameramodels

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/pnp"
)

// EstimateExtrinsics estimates the pose of the object in the camera frame from matched object and image
// points. Pixels are lifted through the camera model first, so a single distortion-free PnP solve serves
// every lens model. The returned rotation is a Rodrigues vector.
//
// Near-collinear or near-degenerate point configurations reduce accuracy without being reported.
func EstimateExtrinsics(cam Projector, objectPoints []r3.Vector, imagePoints []r2.Point) (rvec, tvec r3.Vector, err error) {
	if len(objectPoints) != len(imagePoints) {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrSizeMismatch,
			"%d object points and %d image points", len(objectPoints), len(imagePoints))
	}
	if len(objectPoints) < pnp.MinPoints {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(pnp.ErrNoSolution,
			"need at least %d correspondences, got %d", pnp.MinPoints, len(objectPoints))
	}

	ideal := make([]r2.Point, len(imagePoints))
	for i, p := range imagePoints {
		ray := cam.LiftProjective(p)
		ideal[i] = r2.Point{X: ray.X / ray.Z, Y: ray.Y / ray.Z}
		if math.IsNaN(ideal[i].X) || math.IsNaN(ideal[i].Y) || math.IsInf(ideal[i].X, 0) || math.IsInf(ideal[i].Y, 0) {
			return r3.Vector{}, r3.Vector{}, errors.Errorf("image point %d at %v cannot be lifted to a forward ray", i, p)
		}
	}

	identity := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	return pnp.Solve(objectPoints, ideal, identity, nil)
}
