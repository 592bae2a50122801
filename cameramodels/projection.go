package cameramodels

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// ProjectPoints moves objectPoints into the camera frame with the Rodrigues rotation rvec and the
// translation tvec and projects them onto the image. Points the model cannot project are passed through
// anyway and produce whatever the model returns for them.
func ProjectPoints(cam Projector, objectPoints []r3.Vector, rvec, tvec r3.Vector) []r2.Point {
	rm := spatialmath.R3ToRotationMatrix(rvec)
	imagePoints := make([]r2.Point, len(objectPoints))
	for i, p := range objectPoints {
		imagePoints[i] = cam.SpaceToPlane(rm.Mul(p).Add(tvec))
	}
	return imagePoints
}

// PointReprojectionError returns the pixel distance between observed and the projection of p after
// rotating it by q and translating it by t.
func PointReprojectionError(cam Projector, p r3.Vector, q quat.Number, t r3.Vector, observed r2.Point) float64 {
	pc := spatialmath.QuatToRotationMatrix(q).Mul(p).Add(t)
	return cam.SpaceToPlane(pc).Sub(observed).Norm()
}

// ReprojectionDist returns the pixel distance between the projections of two points in the camera frame.
func ReprojectionDist(cam Projector, p1, p2 r3.Vector) float64 {
	return cam.SpaceToPlane(p1).Sub(cam.SpaceToPlane(p2)).Norm()
}

// LiftSphere returns the unit length ray through the pixel.
func LiftSphere(cam Projector, p r2.Point) r3.Vector {
	return cam.LiftProjective(p).Normalize()
}
