package cameramodels

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReprojectionError projects the object points of every view with that view's pose and compares them with
// the observed image points. mean is the summed pixel distance over all views divided by the total number
// of points, so views with more points weigh more. perView holds the mean distance of each view. Views
// without points contribute nothing and report zero.
func ReprojectionError(
	cam Projector,
	objectPoints [][]r3.Vector,
	imagePoints [][]r2.Point,
	rvecs, tvecs []r3.Vector,
) (mean float64, perView []float64, err error) {
	nViews := len(objectPoints)
	if len(imagePoints) != nViews || len(rvecs) != nViews || len(tvecs) != nViews {
		return 0, nil, errors.Wrapf(ErrSizeMismatch,
			"%d object point views, %d image point views, %d rotations and %d translations",
			nViews, len(imagePoints), len(rvecs), len(tvecs))
	}
	for i := range objectPoints {
		if len(objectPoints[i]) != len(imagePoints[i]) {
			return 0, nil, errors.Wrapf(ErrSizeMismatch, "view %d has %d object points and %d image points",
				i, len(objectPoints[i]), len(imagePoints[i]))
		}
	}

	perView = make([]float64, nViews)
	total := 0.0
	count := 0
	for i := range objectPoints {
		projected := ProjectPoints(cam, objectPoints[i], rvecs[i], tvecs[i])
		viewErr := 0.0
		for j, p := range projected {
			viewErr += p.Sub(imagePoints[i][j]).Norm()
		}
		total += viewErr
		count += len(projected)
		if len(projected) > 0 {
			perView[i] = viewErr / float64(len(projected))
		}
	}
	if count == 0 {
		return 0, perView, nil
	}
	return total / float64(count), perView, nil
}
