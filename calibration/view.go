package calibration

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/plushpluto/MYNT-EYE-S-SDK/cameramodels"
	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// View is one observation of a calibration target: target points and the pixels they were detected at.
type View struct {
	Name         string      `json:"name" yaml:"name"`
	ObjectPoints []r3.Vector `json:"object_points" yaml:"object_points"`
	ImagePoints  []r2.Point  `json:"image_points" yaml:"image_points"`
}

// Validate checks that every object point has a matching image point.
func (v View) Validate() error {
	if len(v.ObjectPoints) != len(v.ImagePoints) {
		return errors.Wrapf(cameramodels.ErrSizeMismatch, "view %q has %d object points and %d image points",
			v.Name, len(v.ObjectPoints), len(v.ImagePoints))
	}
	return nil
}

// FilterByMask returns the correspondences of view whose pixel lies inside the image and, when cam has a
// mask, on a non-zero mask pixel.
func FilterByMask(cam cameramodels.Camera, view View) View {
	params := cam.Parameters()
	bounds := image.Rect(0, 0, params.ImageWidth(), params.ImageHeight())
	mask := cam.Mask()

	out := View{Name: view.Name}
	for i, p := range view.ImagePoints {
		if i >= len(view.ObjectPoints) {
			break
		}
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		px := image.Pt(int(math.Floor(p.X)), int(math.Floor(p.Y)))
		if !px.In(bounds) {
			continue
		}
		if mask != nil && mask.GrayAt(mask.Bounds().Min.X+px.X, mask.Bounds().Min.Y+px.Y).Y == 0 {
			continue
		}
		out.ObjectPoints = append(out.ObjectPoints, view.ObjectPoints[i])
		out.ImagePoints = append(out.ImagePoints, p)
	}
	return out
}

// Pose is the pose of the target in the camera frame for one view.
type Pose struct {
	View        string    `json:"view" yaml:"view"`
	Rotation    r3.Vector `json:"rotation" yaml:"rotation"`
	Translation r3.Vector `json:"translation" yaml:"translation"`
}

// Orientation returns the rotation of the pose.
func (p Pose) Orientation() spatialmath.Orientation {
	return spatialmath.R3ToR4(p.Rotation)
}
