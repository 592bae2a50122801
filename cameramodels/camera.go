package cameramodels

import (
	"image"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/plushpluto/MYNT-EYE-S-SDK/distortion"
)

// Projector maps points in the camera frame onto the image and back.
type Projector interface {
	// SpaceToPlane projects a point in the camera frame to a pixel, applying lens distortion.
	SpaceToPlane(p r3.Vector) r2.Point
	// LiftProjective returns a ray through the pixel. The ray is not necessarily unit length; dividing by
	// its third component gives the point on an ideal, distortion free image plane at unit depth.
	LiftProjective(p r2.Point) r3.Vector
}

// Camera is a lens model bound to one physical camera.
type Camera interface {
	Projector
	Parameters() Parameters
	// Intrinsics returns the model coefficients in their canonical order.
	Intrinsics() []float64
	SetIntrinsics(intrinsics []float64) error
	// Mask returns the pixels usable for calibration, zero meaning ignore. It is nil when unset.
	Mask() *image.Gray
	SetMask(mask *image.Gray) error
}

// Distorted is implemented by lens models that apply a planar distortion model to normalized coordinates.
type Distorted interface {
	Distortion() distortion.Distorter
}

// base holds the state every lens model shares. The mask may be swapped while other goroutines project.
type base struct {
	params Parameters

	mu   sync.RWMutex
	mask *image.Gray
}

func validParameters(mt ModelType, name string, width, height int) (Parameters, error) {
	params := NewParameters(mt, name, width, height)
	if err := params.CheckValid(); err != nil {
		return Parameters{}, err
	}
	return params, nil
}

// Parameters returns a copy of the camera parameters.
func (b *base) Parameters() Parameters {
	return b.params
}

// Mask returns the calibration mask.
func (b *base) Mask() *image.Gray {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mask
}

// SetMask replaces the calibration mask. A nil mask clears it.
func (b *base) SetMask(mask *image.Gray) error {
	if mask != nil {
		size := mask.Bounds().Size()
		if size.X != b.params.imageWidth || size.Y != b.params.imageHeight {
			return errors.Errorf("mask is %dx%d but camera %q images are %dx%d",
				size.X, size.Y, b.params.cameraName, b.params.imageWidth, b.params.imageHeight)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mask = mask
	return nil
}
