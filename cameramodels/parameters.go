// Package cameramodels implements camera lens models (pinhole, Kannala-Brandt fisheye and the MEI unified
// sphere model) behind one projection contract, together with the pose estimation and reprojection error
// algorithms shared by every model.
package cameramodels

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ModelType names a lens model.
type ModelType string

// The available lens models.
const (
	PinholeModelType       = ModelType("PINHOLE")
	KannalaBrandtModelType = ModelType("KANNALA_BRANDT")
	MEIModelType           = ModelType("MEI")
)

// ParseModelType converts a case-insensitive model name into a ModelType.
func ParseModelType(s string) (ModelType, error) {
	mt := ModelType(strings.ToUpper(strings.TrimSpace(s)))
	switch mt {
	case PinholeModelType, KannalaBrandtModelType, MEIModelType:
		return mt, nil
	default:
		return "", errors.Wrapf(ErrUnknownModel, "%q", s)
	}
}

// IntrinsicNames returns the names of the intrinsic coefficients of a model in their canonical order.
func IntrinsicNames(mt ModelType) []string {
	switch mt {
	case PinholeModelType:
		return []string{"k1", "k2", "p1", "p2", "fx", "fy", "cx", "cy"}
	case KannalaBrandtModelType:
		return []string{"k2", "k3", "k4", "k5", "mu", "mv", "u0", "v0"}
	case MEIModelType:
		return []string{"xi", "k1", "k2", "p1", "p2", "gamma1", "gamma2", "u0", "v0"}
	default:
		return nil
	}
}

func nIntrinsicsFor(mt ModelType) int {
	switch mt {
	case PinholeModelType, KannalaBrandtModelType:
		return 8
	default:
		return 9
	}
}

// Parameters identifies a camera: its model, name, image size and the number of intrinsic coefficients the
// model uses. The coefficient count always follows the model type.
type Parameters struct {
	modelType   ModelType
	cameraName  string
	imageWidth  int
	imageHeight int
	nIntrinsics int
}

// NewParameters creates the parameter set of a camera.
func NewParameters(modelType ModelType, cameraName string, width, height int) Parameters {
	return Parameters{
		modelType:   modelType,
		cameraName:  cameraName,
		imageWidth:  width,
		imageHeight: height,
		nIntrinsics: nIntrinsicsFor(modelType),
	}
}

// ModelType returns the lens model.
func (p Parameters) ModelType() ModelType { return p.modelType }

// CameraName returns the camera label.
func (p Parameters) CameraName() string { return p.cameraName }

// ImageWidth returns the image width in pixels.
func (p Parameters) ImageWidth() int { return p.imageWidth }

// ImageHeight returns the image height in pixels.
func (p Parameters) ImageHeight() int { return p.imageHeight }

// NIntrinsics returns the number of intrinsic coefficients of the model.
func (p Parameters) NIntrinsics() int { return p.nIntrinsics }

// SetModelType changes the model and with it the intrinsic coefficient count.
func (p *Parameters) SetModelType(mt ModelType) {
	p.modelType = mt
	p.nIntrinsics = nIntrinsicsFor(mt)
}

// SetCameraName changes the camera label.
func (p *Parameters) SetCameraName(name string) { p.cameraName = name }

// SetImageSize changes the image size.
func (p *Parameters) SetImageSize(width, height int) {
	p.imageWidth = width
	p.imageHeight = height
}

// CheckValid checks that the model is known and the image size is positive.
func (p Parameters) CheckValid() error {
	if _, err := ParseModelType(string(p.modelType)); err != nil {
		return err
	}
	if p.imageWidth <= 0 || p.imageHeight <= 0 {
		return errors.Errorf("invalid image size %dx%d for camera %q, both dimensions must be positive",
			p.imageWidth, p.imageHeight, p.cameraName)
	}
	return nil
}

func (p Parameters) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "model_type   %s\n", p.modelType)
	fmt.Fprintf(&sb, "camera_name  %s\n", p.cameraName)
	fmt.Fprintf(&sb, "image_width  %d\n", p.imageWidth)
	fmt.Fprintf(&sb, "image_height %d\n", p.imageHeight)
	fmt.Fprintf(&sb, "n_intrinsics %d", p.nIntrinsics)
	return sb.String()
}
