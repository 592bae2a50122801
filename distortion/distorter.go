// Package distortion contains lens distortion models that act on normalized image coordinates.
package distortion

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// RadialTangentialDistortionType is the Brown-Conrady plumb bob model shared by the pinhole and MEI lenses.
	RadialTangentialDistortionType = DistortionType("radial_tangential")
	// InverseRadialTangentialDistortionType undoes RadialTangentialDistortionType.
	InverseRadialTangentialDistortionType = DistortionType("inverse_radial_tangential")
)

// Distorter defines a Transform that takes undistorted normalized coordinates and distorts them according to the model.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
}

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrapf(errors.New("invalid distortion_parameters"), msg)
}

// NewDistorter returns a Distorter given a valid DistortionType and its parameters.
func NewDistorter(distortionType DistortionType, parameters []float64) (Distorter, error) {
	switch distortionType {
	case RadialTangentialDistortionType:
		return NewRadialTangential(parameters)
	case InverseRadialTangentialDistortionType:
		rt, err := NewRadialTangential(parameters)
		if err != nil {
			return nil, err
		}
		return rt.Inverse(), nil
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", distortionType)
	}
}
