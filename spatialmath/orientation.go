package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of a rotation
// between two 3D frames of reference.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	RotationMatrix() *RotationMatrix
}

// NewZeroOrientation returns an orientatation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// NewOrientationFromQuaternion wraps a quaternion so that it satisfies Orientation. The quaternion is normalized.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	n := quat.Abs(q)
	if n == 0 {
		return NewZeroOrientation()
	}
	qq := quaternion(quat.Scale(1/n, q))
	return &qq
}

// OrientationBetween returns the orientation representing the difference between the two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// AngleBetween returns the magnitude, in radians, of the rotation that takes o1 onto o2.
func AngleBetween(o1, o2 Orientation) float64 {
	return math.Abs(OrientationBetween(o1, o2).AxisAngles().Theta)
}
