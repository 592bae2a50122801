package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// R3ToRotationMatrix converts a rotation vector (axis scaled by angle) to a rotation matrix using
// Rodrigues' formula: R = cos(t)I + (1-cos(t))kk' + sin(t)[k]x.
func R3ToRotationMatrix(rvec r3.Vector) *RotationMatrix {
	theta := rvec.Norm()
	if theta < 1e-15 {
		return NewIdentityRotationMatrix()
	}
	k := rvec.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c
	return &RotationMatrix{[9]float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v,
	}}
}

// RotationMatrixToR3 is the inverse of R3ToRotationMatrix. The returned vector has norm in [0, pi].
func RotationMatrixToR3(rm *RotationMatrix) r3.Vector {
	q := rm.Quaternion()
	if q.Real < 0 {
		q.Real, q.Imag, q.Jmag, q.Kmag = -q.Real, -q.Imag, -q.Jmag, -q.Kmag
	}
	return QuatToR3AA(q)
}
