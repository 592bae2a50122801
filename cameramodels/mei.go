package cameramodels

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/plushpluto/MYNT-EYE-S-SDK/distortion"
)

// MEI is the unified sphere model of Christopher Mei for omnidirectional cameras with radial-tangential
// distortion. Its intrinsics are xi, k1, k2, p1, p2, gamma1, gamma2, u0, v0.
type MEI struct {
	base
	xi             float64
	lens           lensDistortion
	gamma1, gamma2 float64
	u0, v0         float64
}

// NewMEI creates an omnidirectional camera.
func NewMEI(name string, width, height int, intrinsics []float64) (*MEI, error) {
	params, err := validParameters(MEIModelType, name, width, height)
	if err != nil {
		return nil, err
	}
	cam := &MEI{base: base{params: params}}
	if err := cam.SetIntrinsics(intrinsics); err != nil {
		return nil, err
	}
	return cam, nil
}

// Intrinsics returns xi, k1, k2, p1, p2, gamma1, gamma2, u0, v0.
func (c *MEI) Intrinsics() []float64 {
	return append(append([]float64{c.xi}, c.lens.coefficients()...), c.gamma1, c.gamma2, c.u0, c.v0)
}

// SetIntrinsics sets xi, k1, k2, p1, p2, gamma1, gamma2, u0, v0.
func (c *MEI) SetIntrinsics(intrinsics []float64) error {
	if err := checkCount(MEIModelType, intrinsics); err != nil {
		return err
	}
	if !finiteAll(intrinsics) {
		return InvalidIntrinsicsError(MEIModelType, "coefficients must be finite")
	}
	if intrinsics[0] < 0 {
		return InvalidIntrinsicsError(MEIModelType, "xi must not be negative")
	}
	if intrinsics[5] == 0 || intrinsics[6] == 0 {
		return InvalidIntrinsicsError(MEIModelType, "gamma1 and gamma2 must be non-zero")
	}
	lens, err := newLensDistortion(intrinsics[1:5])
	if err != nil {
		return err
	}
	c.xi = intrinsics[0]
	c.lens = lens
	c.gamma1, c.gamma2, c.u0, c.v0 = intrinsics[5], intrinsics[6], intrinsics[7], intrinsics[8]
	return nil
}

// SpaceToPlane projects p onto the unit sphere, shifts it by xi along the optical axis and projects the
// result onto the image.
func (c *MEI) SpaceToPlane(p r3.Vector) r2.Point {
	z := p.Z + c.xi*p.Norm()
	mx, my := c.lens.forward.Transform(p.X/z, p.Y/z)
	return r2.Point{X: c.gamma1*mx + c.u0, Y: c.gamma2*my + c.v0}
}

// LiftProjective returns the ray through the pixel. The ray is the point on the unit sphere scaled so
// that its first two components are the undistorted normalized image point.
func (c *MEI) LiftProjective(p r2.Point) r3.Vector {
	mx, my := c.lens.inverse.Transform((p.X-c.u0)/c.gamma1, (p.Y-c.v0)/c.gamma2)
	rho2 := mx*mx + my*my
	xi := c.xi
	return r3.Vector{
		X: mx,
		Y: my,
		Z: 1 - xi*(rho2+1)/(xi+math.Sqrt(1+(1-xi*xi)*rho2)),
	}
}

// Distortion returns the lens distortion applied after the sphere projection.
func (c *MEI) Distortion() distortion.Distorter {
	return c.lens.forward
}
