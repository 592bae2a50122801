package cameramodels

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/plushpluto/MYNT-EYE-S-SDK/distortion"
)

// Pinhole is a perspective camera with radial-tangential distortion.
// Its intrinsics are k1, k2, p1, p2, fx, fy, cx, cy.
type Pinhole struct {
	base
	lens   lensDistortion
	fx, fy float64
	cx, cy float64
}

// NewPinhole creates a pinhole camera.
func NewPinhole(name string, width, height int, intrinsics []float64) (*Pinhole, error) {
	params, err := validParameters(PinholeModelType, name, width, height)
	if err != nil {
		return nil, err
	}
	cam := &Pinhole{base: base{params: params}}
	if err := cam.SetIntrinsics(intrinsics); err != nil {
		return nil, err
	}
	return cam, nil
}

// Intrinsics returns k1, k2, p1, p2, fx, fy, cx, cy.
func (c *Pinhole) Intrinsics() []float64 {
	return append(c.lens.coefficients(), c.fx, c.fy, c.cx, c.cy)
}

// SetIntrinsics sets k1, k2, p1, p2, fx, fy, cx, cy.
func (c *Pinhole) SetIntrinsics(intrinsics []float64) error {
	if err := checkCount(PinholeModelType, intrinsics); err != nil {
		return err
	}
	lens, err := newLensDistortion(intrinsics[:4])
	if err != nil {
		return err
	}
	if !finiteAll(intrinsics[4:]) {
		return InvalidIntrinsicsError(PinholeModelType, "projection coefficients must be finite")
	}
	if intrinsics[4] == 0 || intrinsics[5] == 0 {
		return InvalidIntrinsicsError(PinholeModelType, "focal lengths must be non-zero")
	}
	c.lens = lens
	c.fx, c.fy, c.cx, c.cy = intrinsics[4], intrinsics[5], intrinsics[6], intrinsics[7]
	return nil
}

// SpaceToPlane projects p onto the image.
func (c *Pinhole) SpaceToPlane(p r3.Vector) r2.Point {
	mx, my := c.lens.forward.Transform(p.X/p.Z, p.Y/p.Z)
	return r2.Point{X: c.fx*mx + c.cx, Y: c.fy*my + c.cy}
}

// LiftProjective returns the ray (x, y, 1) through the pixel.
func (c *Pinhole) LiftProjective(p r2.Point) r3.Vector {
	mx, my := c.lens.inverse.Transform((p.X-c.cx)/c.fx, (p.Y-c.cy)/c.fy)
	return r3.Vector{X: mx, Y: my, Z: 1}
}

// Distortion returns the lens distortion applied to normalized coordinates.
func (c *Pinhole) Distortion() distortion.Distorter {
	return c.lens.forward
}

// lensDistortion pairs the radial-tangential model with its inverse.
type lensDistortion struct {
	forward distortion.Distorter
	inverse distortion.Distorter
}

// newLensDistortion builds the distortion for k1, k2, p1, p2.
func newLensDistortion(coeffs []float64) (lensDistortion, error) {
	forward, err := distortion.NewDistorter(distortion.RadialTangentialDistortionType, coeffs)
	if err != nil {
		return lensDistortion{}, err
	}
	if err := forward.CheckValid(); err != nil {
		return lensDistortion{}, err
	}
	inverse, err := distortion.NewDistorter(distortion.InverseRadialTangentialDistortionType, coeffs)
	if err != nil {
		return lensDistortion{}, err
	}
	return lensDistortion{forward: forward, inverse: inverse}, nil
}

// coefficients returns k1, k2, p1, p2. The trailing k3 is always zero for these lenses.
func (l lensDistortion) coefficients() []float64 {
	return l.forward.Parameters()[:4]
}

func finiteAll(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
