package cameramodels

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

const (
	thetaIterations = 30
	thetaTolerance  = 1e-14
)

// KannalaBrandt is the equidistant fisheye model of Kannala and Brandt. The distorted angle is
// theta + k2*theta^3 + k3*theta^5 + k4*theta^7 + k5*theta^9.
// Its intrinsics are k2, k3, k4, k5, mu, mv, u0, v0.
type KannalaBrandt struct {
	base
	k2, k3, k4, k5 float64
	mu, mv         float64
	u0, v0         float64
}

// NewKannalaBrandt creates a fisheye camera.
func NewKannalaBrandt(name string, width, height int, intrinsics []float64) (*KannalaBrandt, error) {
	params, err := validParameters(KannalaBrandtModelType, name, width, height)
	if err != nil {
		return nil, err
	}
	cam := &KannalaBrandt{base: base{params: params}}
	if err := cam.SetIntrinsics(intrinsics); err != nil {
		return nil, err
	}
	return cam, nil
}

// Intrinsics returns k2, k3, k4, k5, mu, mv, u0, v0.
func (c *KannalaBrandt) Intrinsics() []float64 {
	return []float64{c.k2, c.k3, c.k4, c.k5, c.mu, c.mv, c.u0, c.v0}
}

// SetIntrinsics sets k2, k3, k4, k5, mu, mv, u0, v0.
func (c *KannalaBrandt) SetIntrinsics(intrinsics []float64) error {
	if err := checkCount(KannalaBrandtModelType, intrinsics); err != nil {
		return err
	}
	if !finiteAll(intrinsics) {
		return InvalidIntrinsicsError(KannalaBrandtModelType, "coefficients must be finite")
	}
	if intrinsics[4] == 0 || intrinsics[5] == 0 {
		return InvalidIntrinsicsError(KannalaBrandtModelType, "mu and mv must be non-zero")
	}
	c.k2, c.k3, c.k4, c.k5 = intrinsics[0], intrinsics[1], intrinsics[2], intrinsics[3]
	c.mu, c.mv, c.u0, c.v0 = intrinsics[4], intrinsics[5], intrinsics[6], intrinsics[7]
	return nil
}

func (c *KannalaBrandt) radius(theta float64) float64 {
	t2 := theta * theta
	return theta * (1 + t2*(c.k2+t2*(c.k3+t2*(c.k4+t2*c.k5))))
}

func (c *KannalaBrandt) radiusDerivative(theta float64) float64 {
	t2 := theta * theta
	return 1 + t2*(3*c.k2+t2*(5*c.k3+t2*(7*c.k4+t2*9*c.k5)))
}

// SpaceToPlane projects p onto the image.
func (c *KannalaBrandt) SpaceToPlane(p r3.Vector) r2.Point {
	theta := math.Acos(p.Z / p.Norm())
	phi := math.Atan2(p.Y, p.X)
	r := c.radius(theta)
	return r2.Point{X: c.mu*r*math.Cos(phi) + c.u0, Y: c.mv*r*math.Sin(phi) + c.v0}
}

// LiftProjective returns the unit ray through the pixel.
func (c *KannalaBrandt) LiftProjective(p r2.Point) r3.Vector {
	x := (p.X - c.u0) / c.mu
	y := (p.Y - c.v0) / c.mv
	r := math.Hypot(x, y)
	if r < 1e-10 {
		return r3.Vector{Z: 1}
	}
	theta := c.solveTheta(r)
	phi := math.Atan2(y, x)
	sinTheta := math.Sin(theta)
	return r3.Vector{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: math.Cos(theta)}
}

// solveTheta inverts the distortion polynomial with Newton-Raphson, starting from the undistorted guess.
func (c *KannalaBrandt) solveTheta(r float64) float64 {
	theta := r
	for i := 0; i < thetaIterations; i++ {
		d := c.radiusDerivative(theta)
		if d == 0 {
			break
		}
		step := (c.radius(theta) - r) / d
		theta -= step
		if math.Abs(step) < thetaTolerance {
			break
		}
	}
	return theta
}
