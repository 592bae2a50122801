package distortion

import (
	"math"

	"github.com/pkg/errors"
)

// RadialTangential is the Brown-Conrady lens distortion model on normalized coordinates:
//
//	x_d = x_u * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x_u*y_u + p2*(r² + 2*x_u²)
//	y_d = y_u * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x_u*y_u + p1*(r² + 2*y_u²)
type RadialTangential struct {
	RadialK1     float64 `json:"rk1" yaml:"rk1"`
	RadialK2     float64 `json:"rk2" yaml:"rk2"`
	RadialK3     float64 `json:"rk3" yaml:"rk3"`
	TangentialP1 float64 `json:"tp1" yaml:"tp1"`
	TangentialP2 float64 `json:"tp2" yaml:"tp2"`
}

// NewRadialTangential takes coefficients in the OpenCV order k1, k2, p1, p2, k3.
// Missing trailing values are zero.
func NewRadialTangential(inp []float64) (*RadialTangential, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected max 5, got %d", len(inp))
	}
	padded := make([]float64, 5)
	copy(padded, inp)
	for _, v := range padded {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InvalidDistortionError("coefficients must be finite")
		}
	}
	return &RadialTangential{
		RadialK1:     padded[0],
		RadialK2:     padded[1],
		TangentialP1: padded[2],
		TangentialP2: padded[3],
		RadialK3:     padded[4],
	}, nil
}

// CheckValid checks if the fields for RadialTangential have valid inputs.
func (rt *RadialTangential) CheckValid() error {
	if rt == nil {
		return InvalidDistortionError("RadialTangential shaped distortion_parameters not provided")
	}
	return nil
}

// ModelType returns the type of distortion model.
func (rt *RadialTangential) ModelType() DistortionType {
	return RadialTangentialDistortionType
}

// Parameters returns the coefficients in the OpenCV order k1, k2, p1, p2, k3.
func (rt *RadialTangential) Parameters() []float64 {
	if rt == nil {
		return []float64{}
	}
	return []float64{rt.RadialK1, rt.RadialK2, rt.TangentialP1, rt.TangentialP2, rt.RadialK3}
}

// Transform distorts the undistorted normalized point (x, y).
func (rt *RadialTangential) Transform(x, y float64) (float64, float64) {
	if rt == nil {
		return x, y
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radDist := 1.0 + rt.RadialK1*r2 + rt.RadialK2*r4 + rt.RadialK3*r6
	xd := x*radDist + 2.0*rt.TangentialP1*x*y + rt.TangentialP2*(r2+2.0*x*x)
	yd := y*radDist + 2.0*rt.TangentialP2*x*y + rt.TangentialP1*(r2+2.0*y*y)
	return xd, yd
}

// Undistort finds the undistorted normalized point that Transform maps onto (xd, yd). It uses
// Newton-Raphson iterations starting from the distorted point.
func (rt *RadialTangential) Undistort(xd, yd float64) (float64, float64) {
	if rt == nil {
		return xd, yd
	}

	xu, yu := xd, yd

	const maxIterations = 30
	const tolerance = 1e-14

	for i := 0; i < maxIterations; i++ {
		r2 := xu*xu + yu*yu
		r4 := r2 * r2

		xdEst, ydEst := rt.Transform(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		// J = [[dxd/dxu, dxd/dyu], [dyd/dxu, dyd/dyu]]
		radDist := 1.0 + rt.RadialK1*r2 + rt.RadialK2*r4 + rt.RadialK3*r4*r2
		dRad := rt.RadialK1 + 2.0*rt.RadialK2*r2 + 3.0*rt.RadialK3*r4
		dRadDistDxu := 2.0 * xu * dRad
		dRadDistDyu := 2.0 * yu * dRad

		dxdDxu := radDist + xu*dRadDistDxu + 2.0*rt.TangentialP1*yu + 6.0*rt.TangentialP2*xu
		dxdDyu := xu*dRadDistDyu + 2.0*rt.TangentialP1*xu + 2.0*rt.TangentialP2*yu
		dydDxu := yu*dRadDistDxu + 2.0*rt.TangentialP2*yu + 2.0*rt.TangentialP1*xu
		dydDyu := radDist + yu*dRadDistDyu + 2.0*rt.TangentialP2*xu + 6.0*rt.TangentialP1*yu

		det := dxdDxu*dydDyu - dxdDyu*dydDxu
		if det == 0 {
			break
		}

		xu -= (dydDyu*errX - dxdDyu*errY) / det
		yu -= (-dydDxu*errX + dxdDxu*errY) / det
	}

	return xu, yu
}

// Inverse returns a Distorter whose Transform undistorts.
func (rt *RadialTangential) Inverse() Distorter {
	return &inverseRadialTangential{rt}
}

type inverseRadialTangential struct {
	forward *RadialTangential
}

func (irt *inverseRadialTangential) ModelType() DistortionType {
	return InverseRadialTangentialDistortionType
}

func (irt *inverseRadialTangential) CheckValid() error {
	return irt.forward.CheckValid()
}

func (irt *inverseRadialTangential) Parameters() []float64 {
	return irt.forward.Parameters()
}

func (irt *inverseRadialTangential) Transform(x, y float64) (float64, float64) {
	return irt.forward.Undistort(x, y)
}
