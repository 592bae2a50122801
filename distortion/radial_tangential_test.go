package distortion

import (
	"testing"

	"go.viam.com/test"
)

func TestNewRadialTangential(t *testing.T) {
	rt, err := NewRadialTangential(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rt.Parameters(), test.ShouldResemble, []float64{0, 0, 0, 0, 0})

	rt, err = NewRadialTangential([]float64{0.1, 0.2, 0.3, 0.4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rt.RadialK1, test.ShouldEqual, 0.1)
	test.That(t, rt.RadialK2, test.ShouldEqual, 0.2)
	test.That(t, rt.TangentialP1, test.ShouldEqual, 0.3)
	test.That(t, rt.TangentialP2, test.ShouldEqual, 0.4)
	test.That(t, rt.RadialK3, test.ShouldEqual, 0)

	_, err = NewRadialTangential([]float64{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "too long")

	var nilRT *RadialTangential
	test.That(t, nilRT.CheckValid(), test.ShouldNotBeNil)
	x, y := nilRT.Transform(0.3, 0.4)
	test.That(t, x, test.ShouldEqual, 0.3)
	test.That(t, y, test.ShouldEqual, 0.4)
}

func TestNewDistorter(t *testing.T) {
	d, err := NewDistorter(RadialTangentialDistortionType, []float64{-0.28, 0.07})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.ModelType(), test.ShouldEqual, RadialTangentialDistortionType)

	inv, err := NewDistorter(InverseRadialTangentialDistortionType, []float64{-0.28, 0.07})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv.ModelType(), test.ShouldEqual, InverseRadialTangentialDistortionType)
	test.That(t, inv.Parameters(), test.ShouldResemble, d.Parameters())

	_, err = NewDistorter(DistortionType("fisheye62"), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUndistortInvertsTransform(t *testing.T) {
	rt, err := NewRadialTangential([]float64{-0.28, 0.07, 1.2e-4, -3.5e-5, 0.01})
	test.That(t, err, test.ShouldBeNil)
	inv := rt.Inverse()
	for _, pt := range [][2]float64{{0, 0}, {0.1, -0.2}, {-0.4, 0.3}, {0.5, 0.5}, {-0.6, -0.1}} {
		xd, yd := rt.Transform(pt[0], pt[1])
		xu, yu := inv.Transform(xd, yd)
		test.That(t, xu, test.ShouldAlmostEqual, pt[0], 1e-12)
		test.That(t, yu, test.ShouldAlmostEqual, pt[1], 1e-12)
	}
}
