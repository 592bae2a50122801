package cameramodels

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/plushpluto/MYNT-EYE-S-SDK/pnp"
	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

// normalizedProjector projects onto the plane z = 1 without any intrinsics.
type normalizedProjector struct{}

func (normalizedProjector) SpaceToPlane(p r3.Vector) r2.Point {
	return r2.Point{X: p.X / p.Z, Y: p.Y / p.Z}
}

func (normalizedProjector) LiftProjective(p r2.Point) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: 1}
}

// offsetView returns n object points on z = 1 and observations shifted from their projections by d.
func offsetView(n int, d float64) ([]r3.Vector, []r2.Point) {
	obj := make([]r3.Vector, n)
	img := make([]r2.Point, n)
	for i := 0; i < n; i++ {
		obj[i] = r3.Vector{X: float64(i), Y: float64(-i), Z: 1}
		img[i] = r2.Point{X: float64(i) + d, Y: float64(-i)}
	}
	return obj, img
}

func cubePoints() []r3.Vector {
	return []r3.Vector{
		{0, 0, 0}, {0.3, 0, 0}, {0, 0.3, 0}, {0, 0, 0.3},
		{0.3, 0.3, 0}, {0.3, 0, 0.3}, {0, 0.3, 0.3}, {0.3, 0.3, 0.3},
		{0.15, 0.05, 0.2}, {-0.1, 0.2, 0.1},
	}
}

func boardPoints() []r3.Vector {
	var pts []r3.Vector
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			pts = append(pts, r3.Vector{X: 0.05 * float64(i), Y: 0.05 * float64(j)})
		}
	}
	return pts
}

func TestProjectPoints(t *testing.T) {
	for _, cam := range testCameras(t) {
		pts := testSpacePoints()
		projected := ProjectPoints(cam, pts, r3.Vector{}, r3.Vector{})
		test.That(t, len(projected), test.ShouldEqual, len(pts))
		for i, p := range pts {
			direct := cam.SpaceToPlane(p)
			test.That(t, projected[i].X, test.ShouldAlmostEqual, direct.X, 1e-12)
			test.That(t, projected[i].Y, test.ShouldAlmostEqual, direct.Y, 1e-12)
		}
	}

	test.That(t, ProjectPoints(normalizedProjector{}, nil, r3.Vector{X: 1}, r3.Vector{}), test.ShouldBeEmpty)

	// a quarter turn about z moves x onto y
	projected := ProjectPoints(normalizedProjector{}, []r3.Vector{{X: 1, Z: 0}}, r3.Vector{Z: math.Pi / 2},
		r3.Vector{Z: 2})
	test.That(t, projected[0].X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, projected[0].Y, test.ShouldAlmostEqual, 0.5, 1e-12)
}

func TestReprojectionErrorWeighting(t *testing.T) {
	cam := normalizedProjector{}
	zero := []r3.Vector{{}, {}}

	t.Run("equal errors", func(t *testing.T) {
		obj1, img1 := offsetView(3, 2)
		obj2, img2 := offsetView(5, 2)
		mean, perView, err := ReprojectionError(cam, [][]r3.Vector{obj1, obj2}, [][]r2.Point{img1, img2}, zero, zero)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mean, test.ShouldEqual, 2.0)
		test.That(t, perView, test.ShouldResemble, []float64{2.0, 2.0})
	})

	t.Run("unequal errors", func(t *testing.T) {
		obj1, img1 := offsetView(3, 1)
		obj2, img2 := offsetView(5, 3)
		mean, perView, err := ReprojectionError(cam, [][]r3.Vector{obj1, obj2}, [][]r2.Point{img1, img2}, zero, zero)
		test.That(t, err, test.ShouldBeNil)
		// (3*1 + 5*3) / 8, not (1 + 3) / 2
		test.That(t, mean, test.ShouldEqual, 2.25)
		test.That(t, perView, test.ShouldResemble, []float64{1.0, 3.0})
	})

	t.Run("empty view", func(t *testing.T) {
		obj1, img1 := offsetView(4, 1.5)
		mean, perView, err := ReprojectionError(cam, [][]r3.Vector{obj1, nil}, [][]r2.Point{img1, nil}, zero, zero)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mean, test.ShouldEqual, 1.5)
		test.That(t, perView, test.ShouldResemble, []float64{1.5, 0})
	})

	t.Run("size mismatch", func(t *testing.T) {
		obj1, img1 := offsetView(3, 1)
		_, _, err := ReprojectionError(cam, [][]r3.Vector{obj1}, [][]r2.Point{img1[:2]}, zero[:1], zero[:1])
		test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
		_, _, err = ReprojectionError(cam, [][]r3.Vector{obj1}, [][]r2.Point{img1}, zero, zero[:1])
		test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
	})
}

func TestErrorMetricsNonNegative(t *testing.T) {
	rvec := r3.Vector{X: 0.1, Y: 0.2, Z: -0.1}
	tvec := r3.Vector{X: 0.05, Y: -0.02, Z: 1.3}
	q := spatialmath.R3ToRotationMatrix(rvec).Quaternion()
	obj := cubePoints()

	for _, cam := range testCameras(t) {
		exact := ProjectPoints(cam, obj, rvec, tvec)
		noisy := make([]r2.Point, len(exact))
		for i, p := range exact {
			noisy[i] = p.Add(r2.Point{X: 0.5 * float64(i%3), Y: -0.25 * float64(i%2)})
		}

		mean, perView, err := ReprojectionError(cam, [][]r3.Vector{obj}, [][]r2.Point{exact},
			[]r3.Vector{rvec}, []r3.Vector{tvec})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mean, test.ShouldEqual, 0)
		test.That(t, perView[0], test.ShouldEqual, 0)

		mean, _, err = ReprojectionError(cam, [][]r3.Vector{obj}, [][]r2.Point{noisy},
			[]r3.Vector{rvec}, []r3.Vector{tvec})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mean, test.ShouldBeGreaterThan, 0)

		for i, p := range obj {
			test.That(t, PointReprojectionError(cam, p, q, tvec, exact[i]), test.ShouldBeLessThan, 1e-9)
			test.That(t, PointReprojectionError(cam, p, q, tvec, noisy[i]), test.ShouldBeGreaterThanOrEqualTo, 0)
		}

		p1 := r3.Vector{X: 0.2, Y: 0.1, Z: 1}
		test.That(t, ReprojectionDist(cam, p1, p1), test.ShouldEqual, 0)
		test.That(t, ReprojectionDist(cam, p1, p1.Mul(3)), test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, ReprojectionDist(cam, p1, r3.Vector{X: -0.2, Y: 0.1, Z: 1}), test.ShouldBeGreaterThan, 0)
		test.That(t, ReprojectionDist(cam, p1, r3.Vector{X: -0.2, Y: 0.1, Z: 1}), test.ShouldAlmostEqual,
			ReprojectionDist(cam, r3.Vector{X: -0.2, Y: 0.1, Z: 1}, p1), 1e-12)
	}
}

func TestPointReprojectionErrorUnnormalizedQuaternion(t *testing.T) {
	cam := normalizedProjector{}
	q := spatialmath.R3ToRotationMatrix(r3.Vector{Y: 0.3}).Quaternion()
	scaled := q
	scaled.Real, scaled.Imag, scaled.Jmag, scaled.Kmag = 2*q.Real, 2*q.Imag, 2*q.Jmag, 2*q.Kmag
	p := r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}
	tvec := r3.Vector{Z: 2}
	observed := r2.Point{X: 0.3, Y: 0.1}
	test.That(t, PointReprojectionError(cam, p, scaled, tvec, observed), test.ShouldAlmostEqual,
		PointReprojectionError(cam, p, q, tvec, observed), 1e-12)
}

func TestLiftSphere(t *testing.T) {
	for _, cam := range testCameras(t) {
		for _, p := range testPixels() {
			test.That(t, LiftSphere(cam, p).Norm(), test.ShouldAlmostEqual, 1, 1e-12)
		}
	}
}

func TestEstimateExtrinsics(t *testing.T) {
	wantR := r3.Vector{X: 0.2, Y: -0.1, Z: 0.15}
	wantT := r3.Vector{X: -0.1, Y: 0.05, Z: 1.2}
	wantQ := spatialmath.R3ToRotationMatrix(wantR).Quaternion()

	for _, cam := range testCameras(t) {
		for name, obj := range map[string][]r3.Vector{"cube": cubePoints(), "board": boardPoints()} {
			t.Run(string(cam.Parameters().ModelType())+" "+name, func(t *testing.T) {
				img := ProjectPoints(cam, obj, wantR, wantT)
				rvec, tvec, err := EstimateExtrinsics(cam, obj, img)
				test.That(t, err, test.ShouldBeNil)

				gotQ := spatialmath.R3ToRotationMatrix(rvec).Quaternion()
				angle := spatialmath.AngleBetween(spatialmath.NewOrientationFromQuaternion(gotQ),
					spatialmath.NewOrientationFromQuaternion(wantQ))
				test.That(t, angle, test.ShouldBeLessThan, 1e-6)
				test.That(t, tvec.Sub(wantT).Norm(), test.ShouldBeLessThan, 1e-6)

				mean, _, err := ReprojectionError(cam, [][]r3.Vector{obj}, [][]r2.Point{img},
					[]r3.Vector{rvec}, []r3.Vector{tvec})
				test.That(t, err, test.ShouldBeNil)
				test.That(t, mean, test.ShouldBeLessThan, 1e-6)
			})
		}
	}

	cam := testCameras(t)[0]
	obj := cubePoints()
	img := ProjectPoints(cam, obj, wantR, wantT)
	_, _, err := EstimateExtrinsics(cam, obj[:3], img[:3])
	test.That(t, errors.Is(err, pnp.ErrNoSolution), test.ShouldBeTrue)
	_, _, err = EstimateExtrinsics(cam, obj, img[:6])
	test.That(t, errors.Is(err, ErrSizeMismatch), test.ShouldBeTrue)
}

func TestMaskIndependence(t *testing.T) {
	rvec := r3.Vector{X: -0.05, Y: 0.1, Z: 0.02}
	tvec := r3.Vector{Y: 0.03, Z: 1.1}
	obj := cubePoints()

	for _, cam := range testCameras(t) {
		compute := func() ([]r2.Point, r3.Vector, r3.Vector, float64) {
			img := ProjectPoints(cam, obj, rvec, tvec)
			noisy := make([]r2.Point, len(img))
			for i, p := range img {
				noisy[i] = p.Add(r2.Point{X: 0.3})
			}
			r, tr, err := EstimateExtrinsics(cam, obj, img)
			test.That(t, err, test.ShouldBeNil)
			mean, _, err := ReprojectionError(cam, [][]r3.Vector{obj}, [][]r2.Point{noisy},
				[]r3.Vector{rvec}, []r3.Vector{tvec})
			test.That(t, err, test.ShouldBeNil)
			return img, r, tr, mean
		}

		img1, r1, t1, e1 := compute()
		mask := image.NewGray(image.Rect(0, 0, testWidth, testHeight))
		test.That(t, cam.SetMask(mask), test.ShouldBeNil)
		img2, r2v, t2, e2 := compute()
		test.That(t, cam.SetMask(nil), test.ShouldBeNil)
		img3, r3v, t3, e3 := compute()

		test.That(t, img2, test.ShouldResemble, img1)
		test.That(t, img3, test.ShouldResemble, img1)
		test.That(t, r2v, test.ShouldResemble, r1)
		test.That(t, r3v, test.ShouldResemble, r1)
		test.That(t, t2, test.ShouldResemble, t1)
		test.That(t, t3, test.ShouldResemble, t1)
		test.That(t, e2, test.ShouldEqual, e1)
		test.That(t, e3, test.ShouldEqual, e1)
	}
}
