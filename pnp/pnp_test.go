package pnp

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/plushpluto/MYNT-EYE-S-SDK/distortion"
	"github.com/plushpluto/MYNT-EYE-S-SDK/spatialmath"
)

func cameraMatrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		500, 0, 320,
		0, 480, 240,
		0, 0, 1,
	})
}

func project(obj []r3.Vector, rvec, tvec r3.Vector, k *mat.Dense, dist []float64) []r2.Point {
	rm := spatialmath.R3ToRotationMatrix(rvec)
	var rt *distortion.RadialTangential
	if len(dist) > 0 {
		rt, _ = distortion.NewRadialTangential(dist)
	}
	out := make([]r2.Point, len(obj))
	for i, p := range obj {
		pc := rm.Mul(p).Add(tvec)
		x, y := pc.X/pc.Z, pc.Y/pc.Z
		if rt != nil {
			x, y = rt.Transform(x, y)
		}
		out[i] = r2.Point{X: k.At(0, 0)*x + k.At(0, 2), Y: k.At(1, 1)*y + k.At(1, 2)}
	}
	return out
}

func cubePoints() []r3.Vector {
	return []r3.Vector{
		{0, 0, 0}, {0.3, 0, 0}, {0, 0.3, 0}, {0, 0, 0.3},
		{0.3, 0.3, 0}, {0.3, 0, 0.3}, {0, 0.3, 0.3}, {0.3, 0.3, 0.3},
		{0.15, 0.05, 0.2},
	}
}

func gridPoints() []r3.Vector {
	var pts []r3.Vector
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			pts = append(pts, r3.Vector{X: 0.1 * float64(i), Y: 0.1 * float64(j)})
		}
	}
	return pts
}

func checkPose(t *testing.T, rvec, tvec, wantR, wantT r3.Vector) {
	t.Helper()
	angle := spatialmath.AngleBetween(spatialmath.R3ToRotationMatrix(rvec), spatialmath.R3ToRotationMatrix(wantR))
	test.That(t, angle, test.ShouldBeLessThan, 1e-6)
	test.That(t, tvec.X, test.ShouldAlmostEqual, wantT.X, 1e-6)
	test.That(t, tvec.Y, test.ShouldAlmostEqual, wantT.Y, 1e-6)
	test.That(t, tvec.Z, test.ShouldAlmostEqual, wantT.Z, 1e-6)
}

func TestSolve(t *testing.T) {
	wantR := r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}
	wantT := r3.Vector{X: -0.1, Y: 0.05, Z: 1.5}
	k := cameraMatrix()

	t.Run("non-coplanar", func(t *testing.T) {
		obj := cubePoints()
		rvec, tvec, err := Solve(obj, project(obj, wantR, wantT, k, nil), k, nil)
		test.That(t, err, test.ShouldBeNil)
		checkPose(t, rvec, tvec, wantR, wantT)
	})

	t.Run("planar", func(t *testing.T) {
		obj := gridPoints()
		rvec, tvec, err := Solve(obj, project(obj, wantR, wantT, k, nil), k, nil)
		test.That(t, err, test.ShouldBeNil)
		checkPose(t, rvec, tvec, wantR, wantT)
	})

	t.Run("four points", func(t *testing.T) {
		obj := []r3.Vector{{0, 0, 0}, {0.2, 0, 0}, {0.2, 0.2, 0}, {0, 0.25, 0}}
		rvec, tvec, err := Solve(obj, project(obj, wantR, wantT, k, nil), k, nil)
		test.That(t, err, test.ShouldBeNil)
		checkPose(t, rvec, tvec, wantR, wantT)
	})

	t.Run("identity camera", func(t *testing.T) {
		obj := cubePoints()
		img := make([]r2.Point, len(obj))
		rm := spatialmath.R3ToRotationMatrix(wantR)
		for i, p := range obj {
			pc := rm.Mul(p).Add(wantT)
			img[i] = r2.Point{X: pc.X / pc.Z, Y: pc.Y / pc.Z}
		}
		rvec, tvec, err := Solve(obj, img, nil, nil)
		test.That(t, err, test.ShouldBeNil)
		checkPose(t, rvec, tvec, wantR, wantT)
	})

	t.Run("distorted", func(t *testing.T) {
		dist := []float64{-0.2, 0.05, 0.001, -0.0005}
		obj := cubePoints()
		rvec, tvec, err := Solve(obj, project(obj, wantR, wantT, k, dist), k, dist)
		test.That(t, err, test.ShouldBeNil)
		checkPose(t, rvec, tvec, wantR, wantT)
	})
}

// squaredError is the cost refine minimizes, on normalized image points.
func squaredError(obj []r3.Vector, img []r2.Point, rvec, tvec r3.Vector) float64 {
	rm := spatialmath.R3ToRotationMatrix(rvec)
	total := 0.
	for i, p := range obj {
		pc := rm.Mul(p).Add(tvec)
		dx, dy := pc.X/pc.Z-img[i].X, pc.Y/pc.Z-img[i].Y
		total += dx*dx + dy*dy
	}
	return total
}

func TestRefineNoisy(t *testing.T) {
	wantR := r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}
	wantT := r3.Vector{X: -0.1, Y: 0.05, Z: 1.5}
	k := cameraMatrix()
	obj := cubePoints()
	img := project(obj, wantR, wantT, k, nil)
	for i := range img {
		img[i].X += 0.8 * math.Sin(1.7*float64(i)+0.3)
		img[i].Y += 0.8 * math.Cos(2.3*float64(i)+1.1)
	}

	normalized, err := normalizeImagePoints(img, k, nil)
	test.That(t, err, test.ShouldBeNil)
	rot, t0, ok := initDLT(obj, normalized)
	test.That(t, ok, test.ShouldBeTrue)
	r0 := spatialmath.RotationMatrixToR3(rot)
	initial := squaredError(obj, normalized, r0, t0)

	rvec, tvec := refine(obj, normalized, r0, t0)
	refined := squaredError(obj, normalized, rvec, tvec)
	test.That(t, refined, test.ShouldBeLessThanOrEqualTo, initial)
	test.That(t, refined, test.ShouldBeGreaterThan, 0)

	// no nearby pose does better
	x := []float64{rvec.X, rvec.Y, rvec.Z, tvec.X, tvec.Y, tvec.Z}
	for i := range x {
		for _, step := range []float64{-1e-3, 1e-3} {
			moved := append([]float64{}, x...)
			moved[i] += step
			cost := squaredError(obj, normalized,
				r3.Vector{X: moved[0], Y: moved[1], Z: moved[2]}, r3.Vector{X: moved[3], Y: moved[4], Z: moved[5]})
			test.That(t, cost, test.ShouldBeGreaterThanOrEqualTo, refined)
		}
	}

	// Solve runs the same refinement
	solvedR, solvedT, err := Solve(obj, img, k, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solvedR.Sub(rvec).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, solvedT.Sub(tvec).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, solvedT.Sub(wantT).Norm(), test.ShouldBeLessThan, 0.05)
	test.That(t, spatialmath.AngleBetween(spatialmath.R3ToRotationMatrix(solvedR), spatialmath.R3ToRotationMatrix(wantR)),
		test.ShouldBeLessThan, 0.05)
}

func TestSolveErrors(t *testing.T) {
	k := cameraMatrix()
	obj := cubePoints()
	img := project(obj, r3.Vector{}, r3.Vector{Z: 2}, k, nil)

	_, _, err := Solve(obj[:3], img[:3], k, nil)
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

	_, _, err = Solve(obj, img[:5], k, nil)
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

	_, _, err = Solve(obj, img, mat.NewDense(2, 2, nil), nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = Solve(obj, img, mat.NewDense(3, 3, nil), nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = Solve(obj, img, k, []float64{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsPlanar(t *testing.T) {
	test.That(t, isPlanar(gridPoints()), test.ShouldBeTrue)
	test.That(t, isPlanar(cubePoints()), test.ShouldBeFalse)

	// a tilted plane is still a plane
	tilt := spatialmath.R3ToRotationMatrix(r3.Vector{X: 0.4, Y: 0.7})
	var tilted []r3.Vector
	for _, p := range gridPoints() {
		tilted = append(tilted, tilt.Mul(p).Add(r3.Vector{X: 1, Y: 2, Z: 3}))
	}
	test.That(t, isPlanar(tilted), test.ShouldBeTrue)
}
