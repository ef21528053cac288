package camera

import (
	"math"
	"testing"
)

func TestPinhole_LiftProjective_NoDistortion(t *testing.T) {
	cam := NewPinhole(640, 480, 460, 460, 320, 240)

	// Principal point lifts to the optical axis.
	ray := cam.LiftProjective(Vec2{X: 320, Y: 240})
	if ray.X != 0 || ray.Y != 0 || ray.Z != 1 {
		t.Errorf("expected (0,0,1) at principal point, got (%f,%f,%f)", ray.X, ray.Y, ray.Z)
	}

	// One focal length right of center lifts to x=1 on the z=1 plane.
	ray = cam.LiftProjective(Vec2{X: 780, Y: 240})
	if math.Abs(ray.X-1) > 1e-12 || math.Abs(ray.Y) > 1e-12 {
		t.Errorf("expected (1,0,1), got (%f,%f,%f)", ray.X, ray.Y, ray.Z)
	}
}

func TestPinhole_RoundTrip_NoDistortion(t *testing.T) {
	cam := NewPinhole(640, 480, 460, 455, 321.5, 238.2)

	pts := []Vec2{
		{X: 100, Y: 50},
		{X: 320, Y: 240},
		{X: 639, Y: 479},
		{X: 12.25, Y: 400.75},
	}
	for _, p := range pts {
		back := cam.SpaceToPlane(cam.LiftProjective(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip of (%f,%f) gave (%f,%f)", p.X, p.Y, back.X, back.Y)
		}
	}
}

func TestPinhole_RoundTrip_WithDistortion(t *testing.T) {
	cam := &Pinhole{
		Width: 752, Height: 480,
		Fx: 461.6, Fy: 460.3,
		Cx: 363.0, Cy: 248.1,
		K1: -0.28, K2: 0.07, P1: 0.0002, P2: 0.00002,
	}

	// Iterative undistortion should invert SpaceToPlane to well under a
	// hundredth of a pixel away from the border.
	pts := []Vec2{
		{X: 200, Y: 150},
		{X: 363, Y: 248},
		{X: 500, Y: 350},
	}
	for _, p := range pts {
		back := cam.SpaceToPlane(cam.LiftProjective(p))
		if math.Abs(back.X-p.X) > 0.01 || math.Abs(back.Y-p.Y) > 0.01 {
			t.Errorf("round trip of (%f,%f) gave (%f,%f)", p.X, p.Y, back.X, back.Y)
		}
	}
}

func TestPinhole_SpaceToPlane_ScaleInvariant(t *testing.T) {
	cam := NewPinhole(640, 480, 460, 460, 320, 240)

	a := cam.SpaceToPlane(Vec3{X: 0.1, Y: -0.2, Z: 1})
	b := cam.SpaceToPlane(Vec3{X: 0.5, Y: -1.0, Z: 5})
	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Errorf("projection should be scale invariant: (%f,%f) vs (%f,%f)", a.X, a.Y, b.X, b.Y)
	}
}
