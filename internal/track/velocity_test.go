package track

import (
	"testing"

	"github.com/quillvision/viofront/internal/camera"
)

func TestPtsVelocity_FiniteDifference(t *testing.T) {
	// Two frames 0.1s apart; the point moved by (0.02, 0) on the normalized
	// plane, so velocity is (0.2, 0).
	prev := map[int64]camera.Vec2{5: {X: 0.10, Y: 0.30}}
	cur := []camera.Vec2{{X: 0.12, Y: 0.30}}

	vel, _ := ptsVelocity(0.1, []int64{5}, cur, prev)

	if !almostEqual(vel[0].X, 0.2) || !almostEqual(vel[0].Y, 0) {
		t.Errorf("expected velocity (0.2, 0), got (%f, %f)", vel[0].X, vel[0].Y)
	}
}

func TestPtsVelocity_UnknownIDIsZero(t *testing.T) {
	prev := map[int64]camera.Vec2{1: {X: 0.5, Y: 0.5}}
	cur := []camera.Vec2{{X: 0.7, Y: 0.7}}

	vel, _ := ptsVelocity(0.1, []int64{2}, cur, prev)

	if vel[0].X != 0 || vel[0].Y != 0 {
		t.Errorf("expected zero velocity for unseen id, got (%f, %f)", vel[0].X, vel[0].Y)
	}
}

func TestPtsVelocity_NoPreviousFrame(t *testing.T) {
	cur := []camera.Vec2{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}

	vel, curMap := ptsVelocity(0.1, []int64{1, 2}, cur, nil)

	for i, v := range vel {
		if v.X != 0 || v.Y != 0 {
			t.Errorf("point %d: expected zero velocity on first frame, got (%f, %f)", i, v.X, v.Y)
		}
	}
	if len(curMap) != 2 {
		t.Errorf("expected map of 2 positions for the next frame, got %d", len(curMap))
	}
	if p := curMap[2]; !almostEqual(p.X, 0.3) || !almostEqual(p.Y, 0.4) {
		t.Errorf("map entry for id 2 wrong: (%f, %f)", p.X, p.Y)
	}
}
