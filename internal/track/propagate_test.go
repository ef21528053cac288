package track

import (
	"testing"

	"gocv.io/x/gocv"
)

func testImages(t *testing.T) (gocv.Mat, gocv.Mat) {
	t.Helper()
	prev := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	cur := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	t.Cleanup(func() {
		prev.Close()
		cur.Close()
	})
	return prev, cur
}

func allTrue(n int) []bool {
	ok := make([]bool, n)
	for i := range ok {
		ok[i] = true
	}
	return ok
}

func TestPropagate_FullSearchWithoutSeed(t *testing.T) {
	prev, cur := testImages(t)
	backend := NewMockFlow()

	pts := []gocv.Point2f{pt(100, 100), pt(200, 200)}
	_, ok, err := propagate(backend, prev, cur, pts, nil, false, 640, 480)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if len(ok) != 2 || !ok[0] || !ok[1] {
		t.Errorf("expected both points valid, got %v", ok)
	}
	calls := backend.Calls()
	if len(calls) != 1 || calls[0].Seeded {
		t.Errorf("expected exactly one unseeded call, got %+v", calls)
	}
}

func TestPropagate_SeededFallbackBelowThreshold(t *testing.T) {
	prev, cur := testImages(t)
	backend := NewMockFlow()

	// 12 points, but the seeded pass only finds 9 — one short of the
	// threshold — so the full search must run.
	n := 12
	pts := make([]gocv.Point2f, n)
	seed := make([]gocv.Point2f, n)
	for i := range pts {
		pts[i] = pt(float32(50+i*40), 100)
		seed[i] = pt(float32(52+i*40), 101)
	}
	seededOK := allTrue(n)
	seededOK[0], seededOK[1], seededOK[2] = false, false, false
	backend.Push(pts, seededOK)
	backend.Push(pts, allTrue(n))

	_, ok, err := propagate(backend, prev, cur, pts, seed, false, 640, 480)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	calls := backend.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected seeded attempt plus fallback, got %d calls", len(calls))
	}
	if !calls[0].Seeded || calls[1].Seeded {
		t.Errorf("expected [seeded, full] call sequence, got %+v", calls)
	}
	for i, v := range ok {
		if !v {
			t.Errorf("point %d: expected valid after fallback", i)
		}
	}
}

func TestPropagate_SeededAcceptedAboveThreshold(t *testing.T) {
	prev, cur := testImages(t)
	backend := NewMockFlow()

	n := 12
	pts := make([]gocv.Point2f, n)
	for i := range pts {
		pts[i] = pt(float32(50+i*40), 100)
	}
	seededOK := allTrue(n)
	seededOK[0] = false // 11 successes, above the threshold of 10
	backend.Push(pts, seededOK)

	_, _, err := propagate(backend, prev, cur, pts, pts, false, 640, 480)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if calls := backend.Calls(); len(calls) != 1 {
		t.Errorf("expected no fallback call, got %d calls", len(calls))
	}
}

func TestPropagate_ForwardBackwardGate(t *testing.T) {
	prev, cur := testImages(t)
	backend := NewMockFlow()

	pts := []gocv.Point2f{pt(100, 100), pt(200, 200)}
	fwd := []gocv.Point2f{pt(102, 100), pt(202, 200)}
	// First point tracks back to its origin; the second lands 1.0 px off,
	// beyond the 0.5 px round-trip tolerance.
	back := []gocv.Point2f{pt(100, 100), pt(201, 200)}

	backend.Push(fwd, allTrue(2))
	backend.Push(back, allTrue(2))

	_, ok, err := propagate(backend, prev, cur, pts, nil, true, 640, 480)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if !ok[0] {
		t.Error("consistent point rejected by forward-backward check")
	}
	if ok[1] {
		t.Error("point with 1.0 px round-trip error passed the 0.5 px gate")
	}
}

func TestPropagate_BorderInvalidation(t *testing.T) {
	prev, cur := testImages(t)
	backend := NewMockFlow()

	pts := []gocv.Point2f{pt(100, 100), pt(5, 5)}
	moved := []gocv.Point2f{pt(101, 100), pt(-3, 5)}
	backend.Push(moved, allTrue(2))

	_, ok, err := propagate(backend, prev, cur, pts, nil, false, 640, 480)
	if err != nil {
		t.Fatalf("propagate failed: %v", err)
	}

	if !ok[0] {
		t.Error("interior point invalidated")
	}
	if ok[1] {
		t.Error("point at x=-3 should fall outside the 1 px border")
	}
}

func TestMatchStereo_SubsetAndGate(t *testing.T) {
	left, right := testImages(t)
	backend := NewMockFlow()

	leftPts := []gocv.Point2f{pt(100, 100), pt(200, 200), pt(300, 300)}
	rightPts := []gocv.Point2f{pt(90, 100), pt(190, 200), pt(290, 300)}
	backRight := []gocv.Point2f{pt(100, 100), pt(202, 200), pt(300, 300)}
	fwdOK := allTrue(3)
	fwdOK[2] = false

	backend.Push(rightPts, fwdOK)
	backend.Push(backRight, allTrue(3))

	_, ok, err := matchStereo(backend, left, right, leftPts, true, 640, 480)
	if err != nil {
		t.Fatalf("matchStereo failed: %v", err)
	}

	if !ok[0] {
		t.Error("consistent stereo match rejected")
	}
	if ok[1] {
		t.Error("stereo match with 2 px round-trip error accepted")
	}
	if ok[2] {
		t.Error("forward failure accepted")
	}
}
