package flow

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// LK is the CPU pyramidal Lucas-Kanade backend. The zero value is not usable;
// construct with NewLK.
type LK struct {
	winSize  image.Point
	criteria gocv.TermCriteria
}

// NewLK creates the CPU Lucas-Kanade backend with the standard tuning: a
// 21x21 search window and 30-iteration 0.01-epsilon refinement.
func NewLK() *LK {
	return &LK{
		winSize:  image.Pt(WindowSize, WindowSize),
		criteria: gocv.NewTermCriteria(gocv.Count+gocv.EPS, MaxIterations, Epsilon),
	}
}

// Track maps pts from prev into cur. With a nil seed it runs the full
// multi-level pyramidal search; with a seed it runs the fast shallow search
// initialized at the seeded positions.
func (b *LK) Track(prev, cur gocv.Mat, pts, seed []gocv.Point2f) ([]gocv.Point2f, []bool, error) {
	if len(pts) == 0 {
		return nil, nil, nil
	}
	if prev.Empty() || cur.Empty() {
		return nil, nil, fmt.Errorf("flow: empty input image")
	}
	if seed != nil && len(seed) != len(pts) {
		return nil, nil, fmt.Errorf("flow: %d seeds for %d points", len(seed), len(pts))
	}

	prevMat := pointsToMat(pts)
	defer prevMat.Close()

	var curMat gocv.Mat
	maxLevel := FullPyramidLevels
	flags := 0
	if seed != nil {
		curMat = pointsToMat(seed)
		maxLevel = SeededPyramidLevels
		flags = gocv.OptflowUseInitialFlow
	} else {
		curMat = gocv.NewMat()
	}
	defer curMat.Close()

	status := gocv.NewMat()
	defer status.Close()
	errs := gocv.NewMat()
	defer errs.Close()

	gocv.CalcOpticalFlowPyrLKWithParams(prev, cur, prevMat, curMat, &status, &errs,
		b.winSize, maxLevel, b.criteria, flags, 1e-4)

	out := matToPoints(curMat)
	if len(out) != len(pts) {
		return nil, nil, fmt.Errorf("flow: backend returned %d points for %d inputs", len(out), len(pts))
	}
	return out, statusToBools(status, len(pts)), nil
}

// Close is a no-op; the CPU backend holds no resources between calls.
func (b *LK) Close() error {
	return nil
}
