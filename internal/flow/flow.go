// Package flow provides the optical-flow backends used for temporal and
// stereo correspondence search. All backends implement the same contract:
// map a set of points from one image into another and report per-point
// success, with an optional seeded fast path.
package flow

import (
	"gocv.io/x/gocv"
)

// Search window and termination tuning shared by the backends.
const (
	// WindowSize is the side of the square search window, in pixels.
	WindowSize = 21
	// FullPyramidLevels is the maximum pyramid level of the full search.
	FullPyramidLevels = 3
	// SeededPyramidLevels is the maximum pyramid level of the fast seeded search.
	SeededPyramidLevels = 1
	// MaxIterations bounds the per-level iterative refinement.
	MaxIterations = 30
	// Epsilon is the convergence threshold of the iterative refinement.
	Epsilon = 0.01
)

// pointsToMat packs points into a single-column two-channel float matrix.
// The caller owns the returned Mat.
func pointsToMat(pts []gocv.Point2f) gocv.Mat {
	m := gocv.NewMatWithSize(len(pts), 1, gocv.MatTypeCV32FC2)
	for i, p := range pts {
		m.SetFloatAt(i, 0, p.X)
		m.SetFloatAt(i, 1, p.Y)
	}
	return m
}

// matToPoints unpacks a single-column two-channel float matrix into points.
func matToPoints(m gocv.Mat) []gocv.Point2f {
	pts := make([]gocv.Point2f, m.Rows())
	for i := range pts {
		v := m.GetVecfAt(i, 0)
		pts[i] = gocv.Point2f{X: v[0], Y: v[1]}
	}
	return pts
}

// statusToBools converts a per-point status matrix into success flags,
// padding with false if the backend returned fewer entries than requested.
func statusToBools(m gocv.Mat, n int) []bool {
	ok := make([]bool, n)
	rows := m.Rows()
	for i := 0; i < n && i < rows; i++ {
		ok[i] = m.GetUCharAt(i, 0) == 1
	}
	return ok
}
