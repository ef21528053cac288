//go:build cuda

package flow

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/cuda"
)

// CUDA is the accelerator-parallel sparse pyramidal Lucas-Kanade backend.
// The dispatch is synchronous at this boundary: each Calc is followed by a
// download of the results before they are consulted.
type CUDA struct {
	full   cuda.SparsePyrLKOpticalFlow
	seeded cuda.SparsePyrLKOpticalFlow
}

// NewCUDA creates the CUDA backend. Requires OpenCV built with CUDA support.
func NewCUDA() (*CUDA, error) {
	return &CUDA{
		full: cuda.NewSparsePyrLKOpticalFlowWithParams(
			image.Pt(WindowSize, WindowSize), FullPyramidLevels, MaxIterations, false),
		seeded: cuda.NewSparsePyrLKOpticalFlowWithParams(
			image.Pt(WindowSize, WindowSize), SeededPyramidLevels, MaxIterations, true),
	}, nil
}

// Track maps pts from prev into cur on the GPU.
func (b *CUDA) Track(prev, cur gocv.Mat, pts, seed []gocv.Point2f) ([]gocv.Point2f, []bool, error) {
	if len(pts) == 0 {
		return nil, nil, nil
	}
	if prev.Empty() || cur.Empty() {
		return nil, nil, fmt.Errorf("flow: empty input image")
	}
	if seed != nil && len(seed) != len(pts) {
		return nil, nil, fmt.Errorf("flow: %d seeds for %d points", len(seed), len(pts))
	}

	gPrev := cuda.NewGpuMat()
	defer gPrev.Close()
	gCur := cuda.NewGpuMat()
	defer gCur.Close()
	gPrev.Upload(prev)
	gCur.Upload(cur)

	prevMat := pointsToMat(pts)
	defer prevMat.Close()
	gPrevPts := cuda.NewGpuMat()
	defer gPrevPts.Close()
	gPrevPts.Upload(prevMat)

	gCurPts := cuda.NewGpuMat()
	defer gCurPts.Close()
	gStatus := cuda.NewGpuMat()
	defer gStatus.Close()

	algo := b.full
	if seed != nil {
		seedMat := pointsToMat(seed)
		defer seedMat.Close()
		gCurPts.Upload(seedMat)
		algo = b.seeded
	}
	algo.Calc(gPrev, gCur, gPrevPts, &gCurPts, &gStatus)

	curMat := gocv.NewMat()
	defer curMat.Close()
	gCurPts.Download(&curMat)
	status := gocv.NewMat()
	defer status.Close()
	gStatus.Download(&status)

	// The GPU path returns row vectors; normalize to one point per row.
	out := make([]gocv.Point2f, 0, len(pts))
	if curMat.Rows() == 1 {
		for i := 0; i < curMat.Cols(); i++ {
			out = append(out, gocv.Point2f{
				X: curMat.GetFloatAt(0, i*2),
				Y: curMat.GetFloatAt(0, i*2+1),
			})
		}
	} else {
		out = matToPoints(curMat)
	}
	if len(out) != len(pts) {
		return nil, nil, fmt.Errorf("flow: backend returned %d points for %d inputs", len(out), len(pts))
	}

	ok := make([]bool, len(pts))
	if status.Rows() == 1 {
		for i := 0; i < len(pts) && i < status.Cols(); i++ {
			ok[i] = status.GetUCharAt(0, i) == 1
		}
	} else {
		ok = statusToBools(status, len(pts))
	}
	return out, ok, nil
}

// Close releases the GPU algorithm handles.
func (b *CUDA) Close() error {
	b.full.Close()
	b.seeded.Close()
	return nil
}
