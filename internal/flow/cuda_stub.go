//go:build !cuda

package flow

import (
	"errors"

	"gocv.io/x/gocv"
)

// CUDA is unavailable in this build; requesting it fails at construction so
// a misconfigured deployment is caught at setup, never mid-stream.
type CUDA struct{}

// NewCUDA reports that the accelerator backend was not compiled in.
func NewCUDA() (*CUDA, error) {
	return nil, errors.New("flow: cuda backend not built in (rebuild with -tags cuda)")
}

// Track is never reachable in this build.
func (b *CUDA) Track(prev, cur gocv.Mat, pts, seed []gocv.Point2f) ([]gocv.Point2f, []bool, error) {
	return nil, nil, errors.New("flow: cuda backend not built in")
}

// Close is a no-op.
func (b *CUDA) Close() error {
	return nil
}
