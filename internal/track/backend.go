package track

import (
	"math"

	"gocv.io/x/gocv"
)

// FlowBackend computes new point locations between two images. Multiple
// implementations (CPU pyramidal search, accelerator-parallel search) are
// functionally equivalent at this interface; one is selected at construction.
//
// A dispatch is synchronous from the caller's perspective: any internal
// submit/wait overlap is the backend's own business.
type FlowBackend interface {
	// Track maps each point in pts from prev to cur. When seed is nil the
	// backend runs its full multi-level pyramidal search; when seed is
	// non-nil (index-aligned with pts) it runs a fast single-level search
	// initialized at the seeded positions. Returns the new locations and a
	// per-point success flag, both index-aligned with pts.
	Track(prev, cur gocv.Mat, pts, seed []gocv.Point2f) ([]gocv.Point2f, []bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// CornerDetector proposes new candidate feature locations in an image,
// restricted to the unclaimed region of the coverage mask.
type CornerDetector interface {
	// Detect returns up to maxCount ranked candidates whose pixels are free
	// in mask.
	Detect(img gocv.Mat, mask *Mask, maxCount int) ([]gocv.Point2f, error)

	// Close releases any resources held by the detector.
	Close() error
}

// GeometricVerifier flags correspondences that are inconsistent with a single
// rigid camera motion. Used by the optional epipolar rejection gate.
type GeometricVerifier interface {
	// Verify returns an index-aligned keep flag for each prev/cur pair.
	Verify(prev, cur []gocv.Point2f) ([]bool, error)
}

// borderSize is the inset border of the valid image interior: a track whose
// rounded position leaves it is dropped.
const borderSize = 1

// inBorder reports whether the point lies inside the valid image interior.
func inBorder(p gocv.Point2f, width, height int) bool {
	x := int(math.Round(float64(p.X)))
	y := int(math.Round(float64(p.Y)))
	return x >= borderSize && x < width-borderSize && y >= borderSize && y < height-borderSize
}

// distance is the Euclidean pixel distance between two points.
func distance(a, b gocv.Point2f) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
