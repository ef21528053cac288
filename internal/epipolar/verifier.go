package epipolar

import (
	"math/rand"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/camera"
)

const (
	// VirtualFocal is the focal length of the virtual pinhole plane the
	// correspondences are projected onto before estimation, making the
	// distance threshold camera-independent.
	VirtualFocal = 460.0
	// DefaultThreshold is the Sampson distance cutoff in virtual-plane pixels.
	DefaultThreshold = 1.0
)

// Verifier gates correspondences on consistency with a fundamental matrix.
// It lifts both point sets through the camera model (undoing distortion),
// projects them onto a centered virtual pinhole plane, and classifies
// inliers with 8-point RANSAC.
type Verifier struct {
	cam       camera.Model
	threshold float64
	rng       *rand.Rand
}

// NewVerifier creates a Verifier for the given primary-camera model. A
// threshold of zero or less selects DefaultThreshold.
func NewVerifier(cam camera.Model, threshold float64) *Verifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Verifier{
		cam:       cam,
		threshold: threshold,
		rng:       rand.New(rand.NewSource(1)),
	}
}

// Verify returns an index-aligned keep flag per prev/cur pair. Sets smaller
// than the minimal sample are kept wholesale — too little data to judge.
func (v *Verifier) Verify(prev, cur []gocv.Point2f) ([]bool, error) {
	if len(prev) < sampleSize {
		keep := make([]bool, len(prev))
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}

	a := v.toVirtualPlane(prev)
	b := v.toVirtualPlane(cur)
	return ransacFundamental(a, b, v.threshold, v.rng)
}

// toVirtualPlane undistorts pixels through the camera model and reprojects
// them with the virtual focal length, centered on the calibrated image.
func (v *Verifier) toVirtualPlane(pts []gocv.Point2f) []Point {
	w, h := v.cam.Size()
	cx := float64(w) / 2
	cy := float64(h) / 2

	out := make([]Point, len(pts))
	for i, p := range pts {
		ray := v.cam.LiftProjective(camera.Vec2{X: float64(p.X), Y: float64(p.Y)})
		n := ray.Normalized()
		out[i] = Point{
			X: VirtualFocal*n.X + cx,
			Y: VirtualFocal*n.Y + cy,
		}
	}
	return out
}
