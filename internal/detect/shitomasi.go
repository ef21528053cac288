// Package detect provides the corner-detector backends that propose new
// feature candidates for tracking.
package detect

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/track"
)

const (
	// QualityLevel is the relative corner-strength cutoff of the detector.
	QualityLevel = 0.01
	// candidateFactor oversizes the detection budget so enough candidates
	// survive the coverage-mask filter.
	candidateFactor = 4
)

// ShiTomasi detects new corner candidates with the Shi-Tomasi ("good
// features to track") criterion.
//
// The underlying binding does not expose the detector's region-of-interest
// mask, so an oversized candidate set is ranked by the detector and filtered
// through the coverage mask here: the detector's own min-distance parameter
// keeps candidates apart from each other, the mask keeps them apart from
// existing tracks.
type ShiTomasi struct {
	minDist float64
}

// NewShiTomasi creates a Shi-Tomasi detector enforcing the given minimum
// pixel separation between candidates.
func NewShiTomasi(minDist int) *ShiTomasi {
	if minDist <= 0 {
		minDist = 1
	}
	return &ShiTomasi{minDist: float64(minDist)}
}

// Detect returns up to maxCount candidates on free mask pixels, strongest
// first. An absent or mismatched mask is a caller configuration error.
func (d *ShiTomasi) Detect(img gocv.Mat, mask *track.Mask, maxCount int) ([]gocv.Point2f, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	if img.Empty() {
		return nil, fmt.Errorf("detect: empty image")
	}
	if mask == nil {
		return nil, fmt.Errorf("detect: coverage mask is missing")
	}
	if mask.Width() != img.Cols() || mask.Height() != img.Rows() {
		return nil, fmt.Errorf("detect: mask size %dx%d does not match image %dx%d",
			mask.Width(), mask.Height(), img.Cols(), img.Rows())
	}

	gray := img
	var converted gocv.Mat
	if img.Channels() > 1 {
		converted = gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(img, &converted, gocv.ColorBGRToGray)
		gray = converted
	}

	corners := gocv.NewMat()
	defer corners.Close()
	gocv.GoodFeaturesToTrack(gray, &corners, maxCount*candidateFactor, QualityLevel, d.minDist)

	out := make([]gocv.Point2f, 0, maxCount)
	for i := 0; i < corners.Rows() && len(out) < maxCount; i++ {
		v := corners.GetVecfAt(i, 0)
		p := gocv.Point2f{X: v[0], Y: v[1]}
		if !mask.Free(p.X, p.Y) {
			continue
		}
		out = append(out, p)
		// Accepted candidates claim the mask too, so later candidates keep
		// the same separation from them.
		mask.Claim(p.X, p.Y)
	}
	return out, nil
}

// Close is a no-op for the Shi-Tomasi detector.
func (d *ShiTomasi) Close() error {
	return nil
}
