// Package render draws the current track state onto the camera images for
// diagnostics. It is a side artifact with no contractual guarantees; the
// tracking core never depends on it.
package render

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/track"
)

const (
	// matureAge is the track age at which the marker color saturates fully
	// from blue (new) to red (long-lived).
	matureAge = 20
	// markerRadius is the radius of the per-track circle.
	markerRadius = 2
)

// Draw renders the tracks onto a copy of the frame: left and right images
// side by side for stereo, per-track circles colored by age, arrows back to
// the previous position, and green markers on stereo matches. The caller owns
// the returned Mat.
func Draw(left, right gocv.Mat, views []track.TrackView) gocv.Mat {
	stereo := !right.Empty()
	cols := left.Cols()

	canvas := gocv.NewMat()
	if stereo {
		gocv.Hconcat(left, right, &canvas)
	} else {
		left.CopyTo(&canvas)
	}
	if canvas.Channels() == 1 {
		colored := gocv.NewMat()
		gocv.CvtColor(canvas, &colored, gocv.ColorGrayToBGR)
		canvas.Close()
		canvas = colored
	}

	for _, v := range views {
		// Blue for fresh tracks shading to red as they live longer.
		sat := math.Min(1, float64(v.Age)/matureAge)
		c := color.RGBA{R: uint8(255 * sat), B: uint8(255 * (1 - sat))}
		gocv.Circle(&canvas, pt(v.Pixel, 0), markerRadius, c, 2)

		if v.HasPrev {
			gocv.ArrowedLine(&canvas, pt(v.Pixel, 0), pt(v.PrevPixel, 0), color.RGBA{G: 255}, 1)
		}
		if stereo && v.HasRight {
			gocv.Circle(&canvas, pt(v.RightPixel, cols), markerRadius, color.RGBA{G: 255}, 2)
		}
	}
	return canvas
}

func pt(p gocv.Point2f, offsetX int) image.Point {
	return image.Pt(int(math.Round(float64(p.X)))+offsetX, int(math.Round(float64(p.Y))))
}
