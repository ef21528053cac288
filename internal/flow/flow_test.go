package flow

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

func TestPointMatRoundTrip(t *testing.T) {
	pts := []gocv.Point2f{
		{X: 0, Y: 0},
		{X: 12.5, Y: 99.25},
		{X: 639, Y: 479},
	}
	m := pointsToMat(pts)
	defer m.Close()

	if m.Rows() != 3 || m.Cols() != 1 {
		t.Fatalf("expected 3x1 matrix, got %dx%d", m.Rows(), m.Cols())
	}

	got := matToPoints(m)
	if len(got) != len(pts) {
		t.Fatalf("expected %d points, got %d", len(pts), len(got))
	}
	for i := range pts {
		if got[i] != pts[i] {
			t.Errorf("point %d: got %v, want %v", i, got[i], pts[i])
		}
	}
}

func TestStatusToBools_PadsShortResults(t *testing.T) {
	m := gocv.NewMatWithSize(2, 1, gocv.MatTypeCV8UC1)
	defer m.Close()
	m.SetUCharAt(0, 0, 1)
	m.SetUCharAt(1, 0, 0)

	ok := statusToBools(m, 4)
	want := []bool{true, false, false, false}
	for i := range want {
		if ok[i] != want[i] {
			t.Errorf("flag %d: got %v, want %v", i, ok[i], want[i])
		}
	}
}

func TestLK_InputValidation(t *testing.T) {
	b := NewLK()
	defer b.Close()

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer img.Close()
	empty := gocv.NewMat()
	defer empty.Close()
	pts := []gocv.Point2f{{X: 100, Y: 100}}

	// No points is a no-op, not an error.
	out, ok, err := b.Track(img, img, nil, nil)
	if out != nil || ok != nil || err != nil {
		t.Errorf("expected nil result for empty point set, got %v %v %v", out, ok, err)
	}

	if _, _, err := b.Track(empty, img, pts, nil); err == nil {
		t.Error("expected error for empty previous image")
	}
	if _, _, err := b.Track(img, img, pts, []gocv.Point2f{{}, {}}); err == nil {
		t.Error("expected error for mismatched seed length")
	}
}

// drawScene paints a textured blob so the search window has gradient to lock
// onto.
func drawScene(img *gocv.Mat, at image.Point) {
	gocv.Rectangle(img, image.Rect(at.X-8, at.Y-8, at.X+8, at.Y+8), color.RGBA{R: 255, G: 255, B: 255}, -1)
	gocv.Rectangle(img, image.Rect(at.X-3, at.Y-3, at.X+3, at.Y+3), color.RGBA{R: 90, G: 90, B: 90}, -1)
}

func TestLK_TracksTranslatedPattern(t *testing.T) {
	prev := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer prev.Close()
	cur := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer cur.Close()

	drawScene(&prev, image.Pt(200, 200))
	drawScene(&cur, image.Pt(203, 202))

	b := NewLK()
	defer b.Close()

	pts := []gocv.Point2f{{X: 200, Y: 200}}
	out, ok, err := b.Track(prev, cur, pts, nil)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !ok[0] {
		t.Fatal("expected the translated pattern to be found")
	}
	if math.Abs(float64(out[0].X)-203) > 1 || math.Abs(float64(out[0].Y)-202) > 1 {
		t.Errorf("expected position near (203, 202), got %v", out[0])
	}
}

func TestLK_SeededSearch(t *testing.T) {
	prev := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer prev.Close()
	cur := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer cur.Close()

	drawScene(&prev, image.Pt(300, 240))
	drawScene(&cur, image.Pt(304, 240))

	b := NewLK()
	defer b.Close()

	pts := []gocv.Point2f{{X: 300, Y: 240}}
	seed := []gocv.Point2f{{X: 304, Y: 240}}
	out, ok, err := b.Track(prev, cur, pts, seed)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !ok[0] {
		t.Fatal("expected the seeded search to succeed")
	}
	if math.Abs(float64(out[0].X)-304) > 1 || math.Abs(float64(out[0].Y)-240) > 1 {
		t.Errorf("expected position near (304, 240), got %v", out[0])
	}
}
