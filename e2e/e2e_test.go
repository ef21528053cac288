package e2e

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/camera"
	"github.com/quillvision/viofront/internal/capture"
	"github.com/quillvision/viofront/internal/detect"
	"github.com/quillvision/viofront/internal/diag"
	"github.com/quillvision/viofront/internal/epipolar"
	"github.com/quillvision/viofront/internal/flow"
	"github.com/quillvision/viofront/internal/track"
)

const (
	sceneWidth  = 640
	sceneHeight = 480
	// shiftPerFrame is the horizontal camera motion between frames, in pixels.
	shiftPerFrame = 2
	frameCount    = 8
)

// writeSequence renders a random-dot scene and writes frameCount crops of it,
// each shifted right by shiftPerFrame, simulating a camera translating left.
func writeSequence(t *testing.T, dir string) {
	t.Helper()

	scene := gocv.NewMatWithSize(sceneHeight, sceneWidth+frameCount*shiftPerFrame, gocv.MatTypeCV8UC1)
	defer scene.Close()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 600; i++ {
		x := rng.Intn(scene.Cols())
		y := rng.Intn(scene.Rows())
		c := uint8(80 + rng.Intn(176))
		gocv.Circle(&scene, image.Pt(x, y), 2+rng.Intn(2), color.RGBA{R: c, G: c, B: c}, -1)
	}

	for f := 0; f < frameCount; f++ {
		crop := scene.Region(image.Rect(f*shiftPerFrame, 0, f*shiftPerFrame+sceneWidth, sceneHeight))
		name := filepath.Join(dir, "frame_"+string(rune('a'+f))+".png")
		if !gocv.IMWrite(name, crop) {
			crop.Close()
			t.Fatalf("failed to write %s", name)
		}
		crop.Close()
	}
}

func writeCalib(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "calib.json")
	content := `{
		"image_width": 640,
		"image_height": 480,
		"fx": 460.0,
		"fy": 460.0,
		"cx": 320.0,
		"cy": 240.0
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write calibration: %v", err)
	}
	return path
}

func TestE2E_ReplayPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	imgDir := filepath.Join(tmpDir, "frames")
	if err := os.Mkdir(imgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSequence(t, imgDir)

	cam, err := camera.LoadFile(writeCalib(t, tmpDir))
	if err != nil {
		t.Fatalf("camera.LoadFile() error = %v", err)
	}

	source, err := capture.OpenDir(imgDir, "", 20)
	if err != nil {
		t.Fatalf("capture.OpenDir() error = %v", err)
	}
	defer source.Close()

	backend := flow.NewLK()
	defer backend.Close()
	corners := detect.NewShiTomasi(track.DefaultMinDistance)
	defer corners.Close()

	tracker, err := track.New(track.Config{
		Cameras:        []camera.Model{cam},
		Flow:           backend,
		Corners:        corners,
		Verifier:       epipolar.NewVerifier(cam, 0),
		FlowBack:       true,
		GeometricCheck: true,
		Backfill:       true,
	})
	if err != nil {
		t.Fatalf("track.New() error = %v", err)
	}
	defer tracker.Close()

	recorder, err := diag.Open(filepath.Join(tmpDir, "diag.db"), 1)
	if err != nil {
		t.Fatalf("diag.Open() error = %v", err)
	}
	defer recorder.Close()

	var (
		frames      int
		lastReport  track.Report
		firstReport track.Report
	)
	for {
		frame, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("frame %d: Next() error = %v", frames, err)
		}

		report, err := tracker.Process(frame.Timestamp, frame.Left, frame.Right)
		frame.Close()
		if err != nil {
			t.Fatalf("frame %d: Process() error = %v", frames, err)
		}

		if err := recorder.RecordFrame(diag.FrameStats{
			Timestamp: frame.Timestamp,
			Tracks:    len(report),
		}); err != nil {
			t.Fatalf("frame %d: RecordFrame() error = %v", frames, err)
		}

		if frames == 0 {
			firstReport = report
		}
		lastReport = report
		frames++
	}

	if frames != frameCount {
		t.Fatalf("replayed %d frames, want %d", frames, frameCount)
	}
	if len(firstReport) < 30 {
		t.Errorf("first frame produced %d tracks, expected a well-covered scene", len(firstReport))
	}
	if len(lastReport) < 30 {
		t.Errorf("last frame holds %d tracks, expected tracking to sustain coverage", len(lastReport))
	}

	t.Run("TracksSurvive", func(t *testing.T) {
		survived := 0
		for id := range lastReport {
			if _, ok := firstReport[id]; ok {
				survived++
			}
		}
		if survived < 10 {
			t.Errorf("only %d tracks survived the full sequence", survived)
		}
	})

	t.Run("AgesGrow", func(t *testing.T) {
		maxAge := 0
		for _, v := range tracker.Snapshot() {
			if v.Age > maxAge {
				maxAge = v.Age
			}
			if v.Age < 1 || v.Age > frameCount {
				t.Errorf("track %d has implausible age %d", v.ID, v.Age)
			}
		}
		if maxAge != frameCount {
			t.Errorf("max age %d, want %d for tracks alive since the first frame", maxAge, frameCount)
		}
	})

	t.Run("VelocityFollowsMotion", func(t *testing.T) {
		// The crop window moves right, so the scene flows left: the
		// surviving tracks must report negative horizontal velocity.
		negative, total := 0, 0
		for id, obs := range lastReport {
			if _, ok := firstReport[id]; !ok {
				continue
			}
			total++
			if obs[0].VelX < 0 {
				negative++
			}
		}
		if total == 0 {
			t.Fatal("no long-lived tracks to inspect")
		}
		if negative*10 < total*8 {
			t.Errorf("only %d of %d long-lived tracks flow leftward", negative, total)
		}
	})

	t.Run("DiagnosticsRecorded", func(t *testing.T) {
		if recorder.SessionID() == "" {
			t.Error("expected a diagnostics session id")
		}
	})
}
