package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/camera"
	"github.com/quillvision/viofront/internal/capture"
	"github.com/quillvision/viofront/internal/detect"
	"github.com/quillvision/viofront/internal/diag"
	"github.com/quillvision/viofront/internal/epipolar"
	"github.com/quillvision/viofront/internal/flow"
	"github.com/quillvision/viofront/internal/render"
	"github.com/quillvision/viofront/internal/track"
)

func main() {
	var (
		leftDir    = flag.String("left", "", "directory of left-camera images (replay mode)")
		rightDir   = flag.String("right", "", "directory of right-camera images (stereo replay)")
		deviceID   = flag.Int("device", -1, "video capture device id (live mode)")
		calibLeft  = flag.String("calib", "", "left camera calibration JSON (required)")
		calibRight = flag.String("calib-right", "", "right camera calibration JSON (enables stereo)")
		fps        = flag.Float64("fps", 20, "replay frame rate")
		maxFeat    = flag.Int("max-features", track.DefaultMaxFeatures, "target number of tracked features")
		minDist    = flag.Int("min-dist", track.DefaultMinDistance, "minimum pixel separation between features")
		flowBack   = flag.Bool("flow-back", true, "enable forward-backward verification")
		geomCheck  = flag.Bool("geom-check", false, "enable epipolar RANSAC outlier rejection")
		useCUDA    = flag.Bool("cuda", false, "use the CUDA flow backend")
		show       = flag.Bool("show", false, "show the track visualization window")
		dbPath     = flag.String("db", "", "record per-frame diagnostics to this SQLite database")
	)
	flag.Parse()

	fmt.Println("viofront - visual odometry feature tracking front end")

	if *calibLeft == "" {
		log.Fatal("A left camera calibration is required (-calib)")
	}

	cams, err := loadCameras(*calibLeft, *calibRight)
	if err != nil {
		log.Fatalf("Failed to load calibration: %v", err)
	}

	source, err := openSource(*leftDir, *rightDir, *deviceID, *fps)
	if err != nil {
		log.Fatalf("Failed to open frame source: %v", err)
	}
	defer source.Close()

	var flowBackend track.FlowBackend
	if *useCUDA {
		backend, err := flow.NewCUDA()
		if err != nil {
			log.Fatalf("Failed to initialize CUDA backend: %v", err)
		}
		flowBackend = backend
	} else {
		flowBackend = flow.NewLK()
	}
	defer flowBackend.Close()

	corners := detect.NewShiTomasi(*minDist)
	defer corners.Close()

	cfg := track.Config{
		Cameras:        cams,
		Flow:           flowBackend,
		Corners:        corners,
		MaxFeatures:    *maxFeat,
		MinDistance:    *minDist,
		FlowBack:       *flowBack,
		GeometricCheck: *geomCheck,
		Backfill:       true,
	}
	if *geomCheck {
		cfg.Verifier = epipolar.NewVerifier(cams[0], epipolar.DefaultThreshold)
	}

	tracker, err := track.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create tracker: %v", err)
	}
	defer tracker.Close()

	var recorder *diag.Recorder
	if *dbPath != "" {
		recorder, err = diag.Open(*dbPath, len(cams))
		if err != nil {
			log.Fatalf("Failed to open diagnostics database: %v", err)
		}
		defer recorder.Close()
		fmt.Printf("Recording diagnostics to %s (session %s)\n", *dbPath, recorder.SessionID())
	}

	var window *gocv.Window
	if *show {
		window = gocv.NewWindow("viofront tracks")
		defer window.Close()
	}

	if err := run(tracker, source, recorder, window); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

// run drives the frame loop until the source is exhausted.
func run(tracker *track.Tracker, source capture.Source, recorder *diag.Recorder, window *gocv.Window) error {
	prevIDs := make(map[int64]struct{})
	frames := 0

	for {
		frame, err := source.Next()
		if errors.Is(err, io.EOF) {
			log.Printf("Source exhausted after %d frames", frames)
			return nil
		}
		if err != nil {
			return err
		}

		start := time.Now()
		report, err := tracker.Process(frame.Timestamp, frame.Left, frame.Right)
		if err != nil {
			frame.Close()
			return err
		}
		elapsed := time.Since(start)

		stats := summarize(frame.Timestamp, report, tracker.Snapshot(), prevIDs)
		stats.ProcessingMs = float64(elapsed.Microseconds()) / 1000
		if err := recorder.RecordFrame(stats); err != nil {
			log.Printf("Diagnostics write failed: %v", err)
		}

		if window != nil {
			canvas := render.Draw(frame.Left, frame.Right, tracker.Snapshot())
			window.IMShow(canvas)
			canvas.Close()
			if window.WaitKey(1) == 27 { // ESC
				frame.Close()
				log.Println("Interrupted by user")
				return nil
			}
		}

		frame.Close()
		frames++

		prevIDs = make(map[int64]struct{}, len(report))
		for id := range report {
			prevIDs[id] = struct{}{}
		}
	}
}

// summarize derives the per-frame diagnostics row from the report and the
// previous frame's id set.
func summarize(ts float64, report track.Report, views []track.TrackView, prevIDs map[int64]struct{}) diag.FrameStats {
	stats := diag.FrameStats{Timestamp: ts, Tracks: len(report)}

	ageSum := 0
	for _, v := range views {
		ageSum += v.Age
		if v.HasRight {
			stats.StereoCount++
		}
	}
	if len(views) > 0 {
		stats.MeanAge = float64(ageSum) / float64(len(views))
	}

	for id := range report {
		if _, ok := prevIDs[id]; !ok {
			stats.Created++
		}
	}
	for id := range prevIDs {
		if _, ok := report[id]; !ok {
			stats.Lost++
		}
	}
	return stats
}

// loadCameras reads one or two calibration files.
func loadCameras(left, right string) ([]camera.Model, error) {
	cam, err := camera.LoadFile(left)
	if err != nil {
		return nil, err
	}
	cams := []camera.Model{cam}

	if right != "" {
		rcam, err := camera.LoadFile(right)
		if err != nil {
			return nil, err
		}
		cams = append(cams, rcam)
	}
	return cams, nil
}

// openSource selects the frame source from the flags: a replay directory or
// a live device.
func openSource(leftDir, rightDir string, deviceID int, fps float64) (capture.Source, error) {
	if leftDir != "" {
		return capture.OpenDir(leftDir, rightDir, fps)
	}
	if deviceID >= 0 {
		return capture.OpenDevice(deviceID)
	}
	fmt.Fprintln(os.Stderr, "Either -left or -device is required")
	return nil, errors.New("no frame source configured")
}
