package track

import (
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/camera"
)

// Tracking constants.
const (
	// DefaultMaxFeatures is the target number of concurrently tracked points.
	DefaultMaxFeatures = 100
	// DefaultMinDistance is the minimum pixel separation between tracked points.
	DefaultMinDistance = 30
	// minGeometryPoints is the smallest correspondence set the epipolar gate
	// will run on; below this the gate is skipped for the frame.
	minGeometryPoints = 8
)

// Config holds construction options for a Tracker.
type Config struct {
	// Cameras holds one model for monocular tracking or two for stereo.
	Cameras []camera.Model

	// Flow is the optical-flow backend used for temporal and stereo
	// correspondence. Required.
	Flow FlowBackend

	// Corners proposes new feature candidates. Required unless Backfill is
	// disabled.
	Corners CornerDetector

	// Verifier is the epipolar outlier gate. Required when GeometricCheck is
	// set, unused otherwise.
	Verifier GeometricVerifier

	// MaxFeatures is the target track capacity. Defaults to DefaultMaxFeatures.
	MaxFeatures int

	// MinDistance is the minimum pixel separation enforced by the coverage
	// mask. Defaults to DefaultMinDistance.
	MinDistance int

	// FlowBack enables forward-backward verification of correspondences.
	FlowBack bool

	// GeometricCheck enables the epipolar RANSAC rejection gate between
	// propagation and aging.
	GeometricCheck bool

	// Backfill enables coverage selection and detection of new features.
	// Disabling it tracks only the initial point set until it starves.
	Backfill bool
}

// DefaultConfig returns a Config with the standard tuning: full capacity,
// backfill on, forward-backward verification on, epipolar gate off.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: DefaultMaxFeatures,
		MinDistance: DefaultMinDistance,
		FlowBack:    true,
		Backfill:    true,
	}
}

// Tracker is the frame pipeline: it owns the track table, sequences
// propagation, selection, detection, velocity estimation and stereo matching
// for each incoming frame, and emits the feature report.
//
// A Tracker is owned by a single logical thread of control: Process must not
// be invoked concurrently, and each camera rig needs its own instance.
// SetPrediction and RemoveOutliers may be called between Process calls.
type Tracker struct {
	cfg    Config
	stereo bool

	table  *Table
	nextID int64

	prevImg  gocv.Mat
	prevTime float64
	hasPrev  bool

	prevNorm      map[int64]camera.Vec2
	prevNormRight map[int64]camera.Vec2

	predicted     []gocv.Point2f
	hasPrediction bool
}

// New creates a Tracker. Structural misconfiguration (missing camera model,
// missing backend) is rejected here, never per frame.
func New(cfg Config) (*Tracker, error) {
	if len(cfg.Cameras) < 1 || len(cfg.Cameras) > 2 {
		return nil, fmt.Errorf("tracker: need one or two camera models, got %d", len(cfg.Cameras))
	}
	if cfg.Flow == nil {
		return nil, fmt.Errorf("tracker: flow backend is required")
	}
	if cfg.Backfill && cfg.Corners == nil {
		return nil, fmt.Errorf("tracker: corner detector is required when backfill is enabled")
	}
	if cfg.GeometricCheck && cfg.Verifier == nil {
		return nil, fmt.Errorf("tracker: geometric check enabled without a verifier")
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultMaxFeatures
	}
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = DefaultMinDistance
	}

	return &Tracker{
		cfg:    cfg,
		stereo: len(cfg.Cameras) == 2,
		table:  NewTable(),
	}, nil
}

// Close releases the retained previous frame. The backends are owned by the
// caller and are not closed here.
func (t *Tracker) Close() {
	if t.hasPrev {
		t.prevImg.Close()
		t.hasPrev = false
	}
}

// Stereo reports whether the tracker was configured with a stereo rig.
func (t *Tracker) Stereo() bool {
	return t.stereo
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	return t.table.Len()
}

// Process ingests one frame (right may be the zero Mat for monocular rigs)
// and returns the feature report. Stages run strictly in order: propagation,
// optional epipolar rejection, aging, coverage selection, detection backfill,
// undistortion, velocity estimation, stereo matching, report assembly, and
// the roll-over of previous-frame state.
//
// Per-point correspondence failure only shrinks the track table; Process
// fails outright only when a backend dispatch itself fails.
func (t *Tracker) Process(timestamp float64, img, right gocv.Mat) (Report, error) {
	if img.Empty() {
		return nil, fmt.Errorf("tracker: empty primary image")
	}
	gray := toGray(img)
	cols := gray.Cols()
	rows := gray.Rows()

	// Stage 1: propagate existing tracks from the previous frame.
	if t.hasPrev && t.table.Len() > 0 {
		// The staged seed is only usable while still index-aligned with the
		// table; feedback calls after SetPrediction can invalidate it.
		var seed []gocv.Point2f
		if t.hasPrediction && len(t.predicted) == t.table.Len() {
			seed = t.predicted
		}
		prevPts := t.table.Pixels()
		curPts, valid, err := propagate(t.cfg.Flow, t.prevImg, gray, prevPts, seed, t.cfg.FlowBack, cols, rows)
		if err != nil {
			gray.Close()
			return nil, fmt.Errorf("tracker: propagation failed: %w", err)
		}
		for i, tr := range t.table.All() {
			tr.PrevPixel = tr.Pixel
			tr.HasPrev = true
			tr.Pixel = curPts[i]
		}
		t.table.Compact(valid)
	}

	// Optional epipolar rejection of propagated correspondences. Skipped
	// below minGeometryPoints; a verifier failure degrades to a warning.
	if t.cfg.GeometricCheck && t.hasPrev && t.table.Len() >= minGeometryPoints {
		prev := make([]gocv.Point2f, 0, t.table.Len())
		cur := make([]gocv.Point2f, 0, t.table.Len())
		for _, tr := range t.table.All() {
			prev = append(prev, tr.PrevPixel)
			cur = append(cur, tr.Pixel)
		}
		keep, err := t.cfg.Verifier.Verify(prev, cur)
		if err != nil {
			log.Printf("Geometric check skipped: %v", err)
		} else {
			t.table.Compact(keep)
		}
	}

	// Stage 2: age survivors.
	for _, tr := range t.table.All() {
		tr.Age++
	}

	// Stages 3-4: coverage selection, then detection backfill up to capacity.
	if t.cfg.Backfill {
		retained, mask := selectByCoverage(t.table.All(), cols, rows, t.cfg.MinDistance)
		t.table.Reorder(retained)

		if need := t.cfg.MaxFeatures - t.table.Len(); need > 0 {
			pts, err := t.cfg.Corners.Detect(gray, mask, need)
			if err != nil {
				// Degrade: a detection problem costs this frame's backfill,
				// never the frame.
				log.Printf("Corner detection skipped: %v", err)
			}
			for _, p := range pts {
				t.table.Add(&Track{ID: t.nextID, Pixel: p, Age: 1})
				t.nextID++
			}
		}
	}

	// Stage 5: recompute normalized positions through the camera model.
	for _, tr := range t.table.All() {
		tr.Norm = t.cfg.Cameras[0].LiftProjective(pixelVec(tr.Pixel)).Normalized()
	}

	// Stage 6: velocity against the previous frame's normalized positions.
	dt := timestamp - t.prevTime
	ids := t.table.IDs()
	norms := make([]camera.Vec2, t.table.Len())
	for i, tr := range t.table.All() {
		norms[i] = tr.Norm
	}
	vel, curNorm := ptsVelocity(dt, ids, norms, t.prevNorm)
	for i, tr := range t.table.All() {
		tr.Velocity = vel[i]
	}
	t.prevNorm = curNorm

	// Stage 7: stereo correspondence, additive only.
	for _, tr := range t.table.All() {
		tr.HasRight = false
	}
	if t.stereo && !right.Empty() && t.table.Len() > 0 {
		if err := t.matchSecondary(timestamp, gray, right, cols, rows); err != nil {
			gray.Close()
			return nil, err
		}
	}

	// Stage 8: assemble the report.
	rep := buildReport(t.table)

	// Stage 9: roll state forward and clear the one-shot prediction.
	if t.hasPrev {
		t.prevImg.Close()
	}
	t.prevImg = gray
	t.hasPrev = true
	t.prevTime = timestamp
	t.predicted = nil
	t.hasPrediction = false

	return rep, nil
}

// matchSecondary extends current tracks with right-camera observations and
// refreshes the secondary velocity map.
func (t *Tracker) matchSecondary(timestamp float64, gray, right gocv.Mat, cols, rows int) error {
	rgray := toGray(right)
	defer rgray.Close()

	leftPts := t.table.Pixels()
	rightPts, valid, err := matchStereo(t.cfg.Flow, gray, rgray, leftPts, t.cfg.FlowBack, cols, rows)
	if err != nil {
		return fmt.Errorf("tracker: stereo matching failed: %w", err)
	}

	var (
		matchedIDs  []int64
		matchedNorm []camera.Vec2
		matched     []*Track
	)
	for i, tr := range t.table.All() {
		if !valid[i] {
			continue
		}
		tr.HasRight = true
		tr.RightPixel = rightPts[i]
		tr.RightNorm = t.cfg.Cameras[1].LiftProjective(pixelVec(rightPts[i])).Normalized()
		matchedIDs = append(matchedIDs, tr.ID)
		matchedNorm = append(matchedNorm, tr.RightNorm)
		matched = append(matched, tr)
	}

	rvel, curMap := ptsVelocity(timestamp-t.prevTime, matchedIDs, matchedNorm, t.prevNormRight)
	for i, tr := range matched {
		tr.RightVelocity = rvel[i]
	}
	t.prevNormRight = curMap
	return nil
}

// SetPrediction stages an externally predicted 3D ray per track id as the
// seed for the next propagation. Tracks without a prediction seed from their
// current pixel (zero-motion assumption). The staged seed is consumed by the
// next Process call and then cleared.
func (t *Tracker) SetPrediction(pred map[int64]camera.Vec3) {
	t.predicted = make([]gocv.Point2f, 0, t.table.Len())
	for _, tr := range t.table.All() {
		if ray, ok := pred[tr.ID]; ok {
			uv := t.cfg.Cameras[0].SpaceToPlane(ray)
			t.predicted = append(t.predicted, gocv.Point2f{X: float32(uv.X), Y: float32(uv.Y)})
		} else {
			t.predicted = append(t.predicted, tr.Pixel)
		}
	}
	t.hasPrediction = true
}

// RemoveOutliers immediately deletes the given ids from the track table, for
// use when the downstream estimator flags tracks as geometrically
// inconsistent. Ids that are not live are ignored.
func (t *Tracker) RemoveOutliers(ids []int64) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	t.table.RemoveIDs(set)
}

// TrackView is a read-only copy of one track's state for rendering and
// diagnostics.
type TrackView struct {
	ID         int64
	Pixel      gocv.Point2f
	PrevPixel  gocv.Point2f
	HasPrev    bool
	Age        int
	RightPixel gocv.Point2f
	HasRight   bool
}

// Snapshot returns a copy of the current tracks in iteration order. Safe to
// hand to a renderer or recorder after Process returns.
func (t *Tracker) Snapshot() []TrackView {
	views := make([]TrackView, 0, t.table.Len())
	for _, tr := range t.table.All() {
		views = append(views, TrackView{
			ID:         tr.ID,
			Pixel:      tr.Pixel,
			PrevPixel:  tr.PrevPixel,
			HasPrev:    tr.HasPrev,
			Age:        tr.Age,
			RightPixel: tr.RightPixel,
			HasRight:   tr.HasRight,
		})
	}
	return views
}

// toGray returns a new single-channel copy of the image, converting from BGR
// when needed. The caller owns the returned Mat.
func toGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}
	return gray
}

func pixelVec(p gocv.Point2f) camera.Vec2 {
	return camera.Vec2{X: float64(p.X), Y: float64(p.Y)}
}
