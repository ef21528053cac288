// Package track implements the temporal feature-tracking core of a
// visual(-inertial) odometry front end: it maintains persistent 2D feature
// correspondences across frames, assigns them stable identities, estimates
// per-feature image-plane velocity, and emits a per-frame feature report for
// a downstream state estimator.
package track

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/quillvision/viofront/internal/camera"
)

// Track is one persistent feature followed across frames.
type Track struct {
	// ID is globally unique within a Tracker session and never reused.
	ID int64

	// Pixel is the current location in the primary image.
	Pixel gocv.Point2f

	// PrevPixel is the location in the previous frame. Valid only when
	// HasPrev is true (tracks created this frame have no previous location).
	PrevPixel gocv.Point2f
	HasPrev   bool

	// Norm is the undistorted ray projected to the z=1 plane.
	Norm camera.Vec2

	// Age is the number of frames this id has survived, starting at 1.
	Age int

	// Velocity is the finite-difference velocity on the normalized plane.
	// Zero for tracks with no prior observation.
	Velocity camera.Vec2

	// Secondary-camera observation for the current frame. Valid only when
	// HasRight is true; rebuilt every stereo frame.
	HasRight      bool
	RightPixel    gocv.Point2f
	RightNorm     camera.Vec2
	RightVelocity camera.Vec2
}

// Table is the authoritative per-feature state, indexed by id with a defined
// iteration order. All per-track attributes live on the Track itself, so
// removing a track is a single structural operation and parallel state can
// never fall out of alignment.
type Table struct {
	tracks []*Track
	byID   map[int64]*Track
}

// NewTable creates an empty track table.
func NewTable() *Table {
	return &Table{byID: make(map[int64]*Track)}
}

// Len returns the number of live tracks.
func (t *Table) Len() int {
	return len(t.tracks)
}

// All returns the live tracks in iteration order. The slice is shared with
// the table; callers must not add or remove entries through it.
func (t *Table) All() []*Track {
	return t.tracks
}

// Get returns the track with the given id, if present.
func (t *Table) Get(id int64) (*Track, bool) {
	tr, ok := t.byID[id]
	return tr, ok
}

// Add appends a track. It panics if the id is already live, since duplicate
// ids would corrupt every downstream association.
func (t *Table) Add(tr *Track) {
	if _, ok := t.byID[tr.ID]; ok {
		panic(fmt.Sprintf("track: duplicate id %d", tr.ID))
	}
	t.tracks = append(t.tracks, tr)
	t.byID[tr.ID] = tr
}

// Compact removes every track whose keep flag is false, preserving the
// relative order of survivors. keep must be index-aligned with All().
func (t *Table) Compact(keep []bool) {
	if len(keep) != len(t.tracks) {
		panic(fmt.Sprintf("track: compact with %d flags for %d tracks", len(keep), len(t.tracks)))
	}
	j := 0
	for i, tr := range t.tracks {
		if keep[i] {
			t.tracks[j] = tr
			j++
		} else {
			delete(t.byID, tr.ID)
		}
	}
	t.tracks = t.tracks[:j]
}

// RemoveIDs deletes the given ids from the table. Ids that are not live are
// ignored. Returns the number of tracks removed.
func (t *Table) RemoveIDs(ids map[int64]struct{}) int {
	if len(ids) == 0 {
		return 0
	}
	j := 0
	removed := 0
	for _, tr := range t.tracks {
		if _, gone := ids[tr.ID]; gone {
			delete(t.byID, tr.ID)
			removed++
			continue
		}
		t.tracks[j] = tr
		j++
	}
	t.tracks = t.tracks[:j]
	return removed
}

// Reorder replaces the iteration order with the given subset of live tracks,
// dropping every track not present in it. Every entry must already be live.
func (t *Table) Reorder(order []*Track) {
	kept := make(map[int64]struct{}, len(order))
	for _, tr := range order {
		if _, ok := t.byID[tr.ID]; !ok {
			panic(fmt.Sprintf("track: reorder with unknown id %d", tr.ID))
		}
		kept[tr.ID] = struct{}{}
	}
	for _, tr := range t.tracks {
		if _, ok := kept[tr.ID]; !ok {
			delete(t.byID, tr.ID)
		}
	}
	t.tracks = append(t.tracks[:0], order...)
}

// Pixels returns the current pixel positions in iteration order.
func (t *Table) Pixels() []gocv.Point2f {
	pts := make([]gocv.Point2f, len(t.tracks))
	for i, tr := range t.tracks {
		pts[i] = tr.Pixel
	}
	return pts
}

// IDs returns the live ids in iteration order.
func (t *Table) IDs() []int64 {
	ids := make([]int64, len(t.tracks))
	for i, tr := range t.tracks {
		ids[i] = tr.ID
	}
	return ids
}
