package track

// Camera ids used in the feature report.
const (
	// CameraPrimary identifies the left (primary) camera.
	CameraPrimary = 0
	// CameraSecondary identifies the right (secondary) camera.
	CameraSecondary = 1
)

// Observation is one camera's view of a feature in the current frame:
// the undistorted ray on the z=1 plane, the raw pixel location, and the
// normalized-plane velocity.
type Observation struct {
	CameraID int

	RayX, RayY, RayZ float64

	PixelU, PixelV float64

	VelX, VelY float64
}

// Report maps each feature id to its observations for one frame, one entry
// per camera that observed the id. It is rebuilt fresh every frame; the
// previous report is never retained by the tracker.
type Report map[int64][]Observation

// buildReport serializes the track table into a feature report. Primary
// observations come first; stereo observations are appended for ids that
// matched in the secondary image.
func buildReport(table *Table) Report {
	rep := make(Report, table.Len())
	for _, tr := range table.All() {
		rep[tr.ID] = append(rep[tr.ID], Observation{
			CameraID: CameraPrimary,
			RayX:     tr.Norm.X,
			RayY:     tr.Norm.Y,
			RayZ:     1,
			PixelU:   float64(tr.Pixel.X),
			PixelV:   float64(tr.Pixel.Y),
			VelX:     tr.Velocity.X,
			VelY:     tr.Velocity.Y,
		})
	}
	for _, tr := range table.All() {
		if !tr.HasRight {
			continue
		}
		rep[tr.ID] = append(rep[tr.ID], Observation{
			CameraID: CameraSecondary,
			RayX:     tr.RightNorm.X,
			RayY:     tr.RightNorm.Y,
			RayZ:     1,
			PixelU:   float64(tr.RightPixel.X),
			PixelV:   float64(tr.RightPixel.Y),
			VelX:     tr.RightVelocity.X,
			VelY:     tr.RightVelocity.Y,
		})
	}
	return rep
}
