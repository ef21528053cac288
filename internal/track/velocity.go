package track

import "github.com/quillvision/viofront/internal/camera"

// ptsVelocity computes the finite-difference velocity of each id on the
// normalized plane: (current - previous position) / dt for ids present in the
// previous frame's map, zero otherwise. When prev is empty (first frame, or
// first stereo frame) every velocity is zero.
//
// Working on the normalized plane makes the result independent of image
// resolution and lens distortion.
//
// Returns the velocities, index-aligned with ids, and the id-to-position map
// to carry into the next frame.
func ptsVelocity(dt float64, ids []int64, cur []camera.Vec2, prev map[int64]camera.Vec2) ([]camera.Vec2, map[int64]camera.Vec2) {
	curMap := make(map[int64]camera.Vec2, len(ids))
	for i, id := range ids {
		curMap[id] = cur[i]
	}

	vel := make([]camera.Vec2, len(ids))
	if len(prev) == 0 || dt <= 0 {
		return vel, curMap
	}
	for i, id := range ids {
		p, ok := prev[id]
		if !ok {
			continue
		}
		vel[i] = camera.Vec2{
			X: (cur[i].X - p.X) / dt,
			Y: (cur[i].Y - p.Y) / dt,
		}
	}
	return vel, curMap
}
