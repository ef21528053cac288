// Package camera provides the projection models used to convert between
// pixel coordinates and normalized camera rays.
package camera

// Vec2 is a 2D point or vector in either pixel or normalized coordinates.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D ray in the camera frame.
type Vec3 struct {
	X, Y, Z float64
}

// Normalized projects the ray onto the z=1 plane.
func (v Vec3) Normalized() Vec2 {
	return Vec2{X: v.X / v.Z, Y: v.Y / v.Z}
}

// Model converts between pixel coordinates and camera-frame rays.
// Implementations must be stateless per call and safe for concurrent reads.
type Model interface {
	// LiftProjective lifts a distorted pixel coordinate to a ray in the
	// camera frame. The returned ray is not normalized.
	LiftProjective(p Vec2) Vec3

	// SpaceToPlane projects a camera-frame ray to a distorted pixel
	// coordinate.
	SpaceToPlane(v Vec3) Vec2

	// Size returns the image width and height the model was calibrated for.
	Size() (width, height int)
}
