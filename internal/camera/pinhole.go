package camera

// Number of fixed-point iterations used to invert the distortion model when
// lifting a pixel. Eight is enough for typical radtan coefficients to converge
// well below a hundredth of a pixel.
const undistortIterations = 8

// Pinhole is a pinhole camera with radial-tangential (plumb bob) distortion.
type Pinhole struct {
	Width  int
	Height int

	// Intrinsics.
	Fx, Fy float64
	Cx, Cy float64

	// Distortion coefficients. All zero means an ideal pinhole.
	K1, K2 float64
	P1, P2 float64
}

// NewPinhole creates an ideal (distortion-free) pinhole model.
func NewPinhole(width, height int, fx, fy, cx, cy float64) *Pinhole {
	return &Pinhole{Width: width, Height: height, Fx: fx, Fy: fy, Cx: cx, Cy: cy}
}

// Size returns the calibrated image dimensions.
func (c *Pinhole) Size() (int, int) {
	return c.Width, c.Height
}

func (c *Pinhole) noDistortion() bool {
	return c.K1 == 0 && c.K2 == 0 && c.P1 == 0 && c.P2 == 0
}

// distort applies the radial-tangential model to an ideal normalized point
// and returns the offset added by distortion.
func (c *Pinhole) distort(p Vec2) Vec2 {
	mx2 := p.X * p.X
	my2 := p.Y * p.Y
	mxy := p.X * p.Y
	r2 := mx2 + my2
	rad := c.K1*r2 + c.K2*r2*r2
	return Vec2{
		X: p.X*rad + 2*c.P1*mxy + c.P2*(r2+2*mx2),
		Y: p.Y*rad + 2*c.P2*mxy + c.P1*(r2+2*my2),
	}
}

// LiftProjective lifts a pixel to a camera-frame ray on the z=1 plane,
// undoing distortion iteratively: starting from the distorted normalized
// point, the distortion offset is re-estimated and subtracted until the
// estimate settles.
func (c *Pinhole) LiftProjective(p Vec2) Vec3 {
	md := Vec2{
		X: (p.X - c.Cx) / c.Fx,
		Y: (p.Y - c.Cy) / c.Fy,
	}

	if c.noDistortion() {
		return Vec3{X: md.X, Y: md.Y, Z: 1}
	}

	u := md
	for i := 0; i < undistortIterations; i++ {
		d := c.distort(u)
		u = Vec2{X: md.X - d.X, Y: md.Y - d.Y}
	}
	return Vec3{X: u.X, Y: u.Y, Z: 1}
}

// SpaceToPlane projects a camera-frame ray to its distorted pixel location.
func (c *Pinhole) SpaceToPlane(v Vec3) Vec2 {
	n := v.Normalized()
	if !c.noDistortion() {
		d := c.distort(n)
		n = Vec2{X: n.X + d.X, Y: n.Y + d.Y}
	}
	return Vec2{
		X: c.Fx*n.X + c.Cx,
		Y: c.Fy*n.Y + c.Cy,
	}
}
