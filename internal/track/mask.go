package track

import "math"

// Mask is the per-frame coverage raster: pixels within the minimum-separation
// radius of an accepted track are claimed, and new candidates may only be
// placed on free pixels. It is scoped to one selection pass and discarded
// afterwards.
type Mask struct {
	width   int
	height  int
	radius  int
	claimed []bool
}

// NewMask creates an all-free mask of the given dimensions. radius is the
// minimum-separation distance stamped around each accepted point.
func NewMask(width, height, radius int) *Mask {
	return &Mask{
		width:   width,
		height:  height,
		radius:  radius,
		claimed: make([]bool, width*height),
	}
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Free reports whether the pixel under the point is unclaimed. Points that
// round outside the raster are never free.
func (m *Mask) Free(x, y float32) bool {
	px := int(math.Round(float64(x)))
	py := int(math.Round(float64(y)))
	if px < 0 || px >= m.width || py < 0 || py >= m.height {
		return false
	}
	return !m.claimed[py*m.width+px]
}

// Claim stamps a disk of the separation radius around the point, clipped to
// the raster.
func (m *Mask) Claim(x, y float32) {
	cx := int(math.Round(float64(x)))
	cy := int(math.Round(float64(y)))
	r := m.radius
	r2 := r * r

	y0, y1 := cy-r, cy+r
	if y0 < 0 {
		y0 = 0
	}
	if y1 > m.height-1 {
		y1 = m.height - 1
	}
	for py := y0; py <= y1; py++ {
		dy := py - cy
		x0, x1 := cx-r, cx+r
		if x0 < 0 {
			x0 = 0
		}
		if x1 > m.width-1 {
			x1 = m.width - 1
		}
		row := py * m.width
		for px := x0; px <= x1; px++ {
			dx := px - cx
			if dx*dx+dy*dy <= r2 {
				m.claimed[row+px] = true
			}
		}
	}
}
