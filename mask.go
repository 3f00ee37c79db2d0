package motionskel

import (
	"bytes"
	"image"
)

const (
	// Background is the value of an unset mask pixel.
	Background uint8 = 0
	// Foreground is the value of a set mask pixel.
	Foreground uint8 = 255
)

// Mask is a single channel binary image stored row-major.
// Every element is either Background or Foreground.
type Mask struct {
	Pix    []uint8
	Width  int
	Height int
}

// Neighbor indexes the eight pixels surrounding a mask position.
// The order is the one used by the crossing number formula:
// starting from the pixel on the right and turning towards the top.
type Neighbor int

const (
	East Neighbor = iota
	NorthEast
	North
	NorthWest
	West
	SouthWest
	South
	SouthEast
)

// Neighborhood holds the values of P1..P8, indexed by Neighbor.
type Neighborhood [8]uint8

// neighborOffsets maps each Neighbor to its (dx, dy) displacement.
var neighborOffsets = [8]image.Point{
	East:      {1, 0},
	NorthEast: {1, -1},
	North:     {0, -1},
	NorthWest: {-1, -1},
	West:      {-1, 0},
	SouthWest: {-1, 1},
	South:     {0, 1},
	SouthEast: {1, 1},
}

// NewMask allocates an all background mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// MaskFromGray copies a binary grayscale image into a new mask.
func MaskFromGray(img *image.Gray) (*Mask, error) {
	if img == nil {
		return nil, precondition("mask", "nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, precondition("mask", "zero dimension image %dx%d", b.Dx(), b.Dy())
	}
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[si : si+m.Width]
		for x, v := range row {
			if v != Background && v != Foreground {
				return nil, precondition("mask", "non binary value %d at (%d,%d)", v, x, y)
			}
		}
		copy(m.Pix[y*m.Width:], row)
	}
	return m, nil
}

// Gray returns the mask as an image.Gray sharing no memory with the mask.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Pix)
	return img
}

// Bounds returns the mask rectangle, anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	copy(c.Pix, m.Pix)
	return c
}

// Equal reports whether both masks have the same size and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Width == o.Width && m.Height == o.Height && bytes.Equal(m.Pix, o.Pix)
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v == Foreground {
			n++
		}
	}
	return n
}

// At returns the pixel value at (x, y). The second value is false
// when the position falls outside the mask.
func (m *Mask) At(x, y int) (uint8, bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return Background, false
	}
	return m.Pix[y*m.Width+x], true
}

// Set writes v at (x, y). Positions outside the mask are ignored.
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// IsBorder reports whether (x, y) lies on the first or last row or column.
func (m *Mask) IsBorder(x, y int) bool {
	return x == 0 || y == 0 || x == m.Width-1 || y == m.Height-1
}

// Neighbors returns the 8-neighborhood of (x, y).
// ok is false for border and outside positions, where at least one neighbor is missing.
func (m *Mask) Neighbors(x, y int) (n Neighborhood, ok bool) {
	if x <= 0 || y <= 0 || x >= m.Width-1 || y >= m.Height-1 {
		return n, false
	}
	for i, off := range neighborOffsets {
		n[i] = m.Pix[(y+off.Y)*m.Width+x+off.X]
	}
	return n, true
}

// Sum returns the sum of the neighbor values (sigma).
func (n Neighborhood) Sum() int {
	s := 0
	for _, v := range n {
		s += int(v)
	}
	return s
}

// Region returns the bounding box of the foreground pixels and its center point.
// ok is false when the mask has no foreground.
func Region(m *Mask) (box image.Rectangle, center image.Point, ok bool) {
	minX, minY, maxX, maxY := m.Width, m.Height, -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != Foreground {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, image.Point{}, false
	}
	box = image.Rect(minX, minY, maxX+1, maxY+1)
	center = image.Pt((minX+maxX)/2, (minY+maxY)/2)

	return box, center, true
}

// validate checks the mask is usable by the thinning engine.
func (m *Mask) validate(op string) error {
	if m == nil {
		return precondition(op, "nil mask")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return precondition(op, "zero dimension mask %dx%d", m.Width, m.Height)
	}
	if len(m.Pix) != m.Width*m.Height {
		return precondition(op, "buffer length %d does not match %dx%d", len(m.Pix), m.Width, m.Height)
	}
	return nil
}
