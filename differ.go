package motionskel

import (
	"fmt"
	"image"

	"github.com/esimov/motionskel/utils"
)

// DiffMode selects how two consecutive frames are subtracted.
type DiffMode int

const (
	// SaturatingDiff subtracts the previous frame from the current one and
	// clamps negative results to zero, so only brightening pixels survive.
	SaturatingDiff DiffMode = iota
	// AbsoluteDiff keeps the magnitude of the change in both directions.
	AbsoluteDiff
)

func (m DiffMode) String() string {
	switch m {
	case SaturatingDiff:
		return "saturating"
	case AbsoluteDiff:
		return "absolute"
	}
	return fmt.Sprintf("DiffMode(%d)", int(m))
}

// ParseDiffMode converts a mode name into a DiffMode.
func ParseDiffMode(s string) (DiffMode, error) {
	switch s {
	case "saturating":
		return SaturatingDiff, nil
	case "absolute":
		return AbsoluteDiff, nil
	}
	return 0, fmt.Errorf("unknown difference mode %q", s)
}

// Differ isolates motion by subtracting the previously seen frame from the current one.
// It owns the previous frame for the whole capture session and is not safe for concurrent use.
type Differ struct {
	Mode DiffMode
	prev image.Image
}

// NewDiffer returns a Differ holding no previous frame.
func NewDiffer(mode DiffMode) *Differ {
	return &Differ{Mode: mode}
}

// Reset forgets the previous frame; the next Diff call starts a new session.
func (d *Differ) Reset() {
	d.prev = nil
}

// Diff returns the pixel-wise difference between frame and the previous frame,
// then keeps a copy of frame for the next call. The first call of a session
// returns an all zero frame. Alpha is always opaque in color results.
func (d *Differ) Diff(frame image.Image) (image.Image, error) {
	if frame == nil {
		return nil, precondition("diff", "nil frame")
	}
	if b := frame.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, precondition("diff", "zero dimension frame %dx%d", b.Dx(), b.Dy())
	}
	cur := cloneFrame(frame)
	if d.prev == nil {
		d.prev = cur
		return blankLike(cur), nil
	}
	if cs, ps := cur.Bounds().Size(), d.prev.Bounds().Size(); cs != ps {
		return nil, precondition("diff", "frame size changed from %v to %v", ps, cs)
	}

	var out image.Image
	switch c := cur.(type) {
	case *image.Gray:
		p, ok := d.prev.(*image.Gray)
		if !ok {
			return nil, precondition("diff", "frame changed from color to single channel")
		}
		dst := image.NewGray(c.Rect)
		for i := range c.Pix {
			dst.Pix[i] = d.sub(c.Pix[i], p.Pix[i])
		}
		out = dst
	case *image.NRGBA:
		p, ok := d.prev.(*image.NRGBA)
		if !ok {
			return nil, precondition("diff", "frame changed from single channel to color")
		}
		dst := image.NewNRGBA(c.Rect)
		for i := 0; i < len(c.Pix); i += 4 {
			dst.Pix[i+0] = d.sub(c.Pix[i+0], p.Pix[i+0])
			dst.Pix[i+1] = d.sub(c.Pix[i+1], p.Pix[i+1])
			dst.Pix[i+2] = d.sub(c.Pix[i+2], p.Pix[i+2])
			dst.Pix[i+3] = 0xff
		}
		out = dst
	}
	d.prev = cur

	return out, nil
}

func (d *Differ) sub(cur, prev uint8) uint8 {
	v := int(cur) - int(prev)
	if d.Mode == AbsoluteDiff {
		return uint8(utils.Abs(v))
	}
	return uint8(utils.Max(v, 0))
}
