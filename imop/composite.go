package imop

import (
	"fmt"
	"image"

	"github.com/esimov/motionskel/utils"
)

const (
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcAtop = "src_atop"
	Xor     = "xor"
)

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// InitOp returns a Composite with source-over as the active operation.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops:     []string{SrcOver, DstOver, SrcAtop, Xor},
	}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %v", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composes src over backdrop and writes the result into dst.
// All three images must have the same bounds. When blend is not nil the
// source colors are first mixed with the backdrop using the blend mode.
func (op *Composite) Draw(dst, src, backdrop *image.NRGBA, blend *Blend) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			bi := backdrop.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := dst.PixOffset(b.Min.X+x, b.Min.Y+y)

			as := float64(src.Pix[si+3]) / 255
			ab := float64(backdrop.Pix[bi+3]) / 255

			// Porter-Duff coefficients of the source and the backdrop.
			var fs, fb float64
			switch op.current {
			case SrcOver:
				fs, fb = 1, 1-as
			case DstOver:
				fs, fb = 1-ab, 1
			case SrcAtop:
				fs, fb = ab, 1-as
			case Xor:
				fs, fb = 1-ab, 1-as
			}
			ao := as*fs + ab*fb

			for c := 0; c < 3; c++ {
				cs := float64(src.Pix[si+c]) / 255
				cb := float64(backdrop.Pix[bi+c]) / 255
				if blend != nil && blend.OpType != "" {
					cs = (1-ab)*cs + ab*blend.apply(cb, cs)
				}
				co := as*fs*cs + ab*fb*cb
				if ao > 0 {
					co /= ao
				}
				dst.Pix[di+c] = uint8(utils.Clamp(co*255+0.5, 0, 255))
			}
			dst.Pix[di+3] = uint8(utils.Clamp(ao*255+0.5, 0, 255))
		}
	}
}
