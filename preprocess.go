package motionskel

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// DefaultThreshold and DefaultWindowSize suit frame differences of a dimly lit scene.
const (
	DefaultThreshold  = 10
	DefaultWindowSize = 5
)

// Preprocessor turns a frame into a clean binary mask.
type Preprocessor struct {
	// Threshold is exclusive: only intensities strictly above it become foreground.
	Threshold uint8
	// WindowSize is the side of the square median window, an odd number >= 3.
	WindowSize int
	// Invert swaps foreground and background before the median filter,
	// for dark objects in front of a bright background.
	Invert bool
}

// Validate checks the preprocessor options.
func (p *Preprocessor) Validate() error {
	if p.WindowSize < 3 || p.WindowSize%2 == 0 {
		return precondition("prepare", "median window size must be an odd integer >= 3, got %d", p.WindowSize)
	}
	return nil
}

// Prepare reduces frame to a single channel, binarizes it against the
// threshold and removes isolated noise with a median filter.
// The median window samples edge pixels repeatedly past the image border.
func (p *Preprocessor) Prepare(frame image.Image) (*Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, precondition("prepare", "nil frame")
	}
	if b := frame.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, precondition("prepare", "zero dimension frame %dx%d", b.Dx(), b.Dy())
	}

	gray := Grayscale(frame)
	binary := p.binarize(gray)

	filtered := image.NewGray(binary.Bounds())
	gift.New(gift.Median(p.WindowSize, false)).Draw(filtered, binary)

	return MaskFromGray(filtered)
}

// binarize applies the fixed threshold to every pixel.
func (p *Preprocessor) binarize(src *image.Gray) *image.Gray {
	on, off := Foreground, Background
	if p.Invert {
		on, off = off, on
	}
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		if v > p.Threshold {
			dst.Pix[i] = on
		} else {
			dst.Pix[i] = off
		}
	}
	return dst
}

// Grayscale converts the frame to a single channel intensity map using the
// 0.299, 0.587, 0.114 luma weights. Single channel frames are only copied.
func Grayscale(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return grayCopy(g)
	}
	lum := imaging.Grayscale(src)
	dst := image.NewGray(lum.Bounds())
	for i := range dst.Pix {
		dst.Pix[i] = lum.Pix[i*4]
	}
	return dst
}
