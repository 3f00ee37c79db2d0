package motionskel

import (
	"image"

	"github.com/disintegration/gift"
)

// A 3x3 disk kernel is the cross structuring element. Out of range samples are
// replicated from the nearest edge pixel, which for a cross means the image
// border neither erodes nor dilates.
var (
	erodeCross  = gift.New(gift.Minimum(3, true))
	dilateCross = gift.New(gift.Maximum(3, true))
)

// morphSkeleton replaces the content of m with its morphological skeleton.
// Every iteration erodes the working image, reopens it with a dilation and adds
// the pixels lost by the opening to the skeleton. It stops once nothing is left
// to erode or after limit iterations.
func morphSkeleton(m *Mask, limit int) Stats {
	var (
		st     Stats
		bounds = m.Bounds()
		img    = m.Gray()
		skel   = NewMask(m.Width, m.Height)
		eroded = image.NewGray(bounds)
		opened = image.NewGray(bounds)
	)
	for st.Iterations < limit {
		erodeCross.Draw(eroded, img)
		dilateCross.Draw(opened, eroded)
		for i, v := range img.Pix {
			if v == Foreground && opened.Pix[i] == Background {
				skel.Pix[i] = Foreground
			}
		}
		img, eroded = eroded, img
		st.Iterations++

		if isBlank(img.Pix) {
			st.Converged = true
			break
		}
	}
	st.Removed = m.Count() - skel.Count()
	copy(m.Pix, skel.Pix)

	return st
}

func isBlank(pix []uint8) bool {
	for _, v := range pix {
		if v != Background {
			return false
		}
	}
	return true
}
