package motionskel

import (
	"image"
	"image/color"
)

// cloneFrame returns a private, origin anchored copy of img.
// Single channel images stay *image.Gray, everything else becomes *image.NRGBA.
func cloneFrame(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return grayCopy(g)
	}
	dst := imgToNRGBA(img)
	if src, ok := img.(*image.NRGBA); ok && dst == src {
		b := src.Bounds()
		cp := image.NewNRGBA(b)
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(0, y)
			copy(cp.Pix[y*cp.Stride:y*cp.Stride+b.Dx()*4], src.Pix[si:si+b.Dx()*4])
		}
		return cp
	}
	return dst
}

// blankLike returns an all zero frame of the same kind and size as img.
func blankLike(img image.Image) image.Image {
	r := image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy())
	if _, ok := img.(*image.Gray); ok {
		return image.NewGray(r)
	}
	dst := image.NewNRGBA(r)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// grayCopy copies a grayscale image to a new one with min-point at (0, 0).
func grayCopy(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[si:si+b.Dx()])
	}
	return dst
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := srcBounds.Dx() * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
