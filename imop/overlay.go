package imop

import (
	"image"
	"image/color"
	"image/draw"
)

// Layer paints every foreground pixel of mask with col and leaves the rest transparent.
func Layer(mask *image.Gray, col color.NRGBA) *image.NRGBA {
	b := mask.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y != 0 {
				dst.SetNRGBA(x, y, col)
			}
		}
	}
	return dst
}

// Overlay draws the skeleton mask in col on top of frame.
func Overlay(frame image.Image, mask *image.Gray, col color.NRGBA, op *Composite, blend *Blend) *image.NRGBA {
	fb := frame.Bounds()
	backdrop := image.NewNRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	draw.Draw(backdrop, backdrop.Bounds(), frame, fb.Min, draw.Src)

	if op == nil {
		op = InitOp()
	}
	dst := image.NewNRGBA(backdrop.Bounds())
	op.Draw(dst, Layer(mask, col), backdrop, blend)

	return dst
}

// Crosshair draws a horizontal and a vertical line through center, spanning the whole image.
func Crosshair(img *image.NRGBA, center image.Point, col color.NRGBA) {
	b := img.Bounds()
	if !center.In(b) {
		return
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetNRGBA(x, center.Y, col)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetNRGBA(center.X, y, col)
	}
}
