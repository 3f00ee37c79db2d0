package motionskel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDiffer_FirstFrameIsBlank(t *testing.T) {
	assert := assert.New(t)
	d := NewDiffer(SaturatingDiff)

	out, err := d.Diff(uniformGray(4, 3, 200))
	require.NoError(t, err)
	g, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(make([]uint8, 12), g.Pix)

	out, err = d.Diff(uniformGray(4, 3, 210))
	require.NoError(t, err)
	assert.Equal(uint8(10), out.(*image.Gray).GrayAt(3, 2).Y)

	d.Reset()
	out, err = d.Diff(uniformGray(4, 3, 250))
	require.NoError(t, err)
	assert.Equal(uint8(0), out.(*image.Gray).GrayAt(0, 0).Y)
}

func TestDiffer_Modes(t *testing.T) {
	testCases := []struct {
		mode       DiffMode
		prev, cur  uint8
		wantOutput uint8
	}{
		{SaturatingDiff, 100, 130, 30},
		{SaturatingDiff, 130, 100, 0},
		{AbsoluteDiff, 100, 130, 30},
		{AbsoluteDiff, 130, 100, 30},
		{AbsoluteDiff, 0, 255, 255},
	}
	for _, tc := range testCases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			d := NewDiffer(tc.mode)
			_, err := d.Diff(uniformGray(2, 2, tc.prev))
			require.NoError(t, err)
			out, err := d.Diff(uniformGray(2, 2, tc.cur))
			require.NoError(t, err)
			assert.Equal(t, tc.wantOutput, out.(*image.Gray).GrayAt(1, 1).Y)
		})
	}
}

func TestDiffer_Color(t *testing.T) {
	assert := assert.New(t)
	d := NewDiffer(SaturatingDiff)

	_, err := d.Diff(uniformNRGBA(3, 3, color.NRGBA{R: 10, G: 200, B: 50, A: 255}))
	require.NoError(t, err)

	out, err := d.Diff(uniformNRGBA(3, 3, color.NRGBA{R: 60, G: 100, B: 50, A: 128}))
	require.NoError(t, err)
	n, ok := out.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(color.NRGBA{R: 50, G: 0, B: 0, A: 255}, n.NRGBAAt(2, 2))
}

func TestDiffer_KeepsPrivateCopy(t *testing.T) {
	d := NewDiffer(AbsoluteDiff)
	frame := uniformGray(2, 2, 40)

	_, err := d.Diff(frame)
	require.NoError(t, err)

	// Mutating the caller's frame must not affect the stored one.
	frame.Pix[0] = 0
	out, err := d.Diff(uniformGray(2, 2, 40))
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 0}, out.(*image.Gray).Pix)
}

func TestDiffer_Preconditions(t *testing.T) {
	assert := assert.New(t)
	d := NewDiffer(SaturatingDiff)

	_, err := d.Diff(nil)
	assert.ErrorIs(err, ErrPrecondition)
	_, err = d.Diff(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(err, ErrPrecondition)

	_, err = d.Diff(uniformGray(4, 4, 0))
	require.NoError(t, err)

	_, err = d.Diff(uniformGray(5, 4, 0))
	assert.ErrorIs(err, ErrPrecondition)

	_, err = d.Diff(uniformNRGBA(4, 4, color.NRGBA{A: 255}))
	assert.ErrorIs(err, ErrPrecondition)

	// The failed calls left the stored frame untouched.
	out, err := d.Diff(uniformGray(4, 4, 9))
	require.NoError(t, err)
	assert.Equal(uint8(9), out.(*image.Gray).GrayAt(0, 0).Y)
}

func TestDiffer_ModeNames(t *testing.T) {
	for _, mode := range []DiffMode{SaturatingDiff, AbsoluteDiff} {
		got, err := ParseDiffMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseDiffMode("signed")
	assert.Error(t, err)
}
