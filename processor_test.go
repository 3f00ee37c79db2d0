package motionskel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareFrame returns a dark frame with a bright square drawn at r.
func squareFrame(w, h int, r image.Rectangle) *image.Gray {
	img := uniformGray(w, h, 0)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestProcessor_Defaults(t *testing.T) {
	p := DefaultProcessor()
	assert.Equal(t, uint8(10), p.Threshold)
	assert.Equal(t, 5, p.WindowSize)
	assert.Equal(t, 100, p.IterationCap)
	assert.Equal(t, CrossingNumber, p.Mode)
	assert.Equal(t, SaturatingDiff, p.DiffMode)
	assert.NoError(t, p.Validate())
}

func TestProcessor_Validate(t *testing.T) {
	testCases := map[string]func(p *Processor){
		"even window":     func(p *Processor) { p.WindowSize = 4 },
		"small window":    func(p *Processor) { p.WindowSize = 1 },
		"negative cap":    func(p *Processor) { p.IterationCap = -3 },
		"unknown mode":    func(p *Processor) { p.Mode = ThinningMode(42) },
		"zero value proc": func(p *Processor) { *p = Processor{} },
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			p := DefaultProcessor()
			mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrPrecondition)

			_, err := p.Process(uniformGray(8, 8, 0))
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestProcessor_MovingObject(t *testing.T) {
	assert := assert.New(t)
	p := DefaultProcessor()

	first, err := p.Process(uniformGray(40, 40, 0))
	require.NoError(t, err)
	assert.Equal(0, first.Skeleton.Count())
	assert.False(first.HasRegion)
	assert.Equal(Stats{Iterations: 1, Removed: 0, Converged: true}, first.Stats)

	square := image.Rect(10, 12, 30, 28)
	res, err := p.Process(squareFrame(40, 40, square))
	require.NoError(t, err)

	assert.True(res.Converged)
	assert.True(res.HasRegion)
	assert.Greater(res.Binary.Count(), res.Skeleton.Count())
	assert.Greater(res.Skeleton.Count(), 0)
	assert.Equal(res.Binary.Count()-res.Skeleton.Count(), res.Removed)
	assert.True(res.Region.In(square), "region %v outside %v", res.Region, square)
	assert.True(res.Center.In(res.Region))

	for i, v := range res.Skeleton.Pix {
		if v == Foreground {
			assert.Equal(Foreground, res.Binary.Pix[i])
		}
	}

	// The same frame again shows no motion.
	still, err := p.Process(squareFrame(40, 40, square))
	require.NoError(t, err)
	assert.Equal(0, still.Binary.Count())
}

func TestProcessor_SaturatingIgnoresVanishingObject(t *testing.T) {
	square := image.Rect(5, 5, 15, 15)

	for mode, want := range map[DiffMode]bool{SaturatingDiff: false, AbsoluteDiff: true} {
		p := DefaultProcessor()
		p.DiffMode = mode

		_, err := p.Process(squareFrame(20, 20, square))
		require.NoError(t, err)
		res, err := p.Process(uniformGray(20, 20, 0))
		require.NoError(t, err)
		assert.Equal(t, want, res.HasRegion, mode.String())
	}
}

func TestProcessor_SkipDiff(t *testing.T) {
	p := DefaultProcessor()
	p.SkipDiff = true

	res, err := p.Process(squareFrame(24, 24, image.Rect(4, 4, 20, 20)))
	require.NoError(t, err)
	assert.True(t, res.HasRegion)
	assert.Greater(t, res.Removed, 0)
}

func TestProcessor_SizeChange(t *testing.T) {
	p := DefaultProcessor()

	_, err := p.Process(uniformGray(10, 10, 0))
	require.NoError(t, err)
	_, err = p.Process(uniformGray(12, 10, 0))
	assert.ErrorIs(t, err, ErrPrecondition)

	p.Reset()
	res, err := p.Process(uniformGray(12, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 12, res.Skeleton.Width)
}

func TestProcessor_Modes(t *testing.T) {
	frame := squareFrame(32, 32, image.Rect(6, 6, 26, 26))

	for _, mode := range []ThinningMode{CrossingNumber, CrossingNumberParallel, Morphological} {
		t.Run(mode.String(), func(t *testing.T) {
			p := DefaultProcessor()
			p.SkipDiff = true
			p.Mode = mode
			p.Workers = 4

			res, err := p.Process(frame)
			require.NoError(t, err)
			assert.True(t, res.Converged)
			assert.Less(t, res.Skeleton.Count(), res.Binary.Count())
			assert.Equal(t, res.Binary.Count()-res.Skeleton.Count(), res.Removed)
		})
	}
}
