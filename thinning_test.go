package motionskel

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var block3x3 = []string{
	".....",
	".###.",
	".###.",
	".###.",
	".....",
}

func TestThin_Goldens(t *testing.T) {
	testCases := []struct {
		name  string
		mode  ThinningMode
		cap   int
		input []string
		want  []string
		stats Stats
	}{
		{
			name:  "sequential block",
			mode:  CrossingNumber,
			input: block3x3,
			want: []string{
				".....",
				".....",
				".....",
				".###.",
				".....",
			},
			stats: Stats{Iterations: 2, Removed: 6, Converged: true},
		},
		{
			name:  "parallel block",
			mode:  CrossingNumberParallel,
			input: block3x3,
			want: []string{
				".....",
				".....",
				"..#..",
				".....",
				".....",
			},
			stats: Stats{Iterations: 2, Removed: 8, Converged: true},
		},
		{
			name:  "morphological block",
			mode:  Morphological,
			input: block3x3,
			want: []string{
				".....",
				".#.#.",
				"..#..",
				".#.#.",
				".....",
			},
			stats: Stats{Iterations: 2, Removed: 4, Converged: true},
		},
		{
			name:  "iteration cap reached",
			mode:  CrossingNumber,
			cap:   1,
			input: block3x3,
			want: []string{
				".....",
				".....",
				".....",
				".###.",
				".....",
			},
			stats: Stats{Iterations: 1, Removed: 6, Converged: false},
		},
		{
			name: "rectangle",
			mode: CrossingNumber,
			input: []string{
				"............",
				"............",
				"..########..",
				"..########..",
				"..########..",
				"..########..",
				"............",
				"............",
			},
			want: []string{
				"............",
				"............",
				"............",
				"............",
				"............",
				"..########..",
				"............",
				"............",
			},
			stats: Stats{Iterations: 2, Removed: 24, Converged: true},
		},
		{
			name: "l shape",
			mode: CrossingNumber,
			input: []string{
				"..........",
				"..........",
				"..##......",
				"..##......",
				"..##......",
				"..##......",
				"..######..",
				"..######..",
				"..........",
				"..........",
			},
			want: []string{
				"..........",
				"..........",
				"..........",
				"..........",
				"..........",
				"..........",
				"..........",
				"..######..",
				"..........",
				"..........",
			},
			stats: Stats{Iterations: 2, Removed: 14, Converged: true},
		},
		{
			name: "solid mask keeps its interior",
			mode: CrossingNumber,
			input: []string{
				"####",
				"####",
				"####",
				"####",
			},
			want: []string{
				"####",
				"####",
				"####",
				"####",
			},
			stats: Stats{Iterations: 1, Removed: 0, Converged: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			th := &Thinner{Mode: tc.mode, IterationCap: tc.cap, Workers: 2}
			m := parseMask(tc.input...)

			got, stats, err := th.Thin(m)
			require.NoError(t, err)
			assert.Same(t, m, got)
			if diff := cmp.Diff(tc.want, got.rows()); diff != "" {
				t.Errorf("skeleton mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tc.stats, stats)
		})
	}
}

func TestThin_UntouchedShapes(t *testing.T) {
	testCases := map[string][]string{
		"horizontal line": {
			"........",
			"........",
			"........",
			".######.",
			"........",
			"........",
		},
		"vertical line": {
			"......",
			"..#...",
			"..#...",
			"..#...",
			"..#...",
			"......",
		},
		"isolated pixel": {
			".....",
			".....",
			"..#..",
			".....",
			".....",
		},
		"background": {
			"....",
			"....",
			"....",
		},
		"too narrow": {
			"##",
			"##",
			"##",
		},
		"single row": {
			"#####",
		},
	}

	for name, rows := range testCases {
		t.Run(name, func(t *testing.T) {
			for _, mode := range []ThinningMode{CrossingNumber, CrossingNumberParallel} {
				m := parseMask(rows...)
				got, stats, err := (&Thinner{Mode: mode}).Thin(m)
				require.NoError(t, err)

				if diff := cmp.Diff(rows, got.rows()); diff != "" {
					t.Errorf("%v: shape changed (-want +got):\n%s", mode, diff)
				}
				assert.Equal(t, Stats{Iterations: 1, Removed: 0, Converged: true}, stats, mode.String())
			}
		})
	}
}

func TestThin_Properties(t *testing.T) {
	for seed := int64(1); seed <= 12; seed++ {
		input := randomBlobs(rand.New(rand.NewSource(seed)), 64, 64)

		for _, mode := range []ThinningMode{CrossingNumber, CrossingNumberParallel, Morphological} {
			th := &Thinner{Mode: mode, Workers: 3}

			got, stats, err := th.Thin(input.Clone())
			require.NoError(t, err)
			require.True(t, stats.Converged, "seed %d, mode %v", seed, mode)
			assert.Equal(t, input.Count()-got.Count(), stats.Removed)

			for y := 0; y < input.Height; y++ {
				for x := 0; x < input.Width; x++ {
					in, _ := input.At(x, y)
					out, _ := got.At(x, y)
					if in == Background && out != Background {
						t.Fatalf("seed %d, mode %v: background pixel (%d,%d) became foreground", seed, mode, x, y)
					}
					if mode != Morphological && input.IsBorder(x, y) && in != out {
						t.Fatalf("seed %d, mode %v: border pixel (%d,%d) changed", seed, mode, x, y)
					}
				}
			}
			if mode == Morphological {
				continue
			}

			// A converged skeleton is a fixed point.
			again, stats, err := th.Thin(got.Clone())
			require.NoError(t, err)
			assert.True(t, again.Equal(got), "seed %d, mode %v: skeleton is not stable", seed, mode)
			assert.Equal(t, Stats{Iterations: 1, Removed: 0, Converged: true}, stats)
		}
	}
}

func TestThin_ParallelIsDeterministic(t *testing.T) {
	input := randomBlobs(rand.New(rand.NewSource(42)), 96, 80)

	want, wantStats, err := (&Thinner{Mode: CrossingNumberParallel, Workers: 1}).Thin(input.Clone())
	require.NoError(t, err)

	for _, workers := range []int{2, 5, 16, 200} {
		got, stats, err := (&Thinner{Mode: CrossingNumberParallel, Workers: workers}).Thin(input.Clone())
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "workers %d", workers)
		assert.Equal(t, wantStats, stats, "workers %d", workers)
	}
}

func TestThin_SequentialIsDeterministic(t *testing.T) {
	input := randomBlobs(rand.New(rand.NewSource(7)), 64, 64)

	a, sa, err := Thin(input.Clone())
	require.NoError(t, err)
	b, sb, err := Thin(input.Clone())
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, sa, sb)
}

func TestThin_Preconditions(t *testing.T) {
	testCases := []struct {
		name string
		th   *Thinner
		mask *Mask
	}{
		{"nil mask", &Thinner{}, nil},
		{"zero width", &Thinner{}, &Mask{Height: 3}},
		{"short buffer", &Thinner{}, &Mask{Pix: make([]uint8, 5), Width: 3, Height: 3}},
		{"negative cap", &Thinner{IterationCap: -1}, NewMask(3, 3)},
		{"unknown mode", &Thinner{Mode: ThinningMode(9)}, NewMask(3, 3)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, stats, err := tc.th.Thin(tc.mask)
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Nil(t, got)
			assert.Equal(t, Stats{}, stats)
		})
	}
}

func TestThin_RemovalRule(t *testing.T) {
	assert := assert.New(t)

	// Top left corner of a block.
	corner := Neighborhood{East: Foreground, South: Foreground, SouthEast: Foreground}
	assert.Equal(2, corner.CrossingNumber())
	assert.True(corner.OnEdge())
	assert.True(Removable(corner))

	// Line end: a single neighbor.
	end := Neighborhood{East: Foreground}
	assert.Equal(2, end.CrossingNumber())
	assert.False(Removable(end))

	// Middle of a horizontal line.
	middle := Neighborhood{East: Foreground, West: Foreground}
	assert.Equal(4, middle.CrossingNumber())
	assert.False(Removable(middle))

	// Lone diagonal neighbors count twice.
	diag := Neighborhood{NorthEast: Foreground, SouthWest: Foreground}
	assert.Equal(4, diag.CrossingNumber())
	assert.False(diag.OnEdge())

	var interior Neighborhood
	for i := range interior {
		interior[i] = Foreground
	}
	assert.Equal(0, interior.CrossingNumber())
	assert.False(Removable(interior))
}

func TestThin_ModeNames(t *testing.T) {
	for _, mode := range []ThinningMode{CrossingNumber, CrossingNumberParallel, Morphological} {
		got, err := ParseThinningMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseThinningMode("zhang-suen")
	assert.Error(t, err)
	assert.Equal(t, "ThinningMode(7)", ThinningMode(7).String())
}

// randomBlobs fills a mask with overlapping filled rectangles, some of them
// touching the border.
func randomBlobs(rnd *rand.Rand, w, h int) *Mask {
	m := NewMask(w, h)
	for i := 0; i < 6; i++ {
		x0, y0 := rnd.Intn(w), rnd.Intn(h)
		x1, y1 := x0+1+rnd.Intn(w/3), y0+1+rnd.Intn(h/3)
		for y := y0; y < y1 && y < h; y++ {
			for x := x0; x < x1 && x < w; x++ {
				m.Set(x, y, Foreground)
			}
		}
	}
	return m
}

func benchmarkThin(b *testing.B, mode ThinningMode) {
	input := randomBlobs(rand.New(rand.NewSource(1)), 320, 240)
	th := &Thinner{Mode: mode}
	m := NewMask(input.Width, input.Height)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(m.Pix, input.Pix)
		if _, _, err := th.Thin(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkThin_Sequential(b *testing.B) { benchmarkThin(b, CrossingNumber) }

func BenchmarkThin_Parallel(b *testing.B) { benchmarkThin(b, CrossingNumberParallel) }

func BenchmarkThin_Morphological(b *testing.B) { benchmarkThin(b, Morphological) }
