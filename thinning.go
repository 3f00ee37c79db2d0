package motionskel

import (
	"fmt"
	"runtime"
	"sync"
)

// DefaultIterationCap is the maximum number of full image passes.
const DefaultIterationCap = 100

// ThinningMode selects the skeletonization algorithm.
type ThinningMode int

const (
	// CrossingNumber removes redundant boundary pixels sequentially, in place.
	// A removal made earlier in a pass is visible to every later pixel of the same pass.
	CrossingNumber ThinningMode = iota
	// CrossingNumberParallel applies the same removal rule, but every pass reads
	// from a snapshot of the previous pass and rows are evaluated concurrently.
	// It converges differently and can produce a different skeleton.
	CrossingNumberParallel
	// Morphological builds the skeleton as the union of the differences between
	// successive erosions and their openings, using a 3x3 cross.
	Morphological
)

var modeNames = map[ThinningMode]string{
	CrossingNumber:         "crossing",
	CrossingNumberParallel: "parallel",
	Morphological:          "morph",
}

func (m ThinningMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ThinningMode(%d)", int(m))
}

// ParseThinningMode converts a mode name into a ThinningMode.
func ParseThinningMode(s string) (ThinningMode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown thinning mode %q", s)
}

// Stats holds the diagnostic counters of one thinning invocation.
type Stats struct {
	// Iterations counts every pass, including the final one which removed nothing.
	Iterations int
	// Removed is the number of foreground pixels turned into background.
	Removed int
	// Converged is false when the iteration cap was reached while the
	// last pass was still removing pixels.
	Converged bool
}

// Thinner reduces a binary mask to its skeleton.
type Thinner struct {
	Mode         ThinningMode
	IterationCap int
	// Workers bounds the goroutines used by CrossingNumberParallel.
	Workers int
}

// Thin skeletonizes m in place with the default sequential crossing number algorithm.
func Thin(m *Mask) (*Mask, Stats, error) {
	t := &Thinner{}
	return t.Thin(m)
}

// Thin skeletonizes m in place and returns it together with the pass counters.
// Border pixels are never modified and background pixels never become foreground.
func (t *Thinner) Thin(m *Mask) (*Mask, Stats, error) {
	if err := m.validate("thin"); err != nil {
		return nil, Stats{}, err
	}
	limit := t.IterationCap
	if limit < 0 {
		return nil, Stats{}, precondition("thin", "negative iteration cap %d", limit)
	}
	if limit == 0 {
		limit = DefaultIterationCap
	}

	var st Stats
	switch t.Mode {
	case CrossingNumber:
		st = iterate(limit, func() int { return sequentialPass(m) })
	case CrossingNumberParallel:
		snapshot := NewMask(m.Width, m.Height)
		workers := t.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		st = iterate(limit, func() int {
			copy(snapshot.Pix, m.Pix)
			return parallelPass(snapshot, m, workers)
		})
	case Morphological:
		st = morphSkeleton(m, limit)
	default:
		return nil, Stats{}, precondition("thin", "unknown mode %v", t.Mode)
	}
	return m, st, nil
}

// iterate runs pass until it removes nothing or limit passes were made.
func iterate(limit int, pass func() int) Stats {
	var st Stats
	for st.Iterations < limit {
		n := pass()
		st.Iterations++
		st.Removed += n
		if n == 0 {
			st.Converged = true
			break
		}
	}
	return st
}

// sequentialPass visits the interior pixels row by row and clears the
// removable ones immediately.
func sequentialPass(m *Mask) int {
	removed := 0
	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < m.Width-1; x++ {
			idx := y*m.Width + x
			if m.Pix[idx] != Foreground {
				continue
			}
			n, _ := m.Neighbors(x, y)
			if Removable(n) {
				m.Pix[idx] = Background
				removed++
			}
		}
	}
	return removed
}

// parallelPass decides every removal from src and writes them into dst.
// Each worker owns a contiguous band of rows.
func parallelPass(src, dst *Mask, workers int) int {
	rows := src.Height - 2
	if rows <= 0 || src.Width < 3 {
		return 0
	}
	if workers > rows {
		workers = rows
	}
	var (
		wg     sync.WaitGroup
		counts = make([]int, workers)
		band   = (rows + workers - 1) / workers
	)
	for w := 0; w < workers; w++ {
		y0 := 1 + w*band
		y1 := min(y0+band, src.Height-1)

		wg.Add(1)
		go func(w, y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				for x := 1; x < src.Width-1; x++ {
					idx := y*src.Width + x
					if src.Pix[idx] != Foreground {
						continue
					}
					n, _ := src.Neighbors(x, y)
					if Removable(n) {
						dst.Pix[idx] = Background
						counts[w]++
					}
				}
			}
		}(w, y0, y1)
	}
	wg.Wait()

	removed := 0
	for _, c := range counts {
		removed += c
	}
	return removed
}

// CrossingNumber returns chi for the neighborhood: the number of value changes
// between consecutive orthogonal neighbors, plus two for every diagonal
// neighbor brighter than both orthogonal neighbors adjacent to it.
func (n Neighborhood) CrossingNumber() int {
	p1, p2, p3, p4 := n[East], n[NorthEast], n[North], n[NorthWest]
	p5, p6, p7, p8 := n[West], n[SouthWest], n[South], n[SouthEast]

	chi := btoi(p1 != p3) + btoi(p3 != p5) + btoi(p5 != p7) + btoi(p7 != p1)
	chi += 2 * (btoi(p2 > p1 && p2 > p3) +
		btoi(p4 > p3 && p4 > p5) +
		btoi(p6 > p5 && p6 > p7) +
		btoi(p8 > p7 && p8 > p1))

	return chi
}

// OnEdge reports whether the pixel sits on a boundary approached from one of the
// four cardinal directions: an orthogonal neighbor is background while the
// opposite one is foreground.
func (n Neighborhood) OnEdge() bool {
	p1, p3, p5, p7 := n[East], n[North], n[West], n[South]

	return (p3 == Background && p7 == Foreground) || // north
		(p5 == Background && p1 == Foreground) || // west
		(p7 == Background && p3 == Foreground) || // south
		(p1 == Background && p5 == Foreground) // east
}

// Removable reports whether a foreground pixel with this neighborhood is redundant.
// A pixel with exactly one foreground neighbor is the end of a line and is kept.
func Removable(n Neighborhood) bool {
	return n.OnEdge() && n.CrossingNumber() == 2 && n.Sum() != int(Foreground)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
