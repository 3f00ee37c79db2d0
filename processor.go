package motionskel

import (
	"image"
)

// Processor options
type Processor struct {
	Threshold    uint8
	WindowSize   int
	IterationCap int
	Workers      int
	Mode         ThinningMode
	DiffMode     DiffMode
	Invert       bool
	SkipDiff     bool

	differ *Differ
}

// Result holds everything produced for a single frame.
type Result struct {
	// Binary is the median filtered mask the skeleton was computed from.
	Binary   *Mask
	Skeleton *Mask
	Stats

	// Region is the bounding box of the skeleton and Center its middle point.
	// Both are only meaningful when HasRegion is true.
	Region    image.Rectangle
	Center    image.Point
	HasRegion bool
}

// DefaultProcessor returns a processor configured with the default options.
func DefaultProcessor() *Processor {
	return &Processor{
		Threshold:    DefaultThreshold,
		WindowSize:   DefaultWindowSize,
		IterationCap: DefaultIterationCap,
		Mode:         CrossingNumber,
		DiffMode:     SaturatingDiff,
	}
}

// Validate checks the processor options.
func (p *Processor) Validate() error {
	pre := p.preprocessor()
	if err := pre.Validate(); err != nil {
		return err
	}
	if p.IterationCap < 0 {
		return precondition("process", "negative iteration cap %d", p.IterationCap)
	}
	if _, ok := modeNames[p.Mode]; !ok {
		return precondition("process", "unknown thinning mode %v", p.Mode)
	}
	return nil
}

// Reset starts a new capture session: the next frame is treated as the first one.
func (p *Processor) Reset() {
	if p.differ != nil {
		p.differ.Reset()
	}
}

// Process runs one pipeline tick over frame: differencing against the
// previous frame, binarization and thinning. Frames must keep the same size
// for the whole session.
func (p *Processor) Process(frame image.Image) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	src := frame
	if !p.SkipDiff {
		if p.differ == nil {
			p.differ = NewDiffer(p.DiffMode)
		}
		p.differ.Mode = p.DiffMode

		diff, err := p.differ.Diff(frame)
		if err != nil {
			return nil, err
		}
		src = diff
	}

	pre := p.preprocessor()
	binary, err := pre.Prepare(src)
	if err != nil {
		return nil, err
	}

	t := &Thinner{
		Mode:         p.Mode,
		IterationCap: p.IterationCap,
		Workers:      p.Workers,
	}
	skel, stats, err := t.Thin(binary.Clone())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Binary:   binary,
		Skeleton: skel,
		Stats:    stats,
	}
	res.Region, res.Center, res.HasRegion = Region(skel)

	return res, nil
}

func (p *Processor) preprocessor() *Preprocessor {
	return &Preprocessor{
		Threshold:  p.Threshold,
		WindowSize: p.WindowSize,
		Invert:     p.Invert,
	}
}
