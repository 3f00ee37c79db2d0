package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/esimov/motionskel"
	"github.com/esimov/motionskel/imop"
	"github.com/esimov/motionskel/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌┬┐┌─┐┌┬┐┬┌─┐┌┐┌┌─┐┬┌─┌─┐┬
││││ │ │ ││ ││││└─┐├┴┐├┤ │
┴ ┴└─┘ ┴ ┴└─┘┘└┘└─┘┴ ┴└─┘┴─┘

Motion skeletonization of frame sequences.
    Version: %s

`

// pipeName is the file name that indicates stdin is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source       = flag.String("in", pipeName, "Source directory, animated GIF or - for a GIF on stdin")
	destination  = flag.String("out", "output", "Destination directory")
	ext          = flag.String("ext", ".png", "Output frame extension")
	threshold    = flag.Int("threshold", motionskel.DefaultThreshold, "Binarization threshold")
	window       = flag.Int("window", motionskel.DefaultWindowSize, "Median filter window size (odd)")
	iterationCap = flag.Int("cap", motionskel.DefaultIterationCap, "Thinning iteration cap")
	mode         = flag.String("mode", motionskel.CrossingNumber.String(), "Thinning mode: crossing, parallel or morph")
	diffMode     = flag.String("diff", motionskel.SaturatingDiff.String(), "Frame difference: saturating or absolute")
	invert       = flag.Bool("invert", false, "Track dark objects on a light background")
	noDiff       = flag.Bool("nodiff", false, "Skip the frame differencing")
	workers      = flag.Int("workers", runtime.NumCPU(), "Goroutines used by the parallel thinning mode")
	conc         = flag.Int("conc", runtime.NumCPU(), "Number of frames written concurrently")
	maxWidth     = flag.Int("max-width", 0, "Downscale frames wider than this")
	overlay      = flag.Bool("overlay", false, "Also write the skeleton drawn over the source frame")
	overlayColor = flag.String("color", "#ff0000", "Overlay color")
	compOp       = flag.String("comp", imop.SrcOver, "Overlay composite operation")
	blendMode    = flag.String("blend", "", "Overlay blend mode")
	dbPath       = flag.String("db", "", "Record the frame statistics into a sqlite database")
	configFile   = flag.String("config", "", "JSON configuration file")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	log.SetFlags(0)
	utils.SetColored(term.IsTerminal(int(os.Stderr.Fd())))

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	proc, err := newProcessor()
	if err != nil {
		fatal("Invalid configuration", err)
	}

	op := &motionskel.Ops{
		Src:       *source,
		Dst:       *destination,
		PipeName:  pipeName,
		Ext:       *ext,
		Workers:   *conc,
		MaxWidth:  *maxWidth,
		Overlay:   *overlay,
		Composite: imop.InitOp(),
		DB:        *dbPath,
		Verbose:   *verbose,
	}
	if *overlay {
		if op.OverlayColor, err = utils.HexToRGBA(*overlayColor); err != nil {
			fatal("Invalid overlay color", err)
		}
		if err := op.Composite.Set(*compOp); err != nil {
			fatal("Invalid overlay", err)
		}
		if *blendMode != "" {
			op.Blend = imop.NewBlend()
			if err := op.Blend.Set(*blendMode); err != nil {
				fatal("Invalid overlay", err)
			}
		}
	}

	report, err := proc.Execute(op)
	if report != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n", utils.DecorateText(report.Timing.String(), utils.SuccessMessage))
		if report.NonConverged > 0 {
			fmt.Fprintf(os.Stderr, "%s\n", utils.DecorateText(
				fmt.Sprintf("%d frames hit the iteration cap", report.NonConverged), utils.WarningMessage))
		}
		if report.SessionID != "" {
			fmt.Fprintf(os.Stderr, "Session recorded as: %s\n", utils.DecorateText(report.SessionID, utils.StatusMessage))
		}
	}
	if err != nil {
		fatal("Processing failed", err)
	}
}

// newProcessor builds the processor from the defaults, the configuration file
// and the explicitly set flags, in this order of precedence.
func newProcessor() (*motionskel.Processor, error) {
	proc := motionskel.DefaultProcessor()
	proc.Workers = *workers

	if *configFile != "" {
		cfg, err := motionskel.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(proc); err != nil {
			return nil, err
		}
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "threshold":
			if *threshold < 0 || *threshold > 255 {
				err = errors.New("threshold out of range [0,255]")
				return
			}
			proc.Threshold = uint8(*threshold)
		case "window":
			proc.WindowSize = *window
		case "cap":
			proc.IterationCap = *iterationCap
		case "mode":
			proc.Mode, err = motionskel.ParseThinningMode(*mode)
		case "diff":
			proc.DiffMode, err = motionskel.ParseDiffMode(*diffMode)
		case "invert":
			proc.Invert = *invert
		case "nodiff":
			proc.SkipDiff = *noDiff
		case "workers":
			proc.Workers = *workers
		}
	})
	if err != nil {
		return nil, err
	}
	return proc, proc.Validate()
}

func fatal(msg string, err error) {
	log.Fatalf("%s%s",
		utils.DecorateText("\n"+msg+": ", utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
}
