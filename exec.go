package motionskel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/motionskel/imop"
	"github.com/esimov/motionskel/record"
	"github.com/esimov/motionskel/utils"
	"golang.org/x/image/bmp"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running writers.
const maxWorkers = 20

// Supported output extensions.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// Ops holds the options of a frame sequence run.
type Ops struct {
	Src, Dst, PipeName string
	// Ext is the extension of the generated frames.
	Ext      string
	Workers  int
	MaxWidth int

	// Overlay writes the skeleton drawn over the source frame next to the mask.
	Overlay      bool
	OverlayColor color.NRGBA
	Composite    *imop.Composite
	Blend        *imop.Blend

	// DB is the path of the sqlite diagnostics store. Empty disables recording.
	DB      string
	Verbose bool
}

// Report summarizes a finished run.
type Report struct {
	Timing       utils.TimingSummary
	Failed       int
	NonConverged int
	SessionID    string
}

// writeJob is an image waiting to be encoded by one of the writers.
type writeJob struct {
	path string
	img  image.Image
}

// result holds the outcome of a single write.
type result struct {
	path string
	err  error
}

// frameSource yields the frames of a run. Next returns io.EOF after the last frame.
type frameSource interface {
	Next() (image.Image, error)
	Close() error
}

// Execute runs the processor over every frame of the source and writes the
// generated skeletons into the destination directory. An interrupt signal
// stops the run after the current frame.
func (p *Processor) Execute(op *Ops) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if op.Ext == "" {
		op.Ext = ".png"
	}
	op.Ext = strings.ToLower(op.Ext)
	if !utils.Contains(validExtensions, op.Ext) {
		return nil, fmt.Errorf("%v file type not supported", op.Ext)
	}
	if op.Workers <= 0 || op.Workers > maxWorkers {
		op.Workers = runtime.NumCPU()
	}
	if op.Overlay && op.OverlayColor == (color.NRGBA{}) {
		op.OverlayColor = color.NRGBA{R: 0xff, A: 0xff}
	}

	src, err := op.openSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return nil, fmt.Errorf("unable to create the destination directory: %w", err)
	}

	var sess *record.Session
	if op.DB != "" {
		store, err := record.Open(op.DB)
		if err != nil {
			return nil, fmt.Errorf("unable to open the record store: %w", err)
		}
		defer store.Close()

		sess, err = store.NewSession(record.SessionConfig{
			Source:       op.Src,
			Mode:         p.Mode.String(),
			Threshold:    int(p.Threshold),
			WindowSize:   p.WindowSize,
			IterationCap: p.IterationCap,
		})
		if err != nil {
			return nil, err
		}
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ MOTIONSKEL", utils.StatusMessage),
		utils.DecorateText("⇢ processing frames...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*100, true)

	// Capture CTRL-C signal. The current frame is finished before stopping.
	stop := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		select {
		case <-signalChan:
			close(stop)
		case <-quit:
		}
	}()

	var (
		wg      sync.WaitGroup
		jobs    = make(chan writeJob)
		results = make(chan result)
		report  = &Report{}
	)
	if sess != nil {
		report.SessionID = sess.ID
	}

	wg.Add(op.Workers)
	for i := 0; i < op.Workers; i++ {
		go func() {
			defer wg.Done()
			writer(jobs, results)
		}()
	}
	// Close the channel after the values are consumed.
	go func() {
		defer close(results)
		wg.Wait()
	}()

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range results {
			if res.err != nil {
				report.Failed++
			}
			op.printOpStatus(res.path, res.err)
		}
	}()

	timer := utils.NewFrameTimer()
	spinner.Start()

	runErr := func() error {
		for idx := 0; ; idx++ {
			select {
			case <-stop:
				return nil
			default:
			}

			frame, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if op.MaxWidth > 0 && frame.Bounds().Dx() > op.MaxWidth {
				frame = imaging.Resize(frame, op.MaxWidth, 0, imaging.Lanczos)
			}
			spinner.Update(fmt.Sprintf("%s %s",
				utils.DecorateText("⚡ MOTIONSKEL", utils.StatusMessage),
				utils.DecorateText(fmt.Sprintf("⇢ processing frame %d...", idx), utils.DefaultMessage)))

			now := time.Now()
			res, err := p.Process(frame)
			elapsed := time.Since(now)
			if err != nil {
				if !errors.Is(err, ErrPrecondition) {
					return err
				}
				// The offending frame is dropped and the next one starts a new session.
				log.Printf(utils.DecorateText("\nframe %d skipped: %v", utils.ErrorMessage), idx, err)
				p.Reset()
				continue
			}
			timer.Add(elapsed)

			if !res.Converged {
				report.NonConverged++
				log.Printf(utils.DecorateText("\nframe %d: thinning stopped after %d iterations without converging", utils.WarningMessage),
					idx, res.Iterations)
			} else if op.Verbose {
				log.Printf("\nframe %d: %d iterations, %d pixels removed", idx, res.Iterations, res.Removed)
			}

			jobs <- writeJob{
				path: filepath.Join(op.Dst, fmt.Sprintf("frame%d%s", idx, op.Ext)),
				img:  res.Skeleton.Gray(),
			}
			if op.Overlay {
				jobs <- writeJob{
					path: filepath.Join(op.Dst, fmt.Sprintf("overlay%d%s", idx, op.Ext)),
					img:  op.overlay(frame, res),
				}
			}

			if sess != nil {
				err := sess.Add(record.FrameRecord{
					Index:      idx,
					Iterations: res.Iterations,
					Removed:    res.Removed,
					Converged:  res.Converged,
					Foreground: res.Skeleton.Count(),
					HasRegion:  res.HasRegion,
					Region:     res.Region,
					Duration:   elapsed,
				})
				if err != nil {
					return err
				}
			}
		}
	}()

	close(jobs)
	<-collected

	spinner.StopMsg = fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ MOTIONSKEL", utils.StatusMessage),
		utils.DecorateText("⇢ done ✔", utils.SuccessMessage))
	spinner.Stop()

	report.Timing = timer.Summary()
	if runErr != nil {
		return report, runErr
	}
	if report.Failed > 0 {
		return report, fmt.Errorf("%d frames could not be saved", report.Failed)
	}
	return report, nil
}

// overlay draws the skeleton and the cross-hair of the tracked region over the source frame.
func (op *Ops) overlay(frame image.Image, res *Result) image.Image {
	dst := imop.Overlay(frame, res.Skeleton.Gray(), op.OverlayColor, op.Composite, op.Blend)
	if res.HasRegion {
		imop.Crosshair(dst, res.Center, op.OverlayColor)
	}
	return dst
}

// writer encodes the images received on the jobs channel and reports the outcome.
func writer(jobs <-chan writeJob, res chan<- result) {
	for job := range jobs {
		res <- result{
			path: job.path,
			err:  encodeImg(job.path, job.img),
		}
	}
}

// encodeImg saves the image into the file format given by the path extension.
func encodeImg(path string, img image.Image) error {
	if strings.ToLower(filepath.Ext(path)) != ".bmp" {
		return imaging.Save(img, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// printOpStatus displays the failed writes and, in verbose mode, the saved files.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		log.Printf("%s%s",
			utils.DecorateText("\nError saving the frame: "+filepath.Base(fname), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v", err), utils.DefaultMessage),
		)
		return
	}
	if op.Verbose {
		log.Printf("\nThe frame has been saved as: %s", utils.DecorateText(filepath.Base(fname), utils.SuccessMessage))
	}
}

// openSource returns the frame source matching the source path:
// a GIF read from stdin, an animated GIF file or a directory of still frames.
func (op *Ops) openSource() (frameSource, error) {
	if op.Src == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return newGifSource(os.Stdin)
	}

	fs, err := os.Stat(op.Src)
	if err != nil {
		return nil, fmt.Errorf("failed to load the source: %w", err)
	}
	if !fs.IsDir() && strings.ToLower(filepath.Ext(op.Src)) == ".gif" {
		f, err := os.Open(op.Src)
		if err != nil {
			return nil, fmt.Errorf("unable to open the source file: %w", err)
		}
		defer f.Close()
		return newGifSource(f)
	}
	return newDirSource(op.Src), nil
}

// dirSource decodes the image files of a directory tree in lexical order.
type dirSource struct {
	paths <-chan string
	errc  <-chan error
	done  chan interface{}
}

func newDirSource(dir string) *dirSource {
	done := make(chan interface{})
	paths, errc := walkDir(done, dir)

	return &dirSource{
		paths: paths,
		errc:  errc,
		done:  done,
	}
}

func (s *dirSource) Next() (image.Image, error) {
	path, ok := <-s.paths
	if !ok {
		if err := <-s.errc; err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return img, nil
}

func (s *dirSource) Close() error {
	close(s.done)
	// Drain the walker so its goroutine can return.
	for range s.paths {
	}
	return nil
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each image file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(done <-chan interface{}, src string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || !utils.IsImage(path) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// gifSource plays back the frames of an animated GIF, composing every frame
// over the canvas left by the previous ones.
type gifSource struct {
	g      *gif.GIF
	canvas *image.NRGBA
	idx    int
}

func newGifSource(r io.Reader) (*gifSource, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode the gif: %w", err)
	}
	w, h := g.Config.Width, g.Config.Height
	if (w == 0 || h == 0) && len(g.Image) > 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	return &gifSource{
		g:      g,
		canvas: image.NewNRGBA(image.Rect(0, 0, w, h)),
	}, nil
}

func (s *gifSource) Next() (image.Image, error) {
	if s.idx >= len(s.g.Image) {
		return nil, io.EOF
	}
	frame := s.g.Image[s.idx]

	var disposal byte
	if s.idx < len(s.g.Disposal) {
		disposal = s.g.Disposal[s.idx]
	}
	s.idx++

	var previous *image.NRGBA
	if disposal == gif.DisposalPrevious {
		previous = imaging.Clone(s.canvas)
	}
	draw.Draw(s.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	out := imaging.Clone(s.canvas)

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(s.canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		s.canvas = previous
	}
	return out, nil
}

func (s *gifSource) Close() error {
	return nil
}
