package utils

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameTimer collects the processing time of every frame of a session.
type FrameTimer struct {
	start     time.Time
	durations []float64 // seconds
}

// TimingSummary describes the frame rate of a finished session.
type TimingSummary struct {
	Frames  int
	Elapsed time.Duration
	// AvgFPS is the number of frames divided by the wall clock time of the session.
	AvgFPS float64
	Mean   time.Duration
	StdDev time.Duration
	P95    time.Duration
}

// NewFrameTimer starts the session clock.
func NewFrameTimer() *FrameTimer {
	return &FrameTimer{start: time.Now()}
}

// Add records the processing time of one frame.
func (t *FrameTimer) Add(d time.Duration) {
	t.durations = append(t.durations, d.Seconds())
}

// Summary computes the session statistics up to now.
func (t *FrameTimer) Summary() TimingSummary {
	return t.summarize(time.Since(t.start))
}

func (t *FrameTimer) summarize(elapsed time.Duration) TimingSummary {
	s := TimingSummary{
		Frames:  len(t.durations),
		Elapsed: elapsed,
	}
	if s.Frames == 0 {
		return s
	}
	if elapsed > 0 {
		s.AvgFPS = float64(s.Frames) / elapsed.Seconds()
	}

	mean, std := stat.MeanStdDev(t.durations, nil)
	if s.Frames < 2 {
		std = 0
	}
	sorted := append([]float64(nil), t.durations...)
	sort.Float64s(sorted)

	s.Mean = seconds(mean)
	s.StdDev = seconds(std)
	s.P95 = seconds(stat.Quantile(0.95, stat.Empirical, sorted, nil))

	return s
}

func (s TimingSummary) String() string {
	return fmt.Sprintf("%d frames in %s, average FPS: %.2f, frame time: %s ± %s (p95 %s)",
		s.Frames, FormatTime(s.Elapsed), s.AvgFPS, s.Mean, s.StdDev, s.P95)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
