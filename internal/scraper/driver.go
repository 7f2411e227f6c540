package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ibeckermayer/likesearch/internal/logging"
	"github.com/ibeckermayer/likesearch/internal/types"
)

var driverLog = logging.ForComponent(logging.CompScraper)

// State is the scroll driver's state
type State int

const (
	StateRunning State = iota
	StateStoppedNoGrowth
	StateStoppedNoScrollProgress
	StateStoppedIterationLimit
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStoppedNoGrowth:
		return "stopped_no_growth"
	case StateStoppedNoScrollProgress:
		return "stopped_no_scroll_progress"
	case StateStoppedIterationLimit:
		return "stopped_iteration_limit"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Progress is reported after every scan pass
type Progress struct {
	Iteration int // 1-based
	Found     int // distinct records so far
}

// DriverOptions bounds and paces the scroll loop
type DriverOptions struct {
	MaxIterations int
	// StallThreshold is how many consecutive passes without new records end the run
	StallThreshold int
	// ScrollDelay is the wait after each scroll for lazy-loaded posts to render
	ScrollDelay time.Duration
	// WarmUpIterations is the index after which an unmoved scroll offset ends the run
	WarmUpIterations int
	OnProgress       func(Progress)
}

// DefaultDriverOptions returns the bounds used for a normal search
func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		MaxIterations:    100,
		StallThreshold:   5,
		ScrollDelay:      800 * time.Millisecond,
		WarmUpIterations: 10,
	}
}

// Session is the outcome of one scroll-and-collect run
type Session struct {
	Records    []types.Record
	State      State
	Iterations int
	// ReachedLimit means the iteration bound ran out before a natural stop,
	// so the timeline may continue past what was scanned
	ReachedLimit bool
}

// Drive scrolls page until the timeline stops growing, stops moving, or the
// iteration bound is exhausted, collecting distinct records on every pass.
func Drive(ctx context.Context, page Page, scanner *Scanner, opts DriverOptions) (*Session, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.StallThreshold <= 0 {
		opts.StallThreshold = 5
	}

	acc := NewAccumulator()
	s := &Session{State: StateRunning}
	lastCount := 0
	stalls := 0

	for i := 0; i < opts.MaxIterations; i++ {
		s.Iterations = i + 1

		candidates, err := scanPage(ctx, page, scanner)
		if err != nil {
			return nil, fmt.Errorf("scan pass %d: %w", i+1, err)
		}
		acc.AddAll(candidates)

		current := acc.Size()
		driverLog.Debug("scan_pass",
			slog.Int("iteration", i+1),
			slog.Int("candidates", len(candidates)),
			slog.Int("total", current))
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Iteration: i + 1, Found: current})
		}

		if current == lastCount {
			stalls++
			if stalls >= opts.StallThreshold {
				s.State = StateStoppedNoGrowth
				break
			}
		} else {
			stalls = 0
		}
		lastCount = current

		before, err := page.ScrollOffset(ctx)
		if err != nil {
			return nil, err
		}
		if err := page.ScrollToBottom(ctx); err != nil {
			return nil, fmt.Errorf("failed to scroll: %w", err)
		}
		if err := sleep(ctx, opts.ScrollDelay); err != nil {
			return nil, err
		}
		after, err := page.ScrollOffset(ctx)
		if err != nil {
			return nil, err
		}

		if after == before && i > opts.WarmUpIterations {
			s.State = StateStoppedNoScrollProgress
			break
		}

		if i == opts.MaxIterations-1 {
			s.State = StateStoppedIterationLimit
			s.ReachedLimit = true
		}
	}

	s.Records = acc.Records()
	driverLog.Info("scroll_done",
		slog.String("state", s.State.String()),
		slog.Int("iterations", s.Iterations),
		slog.Int("records", len(s.Records)),
		slog.Bool("reached_limit", s.ReachedLimit))

	return s, nil
}

func scanPage(ctx context.Context, page Page, scanner *Scanner) ([]types.Record, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := page.Location(ctx)
	if err != nil {
		return nil, err
	}
	return scanner.ScanHTML(html, loc)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
