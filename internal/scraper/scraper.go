package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/likesearch/internal/search"
	"github.com/ibeckermayer/likesearch/internal/types"
)

// Opener provides the page a search session runs on. The returned context
// must be used for every call on the page; close releases the tab.
type Opener interface {
	Open(ctx context.Context) (pageCtx context.Context, page Page, close func(), err error)
}

// Options configures a Scraper
type Options struct {
	Driver         DriverOptions
	WaitTimeout    time.Duration
	SessionTimeout time.Duration
}

// SearchRequest is the input of one search session
type SearchRequest struct {
	Term string
	// MaxIterations overrides the configured scroll bound when positive
	MaxIterations int
}

// Scraper searches the logged-in user's likes timeline
type Scraper struct {
	opener  Opener
	scanner *Scanner
	opts    Options
}

// New creates a new scraper
func New(opener Opener, opts Options) *Scraper {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 10 * time.Second
	}
	return &Scraper{
		opener:  opener,
		scanner: NewScanner(),
		opts:    opts,
	}
}

// SearchLikes scrolls the likes timeline, collects every post and returns
// those whose text contains req.Term. Failures never escape: they come back
// as an unsuccessful response carrying the message and a trace.
func (s *Scraper) SearchLikes(ctx context.Context, req SearchRequest) (resp types.Response) {
	log := driverLog.With(slog.String("session", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("search_panic", slog.Any("panic", r))
			resp = types.Response{
				Success: false,
				Error:   fmt.Sprintf("%v", r),
				Stack:   string(debug.Stack()),
			}
		}
	}()

	log.Info("search_start", slog.String("term", req.Term), slog.Int("max_iterations", req.MaxIterations))

	session, err := s.collect(ctx, req.MaxIterations)
	if err != nil {
		log.Error("search_failed", slog.String("error", err.Error()))
		return types.Response{
			Success: false,
			Error:   err.Error(),
			Stack:   ErrorTrace(err),
		}
	}

	matches := search.Match(session.Records, req.Term)
	log.Info("search_done",
		slog.Int("scanned", len(session.Records)),
		slog.Int("matches", len(matches)),
		slog.Bool("reached_limit", session.ReachedLimit))

	return types.Response{
		Success:        true,
		Tweets:         session.Records,
		MatchingTweets: matches,
		TotalScanned:   len(session.Records),
		ReachedLimit:   session.ReachedLimit,
	}
}

// collect opens the likes page of the logged-in user and drives the scroll loop
func (s *Scraper) collect(ctx context.Context, maxIterations int) (*Session, error) {
	if s.opts.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SessionTimeout)
		defer cancel()
	}

	pageCtx, page, closePage, err := s.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer closePage()

	if err := s.openLikes(pageCtx, page); err != nil {
		return nil, err
	}

	opts := s.opts.Driver
	if maxIterations > 0 {
		opts.MaxIterations = maxIterations
	}
	return Drive(pageCtx, page, s.scanner, opts)
}

// openLikes makes sure page shows the likes timeline, navigating there if needed
func (s *Scraper) openLikes(ctx context.Context, page Page) error {
	if err := WaitForElement(ctx, page, WaitForProfile, s.opts.WaitTimeout, DefaultPollInterval); err != nil {
		if errors.Is(err, ErrTimeout) {
			return fmt.Errorf("%w: %v", ErrMissingProfile, err)
		}
		return err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return err
	}
	handle, err := ProfileHandle(html)
	if err != nil {
		return err
	}
	if handle == "" {
		return ErrMissingProfile
	}

	current, err := page.Location(ctx)
	if err != nil {
		return err
	}
	likesURL := LikesURL(handle)
	driverLog.Debug("likes_target", slog.String("current", current), slog.String("target", likesURL))

	if strings.Contains(current, "/likes") {
		return nil
	}

	if err := page.Navigate(ctx, likesURL); err != nil {
		return err
	}
	return WaitForElement(ctx, page, WaitForTweets, s.opts.WaitTimeout, DefaultPollInterval)
}

// ErrorTrace renders the wrap chain of err, outermost first, one per line
func ErrorTrace(err error) string {
	var b strings.Builder
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(&b, "%s%T: %s\n", strings.Repeat("  ", depth), err, err.Error())
		err = errors.Unwrap(err)
	}
	return b.String()
}
