package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is how often WaitForElement re-queries the page
const DefaultPollInterval = 100 * time.Millisecond

var (
	// ErrTimeout means expected content never appeared within the wait bound
	ErrTimeout = errors.New("timeout waiting for element")

	// ErrMissingProfile means the page has no link to the logged-in profile,
	// i.e. it is not X.com or the session is logged out
	ErrMissingProfile = errors.New("could not find profile link - make sure you are on Twitter/X")
)

// WaitForElement polls page until selector matches or timeout elapses.
// Query errors are treated as "not there yet"; the page may be mid-navigation.
func WaitForElement(ctx context.Context, page Page, selector string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if found, err := page.HasElement(ctx, selector); err == nil && found {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w %s after %v", ErrTimeout, selector, timeout)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
