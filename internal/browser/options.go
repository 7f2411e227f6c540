// Package browser provides shared chromedp configuration with anti-bot-detection measures.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options returns chromedp allocator options with anti-bot-detection measures.
// All launched browser instances should use this to ensure consistent stealth configuration.
func Options(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// Prevent navigator.webdriver = true detection
		// This is the most important flag - X.com checks this
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(DefaultUserAgent),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}

// Launch starts a new Chrome and returns a context for a fresh tab in it
func Launch(ctx context.Context, headless bool) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(headless)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	return tabCtx, func() {
		tabCancel()
		allocCancel()
	}
}

// Attach connects to a Chrome already running with remote debugging enabled
// (e.g. ws://127.0.0.1:9222) and returns a context bound to the user's X tab.
// The returned release func detaches from that tab and drops the connection;
// the tab itself stays open.
func Attach(ctx context.Context, remoteURL string) (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, remoteURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to list targets at %s: %w", remoteURL, err)
	}

	tab := PickTab(targets)
	if tab == nil {
		cancel()
		return nil, nil, fmt.Errorf("no open page at %s", remoteURL)
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(tab.TargetID))
	return tabCtx, func() {
		releaseTab(chromedp.FromContext(tabCtx))
		tabCancel()
		cancel()
	}, nil
}

// releaseTab detaches from a tab the user owns. Cancelling a chromedp context
// on a remote browser closes its target, so the target is cleared first and
// cancellation only tears down our side.
func releaseTab(c *chromedp.Context) {
	if c == nil || c.Target == nil {
		return
	}
	if c.Browser != nil && c.Target.SessionID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// Dropping the connection detaches too; an error here changes nothing
		_ = target.DetachFromTarget().WithSessionID(c.Target.SessionID).Do(cdp.WithExecutor(ctx, c.Browser))
	}
	c.Target = nil
}

// PickTab chooses the page to search from a running browser's targets: the
// first X tab, else the first page of any kind.
func PickTab(targets []*target.Info) *target.Info {
	var firstPage *target.Info
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if isXURL(t.URL) {
			return t
		}
		if firstPage == nil {
			firstPage = t
		}
	}
	return firstPage
}

func isXURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "x.com", "twitter.com", "mobile.x.com", "mobile.twitter.com":
		return true
	}
	return false
}
