package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/likesearch/internal/browser"
)

// ErrNotAuthenticated means there are no stored X.com cookies to launch with
var ErrNotAuthenticated = errors.New("not logged in to X - run `likesearch login` first")

// CookieSource supplies the X.com session cookies injected into a launched browser
type CookieSource interface {
	GetCookies() ([]*network.Cookie, error)
}

// ChromeOpener opens the session page either in the user's running Chrome
// (RemoteURL set) or in a freshly launched one carrying stored cookies.
type ChromeOpener struct {
	Headless  bool
	RemoteURL string
	StartURL  string
	Cookies   CookieSource
}

func (o *ChromeOpener) Open(ctx context.Context) (context.Context, Page, func(), error) {
	if o.RemoteURL != "" {
		tabCtx, cancel, err := browser.Attach(ctx, o.RemoteURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return tabCtx, LivePage{}, cancel, nil
	}

	if o.Cookies == nil {
		return nil, nil, nil, ErrNotAuthenticated
	}
	cookies, err := o.Cookies.GetCookies()
	if err != nil || len(cookies) == 0 {
		return nil, nil, nil, ErrNotAuthenticated
	}

	tabCtx, cancel := browser.Launch(ctx, o.Headless)

	if err := injectCookies(tabCtx, cookies); err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	start := o.StartURL
	if start == "" {
		start = "https://x.com/home"
	}
	if err := chromedp.Run(tabCtx, chromedp.Navigate(start)); err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("failed to load %s: %w", start, err)
	}

	return tabCtx, LivePage{}, cancel, nil
}

// injectCookies sets cookies in the browser context
func injectCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)

				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}
