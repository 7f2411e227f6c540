package scraper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Page is the driver's view of the live document. The scroll driver is its
// only reader and the only one issuing scroll commands while a session runs.
type Page interface {
	Location(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	HasElement(ctx context.Context, selector string) (bool, error)
	// HTML returns a snapshot of the whole document
	HTML(ctx context.Context) (string, error)
	ScrollOffset(ctx context.Context) (float64, error)
	ScrollToBottom(ctx context.Context) error
}

// LivePage implements Page on a chromedp tab. Every ctx passed to its methods
// must descend from the tab's chromedp context.
type LivePage struct{}

func (LivePage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

func (LivePage) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (LivePage) HasElement(ctx context.Context, selector string) (bool, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}

	var found bool
	js := fmt.Sprintf(`document.querySelector(%s) !== null`, sel)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return found, nil
}

func (LivePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		return "", fmt.Errorf("failed to snapshot DOM: %w", err)
	}
	return html, nil
}

func (LivePage) ScrollOffset(ctx context.Context) (float64, error) {
	var y float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(`window.pageYOffset`, &y)); err != nil {
		return 0, fmt.Errorf("failed to read scroll offset: %w", err)
	}
	return y, nil
}

func (LivePage) ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollTo({top: document.body.scrollHeight, behavior: 'smooth'})`, nil),
	)
}
