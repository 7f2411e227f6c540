package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

type cookieFunc func() ([]*network.Cookie, error)

func (f cookieFunc) GetCookies() ([]*network.Cookie, error) { return f() }

func TestChromeOpenerRequiresSession(t *testing.T) {
	tests := []struct {
		name    string
		cookies CookieSource
	}{
		{"no cookie source", nil},
		{"no stored cookies", cookieFunc(func() ([]*network.Cookie, error) { return nil, nil })},
		{"cookie load fails", cookieFunc(func() ([]*network.Cookie, error) { return nil, errors.New("missing file") })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &ChromeOpener{Headless: true, Cookies: tt.cookies}
			_, _, _, err := o.Open(context.Background())
			assert.ErrorIs(t, err, ErrNotAuthenticated)
		})
	}
}

func TestChromeOpenerAttachFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &ChromeOpener{RemoteURL: "ws://127.0.0.1:1/devtools/browser/none"}
	_, _, closePage, err := o.Open(ctx)
	assert.Error(t, err)
	assert.Nil(t, closePage)
}
