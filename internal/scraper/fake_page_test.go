package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fakePage is a scripted Page. The document shown depends on how many times
// the page has been scrolled, modelling lazy loading.
type fakePage struct {
	url       string
	snapshots []string // document after n scrolls; the last one repeats
	// offset returns the scroll offset after n scrolls; nil means 1000*n
	offset func(scrolls int) float64

	hasElement func(selector string) (bool, error)
	navigateFn func(url string)

	scrolls   int
	navigated []string
	htmlCalls int
}

func (p *fakePage) current() string {
	if len(p.snapshots) == 0 {
		return "<html><body></body></html>"
	}
	i := p.scrolls
	if i >= len(p.snapshots) {
		i = len(p.snapshots) - 1
	}
	return p.snapshots[i]
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	return p.url, ctx.Err()
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	p.url = url
	if p.navigateFn != nil {
		p.navigateFn(url)
	}
	return ctx.Err()
}

func (p *fakePage) HasElement(ctx context.Context, selector string) (bool, error) {
	if p.hasElement != nil {
		return p.hasElement(selector)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.current()))
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, ctx.Err()
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.htmlCalls++
	return p.current(), ctx.Err()
}

func (p *fakePage) ScrollOffset(ctx context.Context) (float64, error) {
	if p.offset != nil {
		return p.offset(p.scrolls), nil
	}
	return float64(p.scrolls * 1000), ctx.Err()
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	p.scrolls++
	return ctx.Err()
}

// fakeOpener hands out a fakePage
type fakeOpener struct {
	page   Page
	err    error
	closed bool
}

func (o *fakeOpener) Open(ctx context.Context) (context.Context, Page, func(), error) {
	if o.err != nil {
		return nil, nil, nil, o.err
	}
	return ctx, o.page, func() { o.closed = true }, nil
}

func tweetHTML(text, author, date, href string) string {
	return fmt.Sprintf(`<article data-testid="tweet">`+
		`<div data-testid="User-Name"><span>%s</span></div>`+
		`<time datetime="%s">date</time>`+
		`<a href="%s">link</a>`+
		`<div data-testid="tweetText">%s</div>`+
		`</article>`, author, date, href, text)
}

func docHTML(withProfile bool, posts ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><nav>")
	if withProfile {
		b.WriteString(`<a data-testid="AppTabBar_Profile_Link" href="/me">Profile</a>`)
	}
	b.WriteString("</nav><main>")
	for _, p := range posts {
		b.WriteString(p)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// numberedPosts returns n distinct qualifying posts
func numberedPosts(n int) []string {
	posts := make([]string, n)
	for i := range posts {
		posts[i] = tweetHTML(
			fmt.Sprintf("post number %d", i),
			"Author",
			"2025-01-02T03:04:05.000Z",
			fmt.Sprintf("/author/status/%d", i),
		)
	}
	return posts
}

// growingSnapshots returns count documents, the k-th holding k+1 posts
func growingSnapshots(count int) []string {
	all := numberedPosts(count)
	snaps := make([]string, count)
	for k := range snaps {
		snaps[k] = docHTML(true, all[:k+1]...)
	}
	return snaps
}
