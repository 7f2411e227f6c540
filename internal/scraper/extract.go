package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/likesearch/internal/types"
)

// MinTextLength is the text length a post must exceed to be kept. Retweet
// banners, promoted stubs and similar fragments fall below it.
const MinTextLength = 5

// fallbackMinText is the length a free-floating text node must exceed in the
// last-resort text walk.
const fallbackMinText = 10

// Extractor pulls one field out of a post container. An empty result means
// "not found here" and the next extractor is tried.
type Extractor func(post *goquery.Selection) string

// Scanner turns a DOM snapshot into candidate records
type Scanner struct {
	Text   []Extractor
	Author []Extractor
	Date   []Extractor
	Link   []Extractor

	MinTextLength int
}

// NewScanner returns a scanner with the X.com extractor chains
func NewScanner() *Scanner {
	sc := &Scanner{MinTextLength: MinTextLength}

	for _, sel := range TweetTextSelectors {
		sc.Text = append(sc.Text, TextOf(sel))
	}
	sc.Text = append(sc.Text, firstBodyText)

	for _, sel := range TweetAuthorSelectors {
		sc.Author = append(sc.Author, TextOf(sel))
	}

	sc.Date = []Extractor{AttrOf(TweetTimestamp, "datetime")}
	sc.Link = []Extractor{AttrOf(TweetLink, "href")}

	return sc
}

// TextOf extracts the text content of the first element matching selector
func TextOf(selector string) Extractor {
	return func(post *goquery.Selection) string {
		return strings.TrimSpace(post.Find(selector).First().Text())
	}
}

// AttrOf extracts an attribute of the first element matching selector
func AttrOf(selector, attr string) Extractor {
	return func(post *goquery.Selection) string {
		v, _ := post.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// firstBodyText walks descendant spans and divs and takes the first text
// that looks like body copy rather than a handle or a "name · date" line.
func firstBodyText(post *goquery.Selection) string {
	var found string
	post.Find(TextFallbackNodes).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		text := strings.TrimSpace(node.Text())
		if utf8.RuneCountInString(text) > fallbackMinText &&
			!strings.Contains(text, "·") && !strings.Contains(text, "@") {
			found = text
			return false
		}
		return true
	})
	return found
}

// FirstNonEmpty runs extractors in order and returns the first non-empty value
func FirstNonEmpty(post *goquery.Selection, extractors []Extractor) string {
	for _, extract := range extractors {
		if v := extract(post); v != "" {
			return v
		}
	}
	return ""
}

// Extract builds a record from a single post container. Missing fields are
// left empty.
func (sc *Scanner) Extract(post *goquery.Selection, base *url.URL) types.Record {
	return types.Record{
		Text:   FirstNonEmpty(post, sc.Text),
		Author: FirstNonEmpty(post, sc.Author),
		Date:   FirstNonEmpty(post, sc.Date),
		Link:   resolveLink(base, FirstNonEmpty(post, sc.Link)),
	}
}

// Accept reports whether a candidate is a real post
func (sc *Scanner) Accept(r types.Record) bool {
	return r.Link != "" && r.Text != "" && utf8.RuneCountInString(r.Text) > sc.MinTextLength
}

// Scan extracts every accepted record from doc, in document order.
// Links are resolved against base, which may be nil.
func (sc *Scanner) Scan(doc *goquery.Document, base *url.URL) []types.Record {
	var records []types.Record
	doc.Find(TweetContainer).Each(func(_ int, post *goquery.Selection) {
		r := sc.Extract(post, base)
		if sc.Accept(r) {
			records = append(records, r)
		}
	})
	return records
}

// ScanHTML parses an HTML snapshot taken at pageURL and scans it
func (sc *Scanner) ScanHTML(html, pageURL string) ([]types.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
		}
	}

	return sc.Scan(doc, base), nil
}

// ProfileHandle returns the logged-in user's handle from the sidebar profile
// link, or "" when the link is absent.
func ProfileHandle(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	href, ok := doc.Find(ProfileLink).First().Attr("href")
	if !ok {
		return "", nil
	}
	href = strings.TrimRight(strings.TrimSpace(href), "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	return href, nil
}

func resolveLink(base *url.URL, href string) string {
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
