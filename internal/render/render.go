// Package render turns search responses into the HTML panels shown to the
// user and cached as the last search.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ibeckermayer/likesearch/internal/types"
)

// Renderer renders result, no-result and error panels
type Renderer struct {
	templates *template.Template
	now       func() time.Time
}

// New parses the panel templates
func New() (*Renderer, error) {
	r := &Renderer{now: time.Now}

	tmpl, err := template.New("panels").Funcs(template.FuncMap{
		"formatDate": func(date string) string { return FormatDate(date, r.now()) },
	}).Parse(panelTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	r.templates = tmpl

	return r, nil
}

// resultsData is the template data for the results panel
type resultsData struct {
	Term         string
	Matches      []types.Record
	TotalScanned int
	ReachedLimit bool
}

// Results renders the matches of a successful response. A response without
// matches renders the no-results panel instead.
func (r *Renderer) Results(term string, resp types.Response) (string, error) {
	if len(resp.MatchingTweets) == 0 {
		return r.NoResults(term, resp.TotalScanned)
	}
	return r.execute("results", resultsData{
		Term:         term,
		Matches:      resp.MatchingTweets,
		TotalScanned: resp.TotalScanned,
		ReachedLimit: resp.ReachedLimit,
	})
}

// NoResults renders the panel shown when nothing matched
func (r *Renderer) NoResults(term string, totalScanned int) (string, error) {
	return r.execute("no-results", resultsData{Term: term, TotalScanned: totalScanned})
}

// Error renders the error panel that replaces the results panel. An empty
// title shows the message alone.
func (r *Renderer) Error(title, message string) (string, error) {
	return r.execute("error", struct{ Title, Message string }{title, message})
}

// Document wraps a panel in a standalone page for viewing in a browser
func (r *Renderer) Document(term, panel string) (string, error) {
	return r.execute("document", struct {
		Term  string
		Panel template.HTML
	}{term, template.HTML(panel)})
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatDate renders an ISO timestamp relative to now ("3 days ago"),
// falling back to a calendar date past a year and to the raw value when it
// does not parse.
func FormatDate(date string, now time.Time) string {
	if date == "" {
		return "Unknown date"
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return date
	}
	if now.Sub(t) >= 365*24*time.Hour {
		return t.Format("Jan 2, 2006")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

const panelTemplates = `
{{define "results"}}<div class="results-header">
    <span>✨ Found {{len .Matches}} matches in {{.TotalScanned}} tweets</span>
    {{if .ReachedLimit}}<button id="loadMore" class="load-more-btn">Load More</button>{{end}}
</div>
{{range .Matches}}<div class="tweet-card">
    <div class="tweet-text">{{.Text}}</div>
    <div class="tweet-meta">
        <div>
            <div class="tweet-author">{{.Author}}</div>
            <div class="tweet-date">{{formatDate .Date}}</div>
        </div>
        <a href="{{.Link}}" target="_blank" class="tweet-link">View Tweet →</a>
    </div>
</div>
{{end}}{{end}}

{{define "no-results"}}<div class="no-results">
    <strong>No matches found</strong><br>
    Searched {{.TotalScanned}} tweets for "{{.Term}}"
</div>
{{end}}

{{define "error"}}<div class="error-message">
    {{if .Title}}<strong>{{.Title}}</strong><br>
    {{end}}{{.Message}}
</div>
{{end}}

{{define "document"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Likes matching "{{.Term}}"</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .results-header { display: flex; justify-content: space-between; align-items: center; color: #1da1f2; font-weight: bold; margin-bottom: 12px; }
        .load-more-btn { background: #1da1f2; color: white; border: none; border-radius: 12px; padding: 4px 12px; }
        .tweet-card { background: white; border-radius: 8px; padding: 15px; margin-bottom: 10px; }
        .tweet-text { line-height: 1.4; white-space: pre-wrap; }
        .tweet-meta { display: flex; justify-content: space-between; align-items: flex-end; margin-top: 10px; color: #666; font-size: 13px; }
        .tweet-author { font-weight: bold; color: #333; }
        .tweet-link { color: #1da1f2; text-decoration: none; }
        .no-results, .error-message { background: white; border-radius: 8px; padding: 20px; text-align: center; }
        .error-message { color: #e0245e; }
    </style>
</head>
<body>
{{.Panel}}
</body>
</html>
{{end}}
`
