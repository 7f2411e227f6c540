package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/likesearch/internal/app"
	"github.com/ibeckermayer/likesearch/internal/relay"
	"github.com/ibeckermayer/likesearch/internal/store"
	"github.com/ibeckermayer/likesearch/internal/types"
)

// isolate points every user directory at a temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "likesearch.toml")

	out, err := execute(t, "--config", path, "last")
	require.NoError(t, err)
	assert.Contains(t, out, "No previous search.")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLastShowsCachedScan(t *testing.T) {
	dir := isolate(t)
	appCache := filepath.Join(dir, "cache", "likesearch")

	st, err := store.Open(filepath.Join(appCache, "likesearch.db"))
	require.NoError(t, err)
	require.NoError(t, st.SaveLastSearch(types.LastSearch{
		Term:       "cats",
		HTML:       "<div>cats</div>",
		Iterations: 100,
		SavedAt:    time.Now().Add(-time.Hour),
	}))
	require.NoError(t, st.Close())

	scanned := []types.Record{
		{Text: "cats are great", Author: "Ann", Link: "https://x.com/a/status/1"},
		{Text: "dogs are fine", Author: "Bob", Link: "https://x.com/b/status/2"},
	}
	_, err = store.WriteJSON(store.NewCache(appCache), store.KindScans, scanned)
	require.NoError(t, err)

	out, err := execute(t, "--config", filepath.Join(dir, "c.toml"), "last", "--scanned")
	require.NoError(t, err)
	assert.Contains(t, out, `Last search: "cats" (100 passes, 1 hour ago)`)
	assert.Contains(t, out, "Scanned 2 tweets")
	assert.Contains(t, out, "dogs are fine")
}

func TestStatus(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "likesearch.toml")

	out, err := execute(t, "--config", path, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in:   no")
	assert.Contains(t, out, "Config:      "+path)
	assert.Contains(t, out, "Last search: none")
}

func TestMoreWithoutPreviousSearch(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "--config", filepath.Join(dir, "c.toml"), "more")
	assert.ErrorIs(t, err, app.ErrNothingToLoad)
}

func TestSearchRequiresTerm(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "--config", filepath.Join(dir, "c.toml"), "search")
	assert.Error(t, err)
}

func TestOpenRejectsUnknownTarget(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "--config", filepath.Join(dir, "c.toml"), "open", "logs")
	assert.Error(t, err)
}

func TestFetchAnonymous(t *testing.T) {
	dir := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"auth":%q}`, r.Header.Get("authorization"))
	}))
	defer srv.Close()

	out, err := execute(t, "--config", filepath.Join(dir, "c.toml"),
		"fetch", "--anonymous", "-H", "authorization=Bearer abc", srv.URL+"/likes", srv.URL+"/missing")
	require.ErrorContains(t, err, "1 of 2 fetches failed")

	dec := json.NewDecoder(bytes.NewBufferString(out))
	var first, second relay.Response
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.True(t, first.Success)
	assert.JSONEq(t, `{"auth":"Bearer abc"}`, string(first.Data))
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "HTTP error! status: 404")
}

func TestFetchRequiresLoginUnlessAnonymous(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "--config", filepath.Join(dir, "c.toml"), "fetch", "http://127.0.0.1:1/likes")
	require.Error(t, err)
	assert.Contains(t, out, "failed to load cookies")
}

func TestParseHeaders(t *testing.T) {
	hdrs, err := parseHeaders([]string{"a=1", " b = two=2 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "two=2"}, hdrs)

	_, err = parseHeaders([]string{"novalue"})
	assert.Error(t, err)

	hdrs, err = parseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, hdrs)
}

func TestShowResult(t *testing.T) {
	var out bytes.Buffer
	res := &app.Result{
		Term: "hello",
		Response: types.Response{
			Success: true,
			MatchingTweets: []types.Record{
				{Text: "hello\nworld", Author: "Ann", Link: "https://x.com/a/status/1"},
			},
			TotalScanned: 3,
			ReachedLimit: true,
		},
	}
	require.NoError(t, showResult(&out, res, false))
	assert.Contains(t, out.String(), "Found 1 matches in 3 tweets")
	assert.Contains(t, out.String(), "Ann · Unknown date")
	assert.Contains(t, out.String(), "  hello\n  world\n")
	assert.Contains(t, out.String(), "likesearch more")

	err := showResult(&out, &app.Result{Response: types.Response{Error: "boom"}}, false)
	assert.EqualError(t, err, "boom")
}

func TestShowResultOpensErrorPanel(t *testing.T) {
	var opened []string
	openFn := func(term, panel string) error {
		opened = append(opened, panel)
		return nil
	}
	failed := &app.Result{
		Term:     "cats",
		HTML:     `<div class="error-message"><strong>Search Error</strong><br>boom</div>`,
		Response: types.Response{Error: "boom"},
	}

	var out bytes.Buffer
	err := showResultWith(&out, failed, true, openFn)
	assert.EqualError(t, err, "boom")
	require.Len(t, opened, 1)
	assert.Contains(t, opened[0], "Search Error")

	opened = nil
	require.Error(t, showResultWith(&out, failed, false, openFn))
	assert.Empty(t, opened)
}
