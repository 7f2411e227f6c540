package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/likesearch/internal/config"
	"github.com/ibeckermayer/likesearch/internal/render"
	"github.com/ibeckermayer/likesearch/internal/scraper"
	"github.com/ibeckermayer/likesearch/internal/store"
	"github.com/ibeckermayer/likesearch/internal/types"
)

type fakeSearcher struct {
	resp     types.Response
	requests []scraper.SearchRequest
}

func (f *fakeSearcher) SearchLikes(_ context.Context, req scraper.SearchRequest) types.Response {
	f.requests = append(f.requests, req)
	return f.resp
}

type fakeAuth struct {
	authed   bool
	loginErr error
	logouts  int
}

func (f *fakeAuth) Login(context.Context) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.authed = true
	return nil
}

func (f *fakeAuth) Logout() error {
	f.logouts++
	f.authed = false
	return nil
}

func (f *fakeAuth) IsAuthenticated() bool { return f.authed }

type memStore struct {
	saved *types.LastSearch
	loads int
	err   error
}

func (m *memStore) SaveLastSearch(ls types.LastSearch) error {
	if m.err != nil {
		return m.err
	}
	m.saved = &ls
	return nil
}

func (m *memStore) LoadLastSearch() (*types.LastSearch, error) {
	m.loads++
	if m.saved == nil {
		return nil, store.ErrNoLastSearch
	}
	ls := *m.saved
	return &ls, nil
}

func matchingResponse() types.Response {
	hello := types.Record{Text: "hello world", Author: "A", Link: "https://x.com/a/status/1"}
	return types.Response{
		Success:        true,
		Tweets:         []types.Record{hello, {Text: "goodbye", Author: "C", Link: "https://x.com/c/status/3"}},
		MatchingTweets: []types.Record{hello},
		TotalScanned:   2,
		ReachedLimit:   true,
	}
}

func newTestApp(t *testing.T, s Searcher, st LastSearchStore) (*App, *fakeAuth) {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)
	auth := &fakeAuth{}
	a := New(config.Default().Search, Deps{Searcher: s, Auth: auth, Store: st, Renderer: r})
	a.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return a, auth
}

func TestSearchEmptyTerm(t *testing.T) {
	s := &fakeSearcher{}
	st := &memStore{}
	a, _ := newTestApp(t, s, st)

	res, err := a.Search(context.Background(), "   ", 0)
	require.NoError(t, err)

	assert.False(t, res.Response.Success)
	assert.Equal(t, EmptyTermMessage, res.Response.Error)
	assert.Contains(t, res.HTML, EmptyTermMessage)
	assert.Empty(t, s.requests, "no session for an empty term")
	assert.Nil(t, st.saved)
}

func TestSearchPersistsResult(t *testing.T) {
	s := &fakeSearcher{resp: matchingResponse()}
	st := &memStore{}
	a, _ := newTestApp(t, s, st)

	res, err := a.Search(context.Background(), "  hello ", 0)
	require.NoError(t, err)

	require.Len(t, s.requests, 1)
	assert.Equal(t, scraper.SearchRequest{Term: "hello", MaxIterations: 100}, s.requests[0])
	assert.Contains(t, res.HTML, "Found 1 matches in 2 tweets")

	require.NotNil(t, st.saved)
	assert.Equal(t, "hello", st.saved.Term)
	assert.Equal(t, res.HTML, st.saved.HTML)
	assert.True(t, st.saved.ReachedLimit)
	assert.Equal(t, 100, st.saved.Iterations)
}

func TestSearchPersistsZeroMatches(t *testing.T) {
	s := &fakeSearcher{resp: types.Response{Success: true, Tweets: []types.Record{}, TotalScanned: 7}}
	st := &memStore{}
	a, _ := newTestApp(t, s, st)

	res, err := a.Search(context.Background(), "zebra", 0)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, "No matches found")
	require.NotNil(t, st.saved)
	assert.Equal(t, "zebra", st.saved.Term)
}

func TestSearchFailureKeepsPreviousResult(t *testing.T) {
	st := &memStore{saved: &types.LastSearch{Term: "old", HTML: "<div>old</div>"}}
	s := &fakeSearcher{resp: types.Response{Success: false, Error: "could not find profile link"}}
	a, _ := newTestApp(t, s, st)

	res, err := a.Search(context.Background(), "new", 0)
	require.NoError(t, err)

	assert.False(t, res.Response.Success)
	assert.Contains(t, res.HTML, SearchErrorTitle)
	assert.Contains(t, res.HTML, "could not find profile link")
	assert.Equal(t, "old", st.saved.Term)
}

func TestSearchPersistFailureIsNotFatal(t *testing.T) {
	s := &fakeSearcher{resp: matchingResponse()}
	a, _ := newTestApp(t, s, &memStore{err: errors.New("disk full")})

	res, err := a.Search(context.Background(), "hello", 0)
	require.NoError(t, err)
	assert.True(t, res.Response.Success)
}

func TestRestoreReadsStoreOnce(t *testing.T) {
	st := &memStore{saved: &types.LastSearch{Term: "cats", HTML: "<p>cats</p>", Iterations: 100}}
	a, _ := newTestApp(t, &fakeSearcher{}, st)

	ls, err := a.Restore()
	require.NoError(t, err)
	assert.Equal(t, "cats", ls.Term)
	assert.Equal(t, "<p>cats</p>", ls.HTML)

	_, err = a.Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, st.loads)
}

func TestRestoreNothingStored(t *testing.T) {
	a, _ := newTestApp(t, &fakeSearcher{}, &memStore{})
	_, err := a.Restore()
	assert.ErrorIs(t, err, store.ErrNoLastSearch)
}

func TestLoadMore(t *testing.T) {
	tests := []struct {
		name      string
		last      *types.LastSearch
		req       LoadMoreRequest
		wantTerm  string
		wantBound int
	}{
		{"continues last search", &types.LastSearch{Term: "cats", Iterations: 100}, LoadMoreRequest{}, "cats", 120},
		{"stacks on previous load more", &types.LastSearch{Term: "cats", Iterations: 120}, LoadMoreRequest{Term: "cats"}, "cats", 140},
		{"explicit bound", &types.LastSearch{Term: "cats", Iterations: 100}, LoadMoreRequest{Term: "dogs", MaxIterations: 300}, "dogs", 300},
		{"different term starts from default", &types.LastSearch{Term: "cats", Iterations: 140}, LoadMoreRequest{Term: "dogs"}, "dogs", 120},
		{"no last search", nil, LoadMoreRequest{Term: "dogs"}, "dogs", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{resp: matchingResponse()}
			a, _ := newTestApp(t, s, &memStore{saved: tt.last})

			res, err := a.LoadMore(context.Background(), tt.req)
			require.NoError(t, err)

			require.Len(t, s.requests, 1)
			assert.Equal(t, tt.wantTerm, s.requests[0].Term)
			assert.Equal(t, tt.wantBound, s.requests[0].MaxIterations)
			assert.Equal(t, tt.wantBound, res.Iterations)
		})
	}
}

func TestLoadMoreWithoutContext(t *testing.T) {
	a, _ := newTestApp(t, &fakeSearcher{}, &memStore{})
	_, err := a.LoadMore(context.Background(), LoadMoreRequest{})
	assert.ErrorIs(t, err, ErrNothingToLoad)
}

func TestRefresh(t *testing.T) {
	s := &fakeSearcher{resp: matchingResponse()}
	a, _ := newTestApp(t, s, &memStore{saved: &types.LastSearch{Term: "hello", Iterations: 120}})

	_, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scraper.SearchRequest{Term: "hello", MaxIterations: 120}, s.requests[0])

	s.resp = types.Response{Success: false, Error: "boom"}
	_, err = a.Refresh(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestAuthDelegation(t *testing.T) {
	a, auth := newTestApp(t, &fakeSearcher{}, &memStore{})

	assert.False(t, a.IsAuthenticated())
	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.IsAuthenticated())
	require.NoError(t, a.Logout())
	assert.False(t, a.IsAuthenticated())
	assert.Equal(t, 1, auth.logouts)

	auth.loginErr = errors.New("login timeout exceeded")
	assert.Error(t, a.Login(context.Background()))
}

func TestSearchCachesScan(t *testing.T) {
	dir := t.TempDir()
	s := &fakeSearcher{resp: matchingResponse()}
	a, _ := newTestApp(t, s, &memStore{})
	a.cache = store.NewCache(dir)

	_, err := a.Search(context.Background(), "hello", 0)
	require.NoError(t, err)

	records, path, err := a.LastScan()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scans"), filepath.Dir(path))
	assert.Equal(t, matchingResponse().Tweets, records)
}

func TestLastScanWithoutCache(t *testing.T) {
	a, _ := newTestApp(t, &fakeSearcher{}, &memStore{})
	_, _, err := a.LastScan()
	assert.ErrorIs(t, err, store.ErrNoArtifact)

	a.cache = store.NewCache(t.TempDir())
	_, _, err = a.LastScan()
	assert.ErrorIs(t, err, store.ErrNoArtifact)
}

func TestSearchWithSQLiteStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "likesearch.db"))
	require.NoError(t, err)
	defer st.Close()

	s := &fakeSearcher{resp: matchingResponse()}
	a, _ := newTestApp(t, s, st)
	res, err := a.Search(context.Background(), "hello", 0)
	require.NoError(t, err)

	// A fresh process restores the same markup
	b, _ := newTestApp(t, s, st)
	ls, err := b.Restore()
	require.NoError(t, err)
	assert.Equal(t, "hello", ls.Term)
	assert.Equal(t, res.HTML, ls.HTML)
}
