package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ibeckermayer/likesearch/internal/config"
	"github.com/ibeckermayer/likesearch/internal/logging"
	"github.com/ibeckermayer/likesearch/internal/render"
	"github.com/ibeckermayer/likesearch/internal/scraper"
	"github.com/ibeckermayer/likesearch/internal/store"
	"github.com/ibeckermayer/likesearch/internal/types"
)

var appLog = logging.ForComponent(logging.CompApp)

// EmptyTermMessage is shown when a search is started without a term
const EmptyTermMessage = "Please enter a search term"

// SearchErrorTitle heads the panel of a failed search
const SearchErrorTitle = "Search Error"

// ErrNothingToLoad means load-more was requested without a term and no
// previous search exists to continue
var ErrNothingToLoad = errors.New("no previous search to load more of")

// Searcher runs one likes search session
type Searcher interface {
	SearchLikes(ctx context.Context, req scraper.SearchRequest) types.Response
}

// Authenticator manages the stored X.com session
type Authenticator interface {
	Login(ctx context.Context) error
	Logout() error
	IsAuthenticated() bool
}

// LastSearchStore persists the single last-search entry
type LastSearchStore interface {
	SaveLastSearch(types.LastSearch) error
	LoadLastSearch() (*types.LastSearch, error)
}

// Result is what a search hands back to the caller
type Result struct {
	Term     string
	HTML     string
	Response types.Response
	// Iterations is the scroll bound the search ran with
	Iterations int
}

// LoadMoreRequest continues a previous search with a larger scroll bound.
// Zero values fall back to the last search.
type LoadMoreRequest struct {
	Term          string
	MaxIterations int
}

// App holds the application state.
type App struct {
	mu sync.Mutex

	cfg      config.SearchConfig
	searcher Searcher
	auth     Authenticator
	store    LastSearchStore
	cache    *store.Cache // optional
	renderer *render.Renderer
	now      func() time.Time

	// last is the most recent search, restored or run in this process
	last *types.LastSearch
}

// Deps are the collaborators of an App
type Deps struct {
	Searcher Searcher
	Auth     Authenticator
	Store    LastSearchStore
	Cache    *store.Cache
	Renderer *render.Renderer
}

// New creates a new App instance.
func New(cfg config.SearchConfig, deps Deps) *App {
	return &App{
		cfg:      cfg,
		searcher: deps.Searcher,
		auth:     deps.Auth,
		store:    deps.Store,
		cache:    deps.Cache,
		renderer: deps.Renderer,
		now:      time.Now,
	}
}

// Search runs a likes search for term with the given scroll bound (the
// configured maximum when iterations is not positive) and renders the
// outcome. A failed search is not a Go error: Result.Response carries the
// failure and Result.HTML the error panel. Every successful search,
// including one without matches, replaces the stored last search.
func (a *App) Search(ctx context.Context, term string, iterations int) (*Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		html, err := a.renderer.Error("", EmptyTermMessage)
		if err != nil {
			return nil, err
		}
		return &Result{
			HTML:     html,
			Response: types.Response{Success: false, Error: EmptyTermMessage},
		}, nil
	}

	if iterations <= 0 {
		iterations = a.cfg.MaxIterations
	}

	appLog.Info("search_start", slog.String("term", term), slog.Int("max_iterations", iterations))
	resp := a.searcher.SearchLikes(ctx, scraper.SearchRequest{Term: term, MaxIterations: iterations})

	if !resp.Success {
		appLog.Warn("search_failed", slog.String("term", term), slog.String("error", resp.Error))
		html, err := a.renderer.Error(SearchErrorTitle, resp.Error)
		if err != nil {
			return nil, err
		}
		return &Result{Term: term, HTML: html, Response: resp, Iterations: iterations}, nil
	}

	html, err := a.renderer.Results(term, resp)
	if err != nil {
		return nil, err
	}

	appLog.Info("search_done",
		slog.String("term", term),
		slog.Int("scanned", resp.TotalScanned),
		slog.Int("matches", len(resp.MatchingTweets)),
		slog.Bool("reached_limit", resp.ReachedLimit))

	a.cacheScan(resp)
	a.remember(types.LastSearch{
		Term:         term,
		HTML:         html,
		ReachedLimit: resp.ReachedLimit,
		Iterations:   iterations,
		SavedAt:      a.now(),
	})

	return &Result{Term: term, HTML: html, Response: resp, Iterations: iterations}, nil
}

// remember keeps ls in memory and persists it. Persistence failures are
// logged only; the search itself succeeded.
func (a *App) remember(ls types.LastSearch) {
	a.mu.Lock()
	a.last = &ls
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	if err := a.store.SaveLastSearch(ls); err != nil {
		appLog.Error("persist_failed", slog.String("error", err.Error()))
	}
}

func (a *App) cacheScan(resp types.Response) {
	if a.cache == nil {
		return
	}
	path, err := store.WriteJSON(a.cache, store.KindScans, resp.Tweets)
	if err != nil {
		appLog.Warn("cache_failed", slog.String("error", err.Error()))
		return
	}
	appLog.Debug("cache_saved", slog.String("path", path))
}

// LastScan returns every record the most recent successful search scanned,
// matching or not, with the cache file it was read from.
func (a *App) LastScan() ([]types.Record, string, error) {
	if a.cache == nil {
		return nil, "", store.ErrNoArtifact
	}
	return store.ReadLatestJSON[[]types.Record](a.cache, store.KindScans)
}

// Restore loads the stored last search. It reads the store only once; later
// calls return what is held in memory.
func (a *App) Restore() (*types.LastSearch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last != nil {
		ls := *a.last
		return &ls, nil
	}
	if a.store == nil {
		return nil, store.ErrNoLastSearch
	}

	ls, err := a.store.LoadLastSearch()
	if err != nil {
		return nil, err
	}
	a.last = ls
	restored := *ls
	return &restored, nil
}

// LoadMore re-runs a search with a larger scroll bound. The term and bound
// come from req, falling back to the last search and to the previous bound
// plus the configured load-more step.
func (a *App) LoadMore(ctx context.Context, req LoadMoreRequest) (*Result, error) {
	prev, err := a.Restore()
	if err != nil && !errors.Is(err, store.ErrNoLastSearch) {
		return nil, err
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		if prev == nil {
			return nil, ErrNothingToLoad
		}
		term = prev.Term
	}

	bound := req.MaxIterations
	if bound <= 0 {
		base := a.cfg.MaxIterations
		if prev != nil && prev.Term == term && prev.Iterations > 0 {
			base = prev.Iterations
		}
		bound = base + a.cfg.LoadMoreIterations
	}

	appLog.Info("load_more", slog.String("term", term), slog.Int("max_iterations", bound))
	return a.Search(ctx, term, bound)
}

// Refresh re-runs the last search with its bound. It fails when there is no
// last search or the search itself fails.
func (a *App) Refresh(ctx context.Context) (*Result, error) {
	prev, err := a.Restore()
	if err != nil {
		return nil, err
	}

	res, err := a.Search(ctx, prev.Term, prev.Iterations)
	if err != nil {
		return nil, err
	}
	if !res.Response.Success {
		return res, fmt.Errorf("refresh of %q failed: %s", prev.Term, res.Response.Error)
	}
	return res, nil
}

// IsAuthenticated checks if X.com credentials are stored.
func (a *App) IsAuthenticated() bool {
	return a.auth.IsAuthenticated()
}

// Login starts the X.com login flow.
func (a *App) Login(ctx context.Context) error {
	appLog.Info("login_start")
	if err := a.auth.Login(ctx); err != nil {
		appLog.Error("login_failed", slog.String("error", err.Error()))
		return err
	}
	appLog.Info("login_done")
	return nil
}

// Logout clears stored X.com credentials.
func (a *App) Logout() error {
	if err := a.auth.Logout(); err != nil {
		appLog.Error("logout_failed", slog.String("error", err.Error()))
		return err
	}
	appLog.Info("logout_done")
	return nil
}
