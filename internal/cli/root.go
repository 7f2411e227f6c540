// Package cli defines the likesearch command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/likesearch/internal/app"
	"github.com/ibeckermayer/likesearch/internal/auth"
	"github.com/ibeckermayer/likesearch/internal/config"
	"github.com/ibeckermayer/likesearch/internal/logging"
	"github.com/ibeckermayer/likesearch/internal/render"
	"github.com/ibeckermayer/likesearch/internal/scraper"
	"github.com/ibeckermayer/likesearch/internal/store"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// env is the state shared by every command
type env struct {
	configPath string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the likesearch command tree
func NewRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "likesearch",
		Short: "Search the posts you liked on X",
		Long:  "likesearch scrolls your X likes timeline in a browser, collects every post it sees and\nshows the ones containing a search term.",
		Example: `  # Log in once; cookies are stored for later searches
  likesearch login

  # Search your likes
  likesearch search golang

  # Scroll further than last time
  likesearch more

  # Re-run the last search every 6 hours
  likesearch watch --every 6h`,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return e.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logging.Shutdown()
		},
	}

	cmd.PersistentFlags().StringVar(&e.configPath, "config", "", "Config file (default: <user config dir>/likesearch/config.toml)")
	cmd.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Mirror logs to stderr")

	cmd.AddCommand(
		newSearchCmd(e),
		newLastCmd(e),
		newMoreCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newStatusCmd(e),
		newFetchCmd(e),
		newWatchCmd(e),
		newOpenCmd(e),
		newBotTestCmd(e),
	)

	return cmd
}

// load reads the config, creating a default one on first run, and starts logging
func (e *env) load() error {
	path := e.configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}
	e.configPath = path

	firstRun := false
	cfg, err := config.LoadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = config.Default()
		firstRun = true
	}
	e.cfg = cfg

	logDir, err := cfg.LogDir()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Dir:    logDir,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Stderr: e.verbose,
	})

	if firstRun {
		if err := cfg.SaveFile(path); err != nil {
			cliLog.Warn("default_config_not_saved", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			cliLog.Info("default_config_created", slog.String("path", path))
		}
	}
	return nil
}

func (e *env) authManager() (*auth.Manager, error) {
	path, err := auth.DefaultCookieStorePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie store path: %w", err)
	}
	return auth.NewManager(auth.NewCookieStore(path)), nil
}

// newApp wires an App from the loaded config. Scroll progress goes to
// progress when it is not nil. The returned func closes the store.
func (e *env) newApp(progress io.Writer) (*app.App, func(), error) {
	am, err := e.authManager()
	if err != nil {
		return nil, nil, err
	}

	dbPath, err := e.cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	r, err := render.New()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	s := e.cfg.Search
	driver := scraper.DriverOptions{
		MaxIterations:    s.MaxIterations,
		StallThreshold:   s.StallThreshold,
		ScrollDelay:      s.ScrollDelayDuration(),
		WarmUpIterations: s.WarmUpIterations,
	}
	if progress != nil {
		driver.OnProgress = func(p scraper.Progress) {
			fmt.Fprintf(progress, "\rScrolling... found %d tweets (pass %d)", p.Found, p.Iteration)
		}
	}

	opener := &scraper.ChromeOpener{
		Headless:  e.cfg.Browser.Headless,
		RemoteURL: e.cfg.Browser.RemoteURL,
		StartURL:  e.cfg.Browser.StartURL,
		Cookies:   am,
	}
	sc := scraper.New(opener, scraper.Options{
		Driver:         driver,
		WaitTimeout:    s.WaitTimeoutDuration(),
		SessionTimeout: s.SessionTimeoutDuration(),
	})

	a := app.New(s, app.Deps{
		Searcher: sc,
		Auth:     am,
		Store:    st,
		Cache:    store.NewCache(cacheDir),
		Renderer: r,
	})

	return a, func() { st.Close() }, nil
}
