package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/likesearch/internal/app"
	"github.com/ibeckermayer/likesearch/internal/config"
	"github.com/ibeckermayer/likesearch/internal/render"
	"github.com/ibeckermayer/likesearch/internal/store"
	"github.com/ibeckermayer/likesearch/internal/types"
)

func newSearchCmd(e *env) *cobra.Command {
	var (
		iterations int
		open       bool
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search your liked posts for a term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, closeApp, err := e.newApp(c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeApp()

			res, err := a.Search(c.Context(), strings.Join(args, " "), iterations)
			fmt.Fprintln(c.ErrOrStderr())
			if err != nil {
				return err
			}
			return showResult(c.OutOrStdout(), res, open)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Maximum scroll passes (default from config)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the results panel in the browser")

	return cmd
}

func newMoreCmd(e *env) *cobra.Command {
	var (
		iterations int
		open       bool
	)

	cmd := &cobra.Command{
		Use:   "more [term]",
		Short: "Continue the last search with a larger scroll bound",
		RunE: func(c *cobra.Command, args []string) error {
			a, closeApp, err := e.newApp(c.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeApp()

			res, err := a.LoadMore(c.Context(), app.LoadMoreRequest{
				Term:          strings.Join(args, " "),
				MaxIterations: iterations,
			})
			fmt.Fprintln(c.ErrOrStderr())
			if errors.Is(err, app.ErrNothingToLoad) {
				return fmt.Errorf("%w; run `likesearch search <term>` first", err)
			}
			if err != nil {
				return err
			}
			return showResult(c.OutOrStdout(), res, open)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Scroll bound (default: previous bound plus search.load_more_iterations)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the results panel in the browser")

	return cmd
}

func newLastCmd(e *env) *cobra.Command {
	var (
		open    bool
		scanned bool
	)

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the last search",
		RunE: func(c *cobra.Command, _ []string) error {
			a, closeApp, err := e.newApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			ls, err := a.Restore()
			if errors.Is(err, store.ErrNoLastSearch) {
				fmt.Fprintln(c.OutOrStdout(), "No previous search.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "Last search: %q (%d passes, %s)\n",
				ls.Term, ls.Iterations, humanize.Time(ls.SavedAt))
			if ls.ReachedLimit {
				fmt.Fprintln(c.OutOrStdout(), "More likes may exist: run `likesearch more`.")
			}

			records, path, err := a.LastScan()
			switch {
			case errors.Is(err, store.ErrNoArtifact):
				// nothing cached yet
			case err != nil:
				cliLog.Warn("last_scan_unreadable", slog.String("error", err.Error()))
			default:
				fmt.Fprintf(c.OutOrStdout(), "Scanned %d tweets (%s)\n", len(records), path)
				if scanned {
					printRecords(c.OutOrStdout(), records)
				}
			}

			if open {
				return openPanel(ls.Term, ls.HTML)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the stored results panel in the browser")
	cmd.Flags().BoolVar(&scanned, "scanned", false, "List every tweet the last search scanned, matching or not")

	return cmd
}

// showResult prints a search result. A failed search is returned as an
// error, after its error panel is opened when open is set.
func showResult(w io.Writer, res *app.Result, open bool) error {
	return showResultWith(w, res, open, openPanel)
}

func showResultWith(w io.Writer, res *app.Result, open bool, openFn func(term, panel string) error) error {
	resp := res.Response
	if !resp.Success {
		if open {
			if err := openFn(res.Term, res.HTML); err != nil {
				cliLog.Warn("open_results_failed", slog.String("error", err.Error()))
			}
		}
		return errors.New(resp.Error)
	}

	if len(resp.MatchingTweets) == 0 {
		fmt.Fprintf(w, "No matches found. Searched %d tweets for %q\n", resp.TotalScanned, res.Term)
	} else {
		fmt.Fprintf(w, "Found %d matches in %d tweets\n\n", len(resp.MatchingTweets), resp.TotalScanned)
		printRecords(w, resp.MatchingTweets)
	}

	if resp.ReachedLimit {
		fmt.Fprintln(w, "More likes may exist: run `likesearch more`.")
	}

	if open {
		return openFn(res.Term, res.HTML)
	}
	return nil
}

func printRecords(w io.Writer, records []types.Record) {
	now := time.Now()
	for _, r := range records {
		fmt.Fprintf(w, "%s · %s\n", r.Author, render.FormatDate(r.Date, now))
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(r.Text, "\n", "\n  "))
		fmt.Fprintf(w, "  %s\n\n", r.Link)
	}
}

// openPanel writes panel as a standalone page into the results cache and
// opens it in the default browser
func openPanel(term, panel string) error {
	r, err := render.New()
	if err != nil {
		return err
	}
	doc, err := r.Document(term, panel)
	if err != nil {
		return err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return err
	}
	path, err := store.NewCache(cacheDir).WriteText(store.KindPages, doc, ".html")
	if err != nil {
		return err
	}

	cliLog.Info("open_results", slog.String("path", path))
	return browser.OpenFile(path)
}
