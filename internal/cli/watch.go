package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/likesearch/internal/scheduler"
)

func newWatchCmd(e *env) *cobra.Command {
	var (
		every string
		now   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the last search on an interval until interrupted",
		RunE: func(c *cobra.Command, _ []string) error {
			interval := e.cfg.Watch.EveryDuration()
			if every != "" {
				d, err := time.ParseDuration(every)
				if err != nil {
					return fmt.Errorf("invalid --every: %w", err)
				}
				interval = d
			}

			a, closeApp, err := e.newApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			ls, err := a.Restore()
			if err != nil {
				return fmt.Errorf("nothing to watch: %w", err)
			}

			sched, err := scheduler.New(e.cfg.Watch.Timezone, e.cfg.Search.SessionTimeoutDuration())
			if err != nil {
				return err
			}

			refresh := func(ctx context.Context) error {
				res, err := a.Refresh(ctx)
				if err != nil {
					return err
				}
				cliLog.Info("watch_refreshed",
					slog.String("term", res.Term),
					slog.Int("matches", len(res.Response.MatchingTweets)))
				return nil
			}

			if err := sched.AddRefreshJob(interval, refresh); err != nil {
				return err
			}

			if now {
				if err := sched.RunNow(scheduler.RefreshJobName, refresh); err != nil {
					cliLog.Error("watch_refresh_failed", slog.String("error", err.Error()))
				}
			}

			sched.Start()
			fmt.Fprintf(c.OutOrStdout(), "Watching %q every %s. Press Ctrl+C to stop.\n", ls.Term, interval)
			if next, ok := sched.NextRun(scheduler.RefreshJobName); ok {
				fmt.Fprintf(c.OutOrStdout(), "Next refresh %s\n", humanize.Time(next))
			}
			<-c.Context().Done()
			<-sched.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&every, "every", "", "Refresh interval (default from watch.every)")
	cmd.Flags().BoolVar(&now, "now", false, "Refresh once immediately")

	return cmd
}
