package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/likesearch/internal/store"
)

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to X in a browser window and store the session",
		RunE: func(c *cobra.Command, _ []string) error {
			a, closeApp, err := e.newApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			fmt.Fprintln(c.OutOrStdout(), "Log in to X in the browser window that just opened...")
			if err := a.Login(c.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Logged in. Session cookies saved.")
			return nil
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored X session",
		RunE: func(c *cobra.Command, _ []string) error {
			a, closeApp, err := e.newApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login state, paths and the last search",
		RunE: func(c *cobra.Command, _ []string) error {
			a, closeApp, err := e.newApp(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			w := c.OutOrStdout()
			if a.IsAuthenticated() {
				fmt.Fprintln(w, "Logged in:   yes")
			} else {
				fmt.Fprintln(w, "Logged in:   no (run `likesearch login`)")
			}

			if e.cfg.Browser.RemoteURL != "" {
				fmt.Fprintf(w, "Browser:     attach to %s\n", e.cfg.Browser.RemoteURL)
			} else {
				fmt.Fprintf(w, "Browser:     launch (headless: %t)\n", e.cfg.Browser.Headless)
			}
			fmt.Fprintf(w, "Config:      %s\n", e.configPath)
			if dbPath, err := e.cfg.DBPath(); err == nil {
				fmt.Fprintf(w, "Database:    %s\n", dbPath)
			}

			ls, err := a.Restore()
			switch {
			case errors.Is(err, store.ErrNoLastSearch):
				fmt.Fprintln(w, "Last search: none")
			case err != nil:
				return err
			default:
				fmt.Fprintf(w, "Last search: %q %s\n", ls.Term, humanize.Time(ls.SavedAt))
			}
			return nil
		},
	}
}
