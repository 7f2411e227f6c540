package cli

import (
	"bufio"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	browseropts "github.com/ibeckermayer/likesearch/internal/browser"
	"github.com/ibeckermayer/likesearch/internal/config"
)

func newOpenCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache>",
		Short:     "Open the config file or the cache directory",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "cache"},
		RunE: func(c *cobra.Command, args []string) error {
			path, err := openTarget(e, args[0])
			if err != nil {
				return err
			}
			return browser.OpenFile(path)
		},
	}
}

func openTarget(e *env, target string) (string, error) {
	switch target {
	case "config":
		return e.configPath, nil
	case "cache":
		return config.CacheDir()
	}
	return "", fmt.Errorf("unknown target: %s", target)
}

func newBotTestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open bot.sannysoft.com with the scraper's browser options to audit the fingerprint",
		RunE: func(c *cobra.Command, _ []string) error {
			opts := browseropts.Options(false) // non-headless so you can see it

			allocCtx, cancel := chromedp.NewExecAllocator(c.Context(), opts...)
			defer cancel()

			ctx, cancel := chromedp.NewContext(allocCtx)
			defer cancel()

			err := chromedp.Run(ctx,
				chromedp.Navigate("https://bot.sannysoft.com"),
				chromedp.WaitVisible("body", chromedp.ByQuery),
			)
			if err != nil {
				return fmt.Errorf("failed to navigate: %w", err)
			}

			fmt.Fprintln(c.OutOrStdout(), "Press Enter to close the browser...")
			bufio.NewReader(c.InOrStdin()).ReadString('\n')
			return nil
		},
	}
}
