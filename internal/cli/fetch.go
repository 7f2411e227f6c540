package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/likesearch/internal/relay"
)

func newFetchCmd(e *env) *cobra.Command {
	var (
		headers   []string
		anonymous bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>...",
		Short: "Fetch JSON endpoints with the stored X session attached",
		Example: `  likesearch fetch -H 'authorization=Bearer ...' 'https://x.com/i/api/graphql/.../Likes?variables=...'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			hdrs, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			var cookies relay.CookieSource
			if !anonymous {
				am, err := e.authManager()
				if err != nil {
					return err
				}
				cookies = am
			}

			reqs := make([]relay.Request, len(args))
			for i, u := range args {
				reqs[i] = relay.Request{Type: relay.TypeFetchLikes, URL: u, Headers: hdrs}
			}

			responses, err := relay.New(cookies, relay.DefaultOptions()).FetchAll(c.Context(), reqs)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.OutOrStdout())
			failed := 0
			for _, resp := range responses {
				if !resp.Success {
					failed++
				}
				if err := enc.Encode(resp); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fetches failed", failed, len(responses))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra request header as name=value (repeatable)")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "Do not attach the stored session cookies")

	return cmd
}

// parseHeaders turns name=value pairs into a header map
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	hdrs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: want name=value", p)
		}
		hdrs[name] = strings.TrimSpace(value)
	}
	return hdrs, nil
}
