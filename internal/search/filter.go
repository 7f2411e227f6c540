// Package search selects scraped records by search term.
package search

import (
	"strings"

	"github.com/ibeckermayer/likesearch/internal/types"
)

// Match returns the records whose text contains term, ignoring case.
// Order is preserved. Callers reject empty terms before getting here.
func Match(records []types.Record, term string) []types.Record {
	needle := strings.ToLower(term)
	matches := make([]types.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Text), needle) {
			matches = append(matches, r)
		}
	}
	return matches
}
