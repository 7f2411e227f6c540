package scraper

import "github.com/ibeckermayer/likesearch/internal/types"

// Accumulator is the set of distinct records seen during one search session.
// It only grows. Not safe for concurrent use; a session has a single driver.
type Accumulator struct {
	records []types.Record
	seen    map[string]struct{}
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// Add inserts r unless a record with the same key is already present.
// It reports whether the set grew.
func (a *Accumulator) Add(r types.Record) bool {
	key := r.Key()
	if _, ok := a.seen[key]; ok {
		return false
	}
	a.seen[key] = struct{}{}
	a.records = append(a.records, r)
	return true
}

// AddAll adds every record and returns how many were new
func (a *Accumulator) AddAll(records []types.Record) int {
	added := 0
	for _, r := range records {
		if a.Add(r) {
			added++
		}
	}
	return added
}

func (a *Accumulator) Size() int {
	return len(a.records)
}

// Records returns a copy of the distinct records in first-seen order
func (a *Accumulator) Records() []types.Record {
	out := make([]types.Record, len(a.records))
	copy(out, a.records)
	return out
}
