package types

import (
	"encoding/json"
	"time"
)

// Record represents one scraped post from the likes timeline
type Record struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date"` // ISO datetime from the <time> element, or empty
	Link   string `json:"link"`
}

// Key returns the serialized form of all four fields.
// Two records with the same key are the same post.
func (r Record) Key() string {
	b, err := json.Marshal(r)
	if err != nil {
		// A struct of four strings always marshals.
		panic(err)
	}
	return string(b)
}

// Time parses Date. The zero time is returned when Date is empty or malformed.
func (r Record) Time() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Response is the result of one search session on the likes page
type Response struct {
	Success        bool     `json:"success"`
	Tweets         []Record `json:"tweets"`
	MatchingTweets []Record `json:"matchingTweets,omitempty"`
	TotalScanned   int      `json:"totalScanned"`
	ReachedLimit   bool     `json:"reachedLimit"`
	Error          string   `json:"error,omitempty"`
	Stack          string   `json:"stack,omitempty"`
}

// LastSearch is the persisted result of the most recent search
type LastSearch struct {
	Term         string    `json:"term"`
	HTML         string    `json:"html"`
	ReachedLimit bool      `json:"reachedLimit"`
	Iterations   int       `json:"iterations,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}
