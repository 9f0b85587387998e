package types

import "time"

// Activity is the persisted form of a captured event. Immutable once created
// except for the processed flag, which the summarizer flips.
type Activity struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	Processed bool      `json:"processed"`
}

// Event is a transient record of one observed user action. It is produced by
// a capture context, consumed by the coordinator, and never persisted as-is.
type Event struct {
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Timestamp   time.Time `json:"timestamp"`
	SearchQuery string    `json:"searchQuery,omitempty"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	TimeSpent   int       `json:"timeSpent,omitempty"` // seconds
}
