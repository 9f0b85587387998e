package config

import "time"

// Tracker configuration
var Tracker = TrackerConfig{
	MinDwell:        5 * time.Second,
	LocationPoll:    1 * time.Second,
	SummarizeEvery:  10 * time.Minute,
	BusQueueSize:    64,
	BroadcastBuffer: 8,
	RequestTimeout:  30 * time.Second,
}

type TrackerConfig struct {
	MinDwell        time.Duration // time_spent below this is bounce noise
	LocationPoll    time.Duration // SPA navigation poll; misses intra-interval navigations
	SummarizeEvery  time.Duration
	BusQueueSize    int
	BroadcastBuffer int
	RequestTimeout  time.Duration
}

// Event type constants
const (
	EventPageVisit  = "page_visit"
	EventLinkClick  = "link_click"
	EventSearch     = "search"
	EventTimeSpent  = "time_spent"
	EventNavigation = "navigation"
	EventNewTab     = "new_tab"
)

// Cohere defaults
const (
	CohereBaseURL = "https://api.cohere.com"
	CohereModel   = "command-a-03-2025"
)

// Browser-internal schemes that are never recorded as activity.
var InternalURLPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"about:",
	"moz-extension://",
}
