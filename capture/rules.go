package capture

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/types"
)

// pageRules is the per-site layer over the shared base behavior. Every page
// gets page-visit and dwell tracking; search engines and the video platform
// add their own load-time search parsing and click filters.
type pageRules interface {
	loadEvents(loc, title string) []types.Event
	clickEvent(link Link, loc string) (types.Event, bool)
	searchEvent(sub Submission, loc, title string) (types.Event, bool)
}

func rulesFor(rawURL string) pageRules {
	host := hostnameOf(rawURL)
	switch {
	case strings.Contains(host, "google."):
		return googleRules{}
	case strings.Contains(host, "bing."):
		return bingRules{}
	case strings.Contains(host, "youtube."):
		return youtubeRules{}
	default:
		return genericRules{}
	}
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func queryParam(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

func pageVisit(loc, title string) types.Event {
	if title == "" {
		title = "Untitled Page"
	}
	return types.Event{
		Type:      config.EventPageVisit,
		URL:       loc,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
}

func searchVisit(loc, title, query string) types.Event {
	return types.Event{
		Type:        config.EventSearch,
		URL:         loc,
		Title:       title,
		Timestamp:   time.Now().UTC(),
		SearchQuery: query,
	}
}

func linkClick(link Link, loc, fallbackTitle string) types.Event {
	title := strings.TrimSpace(link.Text)
	if title == "" {
		title = strings.TrimSpace(link.Label)
	}
	if title == "" {
		title = fallbackTitle
	}
	return types.Event{
		Type:      config.EventLinkClick,
		URL:       link.Href,
		Title:     title,
		Timestamp: time.Now().UTC(),
		SourceURL: loc,
	}
}

func isWebURL(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// --- generic pages ---

type genericRules struct{}

func (genericRules) loadEvents(loc, title string) []types.Event {
	return []types.Event{pageVisit(loc, title)}
}

func (genericRules) clickEvent(link Link, loc string) (types.Event, bool) {
	if !isWebURL(link.Href) || link.Href == loc {
		return types.Event{}, false
	}
	return linkClick(link, loc, link.Href), true
}

// searchEvent applies the query-field heuristic at submission time.
func (genericRules) searchEvent(sub Submission, loc, title string) (types.Event, bool) {
	term := strings.TrimSpace(sub.Value)
	if term == "" || !looksLikeSearchField(sub.Field) {
		return types.Event{}, false
	}
	host := hostnameOf(loc)
	return searchVisit(loc, fmt.Sprintf("Search on %s: %s", host, term), term), true
}

func looksLikeSearchField(f FormField) bool {
	if f.Type == "search" {
		return true
	}
	name := strings.ToLower(f.Name)
	if name == "q" || strings.Contains(name, "search") || strings.Contains(name, "query") {
		return true
	}
	placeholder := strings.ToLower(f.Placeholder)
	return strings.Contains(placeholder, "search") || strings.Contains(placeholder, "find")
}

// --- Google search ---

type googleRules struct{}

func (googleRules) loadEvents(loc, title string) []types.Event {
	events := []types.Event{pageVisit(loc, title)}
	if q := queryParam(loc, "q"); q != "" {
		events = append(events, searchVisit(loc, "Google Search: "+q, q))
	}
	return events
}

// clickEvent keeps result links only, skipping Google's own navigation chrome.
func (googleRules) clickEvent(link Link, loc string) (types.Event, bool) {
	if !isWebURL(link.Href) ||
		strings.Contains(link.Href, "google.com") ||
		strings.Contains(link.Href, "accounts.google.com") {
		return types.Event{}, false
	}
	return linkClick(link, loc, "Search Result Click"), true
}

func (googleRules) searchEvent(Submission, string, string) (types.Event, bool) {
	return types.Event{}, false
}

// --- Bing search ---

type bingRules struct{}

func (bingRules) loadEvents(loc, title string) []types.Event {
	events := []types.Event{pageVisit(loc, title)}
	if q := queryParam(loc, "q"); q != "" {
		events = append(events, searchVisit(loc, "Bing Search: "+q, q))
	}
	return events
}

func (bingRules) clickEvent(link Link, loc string) (types.Event, bool) {
	if !isWebURL(link.Href) || strings.Contains(link.Href, "bing.com") {
		return types.Event{}, false
	}
	return linkClick(link, loc, "Search Result Click"), true
}

func (bingRules) searchEvent(Submission, string, string) (types.Event, bool) {
	return types.Event{}, false
}

// --- YouTube ---

type youtubeRules struct{}

// Only significant page types count as visits; YouTube churns through too
// many incidental pages to record them all.
var youtubeSignificantPaths = []string{"/watch", "/results", "/channel", "/playlist"}

func (youtubeRules) loadEvents(loc, title string) []types.Event {
	var events []types.Event

	u, err := url.Parse(loc)
	if err != nil {
		return events
	}

	significant := u.Path == "/"
	for _, p := range youtubeSignificantPaths {
		if strings.HasPrefix(u.Path, p) {
			significant = true
			break
		}
	}
	if significant {
		events = append(events, pageVisit(loc, title))
	}

	if strings.HasPrefix(u.Path, "/results") {
		if q := u.Query().Get("search_query"); q != "" {
			events = append(events, searchVisit(loc, "YouTube Search: "+q, q))
		}
	}
	return events
}

// clickEvent keeps video links only.
func (youtubeRules) clickEvent(link Link, loc string) (types.Event, bool) {
	if !strings.Contains(link.Href, "/watch?") {
		return types.Event{}, false
	}
	return linkClick(link, loc, "YouTube Video"), true
}

func (youtubeRules) searchEvent(Submission, string, string) (types.Event, bool) {
	return types.Event{}, false
}
