package capture

import (
	"context"
	"time"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/types"

	"github.com/google/uuid"
)

// Sender is the context's side of the bus.
type Sender interface {
	Notify(msg types.Message)
	Request(msg types.Message) (types.Response, error)
	Subscribe(id string, buffer int) <-chan types.Message
	Unsubscribe(id string)
}

type Options struct {
	ID           string
	MinDwell     time.Duration // time_spent below this is dropped
	PollInterval time.Duration // SPA navigation detection
}

// Context observes one page through a PageSource. Run drives everything from
// a single goroutine, so no field needs locking.
type Context struct {
	id     string
	page   PageSource
	sender Sender
	rules  pageRules

	enabled  bool
	current  string
	start    time.Time
	seen     map[string]bool
	minDwell time.Duration
	poll     time.Duration
}

func New(page PageSource, sender Sender, opts Options) *Context {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.MinDwell == 0 {
		opts.MinDwell = config.Tracker.MinDwell
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = config.Tracker.LocationPoll
	}
	return &Context{
		id:       opts.ID,
		page:     page,
		sender:   sender,
		seen:     make(map[string]bool),
		minDwell: opts.MinDwell,
		poll:     opts.PollInterval,
	}
}

func (c *Context) ID() string { return c.id }

// Run queries the tracking flag once, then reacts to page signals until the
// page unloads or ctx is cancelled. Toggle changes arrive by broadcast; the
// coordinator is never re-queried.
func (c *Context) Run(ctx context.Context) {
	if resp, err := c.sender.Request(types.GetTrackingStatus{}); err == nil {
		if status, ok := resp.(types.StatusResponse); ok {
			c.enabled = status.Enabled
		}
	}

	toggles := c.sender.Subscribe(c.id, config.Tracker.BroadcastBuffer)
	defer c.sender.Unsubscribe(c.id)

	c.current = c.page.Location()
	c.start = time.Now()
	c.rules = rulesFor(c.current)
	c.onLoad()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.page.Unload():
			c.emitDwell()
			return
		case click, ok := <-c.page.Clicks():
			if ok {
				c.handleClick(click)
			}
		case links, ok := <-c.page.Inserted():
			if ok {
				c.trackLinks(links)
			}
		case sub, ok := <-c.page.Submissions():
			if ok {
				c.handleSubmission(sub)
			}
		case msg, ok := <-toggles:
			if !ok {
				toggles = nil
				continue
			}
			c.handleBroadcast(msg)
		case <-ticker.C:
			c.checkNavigation()
		}
	}
}

func (c *Context) emit(event types.Event) {
	if !c.enabled {
		return
	}
	c.sender.Notify(types.TrackActivity{Event: event})
}

func (c *Context) onLoad() {
	for _, event := range c.rules.loadEvents(c.current, c.page.Title()) {
		c.emit(event)
	}
}

// trackLinks registers newly observed anchors. Each href is registered at
// most once; mutation re-scans delivering the same subtree are no-ops.
func (c *Context) trackLinks(links []Link) {
	for _, link := range links {
		if link.Href == "" {
			continue
		}
		c.seen[link.Href] = true
	}
}

// handleClick emits for registered anchors that pass the site's click filter.
func (c *Context) handleClick(click Click) {
	if !c.seen[click.Link.Href] {
		return
	}
	if event, ok := c.rules.clickEvent(click.Link, c.current); ok {
		c.emit(event)
	}
}

func (c *Context) handleSubmission(sub Submission) {
	if event, ok := c.rules.searchEvent(sub, c.current, c.page.Title()); ok {
		c.emit(event)
	}
}

func (c *Context) handleBroadcast(msg types.Message) {
	change, ok := msg.(types.TrackingStatusChanged)
	if !ok {
		return
	}
	wasEnabled := c.enabled
	c.enabled = change.Enabled
	if c.enabled && !wasEnabled {
		// Dwell restarts from the moment tracking resumes.
		c.start = time.Now()
	}
}

// checkNavigation is the SPA edge detector: the location is compared to the
// last seen URL on a fixed interval. Navigations that happen and unwind
// within one interval are missed.
func (c *Context) checkNavigation() {
	loc := c.page.Location()
	if loc == c.current {
		return
	}

	c.emitDwell()

	c.current = loc
	c.start = time.Now()
	c.rules = rulesFor(loc)
	c.seen = make(map[string]bool)
	c.onLoad()
}

// emitDwell reports time spent on the current URL, suppressing bounce noise
// below the threshold.
func (c *Context) emitDwell() {
	elapsed := time.Since(c.start)
	if elapsed <= c.minDwell {
		return
	}
	c.emit(types.Event{
		Type:      config.EventTimeSpent,
		URL:       c.current,
		Title:     c.page.Title(),
		Timestamp: time.Now().UTC(),
		TimeSpent: int(elapsed.Round(time.Second) / time.Second),
	})
}
