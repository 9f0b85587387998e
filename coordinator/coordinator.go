// Package coordinator is the single owner of session state and the only
// bridge to the remote store. It reacts to inbound bus messages; it has no
// polling loop of its own.
package coordinator

import (
	"strings"
	"sync"
	"time"

	"clementus360/activity-agent/bus"
	"clementus360/activity-agent/config"
	"clementus360/activity-agent/storage"
	"clementus360/activity-agent/supabase"
	"clementus360/activity-agent/types"

	supa "github.com/supabase-community/supabase-go"
)

type Coordinator struct {
	bus    *bus.Bus
	local  *storage.Store
	client *supa.Client

	mu              sync.Mutex
	user            *types.User
	trackingEnabled bool
}

// New restores session state from the local store. Tracking defaults to
// enabled on a fresh install.
func New(b *bus.Bus, local *storage.Store, client *supa.Client) *Coordinator {
	return &Coordinator{
		bus:             b,
		local:           local,
		client:          client,
		user:            local.User(),
		trackingEnabled: local.TrackingEnabled(),
	}
}

// Run consumes the bus inbox until the bus closes. Each message is handled on
// its own goroutine: handlers suspend at remote round trips, so two inflight
// operations can interleave exactly as the platform's event loop would allow.
// Per-sender send order is still the order messages are taken off the inbox.
func (c *Coordinator) Run() {
	var wg sync.WaitGroup
	for env := range c.bus.Inbox() {
		wg.Add(1)
		go func(env *bus.Envelope) {
			defer wg.Done()
			c.dispatch(env)
		}(env)
	}
	wg.Wait()
}

func (c *Coordinator) dispatch(env *bus.Envelope) {
	switch msg := env.Msg.(type) {
	case types.GetUser:
		env.Reply(types.UserResponse{User: c.CurrentUser()})
	case types.Login:
		env.Reply(c.Login(msg.Email, msg.Phone))
	case types.SignIn:
		env.Reply(c.SignIn(msg.Identifier))
	case types.SignUp:
		env.Reply(c.SignUp(msg.Email, msg.Phone))
	case types.UpdateUser:
		env.Reply(c.UpdateUser(msg.Email, msg.Phone))
	case types.Logout:
		env.Reply(c.Logout())
	case types.ToggleTracking:
		env.Reply(c.ToggleTracking(msg.Enabled))
	case types.GetTrackingStatus:
		env.Reply(types.StatusResponse{Enabled: c.TrackingEnabled()})
	case types.TrackActivity:
		c.RecordActivity(msg.Event)
		env.Reply(types.AckResponse{Success: true})
	default:
		config.Logger.Warnf("Unhandled message type: %s", env.Msg.MessageType())
		env.Reply(types.AckResponse{Success: false, Error: "unknown message type"})
	}
}

func (c *Coordinator) CurrentUser() *types.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Coordinator) TrackingEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackingEnabled
}

func (c *Coordinator) adoptUser(u types.User) {
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
	if err := c.local.SetUser(&u); err != nil {
		config.Logger.Error("Failed to persist session user:", err)
	}
}

// Logout clears the persisted session. Idempotent.
func (c *Coordinator) Logout() types.AckResponse {
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	if err := c.local.ClearUser(); err != nil {
		config.Logger.Error("Failed to clear session user:", err)
		return types.AckResponse{Success: false, Error: "failed to clear session"}
	}
	return types.AckResponse{Success: true}
}

// ToggleTracking persists the flag and notifies every capture context. A
// recipient that is gone is dropped by the bus, not an error here.
func (c *Coordinator) ToggleTracking(enabled bool) types.AckResponse {
	c.mu.Lock()
	c.trackingEnabled = enabled
	c.mu.Unlock()

	if err := c.local.SetTrackingEnabled(enabled); err != nil {
		config.Logger.Error("Failed to persist tracking flag:", err)
		return types.AckResponse{Success: false, Error: "failed to persist tracking status"}
	}

	c.bus.Broadcast(types.TrackingStatusChanged{Enabled: enabled})
	return types.AckResponse{Success: true}
}

// RecordActivity persists an event iff a session exists and tracking is
// enabled; otherwise it is a silent no-op. Insert failures are logged and
// swallowed: capture is best-effort and never retried.
func (c *Coordinator) RecordActivity(event types.Event) {
	c.mu.Lock()
	user := c.user
	enabled := c.trackingEnabled
	c.mu.Unlock()

	if user == nil || !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if _, err := supabase.InsertActivity(c.client, user.ID, event); err != nil {
		config.Logger.Error("Failed to save activity:", err)
	}
}

// HandleNavigation records a platform-level navigation signal through the
// same gate as context events. Browser-internal pages are filtered out.
func (c *Coordinator) HandleNavigation(url, title string) {
	if isInternalURL(url) {
		return
	}
	c.RecordActivity(types.Event{
		Type:      config.EventNavigation,
		URL:       url,
		Title:     title,
		Timestamp: time.Now().UTC(),
	})
}

// HandleNewTab records a tab-creation signal.
func (c *Coordinator) HandleNewTab(url, title string) {
	if isInternalURL(url) {
		return
	}
	if title == "" {
		title = "New Tab"
	}
	c.RecordActivity(types.Event{
		Type:      config.EventNewTab,
		URL:       url,
		Title:     title,
		Timestamp: time.Now().UTC(),
	})
}

func isInternalURL(url string) bool {
	if url == "" {
		return true
	}
	for _, prefix := range config.InternalURLPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}
