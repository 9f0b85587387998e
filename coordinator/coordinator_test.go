package coordinator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"clementus360/activity-agent/bus"
	"clementus360/activity-agent/config"
	"clementus360/activity-agent/storage"
	"clementus360/activity-agent/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	supa "github.com/supabase-community/supabase-go"
)

// remoteStub is a minimal users/activities store behind the PostgREST
// filter syntax, with call counters for asserting on round trips.
type remoteStub struct {
	mu            sync.Mutex
	users         []types.User
	activities    []types.Activity
	userCreates   int
	activityPosts int
}

func (rs *remoteStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	eq := func(key string) (string, bool) {
		v := r.URL.Query().Get(key)
		if strings.HasPrefix(v, "eq.") {
			return strings.TrimPrefix(v, "eq."), true
		}
		return "", false
	}
	respond := func(v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/users") && r.Method == http.MethodGet:
		matched := []types.User{}
		for _, u := range rs.users {
			if email, ok := eq("email"); ok && u.Email != email {
				continue
			}
			if phone, ok := eq("phone_number"); ok && u.PhoneNumber != phone {
				continue
			}
			matched = append(matched, u)
		}
		respond(matched)

	case strings.HasSuffix(r.URL.Path, "/users") && r.Method == http.MethodPost:
		rs.userCreates++
		var incoming []types.User
		json.NewDecoder(r.Body).Decode(&incoming)
		created := []types.User{}
		for _, u := range incoming {
			for _, existing := range rs.users {
				if existing.Email == u.Email {
					w.WriteHeader(http.StatusConflict)
					respond(map[string]string{"code": "23505", "message": "duplicate key"})
					return
				}
			}
			u.ID = uuid.NewString()
			rs.users = append(rs.users, u)
			created = append(created, u)
		}
		respond(created)

	case strings.HasSuffix(r.URL.Path, "/users") && r.Method == http.MethodPatch:
		id, _ := eq("id")
		var updates map[string]interface{}
		json.NewDecoder(r.Body).Decode(&updates)
		patched := []types.User{}
		for i := range rs.users {
			if rs.users[i].ID != id {
				continue
			}
			if v, ok := updates["email"].(string); ok {
				rs.users[i].Email = v
			}
			if v, ok := updates["phone_number"].(string); ok {
				rs.users[i].PhoneNumber = v
			}
			if v, ok := updates["is_active"].(bool); ok {
				rs.users[i].IsActive = v
			}
			patched = append(patched, rs.users[i])
		}
		respond(patched)

	case strings.HasSuffix(r.URL.Path, "/activities") && r.Method == http.MethodPost:
		rs.activityPosts++
		var incoming []types.Activity
		json.NewDecoder(r.Body).Decode(&incoming)
		created := []types.Activity{}
		for _, a := range incoming {
			a.ID = uuid.NewString()
			rs.activities = append(rs.activities, a)
			created = append(created, a)
		}
		respond(created)

	default:
		http.NotFound(w, r)
	}
}

func (rs *remoteStub) activityCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.activities)
}

func (rs *remoteStub) activityAt(i int) types.Activity {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.activities[i]
}

func newTestCoordinator(t *testing.T) (*Coordinator, *remoteStub, *bus.Bus, *storage.Store) {
	t.Helper()

	rs := &remoteStub{}
	server := httptest.NewServer(rs)
	t.Cleanup(server.Close)

	client, err := supa.NewClient(server.URL, "test-key", &supa.ClientOptions{})
	require.NoError(t, err)

	local, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	b := bus.New(16)
	t.Cleanup(b.Close)

	return New(b, local, client), rs, b, local
}

func TestLogin_TwiceCreatesOneUser(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)

	first := coord.Login("[email protected]", "")
	require.True(t, first.Success, first.Error)
	require.NotNil(t, first.User)

	second := coord.Login("[email protected]", "")
	require.True(t, second.Success, second.Error)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, rs.userCreates, "second login must find the first login's record")
}

func TestLogin_PersistsSession(t *testing.T) {
	coord, _, _, local := newTestCoordinator(t)

	resp := coord.Login("[email protected]", "+15550100")
	require.True(t, resp.Success, resp.Error)

	require.NotNil(t, local.User())
	assert.Equal(t, "[email protected]", local.User().Email)
	assert.Equal(t, resp.User.ID, coord.CurrentUser().ID)
}

func TestSignIn_MissingUserFailsWithoutCreate(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)

	resp := coord.SignIn("[email protected]")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "sign up")
	assert.Equal(t, 0, rs.userCreates, "signIn must never create a user")
	assert.Nil(t, coord.CurrentUser())
}

func TestSignIn_ByPhone(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)
	rs.users = append(rs.users, types.User{ID: "u1", Email: "[email protected]", PhoneNumber: "+15550100"})

	resp := coord.SignIn("+15550100")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "u1", resp.User.ID)
	assert.True(t, resp.User.IsActive, "sign-in should refresh is_active")
}

func TestSignUp_DuplicateEmailFailsBeforeCreate(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)
	rs.users = append(rs.users, types.User{ID: "u1", Email: "[email protected]", PhoneNumber: "+15550100"})

	resp := coord.SignUp("[email protected]", "+15550199")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "email already exists")
	assert.Equal(t, 0, rs.userCreates, "pre-check failure must not reach the create call")
}

func TestSignUp_DuplicatePhoneFails(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)
	rs.users = append(rs.users, types.User{ID: "u1", Email: "[email protected]", PhoneNumber: "+15550100"})

	resp := coord.SignUp("new-user@example.com", "+15550100")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "phone number already exists")
	assert.Equal(t, 0, rs.userCreates)
}

func TestSignUp_Success(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)

	resp := coord.SignUp("[email protected]", "+15550123")
	require.True(t, resp.Success, resp.Error)
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, resp.User.ID, coord.CurrentUser().ID, "sign-up adopts the session")
}

func TestUpdateUser_RequiresSession(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)

	resp := coord.UpdateUser("[email protected]", "")
	assert.False(t, resp.Success)
	assert.Equal(t, "no user logged in", resp.Error)
}

func TestUpdateUser_PatchesAndRefreshesCache(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	require.True(t, coord.Login("[email protected]", "+15550100").Success)

	resp := coord.UpdateUser("", "+15550777")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "+15550777", coord.CurrentUser().PhoneNumber)
}

func TestLogout_Idempotent(t *testing.T) {
	coord, _, _, local := newTestCoordinator(t)
	require.True(t, coord.Login("[email protected]", "").Success)

	assert.True(t, coord.Logout().Success)
	assert.True(t, coord.Logout().Success)
	assert.Nil(t, coord.CurrentUser())
	assert.Nil(t, local.User())
	assert.True(t, local.TrackingEnabled(), "logout must not touch the tracking flag")
}

func TestRecordActivity_GateProperties(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)

	event := types.Event{
		Type:      config.EventSearch,
		URL:       "https://google.com/search?q=rust",
		Title:     "Search: rust",
		Timestamp: time.Now().UTC(),
	}

	// No session: silent no-op.
	coord.RecordActivity(event)
	assert.Equal(t, 0, rs.activityCount())

	require.True(t, coord.Login("[email protected]", "").Success)

	// Tracking disabled: silent no-op, no error.
	require.True(t, coord.ToggleTracking(false).Success)
	coord.RecordActivity(event)
	assert.Equal(t, 0, rs.activityCount())

	// Re-enabled: capture resumes without re-login.
	require.True(t, coord.ToggleTracking(true).Success)
	coord.RecordActivity(event)
	require.Equal(t, 1, rs.activityCount())

	saved := rs.activityAt(0)
	assert.Equal(t, coord.CurrentUser().ID, saved.UserID)
	assert.False(t, saved.Processed)
	assert.Equal(t, "google.com", saved.Domain)
}

func TestToggleTracking_BroadcastsToSubscribers(t *testing.T) {
	coord, _, b, local := newTestCoordinator(t)

	ch := b.Subscribe("tab-1", 4)

	require.True(t, coord.ToggleTracking(false).Success)
	assert.False(t, local.TrackingEnabled())

	select {
	case msg := <-ch:
		change, ok := msg.(types.TrackingStatusChanged)
		require.True(t, ok)
		assert.False(t, change.Enabled)
	case <-time.After(time.Second):
		t.Fatal("toggle broadcast not delivered")
	}
}

func TestHandleNavigation_FiltersInternalURLs(t *testing.T) {
	coord, rs, _, _ := newTestCoordinator(t)
	require.True(t, coord.Login("[email protected]", "").Success)

	coord.HandleNavigation("chrome://settings", "Settings")
	coord.HandleNavigation("chrome-extension://abc/popup.html", "Popup")
	coord.HandleNavigation("about:blank", "")
	coord.HandleNavigation("moz-extension://abc", "")
	assert.Equal(t, 0, rs.activityCount())

	coord.HandleNavigation("https://example.org/page", "Example")
	require.Equal(t, 1, rs.activityCount())
	assert.Equal(t, "https://example.org/page", rs.activityAt(0).URL)

	coord.HandleNewTab("https://news.ycombinator.com", "")
	require.Equal(t, 2, rs.activityCount())
	assert.Equal(t, "New Tab", rs.activityAt(1).Title)
}

func TestDispatch_OverTheBus(t *testing.T) {
	coord, _, b, _ := newTestCoordinator(t)

	go coord.Run()

	resp, err := b.Request(types.GetUser{})
	require.NoError(t, err)
	assert.Nil(t, resp.(types.UserResponse).User)

	resp, err = b.Request(types.Login{Email: "[email protected]"})
	require.NoError(t, err)
	auth := resp.(types.AuthResponse)
	require.True(t, auth.Success, auth.Error)

	resp, err = b.Request(types.GetTrackingStatus{})
	require.NoError(t, err)
	assert.True(t, resp.(types.StatusResponse).Enabled)

	resp, err = b.Request(types.ToggleTracking{Enabled: false})
	require.NoError(t, err)
	assert.True(t, resp.(types.AckResponse).Success)

	resp, err = b.Request(types.GetTrackingStatus{})
	require.NoError(t, err)
	assert.False(t, resp.(types.StatusResponse).Enabled)

	resp, err = b.Request(types.Logout{})
	require.NoError(t, err)
	assert.True(t, resp.(types.AckResponse).Success)

	resp, err = b.Request(types.GetUser{})
	require.NoError(t, err)
	assert.Nil(t, resp.(types.UserResponse).User)
}
