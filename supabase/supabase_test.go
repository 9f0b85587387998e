package supabase

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"clementus360/activity-agent/types"

	"github.com/google/uuid"
	supa "github.com/supabase-community/supabase-go"
)

// fakeStore emulates the slice of the PostgREST surface this package uses:
// eq filters, in filters, timestamp ordering, representation bodies, and
// 23505 conflicts on duplicate users.
type fakeStore struct {
	mu         sync.Mutex
	users      []types.User
	activities []types.Activity
	summaries  []types.Summary

	userPosts int
}

func newFakeStore(t *testing.T) (*fakeStore, *supa.Client) {
	t.Helper()
	fs := &fakeStore{}
	server := httptest.NewServer(fs)
	t.Cleanup(server.Close)

	client, err := supa.NewClient(server.URL, "test-key", &supa.ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return fs, client
}

func (fs *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/users"):
		fs.serveUsers(w, r)
	case strings.HasSuffix(r.URL.Path, "/activities"):
		fs.serveActivities(w, r)
	case strings.HasSuffix(r.URL.Path, "/summaries"):
		fs.serveSummaries(w, r)
	default:
		http.NotFound(w, r)
	}
}

func eqParam(r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if strings.HasPrefix(v, "eq.") {
		return strings.TrimPrefix(v, "eq."), true
	}
	return "", false
}

func inParam(r *http.Request, key string) ([]string, bool) {
	v := r.URL.Query().Get(key)
	if !strings.HasPrefix(v, "in.(") || !strings.HasSuffix(v, ")") {
		return nil, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(v, "in.("), ")")
	if inner == "" {
		return nil, true
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.Trim(parts[i], `"`)
	}
	return parts, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func conflict(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    "23505",
		"message": "duplicate key value violates unique constraint",
	})
}

func (fs *fakeStore) serveUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		matched := []types.User{}
		for _, u := range fs.users {
			if email, ok := eqParam(r, "email"); ok && u.Email != email {
				continue
			}
			if phone, ok := eqParam(r, "phone_number"); ok && u.PhoneNumber != phone {
				continue
			}
			matched = append(matched, u)
		}
		writeJSON(w, matched)

	case http.MethodPost:
		fs.userPosts++
		var incoming []types.User
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created := []types.User{}
		for _, u := range incoming {
			for _, existing := range fs.users {
				if existing.Email == u.Email ||
					(u.PhoneNumber != "" && existing.PhoneNumber == u.PhoneNumber) {
					conflict(w)
					return
				}
			}
			u.ID = uuid.NewString()
			fs.users = append(fs.users, u)
			created = append(created, u)
		}
		writeJSON(w, created)

	case http.MethodPatch:
		id, _ := eqParam(r, "id")
		var updates map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		patched := []types.User{}
		for i := range fs.users {
			if fs.users[i].ID != id {
				continue
			}
			if v, ok := updates["email"].(string); ok {
				fs.users[i].Email = v
			}
			if v, ok := updates["phone_number"].(string); ok {
				fs.users[i].PhoneNumber = v
			}
			if v, ok := updates["is_active"].(bool); ok {
				fs.users[i].IsActive = v
			}
			patched = append(patched, fs.users[i])
		}
		writeJSON(w, patched)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (fs *fakeStore) serveActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		matched := []types.Activity{}
		for _, a := range fs.activities {
			if userID, ok := eqParam(r, "user_id"); ok && a.UserID != userID {
				continue
			}
			if processed, ok := eqParam(r, "processed"); ok {
				want := processed == "true"
				if a.Processed != want {
					continue
				}
			}
			matched = append(matched, a)
		}
		if strings.HasPrefix(r.URL.Query().Get("order"), "timestamp") {
			sort.Slice(matched, func(i, j int) bool {
				return matched[i].Timestamp.Before(matched[j].Timestamp)
			})
		}
		writeJSON(w, matched)

	case http.MethodPost:
		var incoming []types.Activity
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created := []types.Activity{}
		for _, a := range incoming {
			a.ID = uuid.NewString()
			if a.Timestamp.IsZero() {
				a.Timestamp = time.Now().UTC()
			}
			fs.activities = append(fs.activities, a)
			created = append(created, a)
		}
		writeJSON(w, created)

	case http.MethodPatch:
		ids, _ := inParam(r, "id")
		var updates map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		idSet := map[string]bool{}
		for _, id := range ids {
			idSet[id] = true
		}
		patched := []types.Activity{}
		for i := range fs.activities {
			if !idSet[fs.activities[i].ID] {
				continue
			}
			if v, ok := updates["processed"].(bool); ok {
				fs.activities[i].Processed = v
			}
			patched = append(patched, fs.activities[i])
		}
		writeJSON(w, patched)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (fs *fakeStore) serveSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var incoming []types.Summary
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, s := range incoming {
		s.ID = uuid.NewString()
		fs.summaries = append(fs.summaries, s)
	}
	writeJSON(w, fs.summaries)
}
