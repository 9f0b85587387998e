package supabase

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"clementus360/activity-agent/types"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// InsertActivity persists one captured event for a user. The processed flag
// always starts false.
func InsertActivity(client *supabase.Client, userID string, event types.Event) (types.Activity, error) {
	activity := types.Activity{
		UserID:    userID,
		URL:       event.URL,
		Title:     event.Title,
		Timestamp: event.Timestamp,
		Domain:    DeriveDomain(event.URL),
		Processed: false,
	}

	created := []types.Activity{activity}

	resp, _, err := client.From("activities").Insert(created, false, "", "representation", "").Execute()
	if err != nil {
		return types.Activity{}, fmt.Errorf("failed to save activity: %w", err)
	}

	if err := json.Unmarshal(resp, &created); err != nil {
		return types.Activity{}, fmt.Errorf("failed to parse created activity: %w", err)
	}
	if len(created) == 0 {
		return types.Activity{}, fmt.Errorf("create returned no activity")
	}
	return created[0], nil
}

// GetUnprocessedActivities returns a user's activities with processed=false in
// timestamp order.
func GetUnprocessedActivities(client *supabase.Client, userID string) ([]types.Activity, error) {
	resp, _, err := client.From("activities").
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("processed", "false").
		Order("timestamp", &postgrest.OrderOpts{Ascending: true}).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed activities: %w", err)
	}

	var activities []types.Activity
	if err := json.Unmarshal(resp, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}

	return activities, nil
}

// MarkActivitiesProcessed flips processed=true on the given activity ids.
func MarkActivitiesProcessed(client *supabase.Client, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, _, err := client.From("activities").
		Update(map[string]interface{}{"processed": true}, "", "").
		In("id", ids).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to mark activities processed: %w", err)
	}
	return nil
}

// DeriveDomain extracts the bare host from a URL, the same derivation the
// store's generated column performs.
func DeriveDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
