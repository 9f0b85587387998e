// Package summarizer batch-consumes unprocessed activities into summaries.
// It runs out-of-band from the live capture path and talks straight to the
// store and the completion service.
package summarizer

import (
	"fmt"
	"time"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/llm"
	"clementus360/activity-agent/supabase"
	"clementus360/activity-agent/types"

	supa "github.com/supabase-community/supabase-go"
)

// Run summarizes one user's unprocessed activities. An empty set is a no-op,
// not an error, and makes no completion call. A failed completion aborts the
// run with nothing persisted and nothing marked, so a re-run is safe. Source
// activities are marked processed only after the summary is stored.
func Run(client *supa.Client, ai *llm.Client, userID string) (bool, error) {
	activities, err := supabase.GetUnprocessedActivities(client, userID)
	if err != nil {
		return false, fmt.Errorf("fetch unprocessed activities: %w", err)
	}
	if len(activities) == 0 {
		return false, nil
	}

	prompt := llm.BuildActivityPrompt(activities)

	result, err := ai.Chat(prompt)
	if err != nil {
		return false, fmt.Errorf("completion call: %w", err)
	}

	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}

	summary := types.Summary{
		UserID:            userID,
		Summary:           result.Content,
		FinishReason:      result.FinishReason,
		Usage:             result.Usage,
		Prompt:            prompt,
		SourceActivityIDs: ids,
		PromptGeneratedAt: time.Now().UTC(),
	}

	if err := supabase.InsertSummary(client, summary); err != nil {
		return false, fmt.Errorf("insert summary: %w", err)
	}

	// The summary is durable at this point. A mark failure means the next
	// run re-summarizes these activities, which beats losing the summary.
	if err := supabase.MarkActivitiesProcessed(client, ids); err != nil {
		config.Logger.Warnf("Summary stored but activities not marked processed for user %s: %v", userID, err)
	}

	return true, nil
}

// RunAllUsers summarizes every user with pending activities. Per-user
// failures are logged and do not stop the pass.
func RunAllUsers(client *supa.Client, ai *llm.Client) error {
	users, err := supabase.GetAllUsers(client)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		created, err := Run(client, ai, user.ID)
		if err != nil {
			config.Logger.Errorf("Summarization failed for user %s: %v", user.Email, err)
			continue
		}
		if created {
			config.Logger.Infof("Summary created for user %s", user.Email)
		}
	}
	return nil
}
