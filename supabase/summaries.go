package supabase

import (
	"fmt"

	"clementus360/activity-agent/types"

	"github.com/supabase-community/supabase-go"
)

func InsertSummary(client *supabase.Client, summary types.Summary) error {
	created := []types.Summary{summary}

	_, _, err := client.From("summaries").Insert(created, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// GetAllUsers lists every user for the batch summarization pass.
func GetAllUsers(client *supabase.Client) ([]types.User, error) {
	return listUsers(client)
}
