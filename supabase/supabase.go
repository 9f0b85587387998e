package supabase

import (
	"os"

	"clementus360/activity-agent/config"

	"github.com/supabase-community/supabase-go"
)

var Client *supabase.Client

func Init() {
	apiURL := os.Getenv("SUPABASE_URL")
	apiKey := os.Getenv("SUPABASE_KEY")

	if apiURL == "" || apiKey == "" {
		config.Logger.Fatal("SUPABASE_URL or SUPABASE_KEY is missing")
	}

	var err error
	Client, err = supabase.NewClient(apiURL, apiKey, &supabase.ClientOptions{})
	if err != nil {
		config.Logger.Fatal("Failed to create Supabase client:", err)
	}

	// The whole agent shares one static bearer credential; the store trusts
	// client-supplied user_id filters under it. Surface the key's claims so
	// an expired or wrongly-scoped key is visible at startup.
	role, exp, err := KeyClaims(apiKey)
	if err != nil {
		config.Logger.Warn("Could not inspect Supabase key claims:", err)
		return
	}
	config.Logger.Infof("Supabase key role=%s expires=%s", role, exp.Format("2006-01-02"))
}

// NewClient builds a client for a specific store URL, used by the summarizer
// process and tests.
func NewClient(apiURL, apiKey string) (*supabase.Client, error) {
	return supabase.NewClient(apiURL, apiKey, &supabase.ClientOptions{})
}
