package summarizer

import (
	"context"
	"time"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/llm"

	supa "github.com/supabase-community/supabase-go"
)

// Scheduler drives periodic summarization passes over all users.
type Scheduler struct {
	client   *supa.Client
	ai       *llm.Client
	interval time.Duration
}

func NewScheduler(client *supa.Client, ai *llm.Client, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = config.Tracker.SummarizeEvery
	}
	return &Scheduler{client: client, ai: ai, interval: interval}
}

// Start runs one pass immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	config.Logger.Infof("Summarization scheduler started, interval=%s", s.interval)

	if err := RunAllUsers(s.client, s.ai); err != nil {
		config.Logger.Error("Summarization pass failed:", err)
	}

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("Summarization scheduler stopped")
			return
		case <-ticker.C:
			if err := RunAllUsers(s.client, s.ai); err != nil {
				config.Logger.Error("Summarization pass failed:", err)
			}
		}
	}
}
