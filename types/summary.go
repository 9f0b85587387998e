package types

import (
	"encoding/json"
	"time"
)

type Summary struct {
	ID                string           `json:"id,omitempty"`
	UserID            string           `json:"user_id"`
	Summary           []SummaryContent `json:"summary"`
	FinishReason      string           `json:"cohere_finish_reason,omitempty"`
	Usage             json.RawMessage  `json:"cohere_usage,omitempty"`
	Prompt            string           `json:"cohere_prompt"`
	SourceActivityIDs []string         `json:"source_activity_ids"`
	PromptGeneratedAt time.Time        `json:"prompt_generated_at"`
}

type SummaryContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
