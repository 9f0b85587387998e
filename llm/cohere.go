package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"clementus360/activity-agent/config"
	"clementus360/activity-agent/types"
)

// Client talks to the Cohere v2 chat endpoint. The base URL is injectable so
// tests can point it at a stub server.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = config.CohereBaseURL
	}
	if model == "" {
		model = config.CohereModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: config.Tracker.RequestTimeout,
		},
	}
}

// ChatResult carries the pieces of a completion that the summarizer persists.
type ChatResult struct {
	Content      []types.SummaryContent
	FinishReason string
	Usage        json.RawMessage
}

// Text joins the content items into one plain string.
func (r ChatResult) Text() string {
	var out string
	for _, item := range r.Content {
		out += item.Text
	}
	return out
}

type chatResponse struct {
	Message struct {
		Content []types.SummaryContent `json:"content"`
	} `json:"message"`
	FinishReason string          `json:"finish_reason"`
	Usage        json.RawMessage `json:"usage"`
}

// Chat submits a single-turn prompt and returns the completion.
func (c *Client) Chat(prompt string) (ChatResult, error) {
	if c.apiKey == "" {
		return ChatResult{}, fmt.Errorf("COHERE_API_KEY not set")
	}

	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return ChatResult{}, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/v2/chat", bytes.NewReader(jsonData))
	if err != nil {
		return ChatResult{}, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ChatResult{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ChatResult{}, fmt.Errorf("failed to decode response: %v", err)
	}

	if len(decoded.Message.Content) == 0 {
		return ChatResult{}, fmt.Errorf("no content returned from Cohere")
	}

	return ChatResult{
		Content:      decoded.Message.Content,
		FinishReason: decoded.FinishReason,
		Usage:        decoded.Usage,
	}, nil
}
