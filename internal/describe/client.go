package describe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// actionPrompt asks the model to return the exact JSON shape the frame
// record stores. Changing the keys here breaks artifact parsing.
const actionPrompt = `Analyze this soccer penalty kick frame.
1.  **Action Description**: Describe the main action. Is the player approaching the ball, kicking, or is the ball in flight? What is the goalkeeper doing? Be concise.
2.  **Kick Analysis**: If a kick is happening, describe the player's form. What part of the foot is used?

Return a JSON object with keys "action_description" and "kick_analysis".
- "action_description": (string)
- "kick_analysis": {"is_kick": (boolean), "foot_part": (string), "comment": (string)}`

// Analysis is the model's reply for one frame.
type Analysis struct {
	ActionDescription string       `json:"action_description"`
	KickAnalysis      KickAnalysis `json:"kick_analysis"`
}

// Describer produces an action analysis for one JPEG-encoded frame.
type Describer interface {
	Describe(ctx context.Context, jpegFrame []byte) (Analysis, error)
}

// ClientOptions configures the hosted vision-model client.
type ClientOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	logger    zerolog.Logger
	http      *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// NewClient validates options and builds a client. A missing API key is a
// configuration error, not a per-frame condition.
func NewClient(logger zerolog.Logger, opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 200
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	return &Client{
		logger:    logger.With().Str("component", "describe-client").Logger(),
		http:      &http.Client{Timeout: opts.Timeout},
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}, nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Describe sends one JPEG frame to the model and parses its JSON reply.
func (c *Client) Describe(ctx context.Context, jpegFrame []byte) (Analysis, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegFrame)

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: actionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Analysis{}, fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Analysis{}, fmt.Errorf("failed to parse API response: %w", err)
	}
	if parsed.Error != nil {
		return Analysis{}, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Analysis{}, fmt.Errorf("API response has no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)

	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return Analysis{}, fmt.Errorf("model reply is not the expected JSON: %w", err)
	}

	return analysis, nil
}

// stripFences removes Markdown code fences the model sometimes wraps its
// JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
