package vision

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

	"github.com/loross14/lost-and-found/internal/core/domain"
)

const detectionPrompt = `You are an archaeological survey assistant analyzing one aerial imagery tile.
Identify candidate undocumented archaeological features: mounds, earthworks, enclosures,
crop marks, soil marks, ancient field systems, or structural ruins. Ignore modern
construction, farms, roads, and natural formations.

Respond with ONLY a JSON object in exactly this shape, no prose:
{"features":[{"type":"mound","confidence":"high","x":0.42,"y":0.18,"size_m":35,"rationale":"one sentence"}]}

"confidence" must be "low", "medium", or "high". "x" and "y" are the feature center
in relative image coordinates from 0 to 1, origin top-left. "size_m" is the estimated
diameter in meters. Return {"features":[]} if nothing qualifies.`

// Client implements ports.FeatureDetector against an OpenAI-compatible
// chat-completions endpoint with vision support.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	backoffBase time.Duration
	httpClient  *http.Client
}

// New creates a detection client.
func New(baseURL, apiKey, model string, timeout time.Duration, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxAttempts: maxAttempts,
		backoffBase: 2 * time.Second,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// --- wire types (OpenAI chat completions) ---

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
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type findingsPayload struct {
	Features []struct {
		Type       string  `json:"type"`
		Confidence string  `json:"confidence"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		SizeM      float64 `json:"size_m"`
		Rationale  string  `json:"rationale"`
	} `json:"features"`
}

// Detect sends one tile image to the model and parses its findings.
// Transport failures and rate limits are retried with exponential backoff;
// a response that cannot be parsed into the expected shape is an error.
func (c *Client) Detect(ctx context.Context, image []byte) (*domain.DetectionResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: detectionPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp *chatResponse
	backoff := c.backoffBase
	for attempt := 1; ; attempt++ {
		resp, err = c.send(ctx, body)
		if err == nil || attempt >= c.maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("detection model returned no choices")
	}

	payload, err := parseFindings(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	result := &domain.DetectionResult{
		ModelID:   resp.Model,
		Rationale: strings.TrimSpace(resp.Choices[0].Message.Content),
	}
	if result.ModelID == "" {
		result.ModelID = c.model
	}
	for _, f := range payload.Features {
		result.Features = append(result.Features, domain.DetectedFeature{
			FeatureKind:         f.Type,
			Confidence:          domain.ConfidenceLevel(strings.ToLower(f.Confidence)),
			RelX:                clamp01(f.X),
			RelY:                clamp01(f.Y),
			EstimatedSizeMeters: f.SizeM,
			Rationale:           f.Rationale,
		})
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, body []byte) (*chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection model returned HTTP %d: %s", resp.StatusCode, truncate(data, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}

// parseFindings extracts the strict-JSON findings object from the model's
// reply, tolerating markdown code fences some models insist on adding.
func parseFindings(content string) (*findingsPayload, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	var payload findingsPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("unparseable detection response: %w", err)
	}
	return &payload, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
