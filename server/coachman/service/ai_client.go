package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coach_server/server/coachman/domain"
)

// AIClient talks to the external analysis endpoint. One synchronous attempt
// per request; the three failure modes map to distinct error kinds so the
// handler can pick the right status class.
type AIClient struct {
	endpoint string
	http     *http.Client
}

func NewAIClient(endpoint string, timeout time.Duration) *AIClient {
	return &AIClient{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *AIClient) Configured() bool {
	return c.endpoint != ""
}

type aiRequest struct {
	VideoURL string `json:"videoUrl"`
}

type aiResponse struct {
	Feedback string `json:"feedback"`
}

// RequestFeedback sends the signed video URL and extracts the feedback
// text. No video bytes pass through this service.
func (c *AIClient) RequestFeedback(ctx context.Context, videoURL string) (string, error) {
	body, err := json.Marshal(aiRequest{VideoURL: videoURL})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIUnreachable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", domain.ErrAIService, resp.StatusCode)
	}

	var out aiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIMalformed, err)
	}
	if strings.TrimSpace(out.Feedback) == "" {
		return "", fmt.Errorf("%w: missing feedback field", domain.ErrAIMalformed)
	}
	return out.Feedback, nil
}
