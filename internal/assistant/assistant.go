// Package assistant answers free-text contest questions through a
// third-party text-generation endpoint. The service is consumed as an
// opaque request/response call: one attempt, one timeout, and any
// failure collapses to a fixed fallback message in the transcript.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/logger"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// FallbackMessage is shown whenever the endpoint is unreachable or
// returns something unusable.
const FallbackMessage = "Error connecting to AI. Please try again later."

// Config wires the endpoint, credentials and HTTP behavior.
type Config struct {
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the conversational endpoint.
type Client struct {
	cfg Config
}

// New builds a client, filling in an HTTP client and timeout when the
// caller left them empty.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{cfg: cfg}
}

// Enabled reports whether the client has credentials to call out with.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Preamble builds the fixed contest context sent ahead of every
// question.
func Preamble(global models.GlobalSettings, pool models.Pool) string {
	return fmt.Sprintf(`You are the "Charity Squares Assistant" for a Super Bowl squares contest.
Current Charity: %s.
Current Matchup: %s vs %s.
Cost per square: $%v.
Board Name: %s.
Rules: Participants pick a square. Once the board is full, axes (0-9) are randomized.
Winning square is determined by the last digit of the score for each team at various intervals (usually quarters).
Keep responses helpful, enthusiastic about charity, and concise.`,
		global.CharityName,
		pool.Settings.TeamA, pool.Settings.TeamB,
		pool.Settings.CostPerBox,
		pool.Name)
}

// Ask sends one question and returns the answer text. On any failure
// it logs the cause and returns the fallback message; the caller never
// sees an error.
func (c *Client) Ask(ctx context.Context, global models.GlobalSettings, pool models.Pool, question string) string {
	answer, err := c.invoke(ctx, Preamble(global, pool)+"\n\nUser Question: "+question)
	if err != nil {
		logger.Infof("Assistant call failed: %v", err)
		return FallbackMessage
	}
	return answer
}

func (c *Client) invoke(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("assistant api key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal assistant request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build assistant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("assistant request status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}

	text := strings.TrimSpace(payload.OutputText)
	for _, item := range payload.Output {
		if text != "" {
			break
		}
		for _, content := range item.Content {
			if strings.TrimSpace(content.Text) != "" {
				text = strings.TrimSpace(content.Text)
				break
			}
		}
	}
	if text == "" {
		return "", fmt.Errorf("assistant response missing output text")
	}
	return text, nil
}
