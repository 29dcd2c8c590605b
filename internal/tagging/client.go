package tagging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/logging"
)

// DefaultTags is returned when the classifier is disabled or unreachable.
var DefaultTags = []string{"threespeak", "video"}

// Client talks to the zero-shot classification server.
type Client struct {
	cfg    config.Tagger
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a Client from the tagger configuration.
func NewClient(cfg config.Tagger, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logging.WithComponent(logger, "tagging"),
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) { c.http = client }

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Tags classifies the transcript against the configured label set and
// returns the labels above the confidence floor, best first. Any failure
// returns DefaultTags.
func (c *Client) Tags(ctx context.Context, transcript string) []string {
	if !c.cfg.Enabled || strings.TrimSpace(transcript) == "" {
		return DefaultTags
	}
	if c.cfg.SampleChars > 0 && len(transcript) > c.cfg.SampleChars {
		transcript = transcript[:c.cfg.SampleChars]
	}

	tags, err := c.classify(ctx, transcript)
	if err != nil {
		c.logger.Warn("classification failed; using default tags", logging.Error(err))
		return DefaultTags
	}
	if len(tags) == 0 {
		return DefaultTags
	}
	return tags
}

func (c *Client) classify(ctx context.Context, transcript string) ([]string, error) {
	payload, err := json.Marshal(classifyRequest{Text: transcript, Labels: c.cfg.Labels})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(c.cfg.BaseURL, "/")+"/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned %s", resp.Status)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Labels) != len(parsed.Scores) {
		return nil, fmt.Errorf("classifier returned %d labels with %d scores", len(parsed.Labels), len(parsed.Scores))
	}

	var tags []string
	for i, label := range parsed.Labels {
		if parsed.Scores[i] < c.cfg.MinConfidence {
			continue
		}
		tags = append(tags, label)
		if c.cfg.MaxTags > 0 && len(tags) >= c.cfg.MaxTags {
			break
		}
	}
	return tags, nil
}
