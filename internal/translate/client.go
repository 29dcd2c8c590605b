package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/language"
	"subgen/internal/services"
)

// Client talks to the translation server.
type Client struct {
	baseURL   string
	batchSize int
	http      *http.Client
}

// NewClient builds a Client from the translator configuration.
func NewClient(cfg config.Translator) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 32
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		batchSize: batch,
		http:      &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) { c.http = client }

type translateRequest struct {
	Texts  []string `json:"texts"`
	Source string   `json:"source"`
	Target string   `json:"target"`
}

type translateResponse struct {
	Translations []string `json:"translations"`
}

// Translate converts texts from sourceLang to targetLang (ISO 639-1 codes),
// preserving order and length. The server speaks NLLB language tags.
func (c *Client) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	source := language.NLLBCode(sourceLang)
	target := language.NLLBCode(targetLang)

	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		translated, err := c.translateBatch(ctx, texts[start:end], source, target)
		if err != nil {
			return nil, err
		}
		out = append(out, translated...)
	}
	return out, nil
}

func (c *Client) translateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	payload, err := json.Marshal(translateRequest{Texts: texts, Source: source, Target: target})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "translate", "translate", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "translate", "translate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "translate", "translate", "server unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "translate", "translate", fmt.Sprintf("server returned %s", resp.Status), nil)
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "translate", "translate", "decode response", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, services.Wrap(services.ErrTransient, "translate", "translate",
			fmt.Sprintf("server returned %d translations for %d texts", len(parsed.Translations), len(texts)), nil)
	}
	return parsed.Translations, nil
}
