// Package cardgen asks a generative language model for flashcards about a
// person or an event.
package cardgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/logger"
)

// ErrGeneration is returned when no usable cards could be obtained from the
// model.
var ErrGeneration = errors.New("card generation failed")

// Generator turns a prompt into card drafts.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]domain.CardDraft, error)
}

// Config configures a GeminiClient.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// GeminiClient calls the generateContent endpoint with a structured output
// schema.
type GeminiClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient returns a client for cfg. A missing API key is not an
// error here; Generate fails instead.
func NewGeminiClient(log *logger.Logger, cfg Config) *GeminiClient {
	return &GeminiClient{
		log:        log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type cardsPayload struct {
	Cards []domain.CardDraft `json:"cards"`
}

var cardsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"cards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
					"answer":   map[string]any{"type": "string"},
				},
				"required": []string{"question", "answer"},
			},
		},
	},
	"required": []string{"cards"},
}

// Generate sends prompt to the model and decodes the returned cards.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) ([]domain.CardDraft, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrGeneration)
	}
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   cardsSchema,
		},
	}

	var resp generateResponse
	if err := c.do(ctx, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("%w: response without text", ErrGeneration)
	}

	drafts, err := DecodeCards(text.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return drafts, nil
}

// DecodeCards parses the model output. Text around the outermost JSON
// object is tolerated.
func DecodeCards(text string) ([]domain.CardDraft, error) {
	var payload cardsPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return payload.Cards, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON in output: %.200s", text)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	return payload.Cards, nil
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

func (c *GeminiClient) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *GeminiClient) do(ctx context.Context, body any, out any) error {
	backoff := c.backoff

	for attempt := 0; ; attempt++ {
		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w", uErr)
			}
			return nil
		}

		if !retryable(ctx, err) || attempt >= c.maxRetries {
			return err
		}

		sleepFor := retryAfter(resp, backoff, 10*time.Second)
		c.log.Warn("Gemini request retrying",
			"model", c.model,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var he *httpError
	if errors.As(err, &he) {
		return he.retryable()
	}
	// Transport errors, including the client timeout.
	var ue *url.Error
	return errors.As(err, &ue)
}

func retryAfter(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			sleepFor = time.Duration(secs) * time.Second
		}
	}
	return min(sleepFor, max)
}
