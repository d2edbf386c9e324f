// Package perplexity classifies profile batches by delegating to the
// Perplexity chat-completions API in a single bulk request.
package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/demograph-dev/demograph/pkg/record"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar-pro"

	// maxTokens bounds the model's output. There is no cap on batch size to
	// match it; an oversized batch whose response gets truncated mid-array
	// lands in the generic parse-failure path.
	maxTokens = 4000
)

const systemPrompt = "You are an expert in determining gender and ethnicity from names. " +
	"Respond only with the requested JSON format."

const promptTemplate = `Determine gender and ethnicity for these Instagram profiles. Given the size limit, I'll process all at once.

JSON Profiles:
%s

For EACH profile, determine:
1. Gender (male, female, or unknown)
2. Ethnicity (choose from: east_asian, south_asian, hispanic, black, middle_eastern, white, other, or unknown)

Return a JSON array with results in this exact format, with one object per profile:
[
  {
    "id": 0,
    "gender": "female",
    "ethnicity": "white",
    "confidence": "high"
  },
  ...etc for all profiles
]

Be concise. Format must be parseable JSON without extra text.`

// Client issues bulk classification requests.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger
	model  string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	baseURL string
	model   string
	timeout time.Duration
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithModel selects the model to delegate to.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) { c.timeout = timeout }
}

// New creates a classifier client with bearer-token auth.
func New(apiKey string, opts ...Option) *Client {
	cfg := &config{
		logger:  slog.Default(),
		baseURL: defaultBaseURL,
		model:   defaultModel,
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	rest := resty.New().
		SetBaseURL(cfg.baseURL).
		SetAuthToken(apiKey).
		SetTimeout(cfg.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "demograph/1.0")

	return &Client{rest: rest, logger: cfg.logger, model: cfg.model}
}

// Wire types for the chat-completions exchange.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// batchEntry identifies one profile in the request payload. The id is the
// 0-based input position; the merge relies on it.
type batchEntry struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// batchResult is one element of the model's JSON array answer.
type batchResult struct {
	ID         int    `json:"id"`
	Gender     string `json:"gender"`
	Ethnicity  string `json:"ethnicity"`
	Confidence string `json:"confidence"`
}

// Classify annotates every profile in place through exactly one batched model
// call. No chunking, no retry: on transport failure, non-200 status, or an
// unparseable body every record is marked unknown with an error source, and
// the returned error is diagnostic only. Callers always get a fully annotated
// batch.
func (c *Client) Classify(ctx context.Context, profiles []record.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	prompt, err := buildPrompt(profiles)
	if err != nil {
		markAllErrored(profiles)
		return fmt.Errorf("build prompt: %w", err)
	}

	c.logger.InfoContext(ctx, "classifying profiles in a single call", "count", len(profiles), "model", c.model)

	var out chatResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.0,
			MaxTokens:   maxTokens,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		markAllErrored(profiles)
		return fmt.Errorf("perplexity request: %w", err)
	}

	if resp.StatusCode() != 200 {
		markAllErrored(profiles)
		return fmt.Errorf("perplexity API returned %d: %s", resp.StatusCode(), resp.String())
	}

	if len(out.Choices) == 0 {
		markAllErrored(profiles)
		return errors.New("perplexity response carried no choices")
	}

	results, err := parseResults(out.Choices[0].Message.Content)
	if err != nil {
		markAllErrored(profiles)
		return fmt.Errorf("parse model response: %w", err)
	}

	merge(profiles, results)
	c.logger.Debug("classification merged", "covered", len(results), "total", len(profiles))
	return nil
}

func buildPrompt(profiles []record.Profile) (string, error) {
	entries := make([]batchEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, batchEntry{ID: i, Username: p.Username, FullName: p.FullName})
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(promptTemplate, encoded), nil
}

// parseResults decodes the model's answer, tolerating a fenced code block
// around the JSON array.
func parseResults(content string) ([]batchResult, error) {
	content = stripFences(content)

	var results []batchResult
	if err := json.Unmarshal([]byte(content), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// stripFences removes a wrapping markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// merge applies results back to the batch by positional id. Records the model
// skipped are annotated as errors rather than dropped; every input record ends
// up with exactly one classification.
func merge(profiles []record.Profile, results []batchResult) {
	byID := make(map[int]batchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	for i := range profiles {
		r, ok := byID[i]
		if !ok {
			markErrored(&profiles[i])
			continue
		}
		profiles[i].PredictedGender = genderOrUnknown(r.Gender)
		profiles[i].PredictedRace = ethnicityOrUnknown(r.Ethnicity)
		profiles[i].Confidence = confidenceOrLow(r.Confidence)
		profiles[i].AnalysisSource = record.SourceModel
	}
}

func markAllErrored(profiles []record.Profile) {
	for i := range profiles {
		markErrored(&profiles[i])
	}
}

func markErrored(p *record.Profile) {
	p.PredictedGender = record.GenderUnknown
	p.PredictedRace = record.EthnicityUnknown
	p.Confidence = record.ConfidenceNone
	p.AnalysisSource = record.SourceError
}

func genderOrUnknown(s string) record.Gender {
	if s == "" {
		return record.GenderUnknown
	}
	return record.Gender(s)
}

func ethnicityOrUnknown(s string) record.Ethnicity {
	if s == "" {
		return record.EthnicityUnknown
	}
	return record.Ethnicity(s)
}

func confidenceOrLow(s string) record.Confidence {
	if s == "" {
		return record.ConfidenceLow
	}
	return record.Confidence(s)
}
