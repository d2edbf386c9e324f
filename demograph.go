// Package demograph guesses demographic attributes of named individuals from
// public web data.
//
// The Wikipedia pipeline scores page text with keyword heuristics:
//
//	subject := demograph.Analyze(ctx, "Amber Heard")
//	fmt.Println(subject.Sex, subject.Race)
//
// The batch pipeline annotates profile records through one bulk model call:
//
//	profiles, _ := instagram.ParseExport(data)
//	err := demograph.ClassifyBatch(ctx, profiles, apiKey)
package demograph

import (
	"context"
	"log/slog"

	"github.com/demograph-dev/demograph/pkg/heuristic"
	"github.com/demograph-dev/demograph/pkg/httpcache"
	"github.com/demograph-dev/demograph/pkg/perplexity"
	"github.com/demograph-dev/demograph/pkg/record"
	"github.com/demograph-dev/demograph/pkg/wikipedia"
)

type (
	// Subject re-exports record.Subject for convenience.
	Subject = record.Subject
	// Profile re-exports record.Profile for convenience.
	Profile = record.Profile
)

// ErrNoAPIKey re-exports the missing-credential sentinel.
var ErrNoAPIKey = record.ErrNoAPIKey

// Option configures the pipelines.
type Option func(*config)

type config struct {
	logger           *slog.Logger
	cache            httpcache.Cacher
	rules            []heuristic.Rule
	wikipediaBaseURL string
	perplexityURL    string
	model            string
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithHTTPCache sets the HTTP cache for Wikipedia and Instagram fetches.
func WithHTTPCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithRules substitutes the ethnicity rule list, mainly for tests.
func WithRules(rules []heuristic.Rule) Option {
	return func(c *config) { c.rules = rules }
}

// WithWikipediaBaseURL overrides the MediaWiki endpoint.
func WithWikipediaBaseURL(baseURL string) Option {
	return func(c *config) { c.wikipediaBaseURL = baseURL }
}

// WithPerplexityBaseURL overrides the classifier endpoint.
func WithPerplexityBaseURL(baseURL string) Option {
	return func(c *config) { c.perplexityURL = baseURL }
}

// WithModel selects the classifier model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

func newConfig(opts []Option) *config {
	cfg := &config{logger: slog.Default(), rules: heuristic.DefaultRules()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Analyze runs the Wikipedia pipeline for one subject: fetch page text, then
// score it with the pronoun and ethnicity heuristics. Fetch failures degrade
// to placeholder text that no heuristic matches, so the result is always
// populated and never an error.
func Analyze(ctx context.Context, name string, opts ...Option) record.Subject {
	cfg := newConfig(opts)

	subject := record.Subject{
		Name: name,
		Sex:  heuristic.SexUnknown,
		Race: heuristic.RaceUnavailable,
	}

	var wikiOpts []wikipedia.Option
	wikiOpts = append(wikiOpts, wikipedia.WithLogger(cfg.logger))
	if cfg.cache != nil {
		wikiOpts = append(wikiOpts, wikipedia.WithHTTPCache(cfg.cache))
	}
	if cfg.wikipediaBaseURL != "" {
		wikiOpts = append(wikiOpts, wikipedia.WithBaseURL(cfg.wikipediaBaseURL))
	}

	client, err := wikipedia.New(ctx, wikiOpts...)
	if err != nil {
		cfg.logger.Warn("wikipedia client setup failed", "name", name, "error", err)
		return subject
	}

	content := client.Content(ctx, name)
	subject.Sex = heuristic.Gender(content)
	subject.Race = heuristic.Ethnicity(content, cfg.rules)
	return subject
}

// ClassifyBatch annotates every profile through one bulk model call. With an
// empty API key it returns ErrNoAPIKey and leaves records unannotated; any
// classifier failure still yields a fully annotated batch (unknown/error) and
// a diagnostic error.
func ClassifyBatch(ctx context.Context, profiles []record.Profile, apiKey string, opts ...Option) error {
	if apiKey == "" {
		return record.ErrNoAPIKey
	}

	cfg := newConfig(opts)

	var pplxOpts []perplexity.Option
	pplxOpts = append(pplxOpts, perplexity.WithLogger(cfg.logger))
	if cfg.perplexityURL != "" {
		pplxOpts = append(pplxOpts, perplexity.WithBaseURL(cfg.perplexityURL))
	}
	if cfg.model != "" {
		pplxOpts = append(pplxOpts, perplexity.WithModel(cfg.model))
	}

	return perplexity.New(apiKey, pplxOpts...).Classify(ctx, profiles)
}
