// Command igscan classifies Instagram related-profile records by gender and
// ethnicity through one bulk Perplexity call.
//
// Usage:
//
//	igscan -i related_profiles.json --human-only -o results.json
//	igscan -i https://instagram.com/someuser -o results.json
//
// The API key is resolved from --api-key, then PERPLEXITY_API_KEY, then the
// demograph config file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/demograph-dev/demograph"
	"github.com/demograph-dev/demograph/pkg/auth"
	"github.com/demograph-dev/demograph/pkg/config"
	"github.com/demograph-dev/demograph/pkg/httpcache"
	"github.com/demograph-dev/demograph/pkg/instagram"
	"github.com/demograph-dev/demograph/pkg/namefilter"
	"github.com/demograph-dev/demograph/pkg/record"
)

var (
	flagInput     string
	flagOutput    string
	flagHumanOnly bool
	flagAPIKey    string
	flagDebug     bool
	flagNoCache   bool
	flagCacheTTL  time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "igscan",
	Short:        "Classify Instagram related profiles by gender and ethnicity",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagInput, "input", "i", "", "path to JSON export file, or an Instagram profile URL")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file path (optional)")
	rootCmd.Flags().BoolVar(&flagHumanOnly, "human-only", false, "filter out non-human accounts")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Perplexity API key")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable HTTP caching")
	rootCmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", 7*24*time.Hour, "cache time-to-live")
	_ = rootCmd.MarkFlagRequired("input") //nolint:errcheck // flag is registered above
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	logLevel := slog.LevelWarn
	if flagDebug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	apiKey := config.ResolveAPIKey(flagAPIKey, "", logger)
	if apiKey == "" {
		fmt.Println("Warning: No Perplexity API key found. Provide one via --api-key, " +
			"the PERPLEXITY_API_KEY environment variable, or the demograph config file.")
	}

	var cache httpcache.Cacher
	if !flagNoCache {
		c, err := httpcache.New(flagCacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := c.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			cache = c
		}
	}

	fmt.Printf("Loading data from %s...\n", flagInput)
	profiles, err := loadProfiles(ctx, cache, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d follower profiles\n", len(profiles))

	if flagHumanOnly {
		fmt.Println("Filtering for human accounts...")
		blocklist := namefilter.DefaultBlocklist()
		humans := make([]record.Profile, 0, len(profiles))
		for _, p := range profiles {
			if namefilter.IsHuman(p.FullName, blocklist) {
				humans = append(humans, p)
			}
		}
		fmt.Printf("Filtered to %d human accounts (removed %d non-human accounts)\n",
			len(humans), len(profiles)-len(humans))
		profiles = humans
	}

	if apiKey != "" {
		fmt.Println("Analyzing profiles with Perplexity API...")
		fmt.Printf("Analyzing %d profiles in a single API call...\n", len(profiles))
		if err := demograph.ClassifyBatch(ctx, profiles, apiKey, demograph.WithLogger(logger)); err != nil {
			fmt.Printf("Error analyzing profiles: %v\n", err)
		}
	} else {
		fmt.Println("No Perplexity API key provided. Unable to analyze profiles.")
	}

	fmt.Println("\nResults:")
	for _, p := range profiles {
		fmt.Printf("%s (%s) - Gender: %s, Ethnicity: %s (Confidence: %s)\n",
			p.Username, p.FullName,
			orUnknown(string(p.PredictedGender)),
			orUnknown(string(p.PredictedRace)),
			orUnknown(string(p.Confidence)))
	}

	if flagOutput != "" {
		if err := writeResults(flagOutput, profiles); err != nil {
			return err
		}
		fmt.Printf("\nResults saved to %s\n", flagOutput)
	}

	return nil
}

// loadProfiles reads records from the export file, or fetches them live when
// the input looks like an Instagram profile URL.
func loadProfiles(ctx context.Context, cache httpcache.Cacher, logger *slog.Logger) ([]record.Profile, error) {
	if instagram.Match(flagInput) {
		cookies, err := auth.ChainSources(ctx, auth.EnvSource{}, auth.NewBrowserSource(logger))
		if err != nil {
			logger.Warn("cookie resolution failed, fetching anonymously", "error", err)
		}
		if len(cookies) == 0 {
			logger.Info("no session cookies found, fetching anonymously", "env_vars", auth.EnvVars())
		}

		opts := []instagram.Option{instagram.WithLogger(logger)}
		if cache != nil {
			opts = append(opts, instagram.WithHTTPCache(cache))
		}
		if len(cookies) > 0 {
			opts = append(opts, instagram.WithCookies(cookies))
		}

		client, err := instagram.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return client.FetchRelated(ctx, flagInput)
	}

	data, err := os.ReadFile(flagInput)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	fmt.Println("Extracting follower names...")
	return instagram.ParseExport(data)
}

// writeResults serializes the annotated batch as indented JSON with HTML
// escaping off, keeping non-ASCII names and picture URLs readable.
func writeResults(path string, profiles []record.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close() //nolint:errcheck // second close after explicit Close below

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(profiles); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
