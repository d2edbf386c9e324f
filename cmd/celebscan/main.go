// Command celebscan guesses sex and race/ethnicity for up to 3 named people
// from their Wikipedia pages.
//
// Usage:
//
//	celebscan
//	Enter 3 celebrities that you think are bad (separated by commas): ...
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/demograph-dev/demograph"
	"github.com/demograph-dev/demograph/pkg/httpcache"
)

const maxSubjects = 3

// defaultSubjects is used when the prompt comes back empty.
var defaultSubjects = []string{"Harvey Weinstein", "Amber Heard", "Kanye West"}

var (
	flagDebug    bool
	flagNoCache  bool
	flagCacheTTL time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "celebscan",
	Short:        "Guess demographic attributes of celebrities from Wikipedia",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable HTTP caching")
	rootCmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", 7*24*time.Hour, "cache time-to-live")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logLevel := slog.LevelWarn
	if flagDebug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	opts := []demograph.Option{demograph.WithLogger(logger)}
	if !flagNoCache {
		cache, err := httpcache.New(flagCacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			opts = append(opts, demograph.WithHTTPCache(cache))
		}
	}

	subjects := readSubjects(cmd.InOrStdin())

	ctx := context.Background()
	fmt.Println("Analyzing celebrities...")
	fmt.Println()

	for _, name := range subjects {
		fmt.Printf("Getting information about %s...\n", name)
		subject := demograph.Analyze(ctx, name, opts...)

		fmt.Printf("\n%s\n\n", strings.Repeat("=", 50))
		fmt.Printf("CELEBRITY: %s\n", subject.Name)
		fmt.Println(strings.Repeat("=", 50))
		fmt.Printf("Sex: %s\n", subject.Sex)
		fmt.Printf("Race: %s\n", subject.Race)
		fmt.Printf("\n%s\n\n", strings.Repeat("-", 50))
	}

	return nil
}

// readSubjects prompts for a comma-separated list of names. Empty input falls
// back to the default list; more than 3 entries are truncated with a warning.
func readSubjects(in io.Reader) []string {
	fmt.Print("Enter 3 celebrities that you think are bad (separated by commas): ")

	line, _ := bufio.NewReader(in).ReadString('\n') //nolint:errcheck // EOF leaves a usable partial line
	line = strings.TrimRight(line, "\r\n")

	var names []string
	for _, name := range strings.Split(line, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		fmt.Println("No valid celebrities entered. Using default examples.")
		return defaultSubjects
	}

	if len(names) > maxSubjects {
		fmt.Printf("More than 3 celebrities entered. Using only the first 3: %s\n",
			strings.Join(names[:maxSubjects], ", "))
		names = names[:maxSubjects]
	}

	return names
}
