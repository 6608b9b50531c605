package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/pipeline"
)

var (
	outJSON        string
	savedPage      string
	analyzeTimeout time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze one video and list the lies found",
	Long: `Analyze fetches a watch page, extracts its transcript, asks the configured
AI provider for demonstrably false claims and stores the result.

A video analyzed before is answered from the cache.

A fetched page cannot open the transcript panel, so live YouTube pages
usually fail extraction. Save the page from a browser with the transcript
open and pass it with --html instead.

Example:
  lieblocker analyze "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
  lieblocker analyze "https://www.youtube.com/watch?v=dQw4w9WgXcQ" --html watch.html
  lieblocker analyze "https://www.youtube.com/watch?v=dQw4w9WgXcQ" --json lies.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path")
	analyzeCmd.Flags().StringVar(&savedPage, "html", "", "analyze a saved watch page instead of fetching the URL")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 3*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", analyzeTimeout)
	}

	p := a.newPipeline()
	var result *pipeline.Result
	if savedPage != "" {
		result, err = p.AnalyzeFile(ctx, args[0], savedPage)
	} else {
		result, err = p.AnalyzeURL(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "  %s\n", result.Metadata.Title)
	fmt.Fprintf(out, "  %s · %s", result.Metadata.ChannelName, result.VideoID)
	if result.Cached {
		fmt.Fprint(out, " · cached")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	printClaims(out, result.Claims)
	fmt.Fprintln(out)
	printSummary(out, result.Summary)

	if outJSON != "" {
		if err := writeJSON(outJSON, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	return nil
}
