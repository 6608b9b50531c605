package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many videos from a file in parallel",
	Long: `Batch reads watch URLs or bare video IDs (one per line, # for comments)
and analyzes them concurrently, pacing requests per host.

Pages are fetched as static HTML; videos whose served page does not carry
the transcript segments fail extraction and are reported as failures.

Example:
  lieblocker batch videos.txt
  lieblocker batch videos.txt --concurrency 2 --output-dir ./lies`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write one JSON file per video into this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n%s\n  LieBlocker Batch\n%s\n\n", rule, rule)
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Rate:         %.2f req/s per host\n", a.cfg.Concurrency.RequestsPerSecond)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintln(os.Stderr)

	limiter := worker.LimiterFromConfig(a.cfg.Concurrency)
	a.fetcher.OnCrawlDelay(limiter.SetCrawlDelay)

	processor := worker.NewBatchProcessor(a.newPipeline(), workers, limiter).
		WithLogger(a.log).
		OnResult(func(r *worker.BatchResult) {
			if r.Error != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, r.Error)
				return
			}
			suffix := ""
			if r.Result.Cached {
				suffix = " (cached)"
			}
			fmt.Fprintf(os.Stderr, "✓ %s: %d lies%s\n", r.Result.VideoID, len(r.Result.Claims), suffix)
		})

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var failures, lies int
	for _, r := range results {
		if r.Error != nil {
			failures++
			continue
		}
		lies += len(r.Result.Claims)
		if outputDir == "" {
			continue
		}
		path := filepath.Join(outputDir, fileSafe(string(r.Result.VideoID))+".json")
		if err := writeJSON(path, r.Result); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n%s\n  Batch Complete\n%s\n\n", rule, rule)
	fmt.Fprintf(os.Stderr, "  Total:     %d videos\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Lies:      %d\n\n", lies)

	if failures == len(results) && failures > 0 {
		return fmt.Errorf("all %d analyses failed", failures)
	}
	return nil
}
