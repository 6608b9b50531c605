package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/score"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear stored analyses",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <video-id|url>",
	Short: "Show the stored analysis of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, viper.GetViper())
		if err != nil {
			return err
		}
		defer a.Close()

		id := videoIDArg(args[0])
		entry := a.store.CheckCached(ctx, id)
		if entry == nil {
			return fmt.Errorf("no stored analysis for %s", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "  %s\n", entry.VideoData.Title)
		fmt.Fprintf(out, "  %s · %s · analyzed %s\n",
			entry.VideoData.ChannelName, id, time.UnixMilli(entry.Timestamp).Format(time.RFC3339))
		fmt.Fprintln(out, rule)
		printClaims(out, entry.Lies)
		fmt.Fprintln(out)
		printSummary(out, score.Summarize(entry.Lies))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <video-id|url>",
	Short: "Remove the local copy of a video's analysis",
	Long: `Clear deletes the locally cached analysis of a video. Rows in the shared
database are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), viper.GetViper())
		if err != nil {
			return err
		}
		defer a.Close()

		id := videoIDArg(args[0])
		if err := a.store.Clear(id); err != nil {
			return fmt.Errorf("clear %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared local analysis of %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
