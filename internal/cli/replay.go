package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/analyze"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/playback"
	"github.com/ppiankov/lieblocker/internal/video"
)

var (
	replayRate  float64
	replayFrom  float64
	replayUntil float64
)

var replayCmd = &cobra.Command{
	Use:   "replay <video-id|url>",
	Short: "Simulate playback of an analyzed video with lie skipping on",
	Long: `Replay plays a simulated clock over a cached analysis and shows each
jump the skip guard makes.

Example:
  lieblocker replay dQw4w9WgXcQ --rate 20`,
	Args: cobra.ExactArgs(1),
	RunE: runReplayCmd,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Float64Var(&replayRate, "rate", 10, "media seconds per wall-clock second")
	replayCmd.Flags().Float64Var(&replayFrom, "from", 0, "start position in seconds")
	replayCmd.Flags().Float64Var(&replayUntil, "until", 0, "stop position in seconds (default: just after the last lie)")
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	id := videoIDArg(args[0])
	entry := a.store.CheckCached(ctx, id)
	if entry == nil {
		return fmt.Errorf("no cached analysis for %s, run analyze first", id)
	}

	skips := replay(ctx, cmd.OutOrStdout(), id, entry.Lies, replayOptions{
		Rate:           replayRate,
		From:           replayFrom,
		Until:          replayUntil,
		PollInterval:   a.cfg.Playback.PollInterval,
		NoticeDuration: a.cfg.Playback.NoticeDuration,
		Logger:         a.log,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "\n  %d of %d lies skipped\n", len(skips), len(entry.Lies))
	return nil
}

// videoIDArg accepts a watch URL or a bare video ID
func videoIDArg(arg string) model.VideoID {
	if id, ok := video.ExtractVideoID(arg); ok {
		return id
	}
	return model.VideoID(arg)
}

type replayOptions struct {
	Rate           float64
	From           float64
	Until          float64
	PollInterval   time.Duration
	NoticeDuration time.Duration
	Logger         *slog.Logger
}

// replay plays claims on a simulated clock until opts.Until and returns the
// skips the guard made.
func replay(ctx context.Context, w io.Writer, id model.VideoID, claims []model.Claim, opts replayOptions) []playback.Skip {
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.Until <= 0 {
		for _, c := range claims {
			if end := c.End() + 5; end > opts.Until {
				opts.Until = end
			}
		}
	}

	// The poll interval is in media time; scale it to the sped-up clock.
	interval := time.Duration(float64(opts.PollInterval) / opts.Rate)
	if interval < 5*time.Millisecond {
		interval = 5 * time.Millisecond
	}

	rec := &skipLog{w: w}

	player := playback.NewClockPlayer(opts.From, opts.Rate)
	guard := playback.NewGuard(player, playback.GuardOptions{
		Interval: interval,
		Notices:  playback.NewNoticeBoard(playback.NewLogNotifier(opts.Logger), opts.NoticeDuration),
		Reporter: rec.add,
		Logger:   opts.Logger,
	})

	rec.printf("  ▶  %s at %.0fx, %d lies flagged\n", id, opts.Rate, len(claims))
	guard.Update(id, true, claims)
	player.Play()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for player.CurrentTime() < opts.Until {
		select {
		case <-ctx.Done():
			guard.Disarm()
			return rec.all()
		case <-ticker.C:
		}
	}
	guard.Disarm()
	player.Pause()
	rec.printf("  ■  stopped at %s\n", analyze.FormatTimestamp(player.CurrentTime()))
	return rec.all()
}

// skipLog serializes output from the guard's report goroutines
type skipLog struct {
	mu    sync.Mutex
	w     io.Writer
	skips []playback.Skip
}

func (l *skipLog) add(s playback.Skip) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.skips = append(l.skips, s)
	fmt.Fprintf(l.w, "  ⏭  %s → %s  %s\n",
		analyze.FormatTimestamp(s.From), analyze.FormatTimestamp(s.Claim.End()), playback.Excerpt(s.Claim.ClaimText))
}

func (l *skipLog) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

func (l *skipLog) all() []playback.Skip {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]playback.Skip(nil), l.skips...)
}
