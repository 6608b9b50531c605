package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/extract"
	"github.com/ppiankov/lieblocker/internal/messaging"
	"github.com/ppiankov/lieblocker/internal/playback"
	"github.com/ppiankov/lieblocker/internal/session"
	"github.com/ppiankov/lieblocker/internal/util"
)

const maxServeConnections = 64

var (
	serveAddr       string
	coordinatorURL  string
	initialWatchURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the page agent and accept messages over HTTP",
	Long: `Serve runs the per-tab agent: it accepts messages on POST /messages
(ping, analyzeVideo, skipLiesToggle, jumpToTimestamp, pageUpdate,
playbackState, liesUpdate) and reports progress, results and skips to the
coordinator.

Without a coordinator URL outbound messages are logged.

Example:
  lieblocker serve --addr 127.0.0.1:7420
  lieblocker serve --coordinator http://127.0.0.1:7421`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().StringVar(&coordinatorURL, "coordinator", "", "coordinator base URL (default: messaging.coordinator_url)")
	serveCmd.Flags().StringVar(&initialWatchURL, "url", "", "watch URL to load on start")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := firstNonEmpty(serveAddr, a.cfg.Server.Addr)
	coordinator := newCoordinator(a, firstNonEmpty(coordinatorURL, a.cfg.Messaging.CoordinatorURL))

	player := playback.NewRemotePlayer(func(position float64) {
		sendCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Messaging.Timeout)
		defer cancel()
		_, err := coordinator.Send(sendCtx, messaging.SeekTo{Time: position})
		if err != nil && !errors.Is(err, errors.ErrContextInvalidated) {
			a.log.Warn("seek not delivered", "position", position, "error", err)
		}
	})

	ctrl := session.New(session.Options{
		Settings:           a.settings,
		Extractor:          a.extractor,
		Analyzer:           a.analyzer,
		Store:              a.store,
		Coordinator:        coordinator,
		Player:             player,
		Notifier:           playback.NewLogNotifier(a.log),
		NavigationDebounce: a.cfg.Extraction.NavigationDebounce,
		PollInterval:       a.cfg.Playback.PollInterval,
		NoticeDuration:     a.cfg.Playback.NoticeDuration,
		Logger:             a.log,
	})
	defer ctrl.Close()

	if initialWatchURL != "" {
		page, err := a.fetcher.FetchWithRetry(ctx, initialWatchURL)
		if err != nil {
			return fmt.Errorf("load %s: %w", initialWatchURL, err)
		}
		static, err := extract.NewStaticPage(page.HTML)
		if err != nil {
			return fmt.Errorf("parse %s: %w", initialWatchURL, err)
		}
		a.log.Info("loaded watch page", "video_id", ctrl.Load(ctx, initialWatchURL, static))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           messaging.NewServer(ctrl, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(netutil.LimitListener(ln, maxServeConnections))
	}()
	a.log.Info("agent listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCoordinator(a *app, baseURL string) messaging.Coordinator {
	if baseURL == "" {
		return messaging.NewLogCoordinator(a.log)
	}
	client := util.NewHTTPClient(a.cfg.Messaging.Timeout, util.ProxyConfig{})
	return messaging.NewHTTPCoordinator(baseURL, client, a.cfg.Messaging.Timeout, a.log)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
