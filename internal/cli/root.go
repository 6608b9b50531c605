package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/settings"
)

const (
	envPrefix      = "LIEBLOCKER"
	configDirName  = ".lieblocker"
	settingsPrefix = "settings"
	version        = "lieblocker v0.1.0"
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "lieblocker",
	Short: "LieBlocker - flag and skip false claims in videos",
	Long: `LieBlocker reads a video's transcript, asks an AI model which statements
are demonstrably false, and skips those segments during playback.

Results are cached locally and, when configured, in a shared database so a
video is only analyzed once.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.lieblocker/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (pretty, json)")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	configureViper(viper.GetViper(), cfgFile)

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func configureViper(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, configDirName))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setConfigDefaults(v, model.DefaultConfig())
	settings.SetDefaults(v, settingsPrefix)
}

// setConfigDefaults registers every key so env overrides reach Unmarshal
func setConfigDefaults(v *viper.Viper, d model.Config) {
	defaults := map[string]any{
		"http.timeout":                    d.HTTP.Timeout,
		"http.user_agent":                 d.HTTP.UserAgent,
		"http.max_body_bytes":             d.HTTP.MaxBodyBytes,
		"http.respect_robots":             d.HTTP.RespectRobots,
		"http.http_proxy":                 d.HTTP.HTTPProxy,
		"http.https_proxy":                d.HTTP.HTTPSProxy,
		"http.no_proxy":                   d.HTTP.NoProxy,
		"cache.enabled":                   d.Cache.Enabled,
		"cache.backend":                   d.Cache.Backend,
		"cache.dir":                       d.Cache.Dir,
		"cache.memory_ttl":                d.Cache.MemoryTTL,
		"remote.driver":                   d.Remote.Driver,
		"remote.dsn":                      d.Remote.DSN,
		"extraction.settle_delay":         d.Extraction.SettleDelay,
		"extraction.strategy_timeout":     d.Extraction.StrategyTimeout,
		"extraction.navigation_debounce":  d.Extraction.NavigationDebounce,
		"playback.poll_interval":          d.Playback.PollInterval,
		"playback.notice_duration":        d.Playback.NoticeDuration,
		"messaging.coordinator_url":       d.Messaging.CoordinatorURL,
		"messaging.timeout":               d.Messaging.Timeout,
		"server.addr":                     d.Server.Addr,
		"log.level":                       d.Log.Level,
		"log.format":                      d.Log.Format,
		"concurrency.workers":             d.Concurrency.Workers,
		"concurrency.requests_per_second": d.Concurrency.RequestsPerSecond,
		"concurrency.burst_size":          d.Concurrency.BurstSize,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig merges defaults, config file, env and flags into a Config
func loadConfig(v *viper.Viper) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg model.LogConfig) *slog.Logger {
	level := logger.ParseLevel(cfg.Level)
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Config{
		Writer: os.Stderr,
		Format: cfg.Format,
		Level:  level,
	})
	slog.SetDefault(log)
	return log
}
