package model

import "time"

// Config is the process configuration for the agent and the CLI
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Remote      RemoteConfig      `yaml:"remote" mapstructure:"remote"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Playback    PlaybackConfig    `yaml:"playback" mapstructure:"playback"`
	Messaging   MessagingConfig   `yaml:"messaging" mapstructure:"messaging"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// HTTPConfig controls watch-page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the local fallback store
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // disk, badger
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
}

// RemoteConfig selects the remote structured store
type RemoteConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // none, postgres, sqlite
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// ExtractionConfig holds the transcript scraping delays
type ExtractionConfig struct {
	SettleDelay        time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	StrategyTimeout    time.Duration `yaml:"strategy_timeout" mapstructure:"strategy_timeout"`
	NavigationDebounce time.Duration `yaml:"navigation_debounce" mapstructure:"navigation_debounce"`
}

// PlaybackConfig holds the skip guard timings
type PlaybackConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	NoticeDuration time.Duration `yaml:"notice_duration" mapstructure:"notice_duration"`
}

// MessagingConfig points at the coordinating process
type MessagingConfig struct {
	CoordinatorURL string        `yaml:"coordinator_url,omitempty" mapstructure:"coordinator_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig is the inbound message server
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects log level and format
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // pretty, json
}

// ConcurrencyConfig tunes batch analysis
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "LieBlocker/0.1 (+https://github.com/ppiankov/lieblocker)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: false,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "disk",
			Dir:       "~/.lieblocker/cache",
			MemoryTTL: time.Hour,
		},
		Remote: RemoteConfig{
			Driver: "none",
		},
		Extraction: ExtractionConfig{
			SettleDelay:        3 * time.Second,
			StrategyTimeout:    15 * time.Second,
			NavigationDebounce: time.Second,
		},
		Playback: PlaybackConfig{
			PollInterval:   500 * time.Millisecond,
			NoticeDuration: 3 * time.Second,
		},
		Messaging: MessagingConfig{
			Timeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7420",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
	}
}
