package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage LieBlocker configuration",
	Long: `Manage LieBlocker configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LIEBLOCKER_*)
3. Config file (~/.lieblocker/config.yaml)
4. Defaults`,
}

// fileConfig is the on-disk layout: process config plus user settings
type fileConfig struct {
	model.Config `yaml:",inline"`
	Settings     map[string]any `yaml:"settings"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		cfg, err := loadConfig(v)
		if err != nil {
			return err
		}

		if f := v.ConfigFileUsed(); f != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", f)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n  Current Configuration\n%s\n\n", rule, rule)
		if err := encodeConfig(out, fileConfig{Config: cfg, Settings: effectiveSettings(v)}); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", rule)
		fmt.Fprintln(out, "API keys are read from LIEBLOCKER_API_KEY or OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY.")
		return nil
	},
}

// effectiveSettings lists the user settings with the API key masked
func effectiveSettings(v *viper.Viper) map[string]any {
	out := make(map[string]any)
	for _, k := range []string{
		settings.KeyAIProvider, settings.KeyOpenAIModel, settings.KeyGeminiModel, settings.KeyOpenRouterModel,
		settings.KeyAnalysisDuration, settings.KeyMinConfidenceThreshold, settings.KeySkipLiesEnabled,
	} {
		out[k] = v.Get(settingsPrefix + "." + k)
	}
	if v.GetString(settingsPrefix+"."+settings.KeyAPIKey) != "" {
		out[settings.KeyAPIKey] = "********"
	}
	return out
}

func encodeConfig(w io.Writer, cfg fileConfig) error {
	var node yaml.Node
	if err := node.Encode(cfg); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	humanizeDurations(&node, reflect.ValueOf(cfg.Config))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	return enc.Close()
}

var durationType = reflect.TypeOf(time.Duration(0))

// humanizeDurations rewrites duration fields of v in node from nanoseconds
// to strings like "30s" so the file stays editable.
func humanizeDurations(node *yaml.Node, v reflect.Value) {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		humanizeDurations(node.Content[0], v)
		return
	}
	if node.Kind != yaml.MappingNode || v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		name := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value != name {
				continue
			}
			value := node.Content[j+1]
			if field.Type == durationType {
				value.Tag = "!!str"
				value.Value = time.Duration(v.Field(i).Int()).String()
			} else {
				humanizeDurations(value, v.Field(i))
			}
		}
	}
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.lieblocker/config.yaml with every option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}
		path := filepath.Join(home, configDirName, "config.yaml")
		if err := writeDefaultConfig(path); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", path)
		fmt.Printf("\nTo view the configuration:\n  lieblocker config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n  $EDITOR %s\n\n", path)
		return nil
	},
}

// writeDefaultConfig creates path with the built-in defaults. It refuses to
// overwrite an existing file.
func writeDefaultConfig(path string) (err error) {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'lieblocker config show' to view it, or delete it first to recreate", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	header := `# LieBlocker Configuration File
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (LIEBLOCKER_*, e.g. LIEBLOCKER_REMOTE_DRIVER)
#   3. This config file
#   4. Built-in defaults
#
# API keys are best kept in the environment:
#   export LIEBLOCKER_API_KEY=sk-...

`
	if _, err := io.WriteString(f, header); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	defaults := fileConfig{
		Config: model.DefaultConfig(),
		Settings: map[string]any{
			settings.KeyAIProvider:             string(model.ProviderOpenAI),
			settings.KeyOpenAIModel:            model.DefaultOpenAIModel,
			settings.KeyGeminiModel:            model.DefaultGeminiModel,
			settings.KeyOpenRouterModel:        model.DefaultOpenRouterModel,
			settings.KeyAnalysisDuration:       model.DefaultAnalysisDurationMinutes,
			settings.KeyMinConfidenceThreshold: model.DefaultMinConfidenceThreshold,
			settings.KeySkipLiesEnabled:        false,
		},
	}
	return encodeConfig(f, defaults)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
