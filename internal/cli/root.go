// internal/cli/root.go
package thematic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/logging"
)

// skipLoggingAnnotation marks commands that set up logging themselves.
const skipLoggingAnnotation = "thematic/skip-logging"

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:           "thematic",
	Short:         "Verify LLM-generated qualitative codes against interview transcripts",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(cmd); err != nil {
			return err
		}

		// 2) Materialize the merged configuration (flags > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if err := appconfig.ApplyParameterTemplates(&cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		currentConfig = &cfg

		// 3) Logging; the MCP server keeps stdout for the protocol.
		if cmd.Annotations[skipLoggingAnnotation] == "true" {
			return nil
		}
		return logging.Init(cfg.LogFilePath())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("export", "", "write results to this file (.csv, .json, .jsonl, .yaml, .sqlite)")
	rootCmd.PersistentFlags().Int("timeout", 0, "request timeout in seconds for model calls")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("export", rootCmd.PersistentFlags().Lookup("export"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing default config is fine;
// a missing file the user named explicitly is not.
func ensureConfigLoaded(cmd *cobra.Command) error {
	viper.SetDefault("debug", false)
	viper.SetDefault("match.parallel", false)
	viper.SetDefault("diversity.failFast", false)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// getConfig returns the loaded application configuration.
func getConfig() *appconfig.Config {
	if currentConfig == nil {
		return &appconfig.Config{}
	}
	return currentConfig
}

// DebugEnabled reports the merged debug setting.
func DebugEnabled() bool { return viper.GetBool("debug") }
