// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/config"
)

var (
	// Global flags
	configPath string
	repoFlag   string
	schemaFlag string
	indexFlag  string

	// Resolved values
	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cmisq",
	Short: "cmisq - query a content repository with CMIS-SQL",
	Long: `cmisq keeps a repository of typed folders and documents in a YAML file
and answers CMIS-SQL queries over it, including folder predicates
(IN_FOLDER, IN_TREE) and full-text search (CONTAINS, SCORE()).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config resolution for commands that don't need it
		switch cmd.Name() {
		case "init", "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		loaded, err := loadGlobalConfig()
		if err != nil {
			// Returned even in JSON mode: the command must not run.
			err = fmt.Errorf("failed to load config: %w", err)
			if isJSONOutput() {
				outputError(ErrConfigInvalid, err.Error(), nil, "Run 'cmisq init' to create a config")
			}
			return err
		}
		applyFlagOverrides(loaded)
		cfg = loaded
		logger = newLogger(cfg.Log, os.Stderr)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schema", "", "Schema file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&indexFlag, "index", "", "Full-text index file, or :memory: (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

func loadGlobalConfig() (*config.Config, error) {
	if strings.TrimSpace(configPath) != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func applyFlagOverrides(c *config.Config) {
	if repoFlag != "" {
		c.Repository = repoFlag
	}
	if schemaFlag != "" {
		c.Schema = schemaFlag
	}
	if indexFlag != "" {
		c.Index = indexFlag
	}
}

// newLogger builds the process logger. Logs go to w so they never mix with
// command output.
func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
