package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/cmisq/internal/config"
	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/schema"
	"github.com/aidanlsb/cmisq/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a config, schema and empty repository",
	Long: `Creates the files cmisq works on. Existing files are left alone.

Creates (in dir, or next to --config, or in the default config directory):
  - config.toml      (settings)
  - schema.yaml      (type definitions)
  - repository.yaml  (a repository holding only the root folder)

Examples:
  cmisq init
  cmisq init ./demo
  cmisq --config ./demo/config.toml init`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initConfigPath(args)

		c, created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		applyFlagOverrides(c)

		if err := schema.CreateDefault(c.Schema); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		reg, err := schema.Load(c.Schema)
		if err != nil {
			return handleError(ErrSchemaInvalid, err, "")
		}

		repoCreated := false
		if _, err := os.Stat(c.Repository); os.IsNotExist(err) {
			store, err := repository.New(reg, repository.WithUser(c.User))
			if err != nil {
				return fail(err)
			}
			if err := os.MkdirAll(filepath.Dir(c.Repository), 0755); err != nil {
				return handleError(ErrFileWriteError, err, "")
			}
			if err := store.Save(c.Repository); err != nil {
				return handleError(ErrFileWriteError, err, "")
			}
			repoCreated = true
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config":             path,
				"config_created":     created,
				"schema":             c.Schema,
				"repository":         c.Repository,
				"repository_created": repoCreated,
				"index":              c.Index,
			}, nil)
			return nil
		}

		if created {
			printLine(ui.Successf("Created config %s", path))
		} else {
			printLine(ui.Hint("Config already exists: " + path))
		}
		printLine(ui.Successf("Schema %s", c.Schema))
		if repoCreated {
			printLine(ui.Successf("Created repository %s", c.Repository))
		} else {
			printLine(ui.Hint("Repository already exists: " + c.Repository))
		}
		return nil
	},
}

func initConfigPath(args []string) string {
	if len(args) == 1 {
		return filepath.Join(args[0], "config.toml")
	}
	if strings.TrimSpace(configPath) != "" {
		return configPath
	}
	return config.DefaultPath()
}

func init() {
	rootCmd.AddCommand(initCmd)
}
