package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sdk-updater/internal/config"
	"sdk-updater/internal/logger"
)

var (
	// debug flag indicates whether debug logging should be enabled.
	debug bool
	// configPath is the optional YAML config; empty means sdk-updater.yaml if present.
	configPath string
	// workdir is the directory relative paths are resolved from.
	workdir string
)

// fsys is the filesystem every command works on.
var fsys afero.Fs = afero.NewOsFs()

// rootCmd runs the update when invoked without a subcommand, so the tool
// keeps working as a single no-argument entry point.
var rootCmd = &cobra.Command{
	Use:   "sdk-updater",
	Short: "Replace the installed EOS SDK with a downloaded archive",
	Long: `Move the EOS SDK download next to this tool and name it EOSUpdate.zip,
then run sdk-updater. Close the editor first so it does not regenerate
.meta files while files are moving.

The current SDK is moved into OldSDKFiles and unused platform files into
UnusedSDKUpdateFiles. Nothing is deleted: review those folders, then remove
them together with the archive and the extracted folder.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE sets up logging and the working directory before any command.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(debug)
		if workdir != "" {
			if err := os.Chdir(workdir); err != nil {
				return fmt.Errorf("cannot use working directory %s: %w", workdir, err)
			}
			logger.Debug("[DEBUG] Working directory set to %s\n", workdir)
		}
		return nil
	},
	RunE: runUpdate,
}

// Execute runs the CLI and exits non-zero when a command stopped on an error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// loggedError wraps an error the command already printed while running.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error { return e.error }

// reportError prints err unless the command has already logged it.
func reportError(err error) {
	var logged loggedError
	if errors.As(err, &logged) {
		return
	}
	logger.Error("[ERROR] %v\n", err)
}

// loadConfig reads --config, or the default config file when it exists.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(fsys, configPath, true)
	}
	return config.LoadConfig(fsys, config.DefaultConfigFile, false)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default "+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVarP(&workdir, "workdir", "C", "", "Run as if started in this directory")
}
