package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	cfgFile      string
	baselinePath string
	storePath    string
	version      string = "dev"
	commit       string = "unknown"
	date         string = "unknown"

	// cfg is loaded before every command runs
	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "promptlib",
	Short: "Manage a layered prompt library",
	Long: `A CLI for a prompt library made of a read-only baseline document and
a personal overlay of custom prompts, overrides, versions and tags.

The baseline (data.yml) is never modified. Every change is written to the
overlay store, and the effective library is the baseline with the overlay
applied on top.

Quick Start:
  promptlib list                      # List prompts grouped by tag
  promptlib show <id>                 # Show the active version of a prompt
  promptlib create --id my-prompt ... # Add a custom prompt
  promptlib export --format yaml      # Export baseline and overlay as one document`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./config.yaml or ~/.promptlib/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baselinePath, "baseline", "", "Path to the baseline document (default: data.yml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the overlay store (default: ~/.promptlib/store.db)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openLibrary opens the store, loads the baseline and reconciles the overlay.
// The returned func closes the store.
func openLibrary(cmd *cobra.Command) (*internal.Library, func(), error) {
	lib, storage, err := loadLibrary(cmd)
	if err != nil {
		return nil, nil, err
	}
	return lib, func() {
		if err := storage.Close(); err != nil {
			internal.LogWarn("Failed to close store: %v", err)
		}
	}, nil
}

func loadLibrary(cmd *cobra.Command) (*internal.Library, *internal.Storage, error) {
	var (
		storage *internal.Storage
		catalog *internal.Catalog
		lib     *internal.Library
	)
	steps := []internal.ProgressStep{
		{
			Message: "Opening store",
			Fn: func() error {
				var err error
				storage, err = internal.OpenStorage(cfg.Store, cfg.OpenRetries)
				return err
			},
		},
		{
			Message: "Loading baseline",
			Fn: func() error {
				var err error
				catalog, err = internal.LoadBaselineFile(cfg.Baseline)
				if err != nil {
					internal.LogWarn("Baseline unusable, continuing with an empty catalog: %v", err)
					catalog = nil
				}
				return nil
			},
		},
		{
			Message: "Reconciling overlay",
			Fn: func() error {
				var err error
				lib, err = internal.NewLibrary(catalog, storage, cfg.LibraryOptions())
				return err
			},
		},
	}

	if err := internal.ShowProgressWithSteps(cmd.Context(), steps); err != nil {
		if storage != nil {
			_ = storage.Close()
		}
		return nil, nil, err
	}
	return lib, storage, nil
}

// backupManager returns the backup manager next to the configured store
func backupManager() *internal.BackupManager {
	return internal.NewBackupManager(internal.DetectPaths(cfg).Backups)
}

// confirm asks a yes/no question on the command's input. Anything but y or
// yes is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readContent returns value, or the contents of file when set ("-" is stdin)
func readContent(cmd *cobra.Command, value, file string) (string, error) {
	if file == "" {
		return value, nil
	}
	if file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}
