// Package cli implements the zmirror command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zmirror/zmirror/internal/config"
	"github.com/zmirror/zmirror/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zmirror",
		Short:         "Inspect and maintain the zmirror client state",
		Long:          "zmirror manages the locally mirrored chat state: the persisted snapshot and the action journal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/zmirror/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "override logging format (json, console)")

	cmd.AddCommand(
		newSnapshotCmd(),
		newUnreadCmd(),
		newReplayCmd(),
		newJournalCmd(),
	)

	return cmd
}

// loadConfig loads configuration honoring the persistent flags and
// initializes logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return cfg, nil
}
