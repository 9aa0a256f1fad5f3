package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mardev60/shortZ-tube/internal/config"
	"github.com/mardev60/shortZ-tube/internal/logging"
)

func Main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shortz",
		Short:         "Turn long-form videos into vertical shorts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newServeCmd(), newWorkerCmd(), newEnqueueCmd())
	return root
}

// loadConfig resolves the effective config for cmd and applies the
// flags shared by every subcommand.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if cmd.Flags().Changed("clips") {
		cfg.Clips, _ = cmd.Flags().GetInt("clips")
	}
	if cmd.Flags().Changed("duration") {
		cfg.DurationSeconds, _ = cmd.Flags().GetFloat64("duration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr()), nil
}
