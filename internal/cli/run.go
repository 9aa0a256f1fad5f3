package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mardev60/shortZ-tube/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Generate shorts from a local video and write a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Int("clips", 5, "Number of shorts")
	cmd.Flags().Float64("duration", 30, "Target short duration in seconds")
	cmd.Flags().String("user", "local", "User id used in storage keys")
	return cmd
}

func run(cmd *cobra.Command, input string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	userID, _ := cmd.Flags().GetString("user")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absIn); err != nil {
		return fmt.Errorf("config: stat input: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	svc, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Workspaces.PurgeAll(); err != nil {
			log.Warn().Err(err).Msg("purge workspaces")
		}
	}()

	manifest, err := pipeline.RunLocal(ctx, svc.Generator, pipeline.LocalInput{
		InputPath:       absIn,
		OutDir:          outDir,
		DurationSeconds: cfg.DurationSeconds,
		UserID:          userID,
	}, log)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), manifest)
	return nil
}
