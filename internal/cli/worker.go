package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mardev60/shortZ-tube/internal/config"
	"github.com/mardev60/shortZ-tube/internal/pipeline"
	"github.com/mardev60/shortZ-tube/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process jobs from the Redis queue",
		Args:  cobra.NoArgs,
		RunE:  runWorker,
	}
}

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <video-url>",
		Short: "Push a job onto the Redis queue",
		Args:  cobra.ExactArgs(1),
		RunE:  enqueue,
	}
	cmd.Flags().Float64("duration", 30, "Target short duration in seconds")
	cmd.Flags().String("user", "", "User id the shorts belong to")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	client, err := newRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	q := queue.NewRedisQueue(client, cfg.Redis.Queue, cfg.Redis.ResultChannel)
	w := queue.NewWorker(q, svc.Generator, log.With().Str("queue", cfg.Redis.Queue).Logger())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return svc.Workspaces.PurgeAll()
	})
	return g.Wait()
}

func enqueue(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetFloat64("duration")
	userID, _ := cmd.Flags().GetString("user")

	ctx := cmd.Context()
	client, err := newRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	job, err := queue.NewRedisQueue(client, cfg.Redis.Queue, cfg.Redis.ResultChannel).Enqueue(ctx, queue.Job{
		VideoURL:        args[0],
		DurationSeconds: duration,
		UserID:          userID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), job.ID)
	return nil
}
