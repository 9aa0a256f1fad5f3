package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	PublishResult(ctx context.Context, r Result) error
}

type Generator interface {
	GenerateFromURL(ctx context.Context, url string, durationSec float64, userID string) (types.JobResponse, error)
}

// Worker handles one job at a time until its context is cancelled.
type Worker struct {
	src     Source
	gen     Generator
	log     zerolog.Logger
	poll    time.Duration
	backoff time.Duration
}

func NewWorker(src Source, gen Generator, log zerolog.Logger) *Worker {
	return &Worker{src: src, gen: gen, log: log, poll: 5 * time.Second, backoff: time.Second}
}

func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("worker started")
	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("worker stopped")
			return nil
		}
		job, err := w.src.Dequeue(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Warn().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		res := w.handle(ctx, *job)
		// publish even when ctx is done, so the producer learns the outcome
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := w.src.PublishResult(pctx, res); err != nil {
			w.log.Error().Err(err).Str("job", job.ID).Msg("publish result failed")
		}
		cancel()
	}
}

func (w *Worker) handle(ctx context.Context, job Job) Result {
	log := w.log.With().Str("job", job.ID).Logger()
	log.Info().Str("url", job.VideoURL).Float64("duration", job.DurationSeconds).Msg("job received")

	resp, err := w.gen.GenerateFromURL(ctx, job.VideoURL, job.DurationSeconds, job.UserID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("job cancelled")
		} else {
			log.Error().Err(err).Msg("job failed")
		}
		return Result{JobID: job.ID, Status: StatusFailed, Error: err.Error()}
	}
	log.Info().Int("shorts", len(resp.Segments)).Msg("job done")
	return Result{JobID: job.ID, Status: StatusDone, Shorts: resp.Segments}
}
