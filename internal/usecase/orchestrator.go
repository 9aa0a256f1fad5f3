package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/domain/keys"
	"github.com/mardev60/shortZ-tube/internal/domain/segments"
	"github.com/mardev60/shortZ-tube/internal/ports"
	"github.com/mardev60/shortZ-tube/internal/types"
	"github.com/mardev60/shortZ-tube/internal/workspace"
)

// Orchestrator runs one job: fetch, probe, then transform and upload every
// moment, one at a time.
type Orchestrator struct {
	fetcher     ports.Fetcher
	prober      ports.Prober
	transformer *Transformer
	store       ports.ObjectStore
	workspaces  *workspace.Registry
	log         zerolog.Logger
	timeouts    Timeouts
	now         func() time.Time
}

func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		fetcher:     d.Fetcher,
		prober:      d.Prober,
		transformer: NewTransformer(d.Transcoder),
		store:       d.Store,
		workspaces:  d.Workspaces,
		log:         d.Log,
		timeouts:    d.Timeouts,
		now:         d.now(),
	}
}

// segmentFailure records a skipped moment.
type segmentFailure struct {
	Attempt int
	Range   types.TimeRange
	Err     error
}

// Run processes candidates against the video at sourceURL. A job-level
// failure (workspace, fetch, source probe) is returned; a failing moment is
// logged and skipped. Zero results is not an error. The workspace is
// removed on every path.
func (o *Orchestrator) Run(ctx context.Context, sourceURL string, candidates []types.CandidateMoment, userID string) ([]types.ProcessedSegment, error) {
	ws, err := o.workspaces.Create()
	if err != nil {
		return nil, err
	}
	log := o.log.With().Str("workspace", ws.Dir()).Logger()
	defer func() {
		if err := ws.Remove(); err != nil {
			log.Warn().Err(err).Msg("workspace cleanup failed")
		}
	}()
	log.Info().Str("state", string(types.StateCreated)).Int("moments", len(candidates)).Msg("job started")

	src := ws.Path("source-" + uuid.NewString() + ".mp4")
	log.Info().Str("state", string(types.StateFetching)).Str("url", sourceURL).Msg("downloading source")
	if err := o.fetch(ctx, sourceURL, src); err != nil {
		log.Error().Str("state", string(types.StateFailed)).Err(err).Msg("fetch failed")
		return nil, err
	}

	log.Info().Str("state", string(types.StateProbing)).Msg("probing source")
	info, err := o.probe(ctx, src)
	if err != nil {
		log.Error().Str("state", string(types.StateFailed)).Err(err).Msg("probe failed")
		return nil, err
	}
	log.Info().
		Str("format", info.ContainerFormat).
		Float64("duration", info.DurationSeconds).
		Int64("size", info.SizeBytes).
		Msg("source probed")

	moments := segments.SortByScore(segments.EnsureMinDuration(candidates))

	results := make([]types.ProcessedSegment, 0, len(moments))
	var failures []segmentFailure
	for i, m := range moments {
		attempt := i + 1
		seg, err := o.processOne(ctx, log, ws, src, attempt, len(results)+1, m, userID)
		if err != nil {
			failures = append(failures, segmentFailure{Attempt: attempt, Range: m.TimeRange, Err: err})
			log.Warn().
				Int("segment", attempt).
				Float64("start", m.Start).
				Float64("end", m.End).
				Err(err).
				Msg("segment skipped")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		results = append(results, seg)
	}

	log.Info().
		Str("state", string(types.StateDone)).
		Int("produced", len(results)).
		Int("skipped", len(failures)).
		Msg("job finished")
	return results, nil
}

func (o *Orchestrator) processOne(
	ctx context.Context,
	log zerolog.Logger,
	ws *workspace.Workspace,
	src string,
	attempt, ordinal int,
	m types.CandidateMoment,
	userID string,
) (types.ProcessedSegment, error) {
	shortID := fmt.Sprintf("short-%d-%s", attempt, uuid.NewString())
	videoPath := ws.Path(shortID + ".mp4")
	thumbPath := ws.Path(shortID + ".jpg")

	log.Info().
		Str("state", string(types.StateTransforming)).
		Int("segment", attempt).
		Float64("start", m.Start).
		Float64("end", m.End).
		Msg("transforming segment")
	tctx, cancel := withTimeout(ctx, o.timeouts.Transform)
	res, err := o.transformer.Transform(tctx, src, m.TimeRange, videoPath, thumbPath)
	cancel()
	if err != nil {
		return types.ProcessedSegment{}, err
	}

	out, err := o.probe(ctx, res.VideoPath)
	if err != nil {
		return types.ProcessedSegment{}, err
	}
	codec := types.DefaultCodecName
	if out.VideoStream != nil && out.VideoStream.Codec != "" {
		codec = out.VideoStream.Codec
	}

	log.Info().Str("state", string(types.StateUploading)).Int("segment", attempt).Msg("uploading segment")
	videoKey, thumbKey := keys.Short(userID, attempt)
	videoURL, err := o.upload(ctx, res.VideoPath, "video/mp4", videoKey)
	if err != nil {
		return types.ProcessedSegment{}, err
	}
	thumbURL, err := o.upload(ctx, res.ThumbnailPath, "image/jpeg", thumbKey)
	if err != nil {
		return types.ProcessedSegment{}, err
	}

	return types.ProcessedSegment{
		Ordinal:       ordinal,
		DurationLabel: durationLabel(m.Duration()),
		Score:         m.Score,
		ThumbnailURL:  thumbURL,
		VideoURL:      videoURL,
		TimeRange:     m.TimeRange,
		Justification: m.Justification,
		FileMetadata: types.FileMetadata{
			EncodedAt:  o.now().UTC(),
			Region:     o.store.Region(),
			Format:     types.FormatVertical,
			Resolution: types.ResolutionShort,
			ByteSize:   res.VideoSize,
			Codec:      codec,
		},
	}, nil
}

func (o *Orchestrator) fetch(ctx context.Context, url, dst string) error {
	fctx, cancel := withTimeout(ctx, o.timeouts.Fetch)
	defer cancel()
	if err := o.fetcher.Download(fctx, url, dst); err != nil {
		var fe *types.FetchError
		if errors.As(err, &fe) {
			return err
		}
		return &types.FetchError{URL: url, Err: err}
	}
	st, err := os.Stat(dst)
	if err != nil {
		return &types.FetchError{URL: url, Err: fmt.Errorf("downloaded file missing: %w", err)}
	}
	if st.Size() == 0 {
		return &types.FetchError{URL: url, Err: errors.New("downloaded file is empty")}
	}
	return nil
}

func (o *Orchestrator) probe(ctx context.Context, path string) (types.MediaInfo, error) {
	pctx, cancel := withTimeout(ctx, o.timeouts.Probe)
	defer cancel()
	info, err := o.prober.Probe(pctx, path)
	if err != nil {
		var pe *types.ProbeError
		if errors.As(err, &pe) {
			return types.MediaInfo{}, err
		}
		return types.MediaInfo{}, &types.ProbeError{Path: path, Err: err}
	}
	return info, nil
}

func (o *Orchestrator) upload(ctx context.Context, path, contentType, key string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", &types.StorageError{Key: key, Err: err}
	}
	uctx, cancel := withTimeout(ctx, o.timeouts.Upload)
	defer cancel()
	url, err := o.store.Put(uctx, body, contentType, key)
	if err != nil {
		var se *types.StorageError
		if errors.As(err, &se) {
			return "", err
		}
		return "", &types.StorageError{Key: key, Err: err}
	}
	return url, nil
}

func durationLabel(sec float64) string {
	return fmt.Sprintf("%ds", int(math.Round(sec)))
}

// withTimeout leaves ctx alone when d is not positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
