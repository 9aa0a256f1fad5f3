package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/domain/keys"
	"github.com/mardev60/shortZ-tube/internal/ports"
	"github.com/mardev60/shortZ-tube/internal/types"
	"github.com/mardev60/shortZ-tube/internal/workspace"
)

// DefaultClips is how many moments are requested when Deps.Clips is unset.
const DefaultClips = 5

// ErrInvalidRequest marks a job rejected before any work started.
var ErrInvalidRequest = errors.New("invalid request")

// Timeouts bound each blocking stage. Zero disables the bound.
type Timeouts struct {
	Fetch      time.Duration
	Probe      time.Duration
	Transform  time.Duration
	Upload     time.Duration
	Transcribe time.Duration
	Select     time.Duration
}

type Deps struct {
	Fetcher     ports.Fetcher
	Prober      ports.Prober
	Transcoder  ports.Transcoder
	Store       ports.ObjectStore
	Transcriber ports.Transcriber
	Oracle      ports.MomentOracle
	Workspaces  *workspace.Registry

	Log      zerolog.Logger
	Timeouts Timeouts
	Clips    int
	// Now stamps FileMetadata.EncodedAt; nil means time.Now.
	Now func() time.Time
}

func (d Deps) now() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}

type Usecase struct {
	d        Deps
	orch     *Orchestrator
	selector *Selector
}

func New(d Deps) Usecase {
	if d.Clips <= 0 {
		d.Clips = DefaultClips
	}
	return Usecase{
		d:        d,
		orch:     NewOrchestrator(d),
		selector: NewSelector(d.Oracle, d.Log),
	}
}

// GenerateShorts uploads the source video, then runs GenerateFromURL on it.
func (u Usecase) GenerateShorts(ctx context.Context, req types.JobRequest) (types.JobResponse, error) {
	if len(req.VideoBytes) == 0 {
		return types.JobResponse{}, fmt.Errorf("%w: video is empty", ErrInvalidRequest)
	}
	if req.RequestedDurationSeconds <= 0 {
		return types.JobResponse{}, fmt.Errorf("%w: duration must be > 0", ErrInvalidRequest)
	}

	key := keys.Source(req.UserID, extForContentType(req.ContentType))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	uctx, cancel := withTimeout(ctx, u.d.Timeouts.Upload)
	url, err := u.d.Store.Put(uctx, req.VideoBytes, contentType, key)
	cancel()
	if err != nil {
		var se *types.StorageError
		if !errors.As(err, &se) {
			err = &types.StorageError{Key: key, Err: err}
		}
		return types.JobResponse{}, err
	}
	u.d.Log.Info().Str("key", key).Int("bytes", len(req.VideoBytes)).Msg("source uploaded")

	resp, err := u.GenerateFromURL(ctx, url, req.RequestedDurationSeconds, req.UserID)
	if err != nil {
		return types.JobResponse{}, err
	}
	resp.SourceURL = url
	return resp, nil
}

// GenerateFromURL transcribes, selects moments and cuts them from a video
// already reachable at url.
func (u Usecase) GenerateFromURL(ctx context.Context, url string, durationSec float64, userID string) (types.JobResponse, error) {
	if url == "" {
		return types.JobResponse{}, fmt.Errorf("%w: source url is empty", ErrInvalidRequest)
	}
	if durationSec <= 0 {
		return types.JobResponse{}, fmt.Errorf("%w: duration must be > 0", ErrInvalidRequest)
	}

	u.d.Log.Info().Str("url", url).Msg("transcribing")
	tctx, cancel := withTimeout(ctx, u.d.Timeouts.Transcribe)
	tr, err := u.d.Transcriber.Transcribe(tctx, url)
	cancel()
	if err != nil {
		var te *types.TranscriptionError
		if !errors.As(err, &te) {
			err = &types.TranscriptionError{URL: url, Err: err}
		}
		return types.JobResponse{}, err
	}
	u.d.Log.Info().Int("segments", len(tr.Segments)).Msg("transcribed")

	sctx, cancel := withTimeout(ctx, u.d.Timeouts.Select)
	moments, err := u.selector.Select(sctx, tr, durationSec, u.d.Clips)
	cancel()
	if err != nil {
		return types.JobResponse{}, err
	}

	shorts, err := u.orch.Run(ctx, url, moments, userID)
	if err != nil {
		return types.JobResponse{}, err
	}
	return types.JobResponse{Segments: shorts}, nil
}

func extForContentType(ct string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0])) {
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "video/x-matroska":
		return ".mkv"
	case "video/x-msvideo":
		return ".avi"
	default:
		return ".mp4"
	}
}
