package ports

import (
	"context"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type Fetcher interface {
	Download(ctx context.Context, url, localPath string) error
}

type Prober interface {
	Probe(ctx context.Context, path string) (types.MediaInfo, error)
}

// Transcoder runs the external encoder. Calls block until the process exits.
type Transcoder interface {
	Reframe(ctx context.Context, src string, r types.TimeRange, dst string) error
	Thumbnail(ctx context.Context, video string, offsetSec float64, dst string) error
}

type ObjectStore interface {
	Put(ctx context.Context, body []byte, contentType, key string) (string, error)
	Region() string
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL string) (types.Transcript, error)
}

// MomentOracle asks a language model for ranked moments. Output is unvalidated.
type MomentOracle interface {
	Rank(ctx context.Context, tr types.Transcript, targetSec float64, count int) ([]types.RankedMoment, error)
}
