package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mardev60/shortZ-tube/internal/ports"
	"github.com/mardev60/shortZ-tube/internal/types"
)

// ThumbnailOffset is where, in seconds into the short, the thumbnail frame is taken.
const ThumbnailOffset = 1.0

type TransformResult struct {
	VideoPath     string
	ThumbnailPath string
	VideoSize     int64
}

// Transformer turns one time range of a source into a vertical short and
// its thumbnail.
type Transformer struct {
	tc ports.Transcoder
}

func NewTransformer(tc ports.Transcoder) *Transformer {
	return &Transformer{tc: tc}
}

// Transform writes videoPath then thumbPath. On failure it removes whatever
// it wrote, so callers never see a partial output.
func (t *Transformer) Transform(ctx context.Context, src string, r types.TimeRange, videoPath, thumbPath string) (TransformResult, error) {
	if !r.Valid() {
		return TransformResult{}, &types.TransformError{Step: "reframe", Path: videoPath, Err: fmt.Errorf("invalid range [%g,%g]", r.Start, r.End)}
	}

	if err := t.tc.Reframe(ctx, src, r, videoPath); err != nil {
		_ = os.Remove(videoPath)
		return TransformResult{}, &types.TransformError{Step: "reframe", Path: videoPath, Err: err}
	}
	size, err := nonEmpty(videoPath)
	if err != nil {
		_ = os.Remove(videoPath)
		return TransformResult{}, &types.TransformError{Step: "reframe", Path: videoPath, Err: err}
	}

	if err := t.tc.Thumbnail(ctx, videoPath, ThumbnailOffset, thumbPath); err != nil {
		removeAll(videoPath, thumbPath)
		return TransformResult{}, &types.TransformError{Step: "thumbnail", Path: thumbPath, Err: err}
	}
	if _, err := nonEmpty(thumbPath); err != nil {
		removeAll(videoPath, thumbPath)
		return TransformResult{}, &types.TransformError{Step: "thumbnail", Path: thumbPath, Err: err}
	}

	return TransformResult{VideoPath: videoPath, ThumbnailPath: thumbPath, VideoSize: size}, nil
}

func nonEmpty(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("output missing: %w", err)
	}
	if st.Size() == 0 {
		return 0, errors.New("output is empty")
	}
	return st.Size(), nil
}

func removeAll(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
