package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mardev60/shortZ-tube/internal/types"
)

func TestTransform(t *testing.T) {
	dir := t.TempDir()
	video, thumb := filepath.Join(dir, "s.mp4"), filepath.Join(dir, "s.jpg")

	res, err := NewTransformer(&fakeTranscoder{}).Transform(context.Background(), "src.mp4", types.TimeRange{Start: 0, End: 5}, video, thumb)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if res.VideoPath != video || res.ThumbnailPath != thumb || res.VideoSize != int64(len("mp4-bytes")) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestTransform_Failures(t *testing.T) {
	tests := []struct {
		name     string
		tc       *fakeTranscoder
		r        types.TimeRange
		wantStep string
	}{
		{"reframe exit", &fakeTranscoder{failStarts: map[float64]bool{3: true}}, types.TimeRange{Start: 3, End: 9}, "reframe"},
		{"empty thumbnail", &fakeTranscoder{emptyThumb: true}, types.TimeRange{Start: 0, End: 5}, "thumbnail"},
		{"invalid range", &fakeTranscoder{}, types.TimeRange{Start: 5, End: 5}, "reframe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			video, thumb := filepath.Join(dir, "s.mp4"), filepath.Join(dir, "s.jpg")

			_, err := NewTransformer(tt.tc).Transform(context.Background(), "src.mp4", tt.r, video, thumb)
			var te *types.TransformError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransformError, got %v", err)
			}
			if te.Step != tt.wantStep {
				t.Fatalf("step = %q, want %q", te.Step, tt.wantStep)
			}
			for _, p := range []string{video, thumb} {
				if _, err := os.Stat(p); !os.IsNotExist(err) {
					t.Fatalf("partial output %s left behind (stat err=%v)", p, err)
				}
			}
		})
	}
}
