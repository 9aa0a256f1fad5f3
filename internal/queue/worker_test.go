package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/types"
)

// fakeSource hands out jobs, then cancels the worker once drained.
type fakeSource struct {
	mu        sync.Mutex
	jobs      []*Job
	errs      []error
	published []Result
	cancel    context.CancelFunc
}

func (f *fakeSource) Dequeue(context.Context, time.Duration) (*Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	if len(f.jobs) == 0 {
		f.cancel()
		return nil, nil
	}
	j := f.jobs[0]
	f.jobs = f.jobs[1:]
	return j, nil
}

func (f *fakeSource) PublishResult(_ context.Context, r Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, r)
	return nil
}

type fakeGen struct {
	calls []string
	fail  map[string]bool
}

func (g *fakeGen) GenerateFromURL(_ context.Context, url string, _ float64, _ string) (types.JobResponse, error) {
	g.calls = append(g.calls, url)
	if g.fail[url] {
		return types.JobResponse{}, &types.OracleError{Err: errors.New("expected 5 moments, got 3")}
	}
	return types.JobResponse{Segments: []types.ProcessedSegment{{Ordinal: 1}}}, nil
}

func TestWorker_ProcessesJobsInOrderAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{
		jobs: []*Job{
			{ID: "a", VideoURL: "https://x/a.mp4", DurationSeconds: 30},
			nil,
			{ID: "b", VideoURL: "https://x/b.mp4", DurationSeconds: 30},
		},
		errs:   []error{errors.New("i/o timeout")},
		cancel: cancel,
	}
	gen := &fakeGen{fail: map[string]bool{"https://x/b.mp4": true}}
	w := NewWorker(src, gen, zerolog.Nop())
	w.backoff = time.Millisecond

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(gen.calls) != 2 || gen.calls[0] != "https://x/a.mp4" {
		t.Fatalf("unexpected calls: %v", gen.calls)
	}
	if len(src.published) != 2 {
		t.Fatalf("expected 2 results, got %d", len(src.published))
	}
	if r := src.published[0]; r.JobID != "a" || r.Status != StatusDone || len(r.Shorts) != 1 {
		t.Fatalf("unexpected first result: %+v", r)
	}
	if r := src.published[1]; r.JobID != "b" || r.Status != StatusFailed || r.Error == "" {
		t.Fatalf("unexpected second result: %+v", r)
	}
}

func TestDecodeJob(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ok", `{"id":"1","videoUrl":"https://x/v.mp4","duration":30,"userId":"u"}`, false},
		{"not json", `nope`, true},
		{"no url", `{"id":"1","duration":30}`, true},
		{"zero duration", `{"id":"1","videoUrl":"https://x/v.mp4"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := decodeJob([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.VideoURL != "https://x/v.mp4" || job.UserID != "u" {
				t.Fatalf("unexpected job: %+v", job)
			}
		})
	}
}

func TestEnqueue_RejectsInvalidJobs(t *testing.T) {
	q := NewRedisQueue(nil, "q", "r")
	if _, err := q.Enqueue(context.Background(), Job{DurationSeconds: 30}); err == nil {
		t.Fatalf("expected error for missing url")
	}
}
