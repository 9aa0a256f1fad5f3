package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/types"
	"github.com/mardev60/shortZ-tube/internal/workspace"
)

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) Download(_ context.Context, url, localPath string) error {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(localPath, []byte(f.body), 0o644)
}

type fakeProber struct {
	codec   string
	failFor string // path substring that fails
	calls   []string
}

func (f *fakeProber) Probe(_ context.Context, path string) (types.MediaInfo, error) {
	f.calls = append(f.calls, path)
	if f.failFor != "" && strings.Contains(path, f.failFor) {
		return types.MediaInfo{}, errors.New("moov atom not found")
	}
	info := types.MediaInfo{ContainerFormat: "mov,mp4", DurationSeconds: 600}
	if f.codec != "" {
		info.VideoStream = &types.VideoStream{Codec: f.codec, Width: 1080, Height: 1920}
	}
	return info, nil
}

// fakeTranscoder writes small outputs and fails reframes whose start is in failStarts.
type fakeTranscoder struct {
	failStarts map[float64]bool
	emptyThumb bool

	mu          sync.Mutex
	inflight    int
	maxInflight int
	reframed    []types.TimeRange
}

func (f *fakeTranscoder) enter() func() {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}
}

func (f *fakeTranscoder) Reframe(_ context.Context, _ string, r types.TimeRange, dst string) error {
	defer f.enter()()
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	f.reframed = append(f.reframed, r)
	f.mu.Unlock()
	if f.failStarts[r.Start] {
		_ = os.WriteFile(dst, []byte("partial"), 0o644)
		return fmt.Errorf("exit status 1")
	}
	return os.WriteFile(dst, []byte("mp4-bytes"), 0o644)
}

func (f *fakeTranscoder) Thumbnail(_ context.Context, _ string, _ float64, dst string) error {
	if f.emptyThumb {
		return os.WriteFile(dst, nil, 0o644)
	}
	return os.WriteFile(dst, []byte("jpg"), 0o644)
}

type fakeStore struct {
	failKeySub string

	mu   sync.Mutex
	puts map[string]string // key -> content type
}

func (f *fakeStore) Put(_ context.Context, body []byte, contentType, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeySub != "" && strings.Contains(key, f.failKeySub) {
		return "", errors.New("SlowDown")
	}
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[key] = contentType
	return "https://bucket.s3.eu-west-3.amazonaws.com/" + key, nil
}

func (f *fakeStore) Region() string { return "eu-west-3" }

type fakeTranscriber struct {
	tr  types.Transcript
	err error
}

func (f fakeTranscriber) Transcribe(context.Context, string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeOracle struct {
	ranked []types.RankedMoment
	err    error
	count  int
}

func (f *fakeOracle) Rank(_ context.Context, _ types.Transcript, _ float64, count int) ([]types.RankedMoment, error) {
	f.count = count
	return f.ranked, f.err
}

type harness struct {
	fetcher    *fakeFetcher
	prober     *fakeProber
	transcoder *fakeTranscoder
	store      *fakeStore
	oracle     *fakeOracle
	registry   *workspace.Registry
	root       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		fetcher:    &fakeFetcher{body: "source-bytes"},
		prober:     &fakeProber{codec: "h264"},
		transcoder: &fakeTranscoder{},
		store:      &fakeStore{},
		oracle:     &fakeOracle{},
		registry:   workspace.NewRegistry(root),
		root:       root,
	}
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func (h *harness) deps(tr types.Transcript) Deps {
	return Deps{
		Fetcher:     h.fetcher,
		Prober:      h.prober,
		Transcoder:  h.transcoder,
		Store:       h.store,
		Transcriber: fakeTranscriber{tr: tr},
		Oracle:      h.oracle,
		Workspaces:  h.registry,
		Log:         zerolog.Nop(),
		Now:         func() time.Time { return fixedNow },
	}
}

func (h *harness) assertNoWorkspaces(t *testing.T) {
	t.Helper()
	if live := h.registry.Live(); len(live) != 0 {
		t.Fatalf("workspaces still registered: %v", live)
	}
	entries, err := os.ReadDir(h.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace root not empty: %d entries", len(entries))
	}
}

func moment(start, end float64, score int) types.CandidateMoment {
	return types.CandidateMoment{TimeRange: types.TimeRange{Start: start, End: end}, Score: score, Justification: fmt.Sprintf("score %d", score)}
}
