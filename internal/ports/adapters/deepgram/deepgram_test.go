package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mardev60/shortZ-tube/internal/types"
)

const sampleResponse = `{
  "results": {
    "channels": [{"alternatives": [{"transcript": "Hello there. Big news."}]}],
    "utterances": [
      {"transcript": "Hello there.", "start": 0.1, "end": 1.2, "confidence": 0.98,
       "words": [{"word": "hello", "start": 0.1, "end": 0.5, "confidence": 0.99}, {"word": "there", "start": 0.6, "end": 1.2, "confidence": 0.97}]},
      {"start": 2.0, "end": 3.1, "confidence": 0.9,
       "words": [{"word": "big", "start": 2.0, "end": 2.4, "confidence": 0.9}, {"word": "news", "start": 2.5, "end": 3.1, "confidence": 0.9}]},
      {"transcript": "  ", "start": 4.0, "end": 4.5, "confidence": 0.1, "words": []}
    ]
  }
}`

func TestTranscribe(t *testing.T) {
	var gotAuth, gotQuery string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	a := New("dg-key", "", "", srv.URL)
	tr, err := a.Transcribe(context.Background(), "https://bucket/video.mp4")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if gotAuth != "Token dg-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	for _, want := range []string{"model=nova-2", "utterances=true", "diarize=true", "detect_language=true", "filler_words=true"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
	if gotBody["url"] != "https://bucket/video.mp4" {
		t.Fatalf("unexpected body %v", gotBody)
	}

	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(tr.Segments), tr.Segments)
	}
	if tr.Segments[0].Text != "Hello there." || len(tr.Segments[0].Words) != 2 {
		t.Fatalf("unexpected first segment: %+v", tr.Segments[0])
	}
	if tr.Segments[1].Text != "big news" {
		t.Fatalf("expected text rebuilt from words, got %q", tr.Segments[1].Text)
	}
	if tr.Text != "Hello there. Big news." {
		t.Fatalf("unexpected full text %q", tr.Text)
	}
}

func TestTranscribe_LanguagePinned(t *testing.T) {
	a := New("k", "nova-3", "fr", "https://example.test/")
	ep := a.endpoint()
	if !strings.HasPrefix(ep, "https://example.test/v1/listen?") {
		t.Fatalf("unexpected endpoint %q", ep)
	}
	if !strings.Contains(ep, "language=fr") || strings.Contains(ep, "detect_language") || !strings.Contains(ep, "model=nova-3") {
		t.Fatalf("unexpected endpoint %q", ep)
	}
}

func TestTranscribe_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg":"Invalid credentials: Token secret-key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("secret-key", "", "", srv.URL).Transcribe(context.Background(), "https://x/v.mp4")
	var te *types.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("api key leaked into error: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error: %v", err)
	}
}

func TestTranscribe_MissingKey(t *testing.T) {
	_, err := New("", "", "", "").Transcribe(context.Background(), "https://x/v.mp4")
	var te *types.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
}

func TestToTranscript_FallbackText(t *testing.T) {
	var raw dgResponse
	if err := json.Unmarshal([]byte(`{"results":{"utterances":[{"transcript":"one","start":0,"end":1},{"transcript":"two","start":1,"end":2}]}}`), &raw); err != nil {
		t.Fatal(err)
	}
	tr := toTranscript(raw)
	if tr.Text != "one two" {
		t.Fatalf("expected joined segment text, got %q", tr.Text)
	}
}
