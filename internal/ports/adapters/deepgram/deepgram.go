package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mardev60/shortZ-tube/internal/redact"
	"github.com/mardev60/shortZ-tube/internal/types"
)

const (
	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	inaudible      = "(inaudible)"
)

type Adapter struct {
	key      string
	model    string
	language string
	baseURL  string
	client   *http.Client
}

// New returns a prerecorded-audio transcriber. An empty language turns on
// Deepgram's language detection.
func New(apiKey, model, language, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		key:      apiKey,
		model:    model,
		language: language,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

type dgWord struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type dgUtterance struct {
	Transcript *string  `json:"transcript"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence float64  `json:"confidence"`
	Words      []dgWord `json:"words"`
}

type dgResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []dgUtterance `json:"utterances"`
	} `json:"results"`
}

// Transcribe asks Deepgram to fetch and transcribe mediaURL.
func (a *Adapter) Transcribe(ctx context.Context, mediaURL string) (types.Transcript, error) {
	tr, err := a.transcribe(ctx, mediaURL)
	if err != nil {
		return types.Transcript{}, &types.TranscriptionError{URL: mediaURL, Err: err}
	}
	return tr, nil
}

func (a *Adapter) transcribe(ctx context.Context, mediaURL string) (types.Transcript, error) {
	if a.key == "" {
		return types.Transcript{}, fmt.Errorf("deepgram api key is not set")
	}
	body, err := json.Marshal(map[string]string{"url": mediaURL})
	if err != nil {
		return types.Transcript{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return types.Transcript{}, err
	}
	req.Header.Set("Authorization", "Token "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return types.Transcript{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.Transcript{}, fmt.Errorf("deepgram status %d: %s", resp.StatusCode, redact.Truncate(redact.Secrets(string(rb), a.key), 400))
	}

	var raw dgResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Transcript{}, fmt.Errorf("decode deepgram response: %w", err)
	}
	return toTranscript(raw), nil
}

func (a *Adapter) endpoint() string {
	q := url.Values{}
	q.Set("model", a.model)
	q.Set("punctuate", "true")
	q.Set("utterances", "true")
	q.Set("diarize", "true")
	q.Set("smart_format", "true")
	q.Set("filler_words", "true")
	if a.language != "" {
		q.Set("language", a.language)
	} else {
		q.Set("detect_language", "true")
	}
	return a.baseURL + "/v1/listen?" + q.Encode()
}

// toTranscript turns utterances into segments. Utterances with neither
// text nor words are dropped; missing text is rebuilt from the words.
func toTranscript(raw dgResponse) types.Transcript {
	segs := make([]types.TranscriptSegment, 0, len(raw.Results.Utterances))
	for _, u := range raw.Results.Utterances {
		text := ""
		if u.Transcript != nil {
			text = strings.TrimSpace(*u.Transcript)
		}
		if text == "" && len(u.Words) == 0 {
			continue
		}
		words := make([]types.Word, 0, len(u.Words))
		parts := make([]string, 0, len(u.Words))
		for _, w := range u.Words {
			words = append(words, types.Word{Text: w.Word, Start: w.Start, End: w.End, Confidence: w.Confidence})
			parts = append(parts, w.Word)
		}
		if text == "" {
			text = strings.TrimSpace(strings.Join(parts, " "))
		}
		if text == "" {
			text = inaudible
		}
		segs = append(segs, types.TranscriptSegment{
			Text:       text,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
			Words:      words,
		})
	}

	full := ""
	if ch := raw.Results.Channels; len(ch) > 0 && len(ch[0].Alternatives) > 0 {
		full = ch[0].Alternatives[0].Transcript
	}
	if full == "" {
		texts := make([]string, len(segs))
		for i, s := range segs {
			texts[i] = s.Text
		}
		full = strings.Join(texts, " ")
	}
	return types.Transcript{Segments: segs, Text: full}
}
