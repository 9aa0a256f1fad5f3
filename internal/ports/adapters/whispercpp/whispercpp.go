package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mardev60/shortZ-tube/internal/types"
)

// AudioExtractor turns any media input (path or URL) into a 16 kHz mono wav.
type AudioExtractor interface {
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
}

type Adapter struct {
	bin     string
	model   string
	audio   AudioExtractor
	tempDir string
}

// New returns a local transcriber. tempDir is where per-call scratch
// directories go; empty means os.TempDir().
func New(binPath, modelPath string, audio AudioExtractor, tempDir string) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	return &Adapter{bin: binPath, model: modelPath, audio: audio, tempDir: tempDir}
}

func (a *Adapter) Transcribe(ctx context.Context, mediaURL string) (types.Transcript, error) {
	tr, err := a.transcribe(ctx, mediaURL)
	if err != nil {
		return types.Transcript{}, &types.TranscriptionError{URL: mediaURL, Err: err}
	}
	return tr, nil
}

func (a *Adapter) transcribe(ctx context.Context, mediaURL string) (types.Transcript, error) {
	if a.model == "" {
		return types.Transcript{}, fmt.Errorf("whisper model path is not set")
	}
	dir, err := os.MkdirTemp(a.tempDir, "shortz-asr-")
	if err != nil {
		return types.Transcript{}, err
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "audio.wav")
	if err := a.audio.ExtractAudioMono16k(ctx, mediaURL, wav); err != nil {
		return types.Transcript{}, err
	}

	outPrefix := filepath.Join(dir, "whisper")
	cmd := exec.CommandContext(ctx, a.bin,
		"-m", a.model,
		"-f", wav,
		"-ojf",
		"-of", outPrefix,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return parseFullJSON(jb)
}

type wOffsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

type wToken struct {
	Text    string   `json:"text"`
	Offsets wOffsets `json:"offsets"`
	P       float64  `json:"p"`
}

type wSegment struct {
	Offsets wOffsets `json:"offsets"`
	Text    string   `json:"text"`
	Tokens  []wToken `json:"tokens"`
}

// parseFullJSON reads whisper.cpp's -ojf output. Offsets are milliseconds.
func parseFullJSON(b []byte) (types.Transcript, error) {
	var raw struct {
		Transcription []wSegment `json:"transcription"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper json: %w", err)
	}

	tr := types.Transcript{Segments: make([]types.TranscriptSegment, 0, len(raw.Transcription))}
	texts := make([]string, 0, len(raw.Transcription))
	for _, s := range raw.Transcription {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		seg := types.TranscriptSegment{
			Text:  text,
			Start: ms(s.Offsets.From),
			End:   ms(s.Offsets.To),
		}
		var pSum float64
		for _, tok := range s.Tokens {
			w := strings.TrimSpace(tok.Text)
			// special tokens such as [_BEG_] and [_TT_150]
			if w == "" || strings.HasPrefix(w, "[_") {
				continue
			}
			seg.Words = append(seg.Words, types.Word{
				Text:       w,
				Start:      ms(tok.Offsets.From),
				End:        ms(tok.Offsets.To),
				Confidence: tok.P,
			})
			pSum += tok.P
		}
		if n := len(seg.Words); n > 0 {
			seg.Confidence = pSum / float64(n)
		}
		tr.Segments = append(tr.Segments, seg)
		texts = append(texts, text)
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}

func ms(v int64) float64 { return float64(v) / 1000 }
