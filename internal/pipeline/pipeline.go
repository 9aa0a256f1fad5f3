package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/config"
	"github.com/mardev60/shortZ-tube/internal/ports"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/deepgram"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/ffmpeg"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/httpfetch"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/openai"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/s3store"
	"github.com/mardev60/shortZ-tube/internal/ports/adapters/whispercpp"
	"github.com/mardev60/shortZ-tube/internal/types"
	"github.com/mardev60/shortZ-tube/internal/usecase"
	"github.com/mardev60/shortZ-tube/internal/workspace"
)

// Generator is the job entry the front layers drive.
type Generator interface {
	GenerateShorts(ctx context.Context, req types.JobRequest) (types.JobResponse, error)
	GenerateFromURL(ctx context.Context, url string, durationSec float64, userID string) (types.JobResponse, error)
}

// Services is the wired application.
type Services struct {
	Generator  Generator
	Workspaces *workspace.Registry
	Log        zerolog.Logger
}

// Validate checks what Build needs on top of config.Config.Validate.
func Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Storage.Bucket == "" {
		return errors.New("AWS_S3_BUCKET_NAME is required")
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required (set it in .env)")
	}
	switch cfg.Transcriber.Provider {
	case config.TranscriberDeepgram:
		if cfg.Transcriber.DeepgramAPIKey == "" {
			return errors.New("DEEPGRAM_API_KEY is required for the deepgram transcriber")
		}
	case config.TranscriberWhisper:
		if cfg.Transcriber.WhisperModel == "" {
			return errors.New("whisper model path is required")
		}
	}
	return openai.ValidateBaseURL(cfg.LLM.BaseURL, cfg.LLM.AllowedHosts)
}

// Build wires adapters from cfg.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	ff := ffmpeg.New(cfg.FFmpeg.Path, cfg.FFmpeg.ProbePath, ffmpeg.Encoding{
		VideoCodec:   cfg.FFmpeg.VideoCodec,
		Preset:       cfg.FFmpeg.Preset,
		CRF:          cfg.FFmpeg.CRF,
		AudioCodec:   cfg.FFmpeg.AudioCodec,
		AudioBitrate: cfg.FFmpeg.AudioBitrate,
	})
	store, err := s3store.New(ctx, s3store.Options{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}

	var asr ports.Transcriber
	if cfg.Transcriber.Provider == config.TranscriberWhisper {
		asr = whispercpp.New(cfg.Transcriber.WhisperBin, cfg.Transcriber.WhisperModel, ff, cfg.WorkspaceRoot)
	} else {
		asr = deepgram.New(cfg.Transcriber.DeepgramAPIKey, cfg.Transcriber.DeepgramModel, cfg.Transcriber.Language, "")
	}

	reg := workspace.NewRegistry(cfg.WorkspaceRoot)
	uc := usecase.New(usecase.Deps{
		Fetcher:     httpfetch.New(0),
		Prober:      ff,
		Transcoder:  ff,
		Store:       store,
		Transcriber: asr,
		Oracle:      openai.New(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL),
		Workspaces:  reg,
		Log:         log,
		Timeouts:    usecase.Timeouts(cfg.Timeouts),
		Clips:       cfg.Clips,
	})
	log.Debug().
		Str("transcriber", cfg.Transcriber.Provider).
		Str("model", cfg.LLM.Model).
		Str("bucket", cfg.Storage.Bucket).
		Str("workspaces", reg.Root()).
		Msg("services wired")
	return &Services{Generator: uc, Workspaces: reg, Log: log}, nil
}

// LocalInput describes a CLI run over a file on disk.
type LocalInput struct {
	InputPath       string
	OutDir          string
	DurationSeconds float64
	UserID          string
}

// RunLocal submits a local video and writes the resulting manifest under
// a fresh run directory. It returns the manifest path.
func RunLocal(ctx context.Context, gen Generator, in LocalInput, log zerolog.Logger) (string, error) {
	if in.InputPath == "" {
		return "", errors.New("input is empty")
	}
	b, err := os.ReadFile(in.InputPath)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	outDir := in.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, in.InputPath, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	resp, err := gen.GenerateShorts(ctx, types.JobRequest{
		VideoBytes:               b,
		ContentType:              contentTypeFor(in.InputPath),
		RequestedDurationSeconds: in.DurationSeconds,
		UserID:                   in.UserID,
	})
	if err != nil {
		return "", err
	}

	m := types.Manifest{
		Input:    in.InputPath,
		Source:   resp.SourceURL,
		Duration: in.DurationSeconds,
		Clips:    resp.Segments,
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, mb, 0o644); err != nil {
		return "", err
	}
	log.Info().Int("clips", len(m.Clips)).Str("path", manifestPath).Msg("manifest written")
	return manifestPath, nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(ct, "video/") {
		return ct
	}
	return "video/mp4"
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.Fetcher      = (*httpfetch.Adapter)(nil)
	_ ports.Prober       = (*ffmpeg.Adapter)(nil)
	_ ports.Transcoder   = (*ffmpeg.Adapter)(nil)
	_ ports.ObjectStore  = (*s3store.Store)(nil)
	_ ports.Transcriber  = (*deepgram.Adapter)(nil)
	_ ports.Transcriber  = (*whispercpp.Adapter)(nil)
	_ ports.MomentOracle = (*openai.Adapter)(nil)
	_ Generator          = usecase.Usecase{}
)
