// Package config layers defaults, an optional YAML file, .env and the
// process environment into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TranscriberDeepgram = "deepgram"
	TranscriberWhisper  = "whisper"
)

type Config struct {
	Clips           int     `yaml:"clips"`
	DurationSeconds float64 `yaml:"duration"`
	WorkspaceRoot   string  `yaml:"workspace_root"`

	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Storage     StorageConfig     `yaml:"storage"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	LLM         LLMConfig         `yaml:"llm"`
	Timeouts    Timeouts          `yaml:"timeouts"`
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
}

type FFmpegConfig struct {
	Path         string `yaml:"path"`
	ProbePath    string `yaml:"probe_path"`
	VideoCodec   string `yaml:"video_codec"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type TranscriberConfig struct {
	Provider       string `yaml:"provider"`
	DeepgramAPIKey string `yaml:"deepgram_api_key"`
	DeepgramModel  string `yaml:"deepgram_model"`
	Language       string `yaml:"language"`
	WhisperBin     string `yaml:"whisper_bin"`
	WhisperModel   string `yaml:"whisper_model"`
}

type LLMConfig struct {
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// Timeouts bound every blocking stage of a job.
type Timeouts struct {
	Fetch      time.Duration `yaml:"fetch"`
	Probe      time.Duration `yaml:"probe"`
	Transform  time.Duration `yaml:"transform"`
	Upload     time.Duration `yaml:"upload"`
	Transcribe time.Duration `yaml:"transcribe"`
	Select     time.Duration `yaml:"select"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxUploadMB caps multipart uploads.
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	Queue         string `yaml:"queue"`
	ResultChannel string `yaml:"result_channel"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Clips:           5,
		DurationSeconds: 30,
		FFmpeg: FFmpegConfig{
			Path:         "ffmpeg",
			ProbePath:    "ffprobe",
			VideoCodec:   "libx264",
			Preset:       "fast",
			CRF:          23,
			AudioCodec:   "aac",
			AudioBitrate: "128k",
		},
		Storage: StorageConfig{Region: "eu-west-3"},
		Transcriber: TranscriberConfig{
			Provider:      TranscriberDeepgram,
			DeepgramModel: "nova-2",
			WhisperBin:    ".cache/bin/whisper.cpp",
			WhisperModel:  ".cache/models/ggml-base.bin",
		},
		LLM: LLMConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
		},
		Timeouts: Timeouts{
			Fetch:      5 * time.Minute,
			Probe:      30 * time.Second,
			Transform:  10 * time.Minute,
			Upload:     5 * time.Minute,
			Transcribe: 15 * time.Minute,
			Select:     3 * time.Minute,
		},
		Server: ServerConfig{Addr: ":3000", MaxUploadMB: 2048},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			Queue:         "shortz:jobs",
			ResultChannel: "shortz:results",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFile overlays a YAML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the first config file found in the standard
// locations, or "" when there is none.
func FindConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		"./shortz.yaml",
		"./shortz.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".shortz", "config.yaml"),
			filepath.Join(home, ".shortz", "config.yml"),
		)
	}
	for _, p := range locations {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load builds the effective config: defaults, then path (or a discovered
// file when path is empty), then .env, then the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	_ = godotenv.Load() // best-effort: load .env if present
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Unset or empty
// variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(k string, dst *string) {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			*dst = v
		}
	}
	str("AWS_REGION", &c.Storage.Region)
	str("AWS_S3_BUCKET_NAME", &c.Storage.Bucket)
	str("AWS_S3_ENDPOINT", &c.Storage.Endpoint)
	str("AWS_S3_PUBLIC_BASE_URL", &c.Storage.PublicBaseURL)
	str("DEEPGRAM_API_KEY", &c.Transcriber.DeepgramAPIKey)
	str("DEEPGRAM_LANGUAGE", &c.Transcriber.Language)
	str("TRANSCRIBER", &c.Transcriber.Provider)
	str("WHISPER_BIN", &c.Transcriber.WhisperBin)
	str("WHISPER_MODEL", &c.Transcriber.WhisperModel)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_MODEL", &c.LLM.Model)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("FFMPEG_PATH", &c.FFmpeg.Path)
	str("FFPROBE_PATH", &c.FFmpeg.ProbePath)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SHORTZ_WORKSPACE_ROOT", &c.WorkspaceRoot)
	str("LOG_LEVEL", &c.Log.Level)

	if v := strings.TrimSpace(getenv("OPENAI_ALLOWED_HOSTS")); v != "" {
		c.LLM.AllowedHosts = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("REDIS_DB")); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	return nil
}

// Validate reports the first invalid field. Credentials are checked by the
// component that needs them.
func (c *Config) Validate() error {
	if c.Clips <= 0 {
		return errors.New("clips must be > 0")
	}
	if c.DurationSeconds <= 0 {
		return errors.New("duration must be > 0")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be within 0..51, got %d", c.FFmpeg.CRF)
	}
	switch c.Transcriber.Provider {
	case TranscriberDeepgram, TranscriberWhisper:
	default:
		return fmt.Errorf("transcriber.provider must be %q or %q, got %q", TranscriberDeepgram, TranscriberWhisper, c.Transcriber.Provider)
	}
	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"fetch": t.Fetch, "probe": t.Probe, "transform": t.Transform,
		"upload": t.Upload, "transcribe": t.Transcribe, "select": t.Select,
	} {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be > 0", name)
		}
	}
	return nil
}
