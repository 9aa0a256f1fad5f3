package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Clips != 5 {
		t.Errorf("expected 5 clips, got %d", cfg.Clips)
	}
	if cfg.FFmpeg.CRF != 23 || cfg.FFmpeg.Preset != "fast" || cfg.FFmpeg.AudioBitrate != "128k" {
		t.Errorf("unexpected encoder defaults: %+v", cfg.FFmpeg)
	}
	if cfg.Transcriber.Provider != TranscriberDeepgram {
		t.Errorf("unexpected provider %q", cfg.Transcriber.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortz.yaml")
	content := `
clips: 3
duration: 45
ffmpeg:
  crf: 20
storage:
  bucket: media
timeouts:
  transform: 90s
llm:
  allowed_hosts: [llm.internal]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Clips != 3 || cfg.DurationSeconds != 45 || cfg.FFmpeg.CRF != 20 || cfg.Storage.Bucket != "media" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Timeouts.Transform != 90*time.Second {
		t.Errorf("expected 90s transform timeout, got %v", cfg.Timeouts.Transform)
	}
	if cfg.FFmpeg.Preset != "fast" || cfg.Timeouts.Fetch != 5*time.Minute {
		t.Errorf("unset fields should keep defaults: %+v", cfg)
	}
	if len(cfg.LLM.AllowedHosts) != 1 || cfg.LLM.AllowedHosts[0] != "llm.internal" {
		t.Errorf("unexpected allowed hosts %v", cfg.LLM.AllowedHosts)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("clips: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"AWS_REGION":           "us-east-1",
		"AWS_S3_BUCKET_NAME":   "clips",
		"OPENAI_API_KEY":       "sk-x",
		"OPENAI_ALLOWED_HOSTS": "a.example,b.example",
		"PORT":                 "8080",
		"REDIS_DB":             "2",
		"TRANSCRIBER":          "whisper",
		"LOG_LEVEL":            " ",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Storage.Region != "us-east-1" || cfg.Storage.Bucket != "clips" || cfg.LLM.APIKey != "sk-x" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Server.Addr != ":8080" || cfg.Redis.DB != 2 || cfg.Transcriber.Provider != TranscriberWhisper {
		t.Errorf("env not applied: %+v", cfg)
	}
	if len(cfg.LLM.AllowedHosts) != 2 {
		t.Errorf("unexpected allowed hosts %v", cfg.LLM.AllowedHosts)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("blank env should not override, got %q", cfg.Log.Level)
	}
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	for _, k := range []string{"PORT", "REDIS_DB"} {
		t.Run(k, func(t *testing.T) {
			cfg := Default()
			if err := cfg.ApplyEnv(func(name string) string {
				if name == k {
					return "abc"
				}
				return ""
			}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clips", func(c *Config) { c.Clips = 0 }},
		{"zero duration", func(c *Config) { c.DurationSeconds = 0 }},
		{"crf out of range", func(c *Config) { c.FFmpeg.CRF = 60 }},
		{"unknown provider", func(c *Config) { c.Transcriber.Provider = "vosk" }},
		{"zero timeout", func(c *Config) { c.Timeouts.Upload = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
