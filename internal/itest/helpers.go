//go:build integration

package itest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate go.mod")
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

// makeLandscapeFixture renders a 1280x720 test pattern with a sine tone.
func makeLandscapeFixture(t *testing.T, seconds int) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "landscape.mp4")
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=size=1280x720:rate=25:duration=%d", seconds),
		"-f", "lavfi", "-i", fmt.Sprintf("sine=frequency=440:duration=%d", seconds),
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return out
}

type probedVideo struct {
	Width    int
	Height   int
	Duration float64
}

func probeVideo(path string) (probedVideo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return probedVideo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	var raw struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return probedVideo{}, fmt.Errorf("parse ffprobe json: %w", err)
	}
	if len(raw.Streams) == 0 {
		return probedVideo{}, errors.New("no video stream")
	}
	d, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		return probedVideo{}, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
	}
	return probedVideo{Width: raw.Streams[0].Width, Height: raw.Streams[0].Height, Duration: d}, nil
}
