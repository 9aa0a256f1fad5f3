package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type probeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	RFrameRate string `json:"r_frame_rate,omitempty"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  *probeFormat  `json:"format"`
}

// Probe inspects path with ffprobe. It never modifies the file.
func (a *Adapter) Probe(ctx context.Context, path string) (types.MediaInfo, error) {
	if path == "" {
		return types.MediaInfo{}, &types.ProbeError{Path: path, Err: errors.New("empty path")}
	}
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return types.MediaInfo{}, &types.ProbeError{Path: path, Err: fmt.Errorf("ffprobe: %w", err)}
	}
	info, err := parseProbe(b)
	if err != nil {
		return types.MediaInfo{}, &types.ProbeError{Path: path, Err: err}
	}
	return info, nil
}

func parseProbe(b []byte) (types.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.MediaInfo{}, fmt.Errorf("parse ffprobe json: %w", err)
	}
	if out.Format == nil || out.Format.FormatName == "" {
		return types.MediaInfo{}, errors.New("not a recognized media container")
	}

	info := types.MediaInfo{ContainerFormat: out.Format.FormatName}
	if out.Format.Duration != "" {
		d, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return types.MediaInfo{}, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
		}
		info.DurationSeconds = d
	}
	// size and bit_rate are informational; ffprobe omits them for some inputs
	info.SizeBytes, _ = strconv.ParseInt(out.Format.Size, 10, 64)
	info.Bitrate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.VideoStream = &types.VideoStream{
			Codec:     s.CodecName,
			Width:     s.Width,
			Height:    s.Height,
			FrameRate: s.RFrameRate,
		}
		break
	}
	return info, nil
}
