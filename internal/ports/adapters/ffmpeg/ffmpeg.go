package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/mardev60/shortZ-tube/internal/types"
)

const (
	outWidth  = 1080
	outHeight = 1920
)

// Encoding holds the knobs of the vertical re-encode.
type Encoding struct {
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	PixelFormat  string
}

func DefaultEncoding() Encoding {
	return Encoding{
		VideoCodec:   "libx264",
		Preset:       "fast",
		CRF:          23,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		PixelFormat:  "yuv420p",
	}
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	enc     Encoding
}

func New(ffmpegPath, ffprobePath string, enc Encoding) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	def := DefaultEncoding()
	if enc.VideoCodec == "" {
		enc.VideoCodec = def.VideoCodec
	}
	if enc.Preset == "" {
		enc.Preset = def.Preset
	}
	if enc.CRF <= 0 {
		enc.CRF = def.CRF
	}
	if enc.AudioCodec == "" {
		enc.AudioCodec = def.AudioCodec
	}
	if enc.AudioBitrate == "" {
		enc.AudioBitrate = def.AudioBitrate
	}
	if enc.PixelFormat == "" {
		enc.PixelFormat = def.PixelFormat
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, enc: enc}
}

// Reframe cuts r out of src, center-crops it to 9:16 at full height and
// scales it to 1080x1920.
func (a *Adapter) Reframe(ctx context.Context, src string, r types.TimeRange, dst string) error {
	if err := a.run(ctx, a.reframeArgs(src, r, dst)); err != nil {
		return fmt.Errorf("ffmpeg reframe: %w", err)
	}
	return nil
}

// Thumbnail grabs a single frame offsetSec into video.
func (a *Adapter) Thumbnail(ctx context.Context, video string, offsetSec float64, dst string) error {
	if err := a.run(ctx, thumbnailArgs(video, offsetSec, dst)); err != nil {
		return fmt.Errorf("ffmpeg thumbnail: %w", err)
	}
	return nil
}

// ExtractAudioMono16k writes a 16 kHz mono wav, the input whisper.cpp expects.
// in may be a local path or an HTTP(S) URL.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	args := ffmpeggo.Input(in).
		Output(outWav, ffmpeggo.KwArgs{"ac": "1", "ar": "16000", "f": "wav"}).
		OverWriteOutput().
		GetArgs()
	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

func (a *Adapter) reframeArgs(src string, r types.TimeRange, dst string) []string {
	return ffmpeggo.Input(src, ffmpeggo.KwArgs{
		"ss": fmtSeconds(r.Start),
		"t":  fmtSeconds(r.Duration()),
	}).Output(dst, ffmpeggo.KwArgs{
		"vf":      verticalFilter(),
		"c:v":     a.enc.VideoCodec,
		"preset":  a.enc.Preset,
		"crf":     strconv.Itoa(a.enc.CRF),
		"c:a":     a.enc.AudioCodec,
		"b:a":     a.enc.AudioBitrate,
		"pix_fmt": a.enc.PixelFormat,
	}).OverWriteOutput().GetArgs()
}

func thumbnailArgs(video string, offsetSec float64, dst string) []string {
	return ffmpeggo.Input(video, ffmpeggo.KwArgs{
		"ss": fmtSeconds(offsetSec),
	}).Output(dst, ffmpeggo.KwArgs{
		"frames:v": "1",
		"s":        fmt.Sprintf("%dx%d", outWidth, outHeight),
		"q:v":      "2",
	}).OverWriteOutput().GetArgs()
}

// verticalFilter keeps the full height, crops the width to height*9/16
// around the horizontal center, then scales to the delivery size.
func verticalFilter() string {
	return fmt.Sprintf("crop=ih*9/16:ih:(iw-ih*9/16)/2:0,scale=%d:%d", outWidth, outHeight)
}

func (a *Adapter) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w\n%s", err, tail(b, 2000))
	}
	return nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// tail keeps the end of ffmpeg's output, where the actual error is printed.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
