// Package ffmpeg adapts the external ffmpeg/ffprobe toolkit to the
// VideoTool port.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"transub/internal/ports"
	"transub/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string

	// runner is swappable for tests; defaults to running the real binary.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		runner:  runCombined,
	}
}

// WithRunner replaces the command runner (tests only).
func (a *Adapter) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	a.runner = runner
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Available checks that both toolkit binaries are resolvable on PATH.
func (a *Adapter) Available() error {
	for _, bin := range []string{a.ffmpeg, a.ffprobe} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %q", ports.ErrMissingBinary, bin)
		}
	}
	return nil
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	b, err := a.runner(ctx, a.ffmpeg, buildExtractArgs(inVideo, outWav)...)
	if err != nil {
		return wrapToolkit(ctx, "extract audio", err, b)
	}
	return nil
}

func buildExtractArgs(inVideo, outWav string) []string {
	return []string{
		"-i", inVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outWav,
	}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	b, err := a.runner(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, wrapToolkit(ctx, "probe duration", err, b)
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse duration %q: %v", ports.ErrToolkit, s, err)
	}
	return sec, nil
}

func (a *Adapter) ProbeResolution(ctx context.Context, path string) (int, int, error) {
	b, err := a.runner(ctx, a.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	)
	if err != nil {
		return 0, 0, wrapToolkit(ctx, "probe streams", err, b)
	}
	var probe struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return 0, 0, fmt.Errorf("%w: decode probe output: %v", ports.ErrToolkit, err)
	}
	for _, s := range probe.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no video stream in %s", ports.ErrToolkit, path)
}

func (a *Adapter) BurnSubtitles(ctx context.Context, inVideo, subtitlePath, outVideo string, style types.SubtitleStyle) error {
	b, err := a.runner(ctx, a.ffmpeg, buildBurnArgs(inVideo, subtitlePath, outVideo, style)...)
	if err != nil {
		return wrapToolkit(ctx, "burn subtitles", err, b)
	}
	return nil
}

func buildBurnArgs(inVideo, subtitlePath, outVideo string, style types.SubtitleStyle) []string {
	return []string{
		"-i", inVideo,
		"-vf", subtitleFilter(subtitlePath, style),
		"-c:a", "copy",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-y",
		outVideo,
	}
}

func subtitleFilter(subtitlePath string, style types.SubtitleStyle) string {
	return fmt.Sprintf(
		"subtitles='%s':force_style='FontSize=%d,PrimaryColour=&H%s,OutlineColour=&H%s,Outline=%d'",
		escapeFilterPath(subtitlePath),
		style.FontSize,
		ColorToHex(style.FontColor),
		ColorToHex(style.OutlineColor),
		style.OutlineWidth,
	)
}

// escapeFilterPath escapes the characters the filter graph parser treats
// specially inside a filter argument.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

var colorHex = map[string]string{
	"white":   "FFFFFF",
	"black":   "000000",
	"red":     "FF0000",
	"green":   "00FF00",
	"blue":    "0000FF",
	"yellow":  "FFFF00",
	"cyan":    "00FFFF",
	"magenta": "FF00FF",
}

// ColorToHex maps a named color to its hex encoding for the subtitle
// filter. Unrecognized names fall back to white rather than failing.
func ColorToHex(name string) string {
	if hex, ok := colorHex[strings.ToLower(name)]; ok {
		return hex
	}
	return "FFFFFF"
}

func wrapToolkit(ctx context.Context, op string, err error, output []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ports.ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v\n%s", ports.ErrToolkit, op, err, strings.TrimSpace(string(output)))
}
