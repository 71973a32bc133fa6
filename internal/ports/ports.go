package ports

import (
	"context"

	"transub/internal/types"
)

// VideoTool wraps the external media toolkit (ffmpeg/ffprobe).
type VideoTool interface {
	// Available reports whether the toolkit binaries can be invoked.
	Available() error
	// ExtractAudioMono16k demuxes the input video's audio track to mono
	// 16 kHz PCM WAV at outWav.
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	// ProbeDuration returns the media duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
	// ProbeResolution returns the video stream's width and height.
	ProbeResolution(ctx context.Context, path string) (width, height int, err error)
	// BurnSubtitles re-encodes inVideo with the subtitle file rendered into
	// the picture, copying the audio stream unmodified.
	BurnSubtitles(ctx context.Context, inVideo, subtitlePath, outVideo string, style types.SubtitleStyle) error
}

// Transcriber converts an audio file into time-stamped text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (types.Transcript, error)
}

// Translator issues a chat completion and returns the model's raw reply.
// The reply is free-form text expected, but not guaranteed, to contain
// JSON-shaped segments.
type Translator interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}
