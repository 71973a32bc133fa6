// Package stage implements the four pipeline stages. Each stage is a
// function from explicit inputs to a payload plus a nil-or-populated
// *errcode.Failure; stages never retry and never touch state beyond their
// declared side effect.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"transub/internal/domain/segments"
	"transub/internal/domain/srt"
	"transub/internal/errcode"
	"transub/internal/ports"
	"transub/internal/types"
)

const (
	extractTimeout   = 5 * time.Minute
	compositeTimeout = 30 * time.Minute

	// replyPreviewLimit bounds how much of a raw model reply ends up in an
	// error detail.
	replyPreviewLimit = 200

	defaultResolution = "1920x1080"
)

// Deps carries the collaborators and logger every stage receives
// explicitly; there is no package-level state.
type Deps struct {
	Video ports.VideoTool
	ASR   ports.Transcriber
	LLM   ports.Translator
	Log   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.New(slog.DiscardHandler)
}

// ExtractAudio demuxes the input video's audio track to a mono 16 kHz WAV
// in cacheDir and returns its path and duration in seconds. A duration
// above maxDuration deletes the artifact and fails with a resource-limit
// error. A failed duration probe is non-fatal; duration is then zero.
func ExtractAudio(ctx context.Context, d Deps, videoPath, cacheDir string, maxDuration float64) (string, float64, *errcode.Failure) {
	log := d.logger()

	if _, err := os.Stat(videoPath); err != nil {
		return "", 0, errcode.Failf(errcode.FileError, "input file not found: %s", videoPath)
	}
	if !types.SupportedVideoFile(videoPath) {
		return "", 0, errcode.Failf(errcode.FileError, "unsupported video format: %s", filepath.Ext(videoPath))
	}
	if err := d.Video.Available(); err != nil {
		return "", 0, errcode.Failf(errcode.DependencyMissing, "media toolkit unavailable: %v", err)
	}

	audioPath := filepath.Join(cacheDir, fmt.Sprintf("audio_%s.wav", time.Now().Format("20060102_150405")))
	log.Info("extracting audio", "input", videoPath, "output", audioPath)

	extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()
	if err := d.Video.ExtractAudioMono16k(extractCtx, videoPath, audioPath); err != nil {
		if errors.Is(err, ports.ErrTimeout) {
			return "", 0, errcode.Failf(errcode.AudioExtractFailed, "audio extraction timed out after %s", extractTimeout)
		}
		return "", 0, errcode.Failf(errcode.AudioExtractFailed, "audio extraction failed: %v", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", 0, errcode.Failf(errcode.AudioExtractFailed, "audio file was not produced")
	}

	duration, err := d.Video.ProbeDuration(ctx, audioPath)
	if err != nil {
		log.Warn("audio duration probe failed", "error", err)
		duration = 0
	} else if duration > maxDuration {
		if rmErr := os.Remove(audioPath); rmErr != nil {
			log.Warn("removing over-limit audio failed", "error", rmErr)
		}
		return "", 0, errcode.Failf(errcode.ResourceLimit,
			"audio duration exceeds limit: %.2fs > %.0fs", duration, maxDuration)
	}

	log.Info("audio extracted", "duration_sec", duration)
	return audioPath, duration, nil
}

// Transcribe runs the transcription service on the extracted audio and
// normalizes the result (timestamps to one decimal, trimmed text). Zero
// recognized segments is its own failure, distinct from a service error.
func Transcribe(ctx context.Context, d Deps, audioPath, language string) ([]types.Segment, *errcode.Failure) {
	log := d.logger()

	if _, err := os.Stat(audioPath); err != nil {
		return nil, errcode.Failf(errcode.FileError, "audio file not found: %s", audioPath)
	}

	log.Info("transcribing audio", "audio", audioPath, "language", language)
	tr, err := d.ASR.Transcribe(ctx, audioPath, language)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrTimeout):
			return nil, errcode.Failf(errcode.WhisperTimeout, "transcription timed out: %v", err)
		case errors.Is(err, ports.ErrAPI):
			return nil, errcode.Failf(errcode.WhisperAPI, "transcription service failed: %v", err)
		default:
			return nil, errcode.Failf(errcode.WhisperModelLoad, "transcription failed: %v", err)
		}
	}

	segs := segments.Normalize(tr.Segments)
	if len(segs) == 0 {
		return nil, errcode.Failf(errcode.AudioEmpty, "no speech recognized in audio")
	}

	log.Info("transcription complete", "segments", len(segs))
	return segs, nil
}

// Translate sends the source segments to the translation service and
// recovers a validated, positionally aligned segment list from the model's
// free-form reply.
func Translate(ctx context.Context, d Deps, model, systemPrompt string, source []types.Segment) ([]types.Segment, *errcode.Failure) {
	log := d.logger()

	if len(source) == 0 {
		return nil, errcode.Failf(errcode.SubtitleEmpty, "no segments to translate")
	}
	if systemPrompt == "" {
		return nil, errcode.Failf(errcode.FileError, "translation system prompt is empty")
	}

	log.Info("translating segments", "model", model, "segments", len(source))
	reply, err := d.LLM.Complete(ctx, model, systemPrompt, segments.RenderPrompt(source))
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrTimeout):
			return nil, errcode.Failf(errcode.LLMTimeout, "translation timed out: %v", err)
		case errors.Is(err, ports.ErrAPI):
			return nil, errcode.Failf(errcode.LLMAPI, "translation service failed: %v", err)
		default:
			return nil, errcode.Failf(errcode.LLMError, "translation failed: %v", err)
		}
	}

	translated, stats, err := segments.ParseReply(reply)
	if err != nil {
		return nil, errcode.Failf(errcode.LLMError,
			"cannot recover segments from reply: %v; reply preview: %s", err, preview(reply))
	}
	if stats.Discarded > 0 {
		log.Warn("discarded unparseable reply objects", "count", stats.Discarded)
	}

	if ok, reason := segments.Validate(source, translated); !ok {
		detail := "translated segments failed validation: " + reason
		if stats.Discarded > 0 {
			detail = fmt.Sprintf("%s (%d reply objects discarded during recovery)", detail, stats.Discarded)
		}
		return nil, errcode.Failf(errcode.LLMError, "%s", detail)
	}

	log.Info("translation complete", "segments", len(translated))
	return translated, nil
}

// WriteSubtitles serializes the translated segments to an SRT file under
// dir. Individually malformed segments are skipped with a diagnostic; zero
// surviving segments is fatal.
func WriteSubtitles(d Deps, segs []types.Segment, dir string) (string, *errcode.Failure) {
	log := d.logger()

	path, skipped, err := srt.Write(segs, dir)
	for _, s := range skipped {
		log.Warn("skipping subtitle segment", "reason", s)
	}
	if err != nil {
		switch {
		case errors.Is(err, srt.ErrNoContent):
			return "", errcode.Failf(errcode.SubtitleEmpty, "no valid subtitle content to write")
		case errors.Is(err, os.ErrPermission):
			return "", errcode.Failf(errcode.PermissionDenied, "subtitle directory not writable: %v", err)
		default:
			return "", errcode.Failf(errcode.SRTSaveFailed, "subtitle write failed: %v", err)
		}
	}

	log.Info("subtitles written", "path", path, "blocks", len(segs)-len(skipped))
	return path, nil
}

// Composite burns the subtitle file into a re-encoded copy of the video.
// The source resolution is probed best-effort and reported; probe failure
// falls back to a fixed default instead of failing the stage.
func Composite(ctx context.Context, d Deps, videoPath, subtitlePath, outDir, outName string, style types.SubtitleStyle) (string, string, *errcode.Failure) {
	log := d.logger()

	if _, err := os.Stat(videoPath); err != nil {
		return "", "", errcode.Failf(errcode.FileError, "input video not found: %s", videoPath)
	}
	if _, err := os.Stat(subtitlePath); err != nil {
		return "", "", errcode.Failf(errcode.FileError, "subtitle file not found: %s", subtitlePath)
	}
	if err := d.Video.Available(); err != nil {
		return "", "", errcode.Failf(errcode.DependencyMissing, "media toolkit unavailable: %v", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return "", "", errcode.Failf(errcode.PermissionDenied, "output directory not writable: %s", outDir)
		}
		return "", "", errcode.Failf(errcode.FFmpegError, "create output directory: %v", err)
	}

	resolution := defaultResolution
	if w, h, err := d.Video.ProbeResolution(ctx, videoPath); err != nil {
		log.Warn("resolution probe failed, using default", "error", err, "default", defaultResolution)
	} else {
		resolution = fmt.Sprintf("%dx%d", w, h)
	}

	if outName == "" {
		outName = fmt.Sprintf("video_with_subtitles_%s", time.Now().Format("20060102_150405"))
	}
	outPath := filepath.Join(outDir, outName+".mp4")
	log.Info("burning subtitles", "input", videoPath, "subtitles", subtitlePath, "output", outPath)

	burnCtx, cancel := context.WithTimeout(ctx, compositeTimeout)
	defer cancel()
	if err := d.Video.BurnSubtitles(burnCtx, videoPath, subtitlePath, outPath, style); err != nil {
		if errors.Is(err, ports.ErrTimeout) {
			return "", "", errcode.Failf(errcode.FFmpegError, "subtitle burn timed out after %s", compositeTimeout)
		}
		return "", "", errcode.Failf(errcode.FFmpegError, "subtitle burn failed: %v", err)
	}
	// Toolkit success is necessary but not sufficient.
	if _, err := os.Stat(outPath); err != nil {
		return "", "", errcode.Failf(errcode.VideoEncodeFailed, "output video was not produced")
	}

	log.Info("video composited", "output", outPath, "resolution", resolution)
	return outPath, resolution, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= replyPreviewLimit {
		return s
	}
	return string(r[:replyPreviewLimit]) + "..."
}
