// Package pipeline sequences the translation stages and owns the run
// result: audio extraction, transcription, translation, subtitle
// serialization and, in hard-burn mode, video compositing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"transub/internal/errcode"
	"transub/internal/stage"
	"transub/internal/types"
)

// Config carries everything one run needs. It is constructed explicitly by
// the caller; the orchestrator holds no process-wide state.
type Config struct {
	InputPath string
	Mode      types.OutputMode

	// OutputDir is the root under which subtitles/ and videos/ are created.
	OutputDir string
	// CacheDir is the root scratch area; every run works in its own
	// sub-scope and purges only that scope.
	CacheDir string
	// KeepCache skips the purge at the end of the run.
	KeepCache bool

	LLMModel     string
	SystemPrompt string

	SourceLanguage string
	TargetLanguage string

	// MaxAudioDuration bounds the extracted audio length, in seconds.
	MaxAudioDuration float64

	Style types.SubtitleStyle
}

// Validate reports configuration problems that should stop a run before it
// starts. Output-mode validation is intentionally not here: an invalid mode
// must surface as a structured pipeline result, not a config error.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is empty")
	}
	if c.OutputDir == "" {
		return errors.New("output dir is empty")
	}
	if c.CacheDir == "" {
		return errors.New("cache dir is empty")
	}
	if c.LLMModel == "" {
		return errors.New("llm model is required")
	}
	if c.MaxAudioDuration <= 0 {
		return errors.New("max audio duration must be > 0")
	}
	return nil
}

type Orchestrator struct {
	cfg  Config
	deps stage.Deps
	log  *slog.Logger
}

func New(cfg Config, deps stage.Deps, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	deps.Log = log
	return &Orchestrator{cfg: cfg, deps: deps, log: log}
}

// Run executes the pipeline strictly sequentially and returns the single
// structured result. Any stage failure is terminal; its code and detail are
// forwarded verbatim. The run's cache scope is purged on every path out,
// and elapsed time is recorded just before that purge, success or failure.
func (o *Orchestrator) Run(ctx context.Context) (res types.Result) {
	start := time.Now()
	res = types.Result{
		InputFile:  o.cfg.InputPath,
		OutputMode: o.cfg.Mode,
		SubtitleLanguage: types.LanguagePair{
			Source: defaultString(o.cfg.SourceLanguage, "auto"),
			Target: defaultString(o.cfg.TargetLanguage, "zh-CN"),
		},
	}

	runCache := filepath.Join(o.cfg.CacheDir, "runs", uuid.NewString())

	// Deferred in this order so they run: recover, then elapsed-time
	// stamping, then cache purge.
	defer o.purge(runCache)
	defer func() {
		res.ProcessingTime = round2(time.Since(start).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("unexpected pipeline fault", "panic", r)
			fail(&res, errcode.Failf(errcode.Concurrency, "unexpected pipeline fault: %v", r), "pipeline fault")
		}
	}()

	o.log.Info("starting translation run", "input", o.cfg.InputPath, "mode", o.cfg.Mode, "cache", runCache)

	if !o.cfg.Mode.Valid() {
		fail(&res, errcode.Failf(errcode.InvalidInput, "unsupported output mode: %q", o.cfg.Mode), "input validation failed")
		return res
	}
	if err := os.MkdirAll(runCache, 0o755); err != nil {
		fail(&res, errcode.Failf(errcode.FileError, "create cache scope: %v", err), "input validation failed")
		return res
	}

	audioPath, duration, f := stage.ExtractAudio(ctx, o.deps, o.cfg.InputPath, runCache, o.cfg.MaxAudioDuration)
	res.AudioDuration = duration
	if f != nil {
		fail(&res, f, "audio extraction failed")
		return res
	}
	res.AudioExtracted = true

	source, f := stage.Transcribe(ctx, o.deps, audioPath, res.SubtitleLanguage.Source)
	if f != nil {
		fail(&res, f, "speech recognition failed")
		return res
	}
	res.WhisperHandled = true

	translated, f := stage.Translate(ctx, o.deps, o.cfg.LLMModel, o.cfg.SystemPrompt, source)
	if f != nil {
		fail(&res, f, "translation failed")
		return res
	}

	subtitlePath, f := stage.WriteSubtitles(o.deps, translated, filepath.Join(o.cfg.OutputDir, "subtitles"))
	if f != nil {
		fail(&res, f, "subtitle generation failed")
		return res
	}
	res.SubtitleExtracted = true

	switch o.cfg.Mode {
	case types.ModeSoftSubtitle:
		res.TranslatedSubtitlePath = subtitlePath
	case types.ModeHardBurned:
		videoPath, resolution, f := stage.Composite(ctx, o.deps,
			o.cfg.InputPath, subtitlePath, filepath.Join(o.cfg.OutputDir, "videos"), "", o.cfg.Style)
		if f != nil {
			fail(&res, f, "video compositing failed")
			return res
		}
		res.OutputVideoPath = videoPath
		res.VideoResolution = resolution
	}

	res.Success = true
	res.Message = "translation completed"
	o.log.Info("translation run finished", "mode", o.cfg.Mode)
	return res
}

// purge removes the run's cache scope. Its own failure is logged but never
// escalated; cleanup cannot turn a successful run into a failed one.
func (o *Orchestrator) purge(runCache string) {
	if o.cfg.KeepCache {
		o.log.Info("keeping cache scope", "cache", runCache)
		return
	}
	if err := os.RemoveAll(runCache); err != nil {
		o.log.Warn("cache cleanup failed", "cache", runCache, "error", err)
		return
	}
	o.log.Debug("cache scope purged", "cache", runCache)
}

func fail(res *types.Result, f *errcode.Failure, summary string) {
	res.Success = false
	res.Message = fmt.Sprintf("%s: %s", summary, f.Detail)
	res.ErrorCode = string(f.Code)
	res.ErrorDetails = f.Detail
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
