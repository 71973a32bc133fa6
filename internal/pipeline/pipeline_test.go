package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transub/internal/errcode"
	"transub/internal/stage"
	"transub/internal/types"
)

type fakeVideo struct {
	duration float64
	width    int
	height   int
	calls    int
}

func (f *fakeVideo) Available() error { return nil }

func (f *fakeVideo) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	f.calls++
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeVideo) ProbeDuration(_ context.Context, _ string) (float64, error) {
	return f.duration, nil
}

func (f *fakeVideo) ProbeResolution(_ context.Context, _ string) (int, int, error) {
	return f.width, f.height, nil
}

func (f *fakeVideo) BurnSubtitles(_ context.Context, _, _, outVideo string, _ types.SubtitleStyle) error {
	f.calls++
	return os.WriteFile(outVideo, []byte("mp4"), 0o644)
}

type fakeASR struct {
	tr     types.Transcript
	err    error
	panics bool
	calls  int
}

func (f *fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	f.calls++
	if f.panics {
		panic("transcriber fault")
	}
	return f.tr, f.err
}

type fakeLLM struct {
	reply string
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.reply, nil
}

const alignedReply = `[
	{"start": 0.0, "end": 1.5, "text": "你好"},
	{"start": 2.0, "end": 3.2, "text": "世界"}
]`

func sourceTranscript() types.Transcript {
	return types.Transcript{Segments: []types.Segment{
		{Start: 0.0, End: 1.5, Text: "hello"},
		{Start: 2.0, End: 3.2, Text: "world"},
	}}
}

type fixture struct {
	cfg   Config
	video *fakeVideo
	asr   *fakeASR
	llm   *fakeLLM
}

func newFixture(t *testing.T, mode types.OutputMode) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.mp4")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		cfg: Config{
			InputPath:        input,
			Mode:             mode,
			OutputDir:        filepath.Join(dir, "output"),
			CacheDir:         filepath.Join(dir, "cache"),
			LLMModel:         "qwen-plus",
			SystemPrompt:     "translate the segments",
			MaxAudioDuration: 1800,
		},
		video: &fakeVideo{duration: 42.5, width: 1280, height: 720},
		asr:   &fakeASR{tr: sourceTranscript()},
		llm:   &fakeLLM{reply: alignedReply},
	}
}

func (f *fixture) run(ctx context.Context) types.Result {
	deps := stage.Deps{Video: f.video, ASR: f.asr, LLM: f.llm}
	return New(f.cfg, deps, nil).Run(ctx)
}

func cacheRuns(t *testing.T, cacheDir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(cacheDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	return entries
}

func TestRun_SoftSubtitle(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	res := f.run(context.Background())

	if !res.Success {
		t.Fatalf("run failed: %s (%s)", res.Message, res.ErrorCode)
	}
	if res.TranslatedSubtitlePath == "" {
		t.Fatal("subtitle path not reported")
	}
	if _, err := os.Stat(res.TranslatedSubtitlePath); err != nil {
		t.Fatalf("subtitle file missing: %v", err)
	}
	if res.OutputVideoPath != "" {
		t.Errorf("soft mode must not produce a video, got %s", res.OutputVideoPath)
	}
	if !res.AudioExtracted || !res.WhisperHandled || !res.SubtitleExtracted {
		t.Errorf("progress flags wrong: %+v", res)
	}
	if res.AudioDuration != 42.5 {
		t.Errorf("audio duration = %v", res.AudioDuration)
	}
	if res.ProcessingTime < 0 {
		t.Errorf("processing time = %v", res.ProcessingTime)
	}
	if got := len(cacheRuns(t, f.cfg.CacheDir)); got != 0 {
		t.Errorf("cache scope not purged, %d entries remain", got)
	}
}

func TestRun_HardBurned(t *testing.T) {
	f := newFixture(t, types.ModeHardBurned)
	res := f.run(context.Background())

	if !res.Success {
		t.Fatalf("run failed: %s (%s)", res.Message, res.ErrorCode)
	}
	if res.OutputVideoPath == "" {
		t.Fatal("output video path not reported")
	}
	if _, err := os.Stat(res.OutputVideoPath); err != nil {
		t.Fatalf("output video missing: %v", err)
	}
	if res.VideoResolution != "1280x720" {
		t.Errorf("resolution = %s", res.VideoResolution)
	}
}

func TestRun_InvalidModeRejectedBeforeStages(t *testing.T) {
	f := newFixture(t, types.OutputMode("dvd"))
	res := f.run(context.Background())

	if res.Success {
		t.Fatal("invalid mode must fail the run")
	}
	if res.ErrorCode != string(errcode.InvalidInput) {
		t.Fatalf("error code = %s", res.ErrorCode)
	}
	if f.video.calls+f.asr.calls+f.llm.calls != 0 {
		t.Fatal("stages must not run for an invalid mode")
	}
	if got := len(cacheRuns(t, f.cfg.CacheDir)); got != 0 {
		t.Errorf("cache left behind, %d entries", got)
	}
}

func TestRun_SilentAudio(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	f.asr.tr = types.Transcript{}
	res := f.run(context.Background())

	if res.Success {
		t.Fatal("silent audio must fail the run")
	}
	if res.ErrorCode != string(errcode.AudioEmpty) {
		t.Fatalf("error code = %s", res.ErrorCode)
	}
	if res.WhisperHandled {
		t.Error("whisperHandled must stay false when transcription yields nothing")
	}
	if !res.AudioExtracted {
		t.Error("audioExtracted should survive into the failed result")
	}
	if res.TranslatedSubtitlePath != "" || res.OutputVideoPath != "" {
		t.Error("failed run must not report output paths")
	}
	if got := len(cacheRuns(t, f.cfg.CacheDir)); got != 0 {
		t.Errorf("cache scope not purged on failure, %d entries remain", got)
	}
	if f.llm.calls != 0 {
		t.Error("translation must not run after a transcription failure")
	}
}

func TestRun_StageFailureForwardedVerbatim(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	f.llm.reply = "not json at all"
	res := f.run(context.Background())

	if res.Success {
		t.Fatal("unparseable reply must fail the run")
	}
	if res.ErrorCode != string(errcode.LLMError) {
		t.Fatalf("error code = %s", res.ErrorCode)
	}
	if !strings.HasPrefix(res.Message, "translation failed: ") {
		t.Errorf("message = %q", res.Message)
	}
	if res.ErrorDetails == "" {
		t.Error("error details empty")
	}
}

func TestRun_PanicBecomesStructuredFailure(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	f.asr.panics = true
	res := f.run(context.Background())

	if res.Success {
		t.Fatal("panic must fail the run")
	}
	if res.ErrorCode != string(errcode.Concurrency) {
		t.Fatalf("error code = %s", res.ErrorCode)
	}
	if !strings.Contains(res.ErrorDetails, "transcriber fault") {
		t.Errorf("details = %q", res.ErrorDetails)
	}
	if got := len(cacheRuns(t, f.cfg.CacheDir)); got != 0 {
		t.Errorf("cache scope not purged after panic, %d entries remain", got)
	}
}

func TestRun_KeepCache(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	f.cfg.KeepCache = true
	res := f.run(context.Background())

	if !res.Success {
		t.Fatalf("run failed: %s", res.Message)
	}
	if got := len(cacheRuns(t, f.cfg.CacheDir)); got != 1 {
		t.Fatalf("expected cache scope to survive, found %d entries", got)
	}
}

func TestRun_DefaultLanguagePair(t *testing.T) {
	f := newFixture(t, types.ModeSoftSubtitle)
	res := f.run(context.Background())

	if res.SubtitleLanguage.Source != "auto" || res.SubtitleLanguage.Target != "zh-CN" {
		t.Errorf("language pair = %+v", res.SubtitleLanguage)
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		InputPath:        "in.mp4",
		OutputDir:        "out",
		CacheDir:         "cache",
		LLMModel:         "qwen-plus",
		MaxAudioDuration: 1800,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.InputPath = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }},
		{"empty model", func(c *Config) { c.LLMModel = "" }},
		{"zero duration limit", func(c *Config) { c.MaxAudioDuration = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if cfg.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}
