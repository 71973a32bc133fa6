package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"transub/internal/config"
	"transub/internal/logging"
	"transub/internal/pipeline"
	"transub/internal/ports"
	"transub/internal/ports/adapters/dashscope"
	"transub/internal/ports/adapters/ffmpeg"
	"transub/internal/ports/adapters/whisperapi"
	"transub/internal/stage"
	"transub/internal/types"
)

// ensure adapters implement ports
var (
	_ ports.VideoTool   = (*ffmpeg.Adapter)(nil)
	_ ports.Transcriber = (*whisperapi.Adapter)(nil)
	_ ports.Translator  = (*dashscope.Adapter)(nil)
)

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	model, _ := cmd.Flags().GetString("model")
	asJSON, _ := cmd.Flags().GetBool("json")
	keepCache, _ := cmd.Flags().GetBool("keep-cache")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")

	mode := types.ModeSoftSubtitle
	if len(args) == 2 {
		mode = types.OutputMode(args[1])
	}

	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Paths.OutputDir = outputDir
	}
	if model != "" {
		cfg.LLM.Model = model
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := validateInput(inputPath, cfg.Limits.MaxVideoSizeBytes); err != nil {
		return err
	}

	systemPrompt, err := cfg.SystemPrompt()
	if err != nil {
		return err
	}

	deps := stage.Deps{
		Video: ffmpeg.New(cfg.Toolkit.FFmpegPath, cfg.Toolkit.FFprobePath),
		ASR:   whisperapi.New(cfg.Whisper.APIKey, cfg.Whisper.Model, cfg.Whisper.BaseURL),
		LLM:   dashscope.New(cfg.LLM.APIKey, cfg.LLM.BaseURL),
	}

	pcfg := pipeline.Config{
		InputPath:        inputPath,
		Mode:             mode,
		OutputDir:        cfg.Paths.OutputDir,
		CacheDir:         cfg.Paths.CacheDir,
		KeepCache:        keepCache,
		LLMModel:         cfg.LLM.Model,
		SystemPrompt:     systemPrompt,
		SourceLanguage:   cfg.Whisper.Language,
		TargetLanguage:   cfg.LLM.TargetLanguage,
		MaxAudioDuration: cfg.Limits.MaxAudioDurationSec,
		Style:            cfg.Style,
	}
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	orc := pipeline.New(pcfg, deps, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := orc.Run(ctx)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res))
	}

	if ctx.Err() != nil {
		return errInterrupted
	}
	if !res.Success {
		return fmt.Errorf("translation failed: %s", res.ErrorCode)
	}
	return nil
}

// validateInput rejects obviously unusable inputs before any stage runs:
// missing files, directories, unsupported containers, over-size files.
func validateInput(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory: %s", path)
	}
	if !types.SupportedVideoFile(path) {
		return fmt.Errorf("unsupported video format %q (supported: %v)", filepath.Ext(path), types.SupportedVideoExtensions)
	}
	if info.Size() > maxSize {
		return fmt.Errorf("input file too large: %d bytes > %d bytes", info.Size(), maxSize)
	}
	return nil
}
