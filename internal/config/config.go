// Package config loads the application configuration: defaults, an
// optional TOML file, then environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"transub/internal/types"
)

const (
	// DefaultMaxAudioDuration bounds extracted audio to 30 minutes.
	DefaultMaxAudioDuration = 1800.0
	// DefaultMaxVideoSize bounds input files to 2 GiB.
	DefaultMaxVideoSize = int64(2) << 30
)

type Config struct {
	Paths   Paths               `toml:"paths"`
	Log     Log                 `toml:"log"`
	Whisper Whisper             `toml:"whisper"`
	LLM     LLM                 `toml:"llm"`
	Limits  Limits              `toml:"limits"`
	Style   types.SubtitleStyle `toml:"subtitle_style"`
	Toolkit Toolkit             `toml:"toolkit"`
}

type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Whisper struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

type LLM struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	TargetLanguage   string `toml:"target_language"`
	SystemPromptFile string `toml:"system_prompt_file"`
}

type Limits struct {
	MaxAudioDurationSec float64 `toml:"max_audio_duration_sec"`
	MaxVideoSizeBytes   int64   `toml:"max_video_size_bytes"`
}

type Toolkit struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: "output",
			CacheDir:  "cache",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Whisper: Whisper{
			BaseURL:  "https://api.uniapi.vip/v1",
			Model:    "whisper-1",
			Language: "auto",
		},
		LLM: LLM{
			BaseURL:        "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:          "qwen-plus",
			TargetLanguage: "zh-CN",
		},
		Limits: Limits{
			MaxAudioDurationSec: DefaultMaxAudioDuration,
			MaxVideoSizeBytes:   DefaultMaxVideoSize,
		},
		Style: types.SubtitleStyle{
			FontSize:     55,
			FontColor:    "black",
			FontFamily:   "SimHei",
			OutlineColor: "white",
			OutlineWidth: 2,
			Position:     "bottom_center",
		},
		Toolkit: Toolkit{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path when
// one exists, and environment overrides. A missing file is an error only
// when the path was given explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// Optional default-location file; defaults stand.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Whisper.APIKey, "WHISPER_API_KEY")
	setIfEnv(&c.Whisper.BaseURL, "WHISPER_BASE_URL")
	setIfEnv(&c.Whisper.Model, "WHISPER_MODEL")
	setIfEnv(&c.LLM.APIKey, "DASHSCOPE_API_KEY")
	setIfEnv(&c.LLM.BaseURL, "DASHSCOPE_BASE_URL")
	setIfEnv(&c.LLM.Model, "TRANSUB_LLM_MODEL")
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports settings a run cannot start without.
func (c Config) Validate() error {
	if c.Whisper.APIKey == "" {
		return errors.New("whisper api key is required (WHISPER_API_KEY or [whisper].api_key)")
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm api key is required (DASHSCOPE_API_KEY or [llm].api_key)")
	}
	if c.Whisper.BaseURL == "" || c.LLM.BaseURL == "" {
		return errors.New("service base urls must not be empty")
	}
	if c.Limits.MaxAudioDurationSec <= 0 {
		return errors.New("max audio duration must be > 0")
	}
	if c.Limits.MaxVideoSizeBytes <= 0 {
		return errors.New("max video size must be > 0")
	}
	return nil
}

// SystemPrompt returns the translation instruction: the built-in prompt, or
// the contents of the configured override file.
func (c Config) SystemPrompt() (string, error) {
	if c.LLM.SystemPromptFile == "" {
		return defaultSystemPrompt(c.LLM.TargetLanguage), nil
	}
	b, err := os.ReadFile(c.LLM.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("read system prompt file: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", c.LLM.SystemPromptFile)
	}
	return prompt, nil
}

func defaultSystemPrompt(target string) string {
	if target == "" {
		target = "zh-CN"
	}
	return fmt.Sprintf(`You are a subtitle translator. Translate the "text" field of every segment the user provides into %s.

Rules:
- Reply with a JSON array of segments and nothing else.
- Keep exactly the same number of segments, in the same order.
- Copy each segment's "start" and "end" values unchanged.
- Each translated "text" must be non-empty.
- Translate naturally; do not transliterate names of well-known people or places when an established translation exists.`, target)
}
