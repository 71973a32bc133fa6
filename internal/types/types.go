package types

// OutputMode selects what the pipeline produces: a standalone subtitle file
// or a re-encoded video with the subtitles burned in.
type OutputMode string

const (
	ModeSoftSubtitle OutputMode = "soft_subtitle"
	ModeHardBurned   OutputMode = "hard_burned"
)

func (m OutputMode) Valid() bool {
	return m == ModeSoftSubtitle || m == ModeHardBurned
}

type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Segment is one timed span of speech. Start/End are fractional seconds;
// a well-formed segment has Start < End and non-blank Text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SubtitleStyle parameterizes the burn-in subtitle filter. Colors are names
// ("white", "black", ...) resolved to hex at invocation time.
type SubtitleStyle struct {
	FontSize     int    `toml:"font_size" json:"fontSize"`
	FontColor    string `toml:"font_color" json:"fontColor"`
	FontFamily   string `toml:"font_family" json:"fontFamily"`
	OutlineColor string `toml:"outline_color" json:"outlineColor"`
	OutlineWidth int    `toml:"outline_width" json:"outlineWidth"`
	Position     string `toml:"position" json:"position"`
}

// LanguagePair records the requested translation direction.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Result is the single value a pipeline run returns. It is created at run
// start, filled in by the stages on both success and failure paths, and
// returned exactly once; never shared across runs.
type Result struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	ProcessingTime float64    `json:"processingTime"`
	InputFile      string     `json:"inputFile"`
	OutputMode     OutputMode `json:"outputMode"`

	AudioExtracted bool    `json:"audioExtracted"`
	AudioDuration  float64 `json:"audioDuration,omitempty"`
	WhisperHandled bool    `json:"whisperHandled"`

	SubtitleExtracted bool         `json:"subtitleExtracted"`
	SubtitleLanguage  LanguagePair `json:"subtitleLanguage"`

	TranslatedSubtitlePath string `json:"translatedSubtitlePath,omitempty"`
	OutputVideoPath        string `json:"outputVideoPath,omitempty"`
	VideoResolution        string `json:"videoResolution,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}
