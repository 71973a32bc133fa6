// Package errcode defines the fixed error taxonomy shared by every pipeline
// stage and the code-carrying failure value stages return.
package errcode

import "fmt"

// Code identifies the kind of failure. Exactly one code is active per failed
// run; the orchestrator forwards stage codes verbatim.
type Code string

const (
	Success Code = "SUCCESS"

	FileError         Code = "FILE_ERROR"
	PermissionDenied  Code = "PERMISSION_DENIED"
	DependencyMissing Code = "DEPENDENCY_MISSING"
	InvalidInput      Code = "INVALID_INPUT_ERROR"
	ResourceLimit     Code = "RESOURCE_LIMIT_ERROR"

	AudioExtractFailed Code = "AUDIO_EXTRACT_FAILED"
	AudioEmpty         Code = "AUDIO_EMPTY_ERROR"

	WhisperTimeout    Code = "WHISPER_TIMEOUT_ERROR"
	WhisperAPI        Code = "WHISPER_API_ERROR"
	WhisperModelLoad  Code = "WHISPER_MODEL_LOAD_FAILED"

	LLMTimeout Code = "LLM_TIMEOUT_ERROR"
	LLMAPI     Code = "LLM_API_ERROR"
	LLMError   Code = "LLM_ERROR"

	SubtitleEmpty Code = "SUBTITLE_EMPTY_ERROR"
	SRTSaveFailed Code = "SRT_SAVE_FAILED"

	VideoEncodeFailed Code = "VIDEO_ENCODE_FAILED"
	FFmpegError       Code = "FFMPEG_ERROR"

	Concurrency Code = "CONCURRENCY_ERROR"
)

// Failure couples a taxonomy code with a human-readable detail string. A nil
// *Failure means the stage succeeded.
type Failure struct {
	Code   Code
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Detail)
}

// Failf builds a Failure with a formatted detail string.
func Failf(code Code, format string, args ...any) *Failure {
	return &Failure{Code: code, Detail: fmt.Sprintf(format, args...)}
}
