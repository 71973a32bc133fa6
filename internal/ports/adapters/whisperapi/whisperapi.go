// Package whisperapi adapts an OpenAI-compatible speech-to-text HTTP
// service to the Transcriber port.
package whisperapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transub/internal/ports"
	"transub/internal/types"
)

const defaultTimeout = 5 * time.Minute

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "whisper-1"
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient overrides the default HTTP client (tests).
func (a *Adapter) WithHTTPClient(c *http.Client) {
	if c != nil {
		a.client = c
	}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and requests segment-level timestamps.
// Language is a hint; the service may auto-detect.
func (a *Adapter) Transcribe(ctx context.Context, audioPath, language string) (types.Transcript, error) {
	body, contentType, err := buildForm(audioPath, a.model, language)
	if err != nil {
		return types.Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("%w: %v", ports.ErrAPI, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isClientTimeout(err) {
			return types.Transcript{}, fmt.Errorf("%w: transcription request", ports.ErrTimeout)
		}
		return types.Transcript{}, fmt.Errorf("%w: %v", ports.ErrAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.Transcript{}, fmt.Errorf("%w: status %d: %s", ports.ErrAPI, resp.StatusCode, redact(string(rb), a.key))
	}

	var raw transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Transcript{}, fmt.Errorf("%w: decode response: %v", ports.ErrAPI, err)
	}

	tr := types.Transcript{Segments: make([]types.Segment, 0, len(raw.Segments))}
	for _, s := range raw.Segments {
		tr.Segments = append(tr.Segments, types.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return tr, nil
}

func buildForm(audioPath, model, language string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	_ = w.WriteField("model", model)
	_ = w.WriteField("response_format", "verbose_json")
	if language != "" && language != "auto" {
		_ = w.WriteField("language", language)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func redact(s, apiKey string) string {
	if apiKey != "" {
		s = strings.ReplaceAll(s, apiKey, "[REDACTED]")
	}
	if len(s) > 400 {
		s = s[:400]
	}
	return s
}
