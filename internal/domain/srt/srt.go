// Package srt renders timed text segments into SubRip subtitle files.
package srt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transub/internal/types"
)

// ErrNoContent is returned when no segment survives filtering; an empty
// subtitle file is a pipeline failure, not a warning.
var ErrNoContent = errors.New("no subtitle content")

const filePrefix = "subtitle"

// Render produces the full SRT body for the given segments. Segments with a
// non-positive time span or blank text are skipped individually; surviving
// blocks are numbered 1..N in input order. The returned diagnostics name
// each skipped segment by its input position.
func Render(segments []types.Segment) (string, []string, error) {
	var (
		b       strings.Builder
		skipped []string
		n       int
	)
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		switch {
		case seg.End <= seg.Start:
			skipped = append(skipped, fmt.Sprintf("segment %d: non-positive span %.3f..%.3f", i+1, seg.Start, seg.End))
			continue
		case text == "":
			skipped = append(skipped, fmt.Sprintf("segment %d: blank text", i+1))
			continue
		}
		n++
		if n > 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", n, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
	}
	if n == 0 {
		return "", skipped, ErrNoContent
	}
	return b.String(), skipped, nil
}

// Write renders the segments and stores them under dir, creating the
// directory as needed. The filename combines a timestamp with a short hash
// suffix so near-simultaneous runs cannot collide. Skip diagnostics from
// rendering are passed through for the caller to log.
func Write(segments []types.Segment, dir string) (string, []string, error) {
	body, skipped, err := Render(segments)
	if err != nil {
		return "", skipped, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", skipped, fmt.Errorf("create subtitle dir: %w", err)
	}
	path := filepath.Join(dir, fileName(time.Now()))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", skipped, fmt.Errorf("write subtitle file: %w", err)
	}
	return path, skipped, nil
}

func fileName(now time.Time) string {
	ts := now.Format("20060102_150405")
	seed := fmt.Sprintf("%s|%d", ts, now.UnixNano())
	sum := sha256.Sum256([]byte(seed))
	return fmt.Sprintf("%s_%s_%s.srt", filePrefix, ts, hex.EncodeToString(sum[:])[:6])
}
