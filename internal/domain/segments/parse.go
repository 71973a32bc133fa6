package segments

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"transub/internal/types"
)

// objectPattern matches one JSON-shaped object carrying start, end and text
// keys in order. Used only when the reply is not a clean JSON array.
var objectPattern = regexp.MustCompile(`(?s)\{[^{}]*"start"[^{}]*"end"[^{}]*"text"[^{}]*\}`)

// ParseStats reports what the fallback recovery had to discard, so a later
// validation failure can explain how lossy the reply was.
type ParseStats struct {
	// Discarded counts pattern matches that failed to parse as JSON or
	// lacked a required field.
	Discarded int
}

type rawSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  *string  `json:"text"`
}

func (r rawSegment) complete() bool {
	return r.Start != nil && r.End != nil && r.Text != nil
}

// ParseReply recovers translated segments from a model's free-form reply.
// It first attempts to parse the whole reply (minus markdown fences) as a
// JSON array; failing that, it extracts every segment-shaped object by
// pattern search and parses each independently, discarding the ones that do
// not decode. An error is returned only when nothing usable is recovered.
func ParseReply(reply string) ([]types.Segment, ParseStats, error) {
	var stats ParseStats

	body := stripFences(reply)
	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		var raws []rawSegment
		if err := json.Unmarshal([]byte(body), &raws); err == nil {
			segs := make([]types.Segment, 0, len(raws))
			for i, r := range raws {
				if !r.complete() {
					return nil, stats, fmt.Errorf("segment %d: missing start, end or text", i+1)
				}
				segs = append(segs, types.Segment{Start: *r.Start, End: *r.End, Text: *r.Text})
			}
			return segs, stats, nil
		}
	}

	matches := objectPattern.FindAllString(body, -1)
	if len(matches) == 0 {
		return nil, stats, fmt.Errorf("no segment-shaped objects in reply")
	}

	segs := make([]types.Segment, 0, len(matches))
	for _, m := range matches {
		var r rawSegment
		if err := json.Unmarshal([]byte(m), &r); err != nil || !r.complete() {
			stats.Discarded++
			continue
		}
		segs = append(segs, types.Segment{Start: *r.Start, End: *r.End, Text: *r.Text})
	}
	if len(segs) == 0 {
		return nil, stats, fmt.Errorf("no parseable segment objects in reply (%d discarded)", stats.Discarded)
	}
	return segs, stats, nil
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	if j := strings.LastIndex(t, "```"); j >= 0 {
		t = t[:j]
	}
	return strings.TrimSpace(t)
}
