package segments

import (
	"strings"
	"testing"
)

func TestParseReply_WholeArray(t *testing.T) {
	reply := `[
		{"start": 0.0, "end": 1.5, "text": "你好"},
		{"start": 2.0, "end": 3.2, "text": "世界"}
	]`
	segs, stats, err := ParseReply(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stats.Discarded != 0 {
		t.Fatalf("unexpected discards: %d", stats.Discarded)
	}
	if len(segs) != 2 || segs[0].Text != "你好" || segs[1].Start != 2.0 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestParseReply_FencedArray(t *testing.T) {
	reply := "```json\n[{\"start\": 1, \"end\": 2, \"text\": \"a\"}]\n```"
	segs, _, err := ParseReply(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segs) != 1 || segs[0].End != 2 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestParseReply_ArrayWithMissingField(t *testing.T) {
	reply := `[{"start": 0, "end": 1, "text": "ok"}, {"start": 2, "end": 3}]`
	_, _, err := ParseReply(reply)
	if err == nil {
		t.Fatal("expected error for incomplete array element")
	}
	if !strings.Contains(err.Error(), "segment 2") {
		t.Fatalf("error should name the offending index: %v", err)
	}
}

func TestParseReply_ObjectRecovery(t *testing.T) {
	reply := `Here is your translation:
{"start": 0.0, "end": 1.5, "text": "第一句"}
some chatter in between,
{"start": 2.0, "end": 3.2, "text": "第二句"}
hope that helps!`
	segs, stats, err := ParseReply(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stats.Discarded != 0 {
		t.Fatalf("unexpected discards: %d", stats.Discarded)
	}
	if len(segs) != 2 || segs[1].Text != "第二句" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestParseReply_DiscardsMalformedObjects(t *testing.T) {
	// The second object matches the shape pattern but is not valid JSON.
	reply := `{"start": 0.0, "end": 1.0, "text": "good"}
{"start": oops, "end": 2.0, "text": "bad"}`
	segs, stats, err := ParseReply(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 recovered segment, got %+v", segs)
	}
	if stats.Discarded != 1 {
		t.Fatalf("expected 1 discarded object, got %d", stats.Discarded)
	}
}

func TestParseReply_NothingRecoverable(t *testing.T) {
	for _, reply := range []string{
		"",
		"I cannot translate this.",
		`{"foo": 1}`,
	} {
		if _, _, err := ParseReply(reply); err == nil {
			t.Errorf("ParseReply(%q) succeeded, want error", reply)
		}
	}
}

func TestParseReply_AllObjectsDiscarded(t *testing.T) {
	reply := `{"start": nope, "end": 1.0, "text": "x"}`
	_, _, err := ParseReply(reply)
	if err == nil {
		t.Fatal("expected error when every object is discarded")
	}
	if !strings.Contains(err.Error(), "1 discarded") {
		t.Fatalf("error should report the discard count: %v", err)
	}
}
