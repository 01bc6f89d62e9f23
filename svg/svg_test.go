package svg

import (
	"strings"
	"testing"

	"github.com/nasa-jpl/m210/notetaker/note"
)

func TestWrite_SinglePath(t *testing.T) {
	n := &note.Note{
		Number: 1,
		State:  note.Unfinished,
		Paths:  []note.Path{{{X: 0, Y: 0}, {X: 10, Y: 20}}},
	}

	var buf strings.Builder
	if err := Write(&buf, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatalf("missing svg envelope: %s", out)
	}
	if !strings.Contains(out, "M10,10") {
		t.Fatalf("expected path to start at the margin-shifted origin, got: %s", out)
	}
	if strings.Count(out, "<path") != 1 {
		t.Fatalf("expected exactly one path element, got: %s", out)
	}
}

func TestWrite_EmptyNoteProducesMinimalCanvas(t *testing.T) {
	n := &note.Note{Number: 2, State: note.Empty}

	var buf strings.Builder
	if err := Write(&buf, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<path") {
		t.Fatalf("expected no path elements for an empty note, got: %s", out)
	}
	if !strings.Contains(out, `width="20" height="20"`) {
		t.Fatalf("expected a minimal 2*margin canvas, got: %s", out)
	}
}

func TestWrite_SkipsEmptyPaths(t *testing.T) {
	n := &note.Note{
		Paths: []note.Path{nil, {{X: 1, Y: 1}}},
	}

	var buf strings.Builder
	if err := Write(&buf, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(buf.String(), "<path") != 1 {
		t.Fatalf("expected the nil path to be skipped, got: %s", buf.String())
	}
}
