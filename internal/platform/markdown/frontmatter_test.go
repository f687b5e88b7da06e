package markdown_test

import (
	"strings"
	"testing"

	"examclock/internal/platform/markdown"
)

func TestRenderKeepsFieldOrderAndDecodes(t *testing.T) {
	t.Parallel()
	note, err := markdown.Render([]markdown.Field{
		{Key: "timer_id", Value: "t-1"},
		{Key: "duration", Value: "01h 30m"},
		{Key: "subjects", Value: []string{"Math HL", "Bio SL"}},
	}, "# Report\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(note, "---\ntimer_id: t-1\nduration: 01h 30m\n") {
		t.Fatalf("unexpected field order:\n%s", note)
	}

	var meta struct {
		TimerID  string   `yaml:"timer_id"`
		Subjects []string `yaml:"subjects"`
	}
	body, err := markdown.Decode(note, &meta)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.TimerID != "t-1" || len(meta.Subjects) != 2 || body != "# Report\n" {
		t.Fatalf("unexpected decode meta=%+v body=%q", meta, body)
	}
	blank, err := markdown.Render([]markdown.Field{{Key: "timer_id", Value: "t-2"}}, "\n\nspaced\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if body, err := markdown.Decode(blank, &meta); err != nil || body != "\n\nspaced\n" {
		t.Fatalf("leading blank lines of the body must survive, got %q (%v)", body, err)
	}
	if _, err := markdown.Decode("---\nbroken: true\n", &meta); err == nil {
		t.Fatalf("expected error for unterminated frontmatter")
	}
}
