package chat

import (
	"reflect"
	"testing"
)

func TestRenderTextBoldAndBullets(t *testing.T) {
	lines := RenderText("Here are your options:\n* **30-Year Fixed** at 6.875%\n* 15-Year Fixed")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Bullet {
		t.Fatalf("first line should not be a bullet")
	}
	if !lines[1].Bullet || !lines[2].Bullet {
		t.Fatalf("expected bullet lines")
	}
	want := []Span{{Text: "30-Year Fixed", Bold: true}, {Text: " at 6.875%"}}
	if !reflect.DeepEqual(lines[1].Spans, want) {
		t.Fatalf("unexpected spans: %+v", lines[1].Spans)
	}
}

func TestRenderTextUnmatchedMarkerStaysLiteral(t *testing.T) {
	lines := RenderText("a **b")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if len(lines[0].Spans) != 1 || lines[0].Spans[0].Text != "a **b" {
		t.Fatalf("unmatched marker should stay literal: %+v", lines[0].Spans)
	}
}

func TestRenderTextNoMarkupPassesThrough(t *testing.T) {
	lines := RenderText("plain sentence")
	if len(lines) != 1 || lines[0].Bullet {
		t.Fatalf("unexpected structure: %+v", lines)
	}
	if lines[0].Spans[0].Text != "plain sentence" || lines[0].Spans[0].Bold {
		t.Fatalf("unexpected span: %+v", lines[0].Spans[0])
	}
}

func TestRenderTextIndentedBullet(t *testing.T) {
	lines := RenderText("  * indented item")
	if !lines[0].Bullet {
		t.Fatalf("indented bullet not recognized")
	}
	if lines[0].Spans[0].Text != "indented item" {
		t.Fatalf("unexpected bullet text: %q", lines[0].Spans[0].Text)
	}
}

func TestRenderTextEmptyLine(t *testing.T) {
	lines := RenderText("a\n\nb")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if len(lines[1].Spans) != 1 || lines[1].Spans[0].Text != "" {
		t.Fatalf("empty line should yield one empty span: %+v", lines[1].Spans)
	}
}
