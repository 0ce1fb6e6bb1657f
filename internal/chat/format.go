package chat

import "strings"

// The assistant's narrative text uses a tiny markdown subset: **bold** and
// leading "* " bullets. RenderText maps those tokens to structured nodes so
// the frontend never interprets raw markup. Anything else passes through as
// plain text.

// Span is a run of text within a line.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Line is one display line of a bot message.
type Line struct {
	Bullet bool   `json:"bullet,omitempty"`
	Spans  []Span `json:"spans"`
}

// RenderText splits a bot message into display lines, marking bullet lines
// and bold spans.
func RenderText(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		line := Line{}
		trimmed := strings.TrimLeft(l, " \t")
		if strings.HasPrefix(trimmed, "* ") {
			line.Bullet = true
			l = strings.TrimPrefix(trimmed, "* ")
		}
		line.Spans = parseSpans(l)
		lines = append(lines, line)
	}
	return lines
}

// parseSpans splits a line on ** pairs. An unmatched marker stays literal.
func parseSpans(line string) []Span {
	var spans []Span
	rest := line
	for {
		open := strings.Index(rest, "**")
		if open < 0 {
			break
		}
		close := strings.Index(rest[open+2:], "**")
		if close < 0 {
			break
		}
		if open > 0 {
			spans = append(spans, Span{Text: rest[:open]})
		}
		spans = append(spans, Span{Text: rest[open+2 : open+2+close], Bold: true})
		rest = rest[open+2+close+2:]
	}
	if rest != "" || len(spans) == 0 {
		spans = append(spans, Span{Text: rest})
	}
	return spans
}
