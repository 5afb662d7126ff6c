package lexer

import "strings"

// Line is one meaningful source line split into whitespace-delimited words.
type Line struct {
	Number int
	Text   string
	Words  []string
}

// Lines returns the non-blank, non-comment lines of src. Trailing // comments
// are stripped before splitting.
func Lines(src string) []Line {
	var out []Line
	for i, raw := range strings.Split(src, "\n") {
		text := raw
		if idx := strings.Index(text, "//"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, Line{Number: i + 1, Text: text, Words: strings.Fields(text)})
	}
	return out
}

// LineAt returns the 1-based line n of src without its line ending, or ""
// when n is out of range.
func LineAt(src string, n int) string {
	lines := strings.Split(src, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}
