package entities

import (
	"fmt"
	"unicode/utf8"
)

// EntityMention is a single occurrence of a name-like string in narrative
// text. StartIndex and EndIndex are character offsets into the source text;
// Context is a bounded window of surrounding text used for disambiguation.
type EntityMention struct {
	Text       string `json:"text"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Context    string `json:"context"`
}

// Validate checks the offset invariant 0 <= start < end <= len(source).
func (m EntityMention) Validate(sourceLen int) error {
	if m.StartIndex < 0 || m.StartIndex >= m.EndIndex || m.EndIndex > sourceLen {
		return fmt.Errorf("invalid mention offsets [%d, %d) for text of length %d", m.StartIndex, m.EndIndex, sourceLen)
	}
	return nil
}

// ContextWindow extracts a window of up to radius bytes on each side of the
// [start, end) span, clamped to the text bounds. Window edges landing inside
// a multi-byte rune shrink inward to the nearest boundary so the result is
// always valid UTF-8.
func ContextWindow(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for lo < hi && !utf8.RuneStart(text[lo]) {
		lo++
	}
	for hi > lo && hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi--
	}
	if lo >= hi {
		return ""
	}
	return text[lo:hi]
}
