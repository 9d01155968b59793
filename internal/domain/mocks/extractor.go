package mocks

import (
	"context"

	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// MentionExtractor is a mock implementation of ports.MentionExtractor.
type MentionExtractor struct {
	Result *ports.ExtractionResult
	Err    error

	// LastText and LastHints capture the most recent call for assertions.
	LastText  string
	LastHints []string
	Calls     int
}

// NewMentionExtractor creates a mock extractor returning the given spans.
func NewMentionExtractor(spans ...ports.RawSpan) *MentionExtractor {
	return &MentionExtractor{
		Result: &ports.ExtractionResult{Spans: spans},
	}
}

// ExtractMentions returns the configured result or error.
func (m *MentionExtractor) ExtractMentions(_ context.Context, text string, knownAliases []string) (*ports.ExtractionResult, error) {
	m.Calls++
	m.LastText = text
	m.LastHints = knownAliases
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
