package ports

import "context"

// RawSpan is one candidate name span reported by the extraction collaborator.
type RawSpan struct {
	Text       string `json:"text"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// ExtractionResult is the validated output of mention extraction.
// Partial is true when some of the collaborator's output was malformed and
// had to be dropped; Dropped counts the discarded spans.
type ExtractionResult struct {
	Spans   []RawSpan
	Dropped int
	Partial bool
}

// MentionExtractor is the NLP/LLM collaborator that finds name-like spans
// in narrative text. knownAliases may be passed as a hint and may be empty.
// Implementations must tolerate malformed model output and report it through
// the result rather than failing the call.
type MentionExtractor interface {
	ExtractMentions(ctx context.Context, text string, knownAliases []string) (*ExtractionResult, error)
}
