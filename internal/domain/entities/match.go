package entities

// EntityMatch is the result of scoring one mention against one candidate.
// Reasoning explains which signal drove the score; the hosting UI shows it
// next to the suggestion.
type EntityMatch struct {
	Entity          *PersonEntity `json:"entity"`
	Similarity      float64       `json:"similarity"`
	ContextualScore float64       `json:"contextual_score"`
	TotalConfidence float64       `json:"total_confidence"`
	Reasoning       string        `json:"reasoning"`
}

// EntityResolutionSuggestion pairs a mention with its ranked candidate
// matches. IsNewEntity is true when no match clears the auto-suggest
// threshold; SuggestedCanonicalName is then a normalized display form of
// the mention text.
type EntityResolutionSuggestion struct {
	Mention                EntityMention `json:"mention"`
	PossibleMatches        []EntityMatch `json:"possible_matches"`
	IsNewEntity            bool          `json:"is_new_entity"`
	SuggestedCanonicalName string        `json:"suggested_canonical_name,omitempty"`
}
