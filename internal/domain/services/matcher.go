package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

// MatchConfig holds the tunable weights and thresholds of the candidate
// matcher. The defaults favor lexical similarity over contextual signal.
type MatchConfig struct {
	// LexicalWeight and ContextWeight blend the two scores into the total.
	LexicalWeight float64
	ContextWeight float64

	// MinConfidence is the floor below which candidates are dropped entirely.
	MinConfidence float64

	// NewEntityThreshold is the auto-suggest-new band: a top match below it
	// is still shown but the suggestion defaults to creating a new entity.
	NewEntityThreshold float64

	// MaxMatches bounds the ranked list to keep suggestions scannable.
	MaxMatches int

	// MinFuzzyLength is the minimum mention length (in runes) for fuzzy
	// scoring; shorter mentions rely on exact/alias matches only.
	MinFuzzyLength int
}

// DefaultMatchConfig returns the default matcher tuning.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		LexicalWeight:      0.7,
		ContextWeight:      0.3,
		MinConfidence:      0.25,
		NewEntityThreshold: 0.5,
		MaxMatches:         5,
		MinFuzzyLength:     2,
	}
}

// Matcher scores mentions against known person entities.
type Matcher struct {
	cfg MatchConfig
}

// NewMatcher creates a Matcher with the given tuning.
func NewMatcher(cfg MatchConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Config returns the matcher's tuning.
func (m *Matcher) Config() MatchConfig {
	return m.cfg
}

// Match scores one mention against every candidate and returns matches
// sorted descending by total confidence, floor-filtered and truncated to
// the configured maximum. An empty candidate set returns an empty list.
func (m *Matcher) Match(mention entities.EntityMention, candidates []*entities.PersonEntity) []entities.EntityMatch {
	matches := make([]entities.EntityMatch, 0, len(candidates))

	for _, candidate := range candidates {
		match, ok := m.score(mention, candidate)
		if ok {
			matches = append(matches, match)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].TotalConfidence != matches[j].TotalConfidence {
			return matches[i].TotalConfidence > matches[j].TotalConfidence
		}
		// Ambiguous ties rank by how certain we are about the candidate itself.
		if matches[i].Entity.ConfidenceScore != matches[j].Entity.ConfidenceScore {
			return matches[i].Entity.ConfidenceScore > matches[j].Entity.ConfidenceScore
		}
		return matches[i].Entity.MentionCount > matches[j].Entity.MentionCount
	})

	if len(matches) > m.cfg.MaxMatches {
		matches = matches[:m.cfg.MaxMatches]
	}
	return matches
}

// score computes one EntityMatch. The boolean is false when the candidate
// falls below the confidence floor.
func (m *Matcher) score(mention entities.EntityMention, candidate *entities.PersonEntity) (entities.EntityMatch, bool) {
	var reasons []string

	similarity, lexicalReason := m.lexicalScore(mention.Text, candidate)
	if lexicalReason != "" {
		reasons = append(reasons, lexicalReason)
	}

	ctxScore, kind, ref := contextualScore(mention.Context, candidate)
	if ctxScore > 0 {
		if ref != "" {
			reasons = append(reasons, fmt.Sprintf("linked via %s relationship to %q", kind, ref))
		} else {
			reasons = append(reasons, fmt.Sprintf("known %s relationship matches context", kind))
		}
	}

	total := m.cfg.LexicalWeight*similarity + m.cfg.ContextWeight*ctxScore
	total = clamp01(total)
	if total < m.cfg.MinConfidence {
		return entities.EntityMatch{}, false
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("%.0f%% overall confidence", total*100))
	}

	return entities.EntityMatch{
		Entity:          candidate,
		Similarity:      similarity,
		ContextualScore: ctxScore,
		TotalConfidence: total,
		Reasoning:       strings.Join(reasons, "; "),
	}, true
}

// lexicalScore returns the name similarity for a candidate and the reason
// behind it. Exact hits on canonical name, display name, or an alias score
// 1.0; otherwise the best fuzzy similarity across all names is used, unless
// the mention is too short to score reliably.
func (m *Matcher) lexicalScore(text string, candidate *entities.PersonEntity) (float64, string) {
	normalized := entities.NormalizeName(text)
	if normalized == "" {
		return 0, ""
	}

	if entities.NormalizeName(candidate.CanonicalName) == normalized {
		return 1.0, "exact match on canonical name"
	}
	if candidate.DisplayName != "" && entities.NormalizeName(candidate.DisplayName) == normalized {
		return 1.0, "exact match on display name"
	}
	if candidate.HasAlias(text) {
		return 1.0, "exact alias match"
	}

	if utf8.RuneCountInString(normalized) < m.cfg.MinFuzzyLength {
		return 0, ""
	}

	best := 0.0
	bestName := ""
	for _, name := range candidate.AllNames() {
		if score := Similarity(text, name); score > best {
			best = score
			bestName = name
		}
	}
	if best == 0 {
		return 0, ""
	}
	return best, fmt.Sprintf("%.0f%% name similarity to %q", best*100, bestName)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
