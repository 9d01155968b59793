package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

func person(name string, aliases ...string) *entities.PersonEntity {
	return &entities.PersonEntity{
		ID:            "id-" + entities.NormalizeName(name),
		UserID:        "marc",
		CanonicalName: name,
		Aliases:       aliases,
	}
}

func TestMatchExactAlias(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())
	caroline := person("Caroline Cadario", "Caro")
	kevin := person("Kevin")

	mention := entities.EntityMention{Text: "Caro", Context: "Caro est arrivée"}
	matches := matcher.Match(mention, []*entities.PersonEntity{kevin, caroline})

	require.NotEmpty(t, matches)
	assert.Equal(t, caroline.ID, matches[0].Entity.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 0.001)
	assert.Contains(t, matches[0].Reasoning, "exact alias match")
}

func TestMatchNicknameWithKinshipContext(t *testing.T) {
	// "Caro" has never been recorded for Caroline, but the mention sits next
	// to "ma femme" and Caroline is a known spouse. The blended confidence
	// must clear the new-entity threshold so linking is the default.
	matcher := NewMatcher(DefaultMatchConfig())
	caroline := person("Caroline Cadario")
	caroline.AddRelationship(entities.RelationSpouse, "Marc")

	mention := entities.EntityMention{
		Text:    "Caro",
		Context: "Ma femme Caro et moi sommes allés voir Tom.",
	}
	matches := matcher.Match(mention, []*entities.PersonEntity{caroline})

	require.Len(t, matches, 1)
	match := matches[0]
	assert.InDelta(t, 0.5, match.Similarity, 0.001)
	assert.InDelta(t, 0.8, match.ContextualScore, 0.001)
	assert.InDelta(t, 0.59, match.TotalConfidence, 0.001)
	assert.Greater(t, match.TotalConfidence, DefaultMatchConfig().NewEntityThreshold)
	assert.Contains(t, match.Reasoning, "spouse")
}

func TestMatchShortMentionNeverFuzzy(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())
	karl := person("Karl")

	// A single-letter mention can only hit via exact name or alias.
	mention := entities.EntityMention{Text: "K"}
	assert.Empty(t, matcher.Match(mention, []*entities.PersonEntity{karl}))

	karl.Aliases = []string{"K"}
	matches := matcher.Match(mention, []*entities.PersonEntity{karl})
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Similarity, 0.001)
}

func TestMatchFloorFiltersWeakCandidates(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())
	unrelated := person("Zbigniew")

	mention := entities.EntityMention{Text: "Tom"}
	assert.Empty(t, matcher.Match(mention, []*entities.PersonEntity{unrelated}))
}

func TestMatchTruncatesToMaxMatches(t *testing.T) {
	cfg := DefaultMatchConfig()
	matcher := NewMatcher(cfg)

	candidates := make([]*entities.PersonEntity, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, person(fmt.Sprintf("Caroline %d", i), "Caroline"))
	}

	mention := entities.EntityMention{Text: "Caroline"}
	matches := matcher.Match(mention, candidates)
	assert.Len(t, matches, cfg.MaxMatches)
}

func TestMatchOrdersByConfidence(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())

	exact := person("Tom")
	fuzzy := person("Tomas")

	mention := entities.EntityMention{Text: "Tom"}
	matches := matcher.Match(mention, []*entities.PersonEntity{fuzzy, exact})

	require.Len(t, matches, 2)
	assert.Equal(t, exact.ID, matches[0].Entity.ID)
	assert.Greater(t, matches[0].TotalConfidence, matches[1].TotalConfidence)
}

func TestMatchTieBreaksOnEntityConfidence(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())

	established := person("Tom")
	established.ID = "id-established"
	established.ConfidenceScore = 0.95
	established.MentionCount = 12

	tentative := person("Tom")
	tentative.ID = "id-tentative"
	tentative.ConfidenceScore = 0.4

	mention := entities.EntityMention{Text: "Tom"}
	matches := matcher.Match(mention, []*entities.PersonEntity{tentative, established})

	require.Len(t, matches, 2)
	assert.Equal(t, "id-established", matches[0].Entity.ID)
}

func TestMatchEmptyCandidates(t *testing.T) {
	matcher := NewMatcher(DefaultMatchConfig())
	mention := entities.EntityMention{Text: "Kevin"}

	matches := matcher.Match(mention, nil)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}
