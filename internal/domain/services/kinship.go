package services

import (
	"strings"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

// kinshipCues maps kinship words found in mention context to the
// relationship role the mentioned person would play. Memoirs in this
// product are written in French or English, so both vocabularies are
// covered. "leur mère" means the mention is someone's parent, so the cue
// maps to RelationParent.
var kinshipCues = map[string]entities.RelationKind{
	"mère":    entities.RelationParent,
	"mere":    entities.RelationParent,
	"maman":   entities.RelationParent,
	"père":    entities.RelationParent,
	"pere":    entities.RelationParent,
	"papa":    entities.RelationParent,
	"mother":  entities.RelationParent,
	"mom":     entities.RelationParent,
	"father":  entities.RelationParent,
	"dad":     entities.RelationParent,
	"parents": entities.RelationParent,

	"fils":     entities.RelationChild,
	"fille":    entities.RelationChild,
	"enfant":   entities.RelationChild,
	"enfants":  entities.RelationChild,
	"son":      entities.RelationChild,
	"daughter": entities.RelationChild,
	"children": entities.RelationChild,

	"femme":   entities.RelationSpouse,
	"épouse":  entities.RelationSpouse,
	"epouse":  entities.RelationSpouse,
	"mari":    entities.RelationSpouse,
	"époux":   entities.RelationSpouse,
	"epoux":   entities.RelationSpouse,
	"wife":    entities.RelationSpouse,
	"husband": entities.RelationSpouse,

	"frère":   entities.RelationSibling,
	"frere":   entities.RelationSibling,
	"sœur":    entities.RelationSibling,
	"soeur":   entities.RelationSibling,
	"brother": entities.RelationSibling,
	"sister":  entities.RelationSibling,

	"ami":    entities.RelationFriend,
	"amie":   entities.RelationFriend,
	"copain": entities.RelationFriend,
	"copine": entities.RelationFriend,
	"friend": entities.RelationFriend,

	"collègue":  entities.RelationColleague,
	"collegue":  entities.RelationColleague,
	"colleague": entities.RelationColleague,

	"grand-mère":  entities.RelationGrandparent,
	"grand-mere":  entities.RelationGrandparent,
	"grand-père":  entities.RelationGrandparent,
	"grand-pere":  entities.RelationGrandparent,
	"mamie":       entities.RelationGrandparent,
	"papi":        entities.RelationGrandparent,
	"grandmother": entities.RelationGrandparent,
	"grandfather": entities.RelationGrandparent,

	"petit-fils":    entities.RelationGrandchild,
	"petite-fille":  entities.RelationGrandchild,
	"grandson":      entities.RelationGrandchild,
	"granddaughter": entities.RelationGrandchild,
}

// kinshipKindsInContext returns the relationship roles suggested by kinship
// words in a context window, in order of first appearance.
func kinshipKindsInContext(context string) []entities.RelationKind {
	seen := make(map[entities.RelationKind]bool)
	var kinds []entities.RelationKind
	for _, token := range contextTokens(context) {
		kind, ok := kinshipCues[token]
		if !ok || seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds
}

// contextTokens lowercases and splits a context window, trimming punctuation
// but keeping interior hyphens so compounds like "grand-mère" survive.
func contextTokens(context string) []string {
	fields := strings.Fields(strings.ToLower(context))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, ".,;:!?\"'()[]«»…")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// contextualScore scores a candidate against the relational signal in a
// mention's context. A kinship cue whose role the candidate is known to play
// scores 0.8; if one of the candidate's relationship references also appears
// in the window, the signal is corroborated and scores 1.0. Returns the
// matched kind and corroborating reference for the reasoning string.
func contextualScore(context string, candidate *entities.PersonEntity) (float64, entities.RelationKind, string) {
	if candidate.Relationships == nil {
		return 0, "", ""
	}

	normalizedContext := strings.ToLower(context)
	bestScore := 0.0
	var bestKind entities.RelationKind
	bestRef := ""

	for _, kind := range kinshipKindsInContext(context) {
		refs := candidate.Relationships[kind]
		if len(refs) == 0 {
			continue
		}
		score := 0.8
		ref := ""
		for _, r := range refs {
			if name := entities.NormalizeName(r); name != "" && strings.Contains(normalizedContext, name) {
				score = 1.0
				ref = r
				break
			}
		}
		if score > bestScore {
			bestScore = score
			bestKind = kind
			bestRef = ref
		}
	}
	return bestScore, bestKind, bestRef
}
