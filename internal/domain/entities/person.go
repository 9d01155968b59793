// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
	"unicode"
)

// Gender is an optional attribute of a person.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// PersonEntity represents a resolved identity known to one user: a person
// mentioned in their memoirs, with every name the narrative has used for them.
type PersonEntity struct {
	ID               string                    `json:"id"`
	UserID           string                    `json:"user_id"`
	CanonicalName    string                    `json:"canonical_name"`
	DisplayName      string                    `json:"display_name,omitempty"`
	Aliases          []string                  `json:"aliases"`
	Gender           Gender                    `json:"gender,omitempty"`
	BirthDate        string                    `json:"birth_date,omitempty"` // ISO date
	Relationships    map[RelationKind][]string `json:"relationships,omitempty"`
	ConfidenceScore  float64                   `json:"confidence_score"`
	MentionCount     int                       `json:"mention_count"`
	FirstMentionedIn string                    `json:"first_mentioned_in,omitempty"` // message id back-reference
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HasName reports whether text matches the canonical name, display name,
// or any alias (case-insensitive).
func (p *PersonEntity) HasName(text string) bool {
	normalized := NormalizeName(text)
	if normalized == "" {
		return false
	}
	if NormalizeName(p.CanonicalName) == normalized {
		return true
	}
	if p.DisplayName != "" && NormalizeName(p.DisplayName) == normalized {
		return true
	}
	return p.HasAlias(text)
}

// HasAlias reports whether text is already among the aliases (case-insensitive).
func (p *PersonEntity) HasAlias(text string) bool {
	normalized := NormalizeName(text)
	for _, alias := range p.Aliases {
		if NormalizeName(alias) == normalized {
			return true
		}
	}
	return false
}

// AddAlias appends an alias, preserving the invariant that aliases are
// case-insensitively deduplicated and never duplicate the canonical name.
// Returns true if the alias was added.
func (p *PersonEntity) AddAlias(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if NormalizeName(p.CanonicalName) == NormalizeName(text) {
		return false
	}
	if p.HasAlias(text) {
		return false
	}
	p.Aliases = append(p.Aliases, text)
	return true
}

// AllNames returns the canonical name, display name, and aliases.
func (p *PersonEntity) AllNames() []string {
	names := make([]string, 0, len(p.Aliases)+2)
	names = append(names, p.CanonicalName)
	if p.DisplayName != "" {
		names = append(names, p.DisplayName)
	}
	names = append(names, p.Aliases...)
	return names
}

// SuggestCanonicalName derives a display form from raw mention text:
// trimmed, whitespace-collapsed, and title-cased when the input carries no
// casing of its own. Mixed-case input ("McAllister") is left untouched.
func SuggestCanonicalName(raw string) string {
	fields := strings.Fields(raw)
	for i, field := range fields {
		if field == strings.ToLower(field) {
			fields[i] = titleCase(field)
		}
	}
	return strings.Join(fields, " ")
}

// titleCase uppercases the first letter of a single word.
func titleCase(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
