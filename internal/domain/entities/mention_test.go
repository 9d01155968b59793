package entities

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMentionValidate(t *testing.T) {
	text := "Ma femme Caro et moi sommes allés voir Tom."

	valid := EntityMention{Text: "Caro", StartIndex: 9, EndIndex: 13}
	assert.NoError(t, valid.Validate(len(text)))

	tests := []struct {
		name    string
		mention EntityMention
	}{
		{"negative start", EntityMention{StartIndex: -1, EndIndex: 4}},
		{"start equals end", EntityMention{StartIndex: 4, EndIndex: 4}},
		{"start after end", EntityMention{StartIndex: 10, EndIndex: 4}},
		{"end past source", EntityMention{StartIndex: 0, EndIndex: len(text) + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.mention.Validate(len(text)))
		})
	}
}

func TestContextWindow(t *testing.T) {
	text := "Ma femme Caro et moi"

	assert.Equal(t, text, ContextWindow(text, 9, 13, 100))
	assert.Equal(t, "me Caro et", ContextWindow(text, 9, 13, 3))
	assert.Equal(t, "Ma f", ContextWindow(text, 0, 2, 2))
	assert.Equal(t, "", ContextWindow("", 0, 0, 10))
}

func TestContextWindowRespectsRuneBoundaries(t *testing.T) {
	// Each è is two bytes; "Caro" starts at byte 12. A radius of 5 lands
	// inside the fourth è and must shrink to its boundary, not split it.
	text := "èèèèèèCaro"
	window := ContextWindow(text, 12, 16, 5)
	assert.Equal(t, "èèCaro", window)
	assert.True(t, utf8.ValidString(window))

	// Same on the trailing side: radius 5 ends one byte into the é.
	text = "Caro allée"
	window = ContextWindow(text, 0, 4, 5)
	assert.True(t, utf8.ValidString(window))
	assert.Equal(t, "Caro all", window)

	// Accented French narrative never yields invalid windows at any radius.
	text = "Ma mère Hélène et moi sommes allés voir Tom."
	start := strings.Index(text, "Hélène")
	end := start + len("Hélène")
	for radius := 0; radius <= len(text); radius++ {
		window := ContextWindow(text, start, end, radius)
		assert.True(t, utf8.ValidString(window), "radius %d: %q", radius, window)
		assert.Contains(t, window, "Hélène")
	}
}
