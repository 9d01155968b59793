package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &JSONParser{}, ForFormat("JSON"))
	assert.IsType(t, &CSVParser{}, ForFormat("csv"))
	assert.Nil(t, ForFormat("xml"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("people.json"))
	assert.IsType(t, &CSVParser{}, ForFile("People.CSV"))
	assert.Nil(t, ForFile("people.txt"))
}

func TestJSONParser(t *testing.T) {
	input := `[
		{
			"canonical_name": "Caroline Cadario",
			"aliases": ["Caro", "mi amore"],
			"gender": "female",
			"relationships": {"spouse": ["Marc"]},
			"confidence_score": 0.9
		},
		{"canonical_name": "Tom"}
	]`

	people, err := (&JSONParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, people, 2)

	first := people[0]
	assert.Equal(t, "Caroline Cadario", first.CanonicalName)
	assert.Equal(t, []string{"Caro", "mi amore"}, first.Aliases)
	assert.Equal(t, "female", first.Gender)
	assert.Equal(t, []string{"Marc"}, first.Relationships["spouse"])
	require.NotNil(t, first.Confidence)
	assert.InDelta(t, 0.9, *first.Confidence, 0.001)
	assert.Equal(t, 1, first.LineNum)

	assert.Equal(t, "Tom", people[1].CanonicalName)
	assert.Nil(t, people[1].Confidence)
	assert.Equal(t, 2, people[1].LineNum)
}

func TestJSONParserInvalid(t *testing.T) {
	_, err := (&JSONParser{}).Parse(strings.NewReader("{not json"))
	assert.ErrorContains(t, err, "parsing JSON")
}

func TestCSVParser(t *testing.T) {
	input := "canonical_name,aliases,gender,relationships,confidence_score\n" +
		"Caroline Cadario,Caro;mi amore,female,spouse:Marc;child:Tom,0.9\n" +
		"Tom,,,,\n"

	people, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, people, 2)

	first := people[0]
	assert.Equal(t, "Caroline Cadario", first.CanonicalName)
	assert.Equal(t, []string{"Caro", "mi amore"}, first.Aliases)
	assert.Equal(t, "female", first.Gender)
	assert.Equal(t, []string{"Marc"}, first.Relationships["spouse"])
	assert.Equal(t, []string{"Tom"}, first.Relationships["child"])
	require.NotNil(t, first.Confidence)
	assert.InDelta(t, 0.9, *first.Confidence, 0.001)
	assert.Equal(t, 2, first.LineNum)

	second := people[1]
	assert.Equal(t, "Tom", second.CanonicalName)
	assert.Empty(t, second.Aliases)
	assert.Nil(t, second.Confidence)
}

func TestCSVParserMissingRequiredColumn(t *testing.T) {
	input := "name,aliases\nCaroline,Caro"
	_, err := (&CSVParser{}).Parse(strings.NewReader(input))
	assert.ErrorContains(t, err, "missing required column: canonical_name")
}

func TestCSVParserBadConfidence(t *testing.T) {
	input := "canonical_name,confidence_score\nCaroline,high"
	_, err := (&CSVParser{}).Parse(strings.NewReader(input))
	assert.ErrorContains(t, err, "invalid confidence value")
}

func TestCSVParserBadRelationship(t *testing.T) {
	input := "canonical_name,relationships\nCaroline,just-marc"
	_, err := (&CSVParser{}).Parse(strings.NewReader(input))
	assert.ErrorContains(t, err, "expected kind:name")
}
