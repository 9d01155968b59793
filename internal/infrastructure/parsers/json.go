package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses person records from JSON format.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed person records.
func (p *JSONParser) Parse(r io.Reader) ([]RawPerson, error) {
	var people []RawPerson

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&people); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range people {
		people[i].LineNum = i + 1
	}

	return people, nil
}
