// Package parsers provides parsers for importing person records from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawPerson represents a person record parsed from an external source
// before validation.
type RawPerson struct {
	ID            string              `json:"id,omitempty"`
	CanonicalName string              `json:"canonical_name"`
	DisplayName   string              `json:"display_name,omitempty"`
	Aliases       []string            `json:"aliases,omitempty"`
	Gender        string              `json:"gender,omitempty"`
	BirthDate     string              `json:"birth_date,omitempty"`
	Relationships map[string][]string `json:"relationships,omitempty"`
	Confidence    *float64            `json:"confidence_score,omitempty"` // Pointer to distinguish 0 from unset
	LineNum       int                 `json:"-"`                          // Line number in source file (set by parser)
}

// Parser defines the interface for parsing person records from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawPerson, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
