package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses person records from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed person records.
// Expected columns: canonical_name, plus optional display_name, aliases
// (semicolon-separated), gender, birth_date, relationships
// (kind:name pairs, semicolon-separated) and confidence_score.
func (p *CSVParser) Parse(r io.Reader) ([]RawPerson, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	if _, ok := colIndex["canonical_name"]; !ok {
		return nil, fmt.Errorf("missing required column: canonical_name")
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawPersons.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawPerson, error) {
	var people []RawPerson
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		person, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		people = append(people, person)
	}

	return people, nil
}

// parseRecord converts a CSV record to a RawPerson.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawPerson, error) {
	person := RawPerson{
		ID:            getColumn(record, colIndex, "id"),
		CanonicalName: getColumn(record, colIndex, "canonical_name"),
		DisplayName:   getColumn(record, colIndex, "display_name"),
		Gender:        getColumn(record, colIndex, "gender"),
		BirthDate:     getColumn(record, colIndex, "birth_date"),
		LineNum:       lineNum,
	}

	if aliases := getColumn(record, colIndex, "aliases"); aliases != "" {
		person.Aliases = splitList(aliases)
	}

	if rels := getColumn(record, colIndex, "relationships"); rels != "" {
		parsed, err := parseRelationships(rels)
		if err != nil {
			return RawPerson{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
		person.Relationships = parsed
	}

	confStr := getColumn(record, colIndex, "confidence_score")
	if confStr != "" {
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			return RawPerson{}, fmt.Errorf("line %d: invalid confidence value %q: %w", lineNum, confStr, err)
		}
		person.Confidence = &conf
	}

	return person, nil
}

// splitList splits a semicolon-separated list, trimming each element.
func splitList(value string) []string {
	parts := strings.Split(value, ";")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseRelationships parses "kind:name" pairs separated by semicolons,
// e.g. "spouse:Caroline Cadario;child:Tom".
func parseRelationships(value string) (map[string][]string, error) {
	result := make(map[string][]string)
	for _, pair := range splitList(value) {
		kind, name, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid relationship %q (expected kind:name)", pair)
		}
		kind = strings.TrimSpace(kind)
		name = strings.TrimSpace(name)
		if kind == "" || name == "" {
			return nil, fmt.Errorf("invalid relationship %q (expected kind:name)", pair)
		}
		result[kind] = append(result[kind], name)
	}
	return result, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
