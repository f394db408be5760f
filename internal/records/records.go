// internal/records/records.go

// Package records defines the shared data model for transcript verification:
// source segments, LLM-produced candidates and code records, and the flat
// tabular shape every analysis result is exported as.
package records

import (
	"fmt"
	"sort"
	"strings"
)

// TextSegment is a piece of source text (a transcript chunk or sentence)
// identified by the label of where it came from.
type TextSegment struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Candidate is a string produced by an LLM (an excerpt, code or quote) along
// with the position it held in its input collection.
type Candidate struct {
	Index int               `json:"index"`
	Text  string            `json:"text"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// CodeRecord is one code generated for a transcript excerpt.
type CodeRecord struct {
	Code            string `json:"code"`
	CodeDescription string `json:"code_description,omitempty"`
	Excerpt         string `json:"excerpt,omitempty"`
	Speaker         string `json:"speaker,omitempty"`
	Source          string `json:"source,omitempty"`
}

// Row converts the record into a generic row keyed by its JSON field names.
func (c CodeRecord) Row() Row {
	row := Row{"code": c.Code}
	if c.CodeDescription != "" {
		row["code_description"] = c.CodeDescription
	}
	if c.Excerpt != "" {
		row["excerpt"] = c.Excerpt
	}
	if c.Speaker != "" {
		row["speaker"] = c.Speaker
	}
	if c.Source != "" {
		row["source"] = c.Source
	}
	return row
}

// Row is a single structured record, such as one parsed JSON object.
type Row map[string]any

// Rows is an ordered collection of structured records.
type Rows []Row

// RowsFromCodeRecords converts code records to generic rows, preserving order.
func RowsFromCodeRecords(recs []CodeRecord) Rows {
	rows := make(Rows, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Row()
	}
	return rows
}

// HasColumn reports whether any row carries the given key.
func (r Rows) HasColumn(key string) bool {
	for _, row := range r {
		if _, ok := row[key]; ok {
			return true
		}
	}
	return false
}

// Columns returns the sorted union of keys across all rows.
func (r Rows) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range r {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Candidates extracts the values stored under column as candidates. Rows that
// do not carry the column are skipped; each candidate keeps the index of the
// row it came from. An InputError is returned when no row has the column.
func (r Rows) Candidates(column string) ([]Candidate, error) {
	if !r.HasColumn(column) {
		return nil, &InputError{
			Op:     "candidates",
			Key:    column,
			Reason: fmt.Sprintf("column not found (available: %s)", strings.Join(r.Columns(), ", ")),
		}
	}
	out := make([]Candidate, 0, len(r))
	for i, row := range r {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		text, ok := v.(string)
		if !ok {
			text = fmt.Sprint(v)
		}
		meta := make(map[string]string, len(row))
		for k, val := range row {
			if k == column {
				continue
			}
			if s, ok := val.(string); ok {
				meta[k] = s
			}
		}
		out = append(out, Candidate{Index: i, Text: text, Meta: meta})
	}
	return out, nil
}

// CandidatesFromStrings wraps plain strings as candidates indexed by position.
func CandidatesFromStrings(texts []string) []Candidate {
	out := make([]Candidate, len(texts))
	for i, t := range texts {
		out[i] = Candidate{Index: i, Text: t}
	}
	return out
}

// Table is the flat tabular shape used for export: ordered rows of
// primitive-typed cells (string, int, float64, bool).
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Records returns the table as an ordered slice of column-keyed maps.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}
