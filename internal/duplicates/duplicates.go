// Package duplicates counts repeated labels (codes, themes) across generated
// records to expose repetitive or converging model output.
package duplicates

import (
	"fmt"
	"sort"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
)

// Entry is one label and the number of times it occurred.
type Entry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FrequencyTable maps labels to occurrence counts and remembers the order in
// which labels were first seen.
type FrequencyTable struct {
	order  []string
	counts map[string]int
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[string]int)}
}

// Add records one occurrence of value.
func (f *FrequencyTable) Add(value string) {
	if _, ok := f.counts[value]; !ok {
		f.order = append(f.order, value)
	}
	f.counts[value]++
}

// Get returns the count for value and whether it is present.
func (f *FrequencyTable) Get(value string) (int, bool) {
	n, ok := f.counts[value]
	return n, ok
}

// Len returns the number of distinct labels.
func (f *FrequencyTable) Len() int { return len(f.order) }

// Total returns the sum of all counts.
func (f *FrequencyTable) Total() int {
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total
}

// Entries returns the labels in first-seen order.
func (f *FrequencyTable) Entries() []Entry {
	out := make([]Entry, 0, len(f.order))
	for _, v := range f.order {
		out = append(out, Entry{Value: v, Count: f.counts[v]})
	}
	return out
}

// Map returns a copy of the counts.
func (f *FrequencyTable) Map() map[string]int {
	out := make(map[string]int, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out
}

// Count tallies row[key] across rows. Rows without key are skipped; non-string
// values are counted by their printed form.
func Count(rows records.Rows, key string) *FrequencyTable {
	table := NewFrequencyTable()
	for _, row := range rows {
		v, ok := row[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		table.Add(s)
	}
	logging.LogEvent("[DUPLICATES] Total sum of counts for %q: %d", key, table.Total())
	return table
}

// CountCodeRecords tallies a named field of code records.
func CountCodeRecords(recs []records.CodeRecord, field string) *FrequencyTable {
	return Count(records.RowsFromCodeRecords(recs), field)
}

// FilterDuplicates keeps only labels seen more than once, preserving order.
func FilterDuplicates(counts *FrequencyTable) *FrequencyTable {
	out := NewFrequencyTable()
	for _, v := range counts.order {
		if n := counts.counts[v]; n > 1 {
			out.order = append(out.order, v)
			out.counts[v] = n
		}
	}
	logging.LogEvent("[DUPLICATES] Total sum of filtered counts: %d", out.Total())
	return out
}

// All asks TopN for every label.
const All = -1

// TopN returns the n most common labels, highest count first; labels with
// equal counts keep first-seen order. n == 0 returns no labels and a negative
// n (see All) returns every label.
func TopN(counts *FrequencyTable, n int) []Entry {
	if n == 0 {
		return []Entry{}
	}
	entries := counts.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Table flattens entries for export.
func Table(name string, entries []Entry) records.Table {
	t := records.Table{
		Name:    name,
		Columns: []string{"value", "count"},
		Rows:    make([][]any, 0, len(entries)),
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []any{e.Value, e.Count})
	}
	return t
}
