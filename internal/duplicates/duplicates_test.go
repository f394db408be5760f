package duplicates

import (
	"reflect"
	"testing"

	"github.com/mwiater/thematic/internal/records"
)

func sampleRows() records.Rows {
	return records.Rows{
		{"code": "A"},
		{"code": "B"},
		{"code": "A"},
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	counts := Count(sampleRows(), "code")
	if got := counts.Map(); !reflect.DeepEqual(got, map[string]int{"A": 2, "B": 1}) {
		t.Fatalf("unexpected counts: %v", got)
	}
	if counts.Total() != 3 {
		t.Fatalf("expected total 3, got %d", counts.Total())
	}
}

func TestCountSkipsRowsWithoutKey(t *testing.T) {
	t.Parallel()

	rows := append(sampleRows(), records.Row{"theme": "A"}, records.Row{"code": 7})
	counts := Count(rows, "code")
	if counts.Total() != 4 {
		t.Fatalf("expected total to equal rows carrying the key (4), got %d", counts.Total())
	}
	if n, ok := counts.Get("7"); !ok || n != 1 {
		t.Fatalf("expected non-string value counted by printed form, got %d %v", n, ok)
	}

	missing := Count(rows, "nonexistent_key")
	if missing.Len() != 0 || len(missing.Map()) != 0 {
		t.Fatalf("expected empty table for missing key, got %v", missing.Map())
	}
}

func TestCountIsIdempotent(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	first := Count(rows, "code")
	second := Count(rows, "code")
	if !reflect.DeepEqual(first.Entries(), second.Entries()) {
		t.Fatalf("count not idempotent: %v vs %v", first.Entries(), second.Entries())
	}
}

func TestFilterDuplicates(t *testing.T) {
	t.Parallel()

	counts := Count(sampleRows(), "code")
	filtered := FilterDuplicates(counts)
	if got := filtered.Map(); !reflect.DeepEqual(got, map[string]int{"A": 2}) {
		t.Fatalf("unexpected filtered counts: %v", got)
	}
	if filtered.Total() > counts.Total() {
		t.Fatalf("filtered total %d exceeds total %d", filtered.Total(), counts.Total())
	}
}

func TestTopN(t *testing.T) {
	t.Parallel()

	counts := Count(sampleRows(), "code")
	if got := TopN(counts, 1); !reflect.DeepEqual(got, []Entry{{Value: "A", Count: 2}}) {
		t.Fatalf("TopN(1) = %v", got)
	}

	tied := Count(records.Rows{{"code": "x"}, {"code": "y"}, {"code": "z"}, {"code": "y"}, {"code": "z"}}, "code")
	want := []Entry{{Value: "y", Count: 2}, {Value: "z", Count: 2}, {Value: "x", Count: 1}}
	if got := TopN(tied, All); !reflect.DeepEqual(got, want) {
		t.Fatalf("TopN(all) = %v want %v", got, want)
	}
	if got := TopN(tied, 10); len(got) != 3 {
		t.Fatalf("TopN beyond length should return all, got %v", got)
	}
	if got := TopN(tied, 0); got == nil || len(got) != 0 {
		t.Fatalf("TopN(0) = %v, want an empty slice", got)
	}
}

func TestCountCodeRecordsAndTable(t *testing.T) {
	t.Parallel()

	recs := []records.CodeRecord{{Code: "trust"}, {Code: "access", Speaker: "P1"}, {Code: "trust", Speaker: "P1"}}
	counts := CountCodeRecords(recs, "speaker")
	if n, _ := counts.Get("P1"); n != 2 || counts.Len() != 1 {
		t.Fatalf("expected only records with a speaker counted, got %v", counts.Map())
	}

	table := Table("codes", TopN(CountCodeRecords(recs, "code"), All))
	if table.Rows[0][0] != "trust" || table.Rows[0][1] != 2 {
		t.Fatalf("unexpected first row: %v", table.Rows[0])
	}
}
