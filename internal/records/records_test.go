package records

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCodeRecordsShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		codes []string
	}{
		{name: "single object", raw: `{"code":"trust","excerpt":"I trust them"}`, codes: []string{"trust"}},
		{name: "array", raw: `[{"code":"a"},{"code":"b","speaker":null}]`, codes: []string{"a", "b"}},
		{name: "wrapped array", raw: `{"codes":[{"code":"x"},{"code":"y"}]}`, codes: []string{"x", "y"}},
		{name: "fenced", raw: "```json\n[{\"code\":\"fenced\"}]\n```", codes: []string{"fenced"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recs, err := ParseCodeRecords([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseCodeRecords error: %v", err)
			}
			if len(recs) != len(tt.codes) {
				t.Fatalf("expected %d records, got %d", len(tt.codes), len(recs))
			}
			for i, code := range tt.codes {
				if recs[i].Code != code {
					t.Fatalf("record %d: got code %q want %q", i, recs[i].Code, code)
				}
			}
		})
	}
}

func TestParseCodeRecordsSchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := ParseCodeRecords([]byte(`[{"code":"ok"},{"excerpt":"no code here"}]`))
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if inputErr.Key != "[1]" {
		t.Fatalf("expected offending element [1], got %q", inputErr.Key)
	}

	if _, err := ParseCodeRecords([]byte("not json")); !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for invalid JSON, got %v", err)
	}
	if _, err := ParseCodeRecords([]byte("   ")); !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for empty output, got %v", err)
	}
}

func TestOneOrManyMarshalsCanonicalArray(t *testing.T) {
	t.Parallel()

	var v OneOrMany[CodeRecord]
	if err := json.Unmarshal([]byte(`{"code":"solo"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[{"code":"solo"}]` {
		t.Fatalf("unexpected canonical form: %s", data)
	}
}

func TestRowsCandidates(t *testing.T) {
	t.Parallel()

	rows := Rows{
		{"code": "A", "excerpt": "first quote"},
		{"code": "B"},
		{"code": "C", "excerpt": "third quote"},
	}

	cands, err := rows.Candidates("excerpt")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Index != 0 || cands[1].Index != 2 {
		t.Fatalf("expected row indices 0 and 2, got %d and %d", cands[0].Index, cands[1].Index)
	}
	if cands[1].Meta["code"] != "C" {
		t.Fatalf("expected code metadata carried, got %v", cands[1].Meta)
	}

	_, err = rows.Candidates("quote")
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Key != "quote" {
		t.Fatalf("expected InputError naming quote, got %v", err)
	}
}

func TestValidateThreshold(t *testing.T) {
	t.Parallel()

	for _, th := range []int{0, 80, 100} {
		if err := ValidateThreshold("test", th); err != nil {
			t.Fatalf("threshold %d: unexpected error %v", th, err)
		}
	}
	for _, th := range []int{-1, 101} {
		if err := ValidateThreshold("test", th); err == nil {
			t.Fatalf("threshold %d: expected error", th)
		}
	}
}

func TestStateErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := error(&StateError{Op: "summarize", Err: ErrNotAnalyzed})
	if !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected errors.Is to find ErrNotAnalyzed")
	}
	if err.Error() != "summarize: analysis not yet run" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
