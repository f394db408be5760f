package diversity

import (
	"encoding/json"
	"fmt"

	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/stats"
)

// ParseRuns decodes saved runs: a JSON array whose elements are each one run's
// model output (an array of code records, or anything ParseCodeRecords accepts).
func ParseRuns(raw []byte) (Result, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Result{}, &records.InputError{Op: "parse runs", Reason: fmt.Sprintf("expected a JSON array of runs: %v", err)}
	}
	res := Result{Runs: make([]RunOutput, 0, len(elems))}
	for i, elem := range elems {
		recs, err := records.ParseCodeRecords(elem)
		if err != nil {
			return Result{}, &RunError{Run: i, Err: err}
		}
		res.Runs = append(res.Runs, RunOutput{Index: i, Records: recs})
	}
	return res, nil
}

// MarshalRuns encodes successful runs in the shape ParseRuns reads.
func MarshalRuns(res Result) ([]byte, error) {
	return json.MarshalIndent(res.Records(), "", "    ")
}

// Table flattens the per-run rows for export.
func (r Report) Table() records.Table {
	t := records.Table{
		Name:    "diversity_runs",
		Columns: append([]string{"run"}, Columns...),
		Rows:    make([][]any, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.Run, row.TokenCount, row.UniqueBigrams, row.UniqueTrigrams})
	}
	return t
}

// StatsTable lays the descriptive statistics out as a describe() table: one
// row per statistic, one column per report column.
func (r Report) StatsTable() records.Table {
	t := records.Table{
		Name:    "diversity_stats",
		Columns: append([]string{"stat"}, Columns...),
	}
	stat := func(name string, pick func(s stats.Summary) float64) {
		row := []any{name}
		for _, col := range Columns {
			row = append(row, pick(r.Stats[col]))
		}
		t.Rows = append(t.Rows, row)
	}
	stat("count", func(s stats.Summary) float64 { return float64(s.Count) })
	stat("mean", func(s stats.Summary) float64 { return s.Mean })
	stat("std", func(s stats.Summary) float64 { return s.Std })
	stat("min", func(s stats.Summary) float64 { return s.Min })
	stat("25%", func(s stats.Summary) float64 { return s.Q25 })
	stat("50%", func(s stats.Summary) float64 { return s.Median })
	stat("75%", func(s stats.Summary) float64 { return s.Q75 })
	stat("max", func(s stats.Summary) float64 { return s.Max })
	return t
}
