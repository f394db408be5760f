// internal/diversity/run.go

package diversity

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
)

// GenerateFunc produces one set of code records. It is invoked once per run.
type GenerateFunc func(ctx context.Context) ([]records.CodeRecord, error)

// Options controls repeated generation.
type Options struct {
	Runs int
	// FailFast aborts on the first failing run. By default a failing run is
	// logged, recorded in Result.Failures and skipped.
	FailFast bool
	// OnRun, when set, is called after every run with its zero-based index and
	// the run's error, if any.
	OnRun func(run int, err error)
}

// RunOutput is the output of one successful run.
type RunOutput struct {
	Index   int                  `json:"index"`
	Records []records.CodeRecord `json:"records"`
}

// RunError records a failed run.
type RunError struct {
	Run int
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %d: %v", e.Run, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Result collects successful runs in order along with any tolerated failures.
type Result struct {
	Runs     []RunOutput
	Failures []RunError
}

// Texts joins each run's codes into the string that is tokenized.
func (r Result) Texts() []string {
	out := make([]string, len(r.Runs))
	for i, run := range r.Runs {
		out[i] = JoinCodes(run.Records)
	}
	return out
}

// Records returns the record sets of the successful runs.
func (r Result) Records() [][]records.CodeRecord {
	out := make([][]records.CodeRecord, len(r.Runs))
	for i, run := range r.Runs {
		out[i] = run.Records
	}
	return out
}

// Run invokes generate opts.Runs times, one after another. Runs are never
// issued concurrently because the generator may be rate limited or stateful.
//
// In best-effort mode an error is returned only when every run failed or ctx
// was cancelled; the partial Result is returned alongside it.
func Run(ctx context.Context, generate GenerateFunc, opts Options) (Result, error) {
	var res Result
	if generate == nil {
		return res, &records.InputError{Op: "diversity run", Key: "generate", Reason: "generator is nil"}
	}
	if opts.Runs <= 0 {
		return res, &records.InputError{Op: "diversity run", Key: "runs", Reason: fmt.Sprintf("must be positive, got %d", opts.Runs)}
	}

	for i := 0; i < opts.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		recs, err := generate(ctx)
		if opts.OnRun != nil {
			opts.OnRun(i, err)
		}
		if err != nil {
			logging.LogEvent("[DIVERSITY] Error running analysis %d: %v", i+1, err)
			runErr := RunError{Run: i, Err: err}
			if opts.FailFast {
				return res, &runErr
			}
			res.Failures = append(res.Failures, runErr)
			continue
		}
		logging.LogEvent("[DIVERSITY] Analysis %d successfully run (%d codes)", i+1, len(recs))
		res.Runs = append(res.Runs, RunOutput{Index: i, Records: recs})
	}

	if len(res.Runs) == 0 {
		first := res.Failures[0]
		return res, &records.StateError{Op: "diversity run", Reason: fmt.Sprintf("all %d runs failed: %v", opts.Runs, first.Err), Err: &first}
	}
	return res, nil
}

// JoinCodes concatenates the code labels of one run, space separated.
func JoinCodes(recs []records.CodeRecord) string {
	codes := make([]string, 0, len(recs))
	for _, r := range recs {
		codes = append(codes, r.Code)
	}
	return strings.Join(codes, " ")
}
