// internal/quotematch/quotematch.go

// Package quotematch verifies that excerpts quoted by a language model can be
// traced back to verbatim source text, tolerating light paraphrase and OCR noise.
package quotematch

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/mwiater/thematic/internal/fuzzy"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
)

// DefaultThreshold is the acceptance threshold on the 0–100 similarity scale.
const DefaultThreshold = 80

// Policy selects how a candidate is scanned against the segment pool.
type Policy string

const (
	// PolicyBest scores every segment, keeps the global best (first seen wins
	// ties) and accepts it only when its score exceeds the threshold.
	PolicyBest Policy = "best"
	// PolicyFirst stops at the first segment, in pool order, whose score
	// exceeds the threshold.
	PolicyFirst Policy = "first"
)

// ParsePolicy maps a configuration string to a Policy. Empty means PolicyBest.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyBest:
		return PolicyBest, nil
	case PolicyFirst:
		return PolicyFirst, nil
	default:
		return "", &records.InputError{Op: "parse policy", Key: "policy", Reason: fmt.Sprintf("unknown policy %q (want best or first)", s)}
	}
}

// Options controls matching.
type Options struct {
	Threshold int
	Parallel  bool
	// Workers bounds the pool size when Parallel is set; zero means GOMAXPROCS.
	Workers int
	Policy  Policy
}

// Match is an accepted candidate/segment pairing. Score is always greater than
// the threshold it was accepted under.
type Match struct {
	CandidateIndex int    `json:"candidate_index"`
	Candidate      string `json:"candidate"`
	MatchedSegment string `json:"matched_segment"`
	SegmentID      string `json:"segment_id"`
	SegmentIndex   int    `json:"segment_index"`
	Score          int    `json:"score"`
}

// Matcher finds the source segment each candidate was quoted from.
type Matcher struct {
	opts Options
}

// New validates opts and returns a Matcher.
func New(opts Options) (*Matcher, error) {
	if err := records.ValidateThreshold("quotematch", opts.Threshold); err != nil {
		return nil, err
	}
	if opts.Policy == "" {
		opts.Policy = PolicyBest
	}
	if _, err := ParsePolicy(string(opts.Policy)); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Matcher{opts: opts}, nil
}

// Options returns the effective options after defaults were applied.
func (m *Matcher) Options() Options { return m.opts }

// Match scores every candidate against the segment pool and returns the
// accepted matches in candidate order. Parallel execution does not change the
// result or its order. An empty pool yields an empty result.
func (m *Matcher) Match(ctx context.Context, candidates []records.Candidate, segments []records.TextSegment) ([]Match, error) {
	if len(candidates) == 0 || len(segments) == 0 {
		return []Match{}, nil
	}

	segTexts := foldSegments(segments)
	results := make([]*Match, len(candidates))
	if m.opts.Parallel && len(candidates) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.opts.Workers)
		for i := range candidates {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = m.best(candidates[i], segments, segTexts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = m.best(candidates[i], segments, segTexts)
		}
	}

	matches := make([]Match, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			matches = append(matches, *r)
		}
	}
	logging.LogEvent("[MATCH] %d/%d candidates matched (threshold=%d policy=%s parallel=%t)",
		len(matches), len(candidates), m.opts.Threshold, m.opts.Policy, m.opts.Parallel)
	return matches, nil
}

// MatchColumn reads candidates from column of rows and matches them. A column
// that no row carries is an InputError.
func (m *Matcher) MatchColumn(ctx context.Context, rows records.Rows, column string, segments []records.TextSegment) ([]Match, error) {
	candidates, err := rows.Candidates(column)
	if err != nil {
		return nil, err
	}
	return m.Match(ctx, candidates, segments)
}

// best scans segments for one candidate according to the policy and returns
// nil when nothing clears the threshold. segTexts holds the folded text of
// each segment.
func (m *Matcher) best(c records.Candidate, segments []records.TextSegment, segTexts []string) *Match {
	text := foldText(c.Text)
	bestScore := -1
	bestIdx := -1
	for i := range segments {
		score := fuzzy.PartialRatio(text, segTexts[i])
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
		if m.opts.Policy == PolicyFirst && score > m.opts.Threshold {
			break
		}
	}
	if bestIdx < 0 || bestScore <= m.opts.Threshold {
		return nil
	}
	seg := segments[bestIdx]
	return &Match{
		CandidateIndex: c.Index,
		Candidate:      c.Text,
		MatchedSegment: seg.Text,
		SegmentID:      seg.ID,
		SegmentIndex:   seg.Index,
		Score:          bestScore,
	}
}

// foldText brings a candidate or segment into the form transcripts are
// loaded in: NFKC normalized with every whitespace run collapsed to a single
// space.
func foldText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func foldSegments(segments []records.TextSegment) []string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = foldText(seg.Text)
	}
	return out
}

// SentenceSegments splits text into sentence segments the way transcripts
// are compared against a quote column: newlines fold to spaces and the text
// is cut on ". ". Empty pieces are dropped; IDs are source#n.
func SentenceSegments(source, text string) []records.TextSegment {
	flat := strings.ReplaceAll(text, "\r\n", " ")
	flat = strings.ReplaceAll(flat, "\n", " ")
	parts := strings.Split(flat, ". ")
	out := make([]records.TextSegment, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx := len(out)
		out = append(out, records.TextSegment{
			ID:    fmt.Sprintf("%s#%d", source, idx),
			Index: idx,
			Text:  p,
		})
	}
	return out
}
