// Package diversity measures the lexical diversity of repeated LLM
// generations: tokens per run, unique bigrams and unique trigrams, and
// descriptive statistics across runs.
package diversity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/stats"
)

// DiversityRun is the per-run view of a session.
type DiversityRun struct {
	RunIndex     int        `json:"run_index"`
	Tokens       []string   `json:"tokens"`
	TokenCount   int        `json:"token_count"`
	NGrams       [][]string `json:"n_grams"`
	UniqueNGrams int        `json:"unique_n_gram_count"`
}

type ngramSet struct {
	grams  [][][]string
	unique []int
}

// Session carries an analysis through tokenize, n-gram and summarize steps.
// Every step returns a new Session and leaves the receiver untouched.
type Session struct {
	texts  []string
	tokens [][]string
	ngrams map[int]ngramSet
	last   int
}

// NewSession starts an analysis over one text per run.
func NewSession(texts []string) Session {
	cp := make([]string, len(texts))
	copy(cp, texts)
	return Session{texts: cp}
}

// Texts returns a copy of the run texts.
func (s Session) Texts() []string { return slices.Clone(s.texts) }

// Tokenize splits every run into word tokens.
func (s Session) Tokenize() Session {
	next := s.clone()
	next.tokens = make([][]string, len(s.texts))
	for i, text := range s.texts {
		next.tokens[i] = Tokenize(text)
		logging.LogEvent("[DIVERSITY] Run %d token count: %d", i+1, len(next.tokens[i]))
	}
	return next
}

// Tokens returns a copy of the tokens and the token count of each run.
func (s Session) Tokens() ([][]string, []int, error) {
	if s.tokens == nil {
		return nil, nil, &records.StateError{Op: "tokens", Reason: "texts not tokenized", Err: records.ErrNotAnalyzed}
	}
	counts := make([]int, len(s.tokens))
	for i, t := range s.tokens {
		counts[i] = len(t)
	}
	return cloneGrams(s.tokens), counts, nil
}

// NGrams extracts sliding-window n-grams from each tokenized run and counts
// the distinct ones.
func (s Session) NGrams(n int) (Session, error) {
	if n < 1 {
		return s, &records.InputError{Op: "ngrams", Key: "n", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
	}
	if s.tokens == nil {
		return s, &records.StateError{Op: "ngrams", Reason: "texts not tokenized", Err: records.ErrNotAnalyzed}
	}
	set := ngramSet{
		grams:  make([][][]string, len(s.tokens)),
		unique: make([]int, len(s.tokens)),
	}
	for i, toks := range s.tokens {
		set.grams[i] = NGrams(toks, n)
		set.unique[i] = UniqueCount(set.grams[i])
		logging.LogEvent("[DIVERSITY] Unique %d-grams in run %d: %d", n, i+1, set.unique[i])
	}
	next := s.clone()
	next.ngrams[n] = set
	next.last = n
	return next, nil
}

// UniqueCounts returns the unique n-gram count of each run for n.
func (s Session) UniqueCounts(n int) ([]int, error) {
	set, ok := s.ngrams[n]
	if !ok {
		return nil, &records.StateError{Op: "unique counts", Reason: fmt.Sprintf("%d-grams not computed", n), Err: records.ErrNotAnalyzed}
	}
	return slices.Clone(set.unique), nil
}

// Runs returns one DiversityRun per text, carrying the most recently computed
// n-grams. The runs share no memory with the session.
func (s Session) Runs() []DiversityRun {
	out := make([]DiversityRun, len(s.texts))
	set, hasGrams := s.ngrams[s.last]
	for i := range s.texts {
		run := DiversityRun{RunIndex: i}
		if s.tokens != nil {
			run.Tokens = slices.Clone(s.tokens[i])
			run.TokenCount = len(s.tokens[i])
		}
		if hasGrams {
			run.NGrams = cloneGrams(set.grams[i])
			run.UniqueNGrams = set.unique[i]
		}
		out[i] = run
	}
	return out
}

// Row is one line of the per-run report.
type Row struct {
	Run            int `json:"run" yaml:"run"`
	TokenCount     int `json:"token_count" yaml:"token_count"`
	UniqueBigrams  int `json:"unique_bigrams" yaml:"unique_bigrams"`
	UniqueTrigrams int `json:"unique_trigrams" yaml:"unique_trigrams"`
}

// Report is the diversity summary over all runs.
type Report struct {
	Rows  []Row                    `json:"rows" yaml:"rows"`
	Stats map[string]stats.Summary `json:"stats" yaml:"stats"`
}

// Report column names, also used as Stats keys.
const (
	ColTokenCount     = "token_count"
	ColUniqueBigrams  = "unique_bigrams"
	ColUniqueTrigrams = "unique_trigrams"
)

// Columns lists the numeric report columns in display order.
var Columns = []string{ColTokenCount, ColUniqueBigrams, ColUniqueTrigrams}

// Summarize builds the report. It fails with a StateError wrapping
// records.ErrNotAnalyzed unless tokens, bigrams and trigrams are present.
func (s Session) Summarize() (Report, error) {
	_, tokenCounts, err := s.Tokens()
	if err != nil {
		return Report{}, &records.StateError{Op: "summarize", Err: records.ErrNotAnalyzed}
	}
	bi, okBi := s.ngrams[2]
	tri, okTri := s.ngrams[3]
	if !okBi || !okTri {
		return Report{}, &records.StateError{Op: "summarize", Err: records.ErrNotAnalyzed}
	}

	rep := Report{Rows: make([]Row, len(tokenCounts))}
	for i := range tokenCounts {
		rep.Rows[i] = Row{
			Run:            i + 1,
			TokenCount:     tokenCounts[i],
			UniqueBigrams:  bi.unique[i],
			UniqueTrigrams: tri.unique[i],
		}
	}
	rep.Stats = map[string]stats.Summary{
		ColTokenCount:     stats.DescribeInts(tokenCounts),
		ColUniqueBigrams:  stats.DescribeInts(bi.unique),
		ColUniqueTrigrams: stats.DescribeInts(tri.unique),
	}
	return rep, nil
}

// Analyze runs the full pipeline: tokenize, bigrams, trigrams, summarize.
func Analyze(texts []string) (Report, error) {
	s := NewSession(texts).Tokenize()
	s, err := s.NGrams(2)
	if err != nil {
		return Report{}, err
	}
	s, err = s.NGrams(3)
	if err != nil {
		return Report{}, err
	}
	return s.Summarize()
}

func cloneGrams(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, g := range in {
		out[i] = slices.Clone(g)
	}
	return out
}

func (s Session) clone() Session {
	next := Session{texts: s.texts, tokens: s.tokens, last: s.last, ngrams: make(map[int]ngramSet, len(s.ngrams)+1)}
	for k, v := range s.ngrams {
		next.ngrams[k] = v
	}
	return next
}

// Tokenize splits text on Unicode word boundaries. Whitespace segments are
// dropped; punctuation is kept as its own token.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	state := -1
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if strings.TrimSpace(word) == "" {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// NGrams returns every contiguous window of n tokens. Fewer than n tokens
// yields no n-grams.
func NGrams(tokens []string, n int) [][]string {
	if n < 1 || len(tokens) < n {
		return [][]string{}
	}
	out := make([][]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, tokens[i:i+n])
	}
	return out
}

// UniqueCount returns the number of distinct n-grams.
func UniqueCount(grams [][]string) int {
	seen := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		seen[strings.Join(g, "\x1f")] = struct{}{}
	}
	return len(seen)
}
