package quotematch

import (
	"github.com/mwiater/thematic/internal/fuzzy"
	"github.com/mwiater/thematic/internal/records"
)

// Pair couples a candidate with the segment it claims to have been quoted from.
type Pair struct {
	Candidate records.Candidate
	Origin    records.TextSegment
}

// UnmatchedRecord flags a candidate whose text does not verify against its
// claimed origin segment.
type UnmatchedRecord struct {
	Index         int    `json:"index"`
	Candidate     string `json:"candidate"`
	SegmentID     string `json:"segment_id"`
	ReferenceText string `json:"reference_text"`
	Score         int    `json:"score"`
}

// Unmatched scores each candidate against its own origin only (a
// self-consistency check, not a search) and returns the pairs scoring below
// threshold, in input order. Both sides are folded as in Match.
func Unmatched(pairs []Pair, threshold int) ([]UnmatchedRecord, error) {
	if err := records.ValidateThreshold("unmatched", threshold); err != nil {
		return nil, err
	}
	out := make([]UnmatchedRecord, 0)
	for _, p := range pairs {
		score := fuzzy.PartialRatio(foldText(p.Candidate.Text), foldText(p.Origin.Text))
		if score < threshold {
			out = append(out, UnmatchedRecord{
				Index:         p.Candidate.Index,
				Candidate:     p.Candidate.Text,
				SegmentID:     p.Origin.ID,
				ReferenceText: p.Origin.Text,
				Score:         score,
			})
		}
	}
	return out, nil
}

// PairByOrigin builds pairs from code records whose Source names a segment ID.
// Records with an empty excerpt are skipped; an unknown source is an InputError.
func PairByOrigin(recs []records.CodeRecord, segments []records.TextSegment) ([]Pair, error) {
	byID := make(map[string]records.TextSegment, len(segments))
	for _, s := range segments {
		byID[s.ID] = s
	}
	pairs := make([]Pair, 0, len(recs))
	for i, rec := range recs {
		if rec.Excerpt == "" {
			continue
		}
		seg, ok := byID[rec.Source]
		if !ok {
			return nil, &records.InputError{Op: "pair by origin", Key: rec.Source, Reason: "source segment not found"}
		}
		pairs = append(pairs, Pair{
			Candidate: records.Candidate{Index: i, Text: rec.Excerpt, Meta: map[string]string{"code": rec.Code}},
			Origin:    seg,
		})
	}
	return pairs, nil
}

// MatchTable flattens matches for export.
func MatchTable(matches []Match) records.Table {
	t := records.Table{
		Name:    "matches",
		Columns: []string{"candidate_index", "candidate", "matched_segment", "segment_id", "segment_index", "score"},
		Rows:    make([][]any, 0, len(matches)),
	}
	for _, m := range matches {
		t.Rows = append(t.Rows, []any{m.CandidateIndex, m.Candidate, m.MatchedSegment, m.SegmentID, m.SegmentIndex, m.Score})
	}
	return t
}

// UnmatchedTable flattens unmatched records for export.
func UnmatchedTable(recs []UnmatchedRecord) records.Table {
	t := records.Table{
		Name:    "unmatched",
		Columns: []string{"index", "candidate", "segment_id", "reference_text", "score"},
		Rows:    make([][]any, 0, len(recs)),
	}
	for _, r := range recs {
		t.Rows = append(t.Rows, []any{r.Index, r.Candidate, r.SegmentID, r.ReferenceText, r.Score})
	}
	return t
}
