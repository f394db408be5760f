package transcripts

import (
	"fmt"
	"strings"

	"github.com/mwiater/thematic/internal/records"
)

// Chunk cuts a document into windows of size words that overlap by overlap
// words. Segment IDs are source#index. An overlap at or above size is reduced
// to size-1.
func Chunk(doc Document, size, overlap int) []records.TextSegment {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	segments := make([]records.TextSegment, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		idx := len(segments)
		segments = append(segments, records.TextSegment{
			ID:    fmt.Sprintf("%s#%d", doc.Source, idx),
			Index: idx,
			Text:  strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return segments
}

// ChunkAll chunks every document. Index restarts at zero per document; IDs
// stay unique because they carry the source.
func ChunkAll(docs []Document, size, overlap int) []records.TextSegment {
	var out []records.TextSegment
	for _, d := range docs {
		out = append(out, Chunk(d, size, overlap)...)
	}
	return out
}

// SegmentTable flattens segments for export.
func SegmentTable(segments []records.TextSegment) records.Table {
	t := records.Table{
		Name:    "chunks",
		Columns: []string{"id", "index", "words", "text"},
		Rows:    make([][]any, 0, len(segments)),
	}
	for _, s := range segments {
		t.Rows = append(t.Rows, []any{s.ID, s.Index, len(strings.Fields(s.Text)), s.Text})
	}
	return t
}
