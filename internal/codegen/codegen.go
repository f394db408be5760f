// Package codegen asks a language model for qualitative codes and verbatim
// supporting excerpts, one transcript chunk at a time.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/providers"
	"github.com/mwiater/thematic/internal/records"
)

// SystemPrompt frames the model as the coder. Hosts may override it.
const SystemPrompt = "You are a qualitative researcher doing inductive reflexive thematic analysis. " +
	"Identify excerpts that address the research questions and give each a short code. " +
	"Excerpts must match the transcript word for word."

const formatInstructions = `Respond with a JSON array of objects with keys "code", "code_description", "excerpt" and "speaker".`

// Generator produces code records for a set of chunks.
type Generator struct {
	Provider          providers.ChatProvider
	Host              appconfig.Host
	Model             string
	Chunks            []records.TextSegment
	ResearchQuestions string
	// Examples, when set, are appended to every prompt.
	Examples string
	// OnChunk, when set, is called after each chunk with its position and error.
	OnChunk func(done, total int, err error)
}

// Generate walks the chunks in order. A chunk whose request or output fails
// is logged and skipped; Generate fails only when every chunk failed or ctx
// was cancelled. Each record's Source is the ID of the chunk it came from.
func (g *Generator) Generate(ctx context.Context) ([]records.CodeRecord, error) {
	if g.Provider == nil {
		return nil, errors.New("codegen: provider is nil")
	}
	if len(g.Chunks) == 0 {
		return nil, &records.InputError{Op: "generate codes", Key: "chunks", Reason: "no transcript chunks to analyze"}
	}

	var (
		all     []records.CodeRecord
		lastErr error
		failed  int
	)
	for i, chunk := range g.Chunks {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		logging.LogEvent("[CODEGEN] Processing chunk %d/%d (%s)", i+1, len(g.Chunks), chunk.ID)
		recs, err := g.generateChunk(ctx, chunk)
		if g.OnChunk != nil {
			g.OnChunk(i+1, len(g.Chunks), err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			failed++
			lastErr = err
			logging.LogEvent("[CODEGEN] Error occurred while processing chunk %d in %s: %v", i+1, chunk.ID, err)
			continue
		}
		all = append(all, recs...)
	}
	if failed == len(g.Chunks) {
		return nil, fmt.Errorf("codegen: all %d chunks failed: %w", failed, lastErr)
	}
	logging.LogEvent("[CODEGEN] Generated %d codes from %d chunks (%d failed)", len(all), len(g.Chunks), failed)
	return all, nil
}

func (g *Generator) generateChunk(ctx context.Context, chunk records.TextSegment) ([]records.CodeRecord, error) {
	system := g.Host.SystemPrompt
	if system == "" {
		system = SystemPrompt
	}
	resp, err := g.Provider.Chat(ctx, providers.ChatRequest{
		Host:         g.Host,
		Model:        g.Model,
		SystemPrompt: system,
		Messages:     []providers.ChatMessage{{Role: "user", Content: g.Prompt(chunk)}},
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}
	recs, err := records.ParseCodeRecords([]byte(resp.Message.Content))
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Source = chunk.ID
	}
	return recs, nil
}

// Prompt renders the user message for one chunk.
func (g *Generator) Prompt(chunk records.TextSegment) string {
	var b strings.Builder
	b.WriteString(formatInstructions)
	b.WriteString("\nResearch questions: ")
	b.WriteString(g.ResearchQuestions)
	b.WriteString("\nThe transcript: ")
	b.WriteString(chunk.Text)
	if g.Examples != "" {
		b.WriteString("\nExamples: ")
		b.WriteString(g.Examples)
	}
	return b.String()
}

// Table flattens generated records for display and export.
func Table(recs []records.CodeRecord) records.Table {
	t := records.Table{
		Name:    "codes",
		Columns: []string{"code", "code_description", "excerpt", "speaker", "source"},
		Rows:    make([][]any, 0, len(recs)),
	}
	for _, r := range recs {
		t.Rows = append(t.Rows, []any{r.Code, r.CodeDescription, r.Excerpt, r.Speaker, r.Source})
	}
	return t
}
