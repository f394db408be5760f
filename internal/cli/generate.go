// internal/cli/generate.go
package thematic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/codegen"
	"github.com/mwiater/thematic/internal/metrics"
	"github.com/mwiater/thematic/internal/providerfactory"
	"github.com/mwiater/thematic/internal/providers"
	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/report"
	"github.com/mwiater/thematic/internal/tui"
)

var (
	generateTranscripts string
	generateModel       string
	generateOutput      string
	generateExamples    string
)

// newChatProvider is swapped in tests.
var newChatProvider = providerfactory.NewChatProvider

// generateCmd implements 'generate', which asks the configured model for
// codes and excerpts for every transcript chunk.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate qualitative codes for every transcript chunk",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		dir, err := transcriptDir(generateTranscripts, cfg)
		if err != nil {
			return err
		}
		chunks, err := loadChunks(dir, cfg)
		if err != nil {
			return err
		}
		usage := metrics.NewAggregator()
		gen, provider, err := newGenerator(cfg, generateModel, generateExamples, chunks, usage)
		if err != nil {
			return err
		}
		defer provider.Close()

		var recs []records.CodeRecord
		err = tui.Run(cmd.Context(), tui.Options{
			Title:       fmt.Sprintf("Generating codes with %s", gen.Model),
			Total:       len(chunks),
			Interactive: interactive(cmd),
			Out:         cmd.OutOrStdout(),
		}, func(ctx context.Context, progress tui.ReportFunc) error {
			gen.OnChunk = func(done, total int, err error) {
				progress(done, chunks[done-1].ID, err)
			}
			var genErr error
			recs, genErr = gen.Generate(ctx)
			return genErr
		})
		if err != nil {
			return err
		}

		if generateOutput != "" {
			if err := writeJSON(generateOutput, recs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Success("wrote %d codes to %s", len(recs), generateOutput))
		}
		if err := showTable(cmd, codegen.Table(recs), cfg.ExportPath); err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), usage.Table(), 0)
	},
}

// newGenerator resolves the host for model and builds a code generator whose
// model calls are recorded in usage.
func newGenerator(cfg *appconfig.Config, model, examplesPath string, chunks []records.TextSegment, usage *metrics.Aggregator) (*codegen.Generator, providers.ChatProvider, error) {
	host, resolved, err := cfg.HostFor(model)
	if err != nil {
		return nil, nil, err
	}
	var examples string
	if examplesPath != "" {
		raw, err := os.ReadFile(examplesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read examples: %w", err)
		}
		examples = string(raw)
	}
	inner, err := newChatProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	provider := metrics.NewProvider(inner, usage)
	return &codegen.Generator{
		Provider:          provider,
		Host:              host,
		Model:             resolved,
		Chunks:            chunks,
		ResearchQuestions: cfg.ResearchQuestions(),
		Examples:          examples,
	}, provider, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func init() {
	generateCmd.Flags().StringVarP(&generateTranscripts, "transcripts", "t", "", "directory of transcripts (.txt, .pdf)")
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "model to use (default: first model of the first host)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the generated records to this JSON file")
	generateCmd.Flags().StringVar(&generateExamples, "examples", "", "file of example codes appended to every prompt")
	rootCmd.AddCommand(generateCmd)
}
