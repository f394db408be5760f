package thematic

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/export"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/report"
	"github.com/mwiater/thematic/internal/transcripts"
)

// defaultDisplayRows caps how many rows a result table prints.
const defaultDisplayRows = 25

// transcriptDir resolves the transcript directory from the flag or config.
func transcriptDir(flagValue string, cfg *appconfig.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.Transcripts.Dir != "" {
		return cfg.Transcripts.Dir, nil
	}
	return "", errors.New("no transcript directory: pass --transcripts or set transcripts.dir in the config")
}

// loadDocuments reads every transcript under dir using the configured glob.
func loadDocuments(dir string, cfg *appconfig.Config) ([]transcripts.Document, error) {
	docs, err := transcripts.LoadDir(dir, cfg.TranscriptGlob())
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no transcripts matching %q under %s", cfg.TranscriptGlob(), dir)
	}
	return docs, nil
}

// loadChunks reads and chunks every transcript under dir.
func loadChunks(dir string, cfg *appconfig.Config) ([]records.TextSegment, error) {
	docs, err := loadDocuments(dir, cfg)
	if err != nil {
		return nil, err
	}
	return transcripts.ChunkAll(docs, cfg.ChunkSizeWords(), cfg.ChunkOverlapWords()), nil
}

// readRows decodes a JSON file of records.
func readRows(path string) (records.Rows, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records.ParseRows(raw)
}

// readCodeRecords decodes and validates a JSON file of code records.
func readCodeRecords(path string) ([]records.CodeRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records.ParseCodeRecords(raw)
}

// showTable prints t and, when path is set, exports it.
func showTable(cmd *cobra.Command, t records.Table, path string) error {
	out := cmd.OutOrStdout()
	if err := report.Write(out, t, defaultDisplayRows); err != nil {
		return err
	}
	return exportTable(out, t, path)
}

func exportTable(out io.Writer, t records.Table, path string) error {
	if path == "" {
		return nil
	}
	if err := export.Write(path, t); err != nil {
		return fmt.Errorf("export %s: %w", t.Name, err)
	}
	logging.LogEvent("[EXPORT] wrote %d %s rows to %s", len(t.Rows), t.Name, path)
	fmt.Fprintln(out, report.Success("exported %d rows to %s", len(t.Rows), path))
	return nil
}

// interactive reports whether progress should use the spinner view.
func interactive(cmd *cobra.Command) bool {
	return report.IsTerminal(cmd.OutOrStdout())
}
