package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Match Threshold:   %d\n", cfg.MatchThreshold())
	fmt.Fprintf(out, "  Match Column:      %s\n", cfg.MatchColumn())
	fmt.Fprintf(out, "  Match Parallel:    %v (workers: %d)\n", cfg.Match.Parallel, cfg.MatchWorkers())
	policy := cfg.Match.Policy
	if policy == "" {
		policy = "best"
	}
	fmt.Fprintf(out, "  Match Policy:      %s\n", policy)
	fmt.Fprintf(out, "  Diversity Runs:    %d (fail fast: %v)\n", cfg.DiversityRuns(), cfg.Diversity.FailFast)
	fmt.Fprintf(out, "  Transcript Glob:   %s\n", cfg.TranscriptGlob())
	fmt.Fprintf(out, "  Chunk Size/Overlap: %d/%d words\n", cfg.ChunkSizeWords(), cfg.ChunkOverlapWords())
	if cfg.ExportPath != "" {
		fmt.Fprintf(out, "  Export:            %s\n", cfg.ExportPath)
	}
	for _, h := range cfg.Hosts {
		fmt.Fprintf(out, "  Host %-13s %s (%s) models=%v\n", h.Name+":", h.URL, h.Type, h.Models)
	}
}
