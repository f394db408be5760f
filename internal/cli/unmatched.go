// internal/cli/unmatched.go
package thematic

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/quotematch"
	"github.com/mwiater/thematic/internal/report"
)

var (
	unmatchedTranscripts string
	unmatchedCodesPath   string
	unmatchedThreshold   int
)

// unmatchedCmd implements 'unmatched', which re-checks each generated excerpt
// against the chunk it was generated from and lists the ones that drifted.
var unmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "List excerpts that do not appear in their source chunk",
	Long: `The 'unmatched' command reads records written by 'generate' (each carries
the ID of its source chunk), re-chunks the transcripts with the same settings
and reports every excerpt scoring below the threshold against its own chunk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		dir, err := transcriptDir(unmatchedTranscripts, cfg)
		if err != nil {
			return err
		}
		threshold := cfg.MatchThreshold()
		if cmd.Flags().Changed("threshold") {
			threshold = unmatchedThreshold
		}

		recs, err := readCodeRecords(unmatchedCodesPath)
		if err != nil {
			return err
		}
		chunks, err := loadChunks(dir, cfg)
		if err != nil {
			return err
		}
		pairs, err := quotematch.PairByOrigin(recs, chunks)
		if err != nil {
			return err
		}
		out, err := quotematch.Unmatched(pairs, threshold)
		if err != nil {
			return err
		}

		if err := showTable(cmd, quotematch.UnmatchedTable(out), cfg.ExportPath); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(out) == 0 {
			fmt.Fprintln(w, report.Success("all %d excerpts verified against their source chunk", len(pairs)))
		} else {
			fmt.Fprintln(w, report.Failure("%d/%d excerpts scored below %d", len(out), len(pairs), threshold))
		}
		return nil
	},
}

func init() {
	unmatchedCmd.Flags().StringVarP(&unmatchedTranscripts, "transcripts", "t", "", "directory of transcripts (.txt, .pdf)")
	unmatchedCmd.Flags().StringVar(&unmatchedCodesPath, "codes", "", "JSON file of generated records with source chunk IDs")
	unmatchedCmd.Flags().IntVar(&unmatchedThreshold, "threshold", 80, "excerpts scoring below this are reported")
	_ = unmatchedCmd.MarkFlagRequired("codes")
	rootCmd.AddCommand(unmatchedCmd)
}
