// internal/cli/match.go
package thematic

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/quotematch"
	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/report"
)

var (
	matchTranscripts string
	matchCodesPath   string
	matchColumn      string
	matchThreshold   int
	matchPolicy      string
	matchParallel    bool
)

// matchCmd implements 'match', which finds the transcript sentence each
// generated excerpt was quoted from.
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match generated excerpts to transcript sentences",
	Long: `The 'match' command reads generated records (JSON) and fuzzy-matches the
excerpt column against every sentence of every transcript. Matches scoring
above the threshold are printed and optionally exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		dir, err := transcriptDir(matchTranscripts, cfg)
		if err != nil {
			return err
		}

		opts, err := matchOptions(cmd, cfg)
		if err != nil {
			return err
		}
		column := cfg.MatchColumn()
		if cmd.Flags().Changed("column") {
			column = matchColumn
		}
		matcher, err := quotematch.New(opts)
		if err != nil {
			return err
		}

		rows, err := readRows(matchCodesPath)
		if err != nil {
			return err
		}
		docs, err := loadDocuments(dir, cfg)
		if err != nil {
			return err
		}
		var segments []records.TextSegment
		for _, doc := range docs {
			for _, seg := range quotematch.SentenceSegments(doc.Source, doc.Text) {
				seg.Index = len(segments)
				segments = append(segments, seg)
			}
		}

		candidates, err := rows.Candidates(column)
		if err != nil {
			return err
		}
		matches, err := matcher.Match(cmd.Context(), candidates, segments)
		if err != nil {
			return err
		}

		if err := showTable(cmd, quotematch.MatchTable(matches), cfg.ExportPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.MatchSummary(len(matches), len(candidates)))
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchTranscripts, "transcripts", "t", "", "directory of transcripts (.txt, .pdf)")
	matchCmd.Flags().StringVar(&matchCodesPath, "codes", "", "JSON file of generated records")
	matchCmd.Flags().StringVar(&matchColumn, "column", "", "record field holding the excerpt (default excerpt)")
	matchCmd.Flags().IntVar(&matchThreshold, "threshold", 80, "acceptance threshold (0-100); a match must score above it")
	matchCmd.Flags().StringVar(&matchPolicy, "policy", "best", "best or first")
	matchCmd.Flags().BoolVar(&matchParallel, "parallel", false, "match candidates concurrently")
	_ = matchCmd.MarkFlagRequired("codes")
	rootCmd.AddCommand(matchCmd)
}

// matchOptions merges the match config section with any flags set on cmd.
func matchOptions(cmd *cobra.Command, cfg *appconfig.Config) (quotematch.Options, error) {
	opts := quotematch.Options{
		Threshold: cfg.MatchThreshold(),
		Parallel:  cfg.Match.Parallel,
		Workers:   cfg.MatchWorkers(),
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = matchThreshold
	}
	if cmd.Flags().Changed("parallel") {
		opts.Parallel = matchParallel
	}
	policy := cfg.Match.Policy
	if cmd.Flags().Changed("policy") {
		policy = matchPolicy
	}
	parsed, err := quotematch.ParsePolicy(policy)
	if err != nil {
		return quotematch.Options{}, err
	}
	opts.Policy = parsed
	return opts, nil
}
