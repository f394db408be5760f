// internal/cli/diversity.go
package thematic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/diversity"
	"github.com/mwiater/thematic/internal/export"
	"github.com/mwiater/thematic/internal/metrics"
	"github.com/mwiater/thematic/internal/report"
	"github.com/mwiater/thematic/internal/tui"
)

var (
	diversityTranscripts string
	diversityModel       string
	diversityRuns        int
	diversityFailFast    bool
	diversitySave        string
	diversityReplay      string
)

// diversityCmd implements 'diversity', which repeats code generation and
// measures how lexically varied the runs are.
var diversityCmd = &cobra.Command{
	Use:   "diversity",
	Short: "Measure lexical diversity of codes across repeated generation runs",
	Long: `The 'diversity' command runs code generation several times over the same
transcripts and reports token counts, unique bigrams and unique trigrams per
run, with summary statistics. --replay analyzes runs saved earlier with --save
instead of calling the model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		var (
			res diversity.Result
			err error
		)
		if diversityReplay != "" {
			raw, readErr := os.ReadFile(diversityReplay)
			if readErr != nil {
				return fmt.Errorf("read replay: %w", readErr)
			}
			res, err = diversity.ParseRuns(raw)
		} else {
			usage := metrics.NewAggregator()
			res, err = generateRuns(cmd, usage)
			if err == nil {
				err = report.Write(cmd.OutOrStdout(), usage.Table(), 0)
			}
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, f := range res.Failures {
			fmt.Fprintln(w, report.Warn("run %d failed: %v", f.Run+1, f.Err))
		}
		if diversitySave != "" {
			data, err := diversity.MarshalRuns(res)
			if err != nil {
				return err
			}
			if err := os.WriteFile(diversitySave, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("save runs: %w", err)
			}
			fmt.Fprintln(w, report.Success("saved %d runs to %s", len(res.Runs), diversitySave))
		}

		rep, err := diversity.Analyze(res.Texts())
		if err != nil {
			return err
		}
		if err := showTable(cmd, rep.Table(), cfg.ExportPath); err != nil {
			return err
		}
		statsPath := ""
		if cfg.ExportPath != "" {
			statsPath, err = statsExportPath(cfg.ExportPath)
			if err != nil {
				return err
			}
		}
		return showTable(cmd, rep.StatsTable(), statsPath)
	},
}

func generateRuns(cmd *cobra.Command, usage *metrics.Aggregator) (diversity.Result, error) {
	cfg := getConfig()
	dir, err := transcriptDir(diversityTranscripts, cfg)
	if err != nil {
		return diversity.Result{}, err
	}
	chunks, err := loadChunks(dir, cfg)
	if err != nil {
		return diversity.Result{}, err
	}
	gen, provider, err := newGenerator(cfg, diversityModel, "", chunks, usage)
	if err != nil {
		return diversity.Result{}, err
	}
	defer provider.Close()

	opts := diversityOptions(cmd, cfg)

	var res diversity.Result
	err = tui.Run(cmd.Context(), tui.Options{
		Title:       fmt.Sprintf("Running %d generations with %s", opts.Runs, gen.Model),
		Total:       opts.Runs,
		Interactive: interactive(cmd),
		Out:         cmd.OutOrStdout(),
	}, func(ctx context.Context, progress tui.ReportFunc) error {
		opts.OnRun = func(run int, err error) {
			progress(run+1, fmt.Sprintf("run %d", run+1), err)
		}
		var runErr error
		res, runErr = diversity.Run(ctx, gen.Generate, opts)
		return runErr
	})
	return res, err
}

// statsExportPath places the statistics table next to the per-run export.
// SQLite files hold both tables, so the path is reused.
func statsExportPath(path string) (string, error) {
	format, err := export.FormatFor(path)
	if err != nil {
		return "", err
	}
	if format == export.FormatSQLite {
		return path, nil
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_stats" + ext, nil
}

func init() {
	diversityCmd.Flags().StringVarP(&diversityTranscripts, "transcripts", "t", "", "directory of transcripts (.txt, .pdf)")
	diversityCmd.Flags().StringVarP(&diversityModel, "model", "m", "", "model to use (default: first model of the first host)")
	diversityCmd.Flags().IntVarP(&diversityRuns, "runs", "n", 10, "number of generation runs")
	diversityCmd.Flags().BoolVar(&diversityFailFast, "fail-fast", false, "stop at the first failed run")
	diversityCmd.Flags().StringVar(&diversitySave, "save", "", "save the raw runs as JSON for --replay")
	diversityCmd.Flags().StringVar(&diversityReplay, "replay", "", "analyze runs saved with --save instead of calling the model")
	rootCmd.AddCommand(diversityCmd)
}

// diversityOptions merges the diversity config section with any flags set on cmd.
func diversityOptions(cmd *cobra.Command, cfg *appconfig.Config) diversity.Options {
	opts := diversity.Options{
		Runs:     cfg.DiversityRuns(),
		FailFast: cfg.Diversity.FailFast,
	}
	if cmd.Flags().Changed("runs") {
		opts.Runs = diversityRuns
	}
	if cmd.Flags().Changed("fail-fast") {
		opts.FailFast = diversityFailFast
	}
	return opts
}
