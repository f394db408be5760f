// internal/cli/duplicates.go
package thematic

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/duplicates"
	"github.com/mwiater/thematic/internal/report"
)

var (
	duplicatesKey  string
	duplicatesTop  int
	duplicatesOnly bool
)

// duplicatesCmd implements 'duplicates', which tallies how often each value
// of a record field occurs.
var duplicatesCmd = &cobra.Command{
	Use:   "duplicates FILE",
	Short: "Count repeated codes or themes in a records file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readRows(args[0])
		if err != nil {
			return err
		}
		counts := duplicates.Count(rows, duplicatesKey)
		total := counts.Total()
		if duplicatesOnly {
			counts = duplicates.FilterDuplicates(counts)
		}

		t := duplicates.Table("duplicates", duplicates.TopN(counts, duplicatesTop))
		if err := showTable(cmd, t, getConfig().ExportPath); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if total == 0 {
			fmt.Fprintln(w, report.Warn("no records carry %q", duplicatesKey))
			return nil
		}
		fmt.Fprintf(w, "%d distinct values across %d records\n", counts.Len(), total)
		return nil
	},
}

func init() {
	duplicatesCmd.Flags().StringVarP(&duplicatesKey, "key", "k", "code", "record field to count")
	duplicatesCmd.Flags().IntVar(&duplicatesTop, "top", duplicates.All, "show only the N most common values (negative = all)")
	duplicatesCmd.Flags().BoolVar(&duplicatesOnly, "only-duplicates", false, "drop values that occur once")
	rootCmd.AddCommand(duplicatesCmd)
}
