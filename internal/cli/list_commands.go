// internal/cli/list_commands.go
package thematic

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/report"
)

// commandsCmd implements 'commands', which prints the command tree with
// each command's short description.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return report.Write(cmd.OutOrStdout(), commandTable(rootCmd), 0)
	},
}

// commandTable walks the command tree depth first, indenting each level.
func commandTable(root *cobra.Command) records.Table {
	t := records.Table{Name: "commands", Columns: []string{"command", "description"}}
	var walk func(cmd *cobra.Command, path string, depth int)
	walk = func(cmd *cobra.Command, path string, depth int) {
		if path != "" {
			path += " "
		}
		path += cmd.Name()
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return
		}
		t.Rows = append(t.Rows, []any{strings.Repeat("  ", depth) + path, cmd.Short})
		for _, sub := range cmd.Commands() {
			walk(sub, path, depth+1)
		}
	}
	walk(root, "", 0)
	return t
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
