// internal/cli/mcp.go
package thematic

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/mcpserver"
)

// mcpCmd implements 'mcp', which serves the analysis tools to MCP clients.
var mcpCmd = &cobra.Command{
	Use:         "mcp",
	Short:       "Start an MCP server exposing quote matching and diversity tools",
	Annotations: map[string]string{skipLoggingAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if err := logging.InitFileOnly(cfg.LogFilePath()); err != nil {
			return err
		}
		return mcpserver.New(*cfg).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
