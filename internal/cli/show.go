// internal/cli/show.go
package thematic

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/thematic/internal/appconfig"
)

// showCmd represents the 'show' command group for displaying resources.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display resources or information related to thematic.`,
}

// showConfigCmd implements 'show config', which prints the merged settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), *cfg)
		if DebugEnabled() {
			pp.Fprintln(cmd.OutOrStdout(), cfg)
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
