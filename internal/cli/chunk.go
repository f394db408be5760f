// internal/cli/chunk.go
package thematic

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/thematic/internal/transcripts"
)

var chunkTranscripts string

// chunkCmd implements 'chunk', which previews the word windows sent to the model.
var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split transcripts into overlapping word chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		dir, err := transcriptDir(chunkTranscripts, cfg)
		if err != nil {
			return err
		}
		chunks, err := loadChunks(dir, cfg)
		if err != nil {
			return err
		}
		return showTable(cmd, transcripts.SegmentTable(chunks), cfg.ExportPath)
	},
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkTranscripts, "transcripts", "t", "", "directory of transcripts (.txt, .pdf)")
	rootCmd.AddCommand(chunkCmd)
}
