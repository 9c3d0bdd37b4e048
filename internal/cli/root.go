package cli

import (
	"github.com/mgpai22/dubmark/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dubmark [project_dir]",
	Short: "Record dubbing start times against a reference video",
	Long: `Dubmark is a timing workstation for dubbing projects.

It opens the project's reference video in mpv, lists the subtitle lines from
tmp/wav.txt and records the video position of every mark in tmp/timestamp.txt
as "<seconds>|<clip>". Each clip is played from tmp/<clip>.

Project layout:
  <project>/input/video.mp4   reference video
  <project>/tmp/wav.txt       one clip name per subtitle line
  <project>/tmp/timestamp.txt marks (appended, never rewritten)
  <project>/dubmark.yaml      optional settings

Examples:
  dubmark ./episode-01
  dubmark check ./episode-01
  dubmark ledger ./episode-01`,
	Args: cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
	RunE:         runSession,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
