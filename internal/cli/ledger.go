package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/dubmark/internal/ledger"
	"github.com/mgpai22/dubmark/internal/project"
	"github.com/mgpai22/dubmark/internal/session"
	"github.com/mgpai22/dubmark/internal/timecode"
)

const unmarked = "--:--:--.---"

var ledgerCmd = &cobra.Command{
	Use:   "ledger [project_dir]",
	Short: "Show the recorded start time of every line",
	Long: `Show the newest recorded mark for every manifest line.

Lines that were never marked are shown with a dashed timecode. With --all the
raw ledger is printed in recording order instead.

Examples:
  dubmark ledger ./episode-01
  dubmark ledger ./episode-01 --all`,
	Args: cobra.ExactArgs(1),
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().
		Bool("all", false, "Print every entry in recording order")
}

func runLedger(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	paths, err := project.Resolve(args[0])
	if err != nil {
		return err
	}
	l := ledger.Open(paths.Ledger)

	if all {
		entries, err := l.Entries()
		if err != nil {
			return err
		}
		for i, e := range entries {
			fmt.Printf("%5d  %s  %s\n", i+1, timecode.Format(e.Seconds), e.ID)
		}
		fmt.Printf("Entries: %d\n", len(entries))
		return nil
	}

	sess, err := session.LoadManifest(paths.Manifest)
	if err != nil {
		return err
	}
	latest, skipped, err := l.Latest()
	if err != nil {
		return err
	}

	rows, marked := summarize(sess.Lines(), latest)
	for _, row := range rows {
		fmt.Println(row)
	}
	fmt.Printf("Marked: %d/%d\n", marked, sess.Len())
	if skipped > 0 {
		logger.Warnw("Skipped malformed ledger lines", "count", skipped, "ledger", paths.Ledger)
	}
	return nil
}

// summarize renders one row per line with its newest mark.
func summarize(lines []session.Line, latest map[string]ledger.Entry) ([]string, int) {
	rows := make([]string, 0, len(lines))
	marked := 0
	for _, line := range lines {
		tc := unmarked
		if e, ok := latest[line.ID]; ok {
			tc = timecode.Format(e.Seconds)
			marked++
		}
		rows = append(rows, fmt.Sprintf("%5d  %s  %s", line.Index+1, tc, line.ID))
	}
	return rows, marked
}
