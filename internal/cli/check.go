package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/dubmark/internal/audio"
	"github.com/mgpai22/dubmark/internal/config"
	"github.com/mgpai22/dubmark/internal/project"
	"github.com/mgpai22/dubmark/internal/session"
	"github.com/mgpai22/dubmark/internal/toolpath"
	"github.com/mgpai22/dubmark/internal/video"
)

var checkCmd = &cobra.Command{
	Use:   "check [project_dir]",
	Short: "Check a project before starting a session",
	Long: `Check that a project has everything a timing session needs.

Reports the manifest, reference video and ledger paths, probes the video with
ffprobe, lists manifest lines whose clip is missing and checks that mpv and an
audio player can be found.

Examples:
  dubmark check ./episode-01
  dubmark check ./episode-01 --durations`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().
		Bool("durations", false, "Probe every clip with ffprobe and report the total duration")
}

// findings of a project check
type checkReport struct {
	Lines         int
	MissingClips  []string
	NonAudioClips []string
	Problems      []string
	Warnings      []string
}

func runCheck(cmd *cobra.Command, args []string) error {
	durations, _ := cmd.Flags().GetBool("durations")

	paths, err := project.Resolve(args[0])
	if err != nil {
		return err
	}

	logger.Infow("Checking project", "project", paths.Root)

	report := inspectProject(paths)
	printPaths(paths)

	cfg, err := config.Load(paths.Config)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
		cfg = config.Default()
	}
	checkTools(cfg, report)

	if _, err := os.Stat(paths.Video); err == nil {
		info, err := video.NewProcessor(0).GetInfo(context.Background(), paths.Video)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("video probe: %v", err))
		} else {
			fmt.Printf("Video: %dx%d %s, %.3f fps, %s\n",
				info.Width, info.Height, info.Codec, info.FrameRate, info.Duration.Round(time.Millisecond))
		}
	}

	if durations && report.Lines > 0 {
		sess, _ := session.LoadManifest(paths.Manifest)
		total, probed := clipDurations(paths, sess, report)
		fmt.Printf("Clips: %d probed, total %s\n", probed, total.Round(time.Millisecond))
	}

	fmt.Printf("Lines: %d, missing clips: %d\n", report.Lines, len(report.MissingClips))
	for _, id := range report.MissingClips {
		fmt.Printf("  missing: %s\n", id)
	}
	for _, id := range report.NonAudioClips {
		fmt.Printf("  not an audio file: %s\n", id)
	}
	for _, w := range report.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	for _, p := range report.Problems {
		fmt.Printf("Problem: %s\n", p)
	}

	if len(report.Problems) > 0 {
		return fmt.Errorf("project check failed with %d problem(s)", len(report.Problems))
	}
	fmt.Println("Project is ready")
	return nil
}

// inspectProject validates the layout and the manifest's clips.
func inspectProject(paths project.Paths) *checkReport {
	report := &checkReport{}
	if err := paths.Validate(); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}

	sess, err := session.LoadManifest(paths.Manifest)
	if err != nil {
		return report
	}
	report.Lines = sess.Len()
	if sess.Len() == 0 {
		report.Problems = append(report.Problems, session.ErrEmptySession.Error())
	}

	for _, line := range sess.Lines() {
		path, err := paths.AudioPath(line.ID)
		if err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("line %d: %v", line.Index+1, err))
			continue
		}
		if err := audio.CheckAsset(path); err != nil {
			report.MissingClips = append(report.MissingClips, line.ID)
			continue
		}
		if !audio.IsAudioFile(path) {
			report.NonAudioClips = append(report.NonAudioClips, line.ID)
		}
	}
	return report
}

func checkTools(cfg *config.Config, report *checkReport) {
	if _, err := toolpath.Resolve(toolpath.MPV, cfg.MPV.Path); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}
	if _, err := resolvePlayer(cfg); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}
	if !toolpath.Available(toolpath.FFprobe, "") {
		report.Warnings = append(report.Warnings, "ffprobe not found; video and clip probing disabled")
	}
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		report.Warnings = append(report.Warnings, "no DISPLAY or WAYLAND_DISPLAY set; mpv may not be able to open a window")
	}
}

func printPaths(paths project.Paths) {
	for _, p := range []struct{ label, path string }{
		{"Manifest", paths.Manifest},
		{"Video", paths.Video},
		{"Ledger", paths.Ledger},
		{"Config", paths.Config},
	} {
		state := "ok"
		if _, err := os.Stat(p.path); err != nil {
			state = "absent"
		}
		fmt.Printf("%-9s %s (%s)\n", p.label+":", p.path, state)
	}
}

func clipDurations(paths project.Paths, sess *session.Session, report *checkReport) (time.Duration, int) {
	var (
		total  time.Duration
		probed int
	)
	for _, line := range sess.Lines() {
		path, err := paths.AudioPath(line.ID)
		if err != nil {
			continue
		}
		d, err := audio.GetDuration(path)
		if err != nil {
			if !errors.Is(err, audio.ErrAssetNotFound) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", line.ID, err))
			}
			continue
		}
		total += d
		probed++
	}
	return total, probed
}
