package toolpath

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// external binary the workstation shells out to
type Tool struct {
	Name string // executable looked up on PATH
	Env  string // environment override holding a full path
}

var (
	MPV     = Tool{Name: "mpv", Env: "DUBMARK_MPV_PATH"}
	FFprobe = Tool{Name: "ffprobe", Env: "DUBMARK_FFPROBE_PATH"}
)

// player binary and fixed arguments for a platform; the clip path is appended
type AudioPlayer struct {
	Tool
	Args []string
}

func DefaultAudioPlayer(goos string) AudioPlayer {
	if goos == "darwin" {
		return AudioPlayer{Tool: Tool{Name: "afplay", Env: "DUBMARK_AUDIO_PLAYER"}}
	}
	return AudioPlayer{
		Tool: Tool{Name: "ffplay", Env: "DUBMARK_AUDIO_PLAYER"},
		Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
	}
}

// Resolve picks the binary for t: the environment override first, then the
// configured value (a path or a bare name), then a PATH lookup of t.Name.
func Resolve(t Tool, configured string) (string, error) {
	if t.Env != "" {
		if p := strings.TrimSpace(os.Getenv(t.Env)); p != "" {
			if !fileExists(p) {
				return "", fmt.Errorf("%s=%s does not point to a file", t.Env, p)
			}
			return p, nil
		}
	}

	if configured = strings.TrimSpace(configured); configured != "" {
		if strings.ContainsRune(configured, filepath.Separator) {
			if !fileExists(configured) {
				return "", fmt.Errorf("%s not found at %s", t.Name, configured)
			}
			return configured, nil
		}
		found, err := exec.LookPath(configured + executableSuffix(configured))
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH: %w", configured, err)
		}
		return found, nil
	}

	found, err := exec.LookPath(t.Name + executableSuffix(t.Name))
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH (set %s): %w", t.Name, t.Env, err)
	}
	return found, nil
}

// reports whether t can be resolved without returning the path
func Available(t Tool, configured string) bool {
	_, err := Resolve(t, configured)
	return err == nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return ".exe"
	}
	return ""
}
