package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/dubmark/internal/config"
)

// returned (wrapped) when a required project file or directory is absent
var ErrMissing = errors.New("missing project file")

// fixed locations inside a project directory
type Paths struct {
	Root     string
	Work     string // audio clips live here
	Manifest string
	Ledger   string
	Video    string
	Config   string
	Log      string
}

func Resolve(root string) (Paths, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve project path: %w", err)
	}

	work := filepath.Join(abs, "tmp")
	return Paths{
		Root:     abs,
		Work:     work,
		Manifest: filepath.Join(work, "wav.txt"),
		Ledger:   filepath.Join(work, "timestamp.txt"),
		Video:    filepath.Join(abs, "input", "video.mp4"),
		Config:   filepath.Join(abs, config.FileName),
		Log:      filepath.Join(work, "dubmark.log"),
	}, nil
}

// Validate checks everything a session cannot start without.
func (p Paths) Validate() error {
	info, err := os.Stat(p.Root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: project directory %s", ErrMissing, p.Root)
	}
	for _, f := range []struct{ what, path string }{
		{"manifest", p.Manifest},
		{"video", p.Video},
	} {
		info, err := os.Stat(f.path)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w: %s %s", ErrMissing, f.what, f.path)
		}
	}
	return nil
}

// AudioPath maps a clip identifier to its file in the work folder.
// Identifiers that would resolve outside the work folder are rejected.
func (p Paths) AudioPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty audio identifier")
	}
	path := filepath.Join(p.Work, id)
	rel, err := filepath.Rel(p.Work, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("audio identifier %q escapes the work folder", id)
	}
	return path, nil
}
