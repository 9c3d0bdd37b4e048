package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mgpai22/dubmark/internal/config"
	"github.com/mgpai22/dubmark/internal/ledger"
	"github.com/mgpai22/dubmark/internal/project"
	"github.com/mgpai22/dubmark/internal/session"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func newProject(t *testing.T, manifest string, clips ...string) project.Paths {
	t.Helper()
	paths, err := project.Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	writeFile(t, paths.Manifest, manifest)
	writeFile(t, paths.Video, "not really a video")
	for _, c := range clips {
		writeFile(t, filepath.Join(paths.Work, c), "RIFF")
	}
	return paths
}

func TestSummarize(t *testing.T) {
	lines := session.New([]string{"a.wav", "b.wav", "c.wav"}).Lines()
	latest := map[string]ledger.Entry{
		"a.wav": {Seconds: 3725.5, ID: "a.wav"},
		"c.wav": {Seconds: 1, ID: "c.wav"},
	}

	rows, marked := summarize(lines, latest)

	if marked != 2 {
		t.Errorf("expected 2 marked lines, got %d", marked)
	}
	want := []string{
		"    1  01:02:05.500  a.wav",
		"    2  " + unmarked + "  b.wav",
		"    3  00:00:01.000  c.wav",
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("unexpected rows:\n got %q\nwant %q", rows, want)
	}
}

func TestInspectProject(t *testing.T) {
	tests := []struct {
		name         string
		manifest     string
		clips        []string
		wantLines    int
		wantMissing  []string
		wantNonAudio []string
		wantProblem  string
	}{
		{
			name:      "all clips present",
			manifest:  "a.wav\nb.wav\n",
			clips:     []string{"a.wav", "b.wav"},
			wantLines: 2,
		},
		{
			name:        "missing clip",
			manifest:    "a.wav\nb.wav\n",
			clips:       []string{"a.wav"},
			wantLines:   2,
			wantMissing: []string{"b.wav"},
		},
		{
			name:         "non audio clip",
			manifest:     "a.wav\nnotes.txt\n",
			clips:        []string{"a.wav", "notes.txt"},
			wantLines:    2,
			wantNonAudio: []string{"notes.txt"},
		},
		{
			name:        "escaping identifier",
			manifest:    "../secret.wav\n",
			wantLines:   1,
			wantProblem: "escapes the work folder",
		},
		{
			name:        "empty manifest",
			manifest:    "",
			wantProblem: session.ErrEmptySession.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := newProject(t, tt.manifest, tt.clips...)

			report := inspectProject(paths)

			if report.Lines != tt.wantLines {
				t.Errorf("expected %d lines, got %d", tt.wantLines, report.Lines)
			}
			if !reflect.DeepEqual(report.MissingClips, tt.wantMissing) {
				t.Errorf("missing clips = %v, want %v", report.MissingClips, tt.wantMissing)
			}
			if !reflect.DeepEqual(report.NonAudioClips, tt.wantNonAudio) {
				t.Errorf("non audio clips = %v, want %v", report.NonAudioClips, tt.wantNonAudio)
			}
			if tt.wantProblem == "" && len(report.Problems) > 0 {
				t.Errorf("unexpected problems: %v", report.Problems)
			}
			if tt.wantProblem != "" && !strings.Contains(strings.Join(report.Problems, "\n"), tt.wantProblem) {
				t.Errorf("expected problem containing %q, got %v", tt.wantProblem, report.Problems)
			}
		})
	}
}

func TestInspectProjectMissingVideo(t *testing.T) {
	paths := newProject(t, "a.wav\n", "a.wav")
	if err := os.Remove(paths.Video); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	report := inspectProject(paths)

	if len(report.Problems) != 1 || !strings.Contains(report.Problems[0], "video") {
		t.Errorf("expected a single video problem, got %v", report.Problems)
	}
}

func TestResolvePlayer(t *testing.T) {
	t.Setenv("DUBMARK_AUDIO_PLAYER", "")
	bin := filepath.Join(t.TempDir(), "player")
	writeFile(t, bin, "#!/bin/sh\n")

	t.Run("configured path replaces default args", func(t *testing.T) {
		cfg := config.Default()
		cfg.Audio.Path = bin
		cfg.Audio.Args = []string{"--quiet"}

		launcher, err := resolvePlayer(cfg)
		if err != nil {
			t.Fatalf("resolvePlayer failed: %v", err)
		}
		if launcher.Binary != bin {
			t.Errorf("expected binary %s, got %s", bin, launcher.Binary)
		}
		if !reflect.DeepEqual(launcher.Args, []string{"--quiet"}) {
			t.Errorf("unexpected args %v", launcher.Args)
		}
	})

	t.Run("configured path without args", func(t *testing.T) {
		cfg := config.Default()
		cfg.Audio.Path = bin

		launcher, err := resolvePlayer(cfg)
		if err != nil {
			t.Fatalf("resolvePlayer failed: %v", err)
		}
		if len(launcher.Args) != 0 {
			t.Errorf("expected no args, got %v", launcher.Args)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("DUBMARK_AUDIO_PLAYER", bin)

		launcher, err := resolvePlayer(config.Default())
		if err != nil {
			t.Fatalf("resolvePlayer failed: %v", err)
		}
		if launcher.Binary != bin {
			t.Errorf("expected binary %s, got %s", bin, launcher.Binary)
		}
	})

	t.Run("missing configured path", func(t *testing.T) {
		cfg := config.Default()
		cfg.Audio.Path = filepath.Join(t.TempDir(), "absent")

		if _, err := resolvePlayer(cfg); err == nil {
			t.Fatal("expected an error for a missing player")
		}
	})
}
