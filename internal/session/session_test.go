package session

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/mgpai22/dubmark/internal/ledger"
)

func TestCurrentEmptySession(t *testing.T) {
	s := New(nil)
	if _, err := s.Current(); !errors.Is(err, ErrEmptySession) {
		t.Errorf("expected ErrEmptySession, got %v", err)
	}

	// movement on an empty session must not panic or leave the range
	s.MoveNext()
	s.MovePrevious()
	if s.Index() != 0 {
		t.Errorf("expected index 0, got %d", s.Index())
	}
}

func TestMoveClamps(t *testing.T) {
	s := New([]string{"a.wav", "b.wav", "c.wav"})

	s.MovePrevious()
	if s.Index() != 0 {
		t.Errorf("MovePrevious at start: expected 0, got %d", s.Index())
	}

	for i := 0; i < 10; i++ {
		s.MoveNext()
	}
	if s.Index() != 2 {
		t.Errorf("MoveNext past end: expected 2, got %d", s.Index())
	}

	s.MovePrevious()
	line, err := s.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if line.ID != "b.wav" || line.Index != 1 {
		t.Errorf("unexpected current line %+v", line)
	}
}

func TestClampingLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{1, 2, 5, 17} {
		ids := make([]string, size)
		for i := range ids {
			ids[i] = "line.wav"
		}
		s := New(ids)

		for step := 0; step < 500; step++ {
			if rng.Intn(2) == 0 {
				s.MoveNext()
			} else {
				s.MovePrevious()
			}
			if s.Index() < 0 || s.Index() > size-1 {
				t.Fatalf("size %d: index %d escaped range after step %d", size, s.Index(), step)
			}
		}
	}
}

func TestSeekClamps(t *testing.T) {
	s := New([]string{"a", "b", "c"})

	tests := []struct {
		target int
		want   int
	}{
		{-5, 0},
		{1, 1},
		{2, 2},
		{99, 2},
	}
	for _, tt := range tests {
		s.Seek(tt.target)
		if s.Index() != tt.want {
			t.Errorf("Seek(%d): expected %d, got %d", tt.target, tt.want, s.Index())
		}
	}
}

type fakeRecorder struct {
	entries []ledger.Entry
	err     error
}

func (f *fakeRecorder) Append(id string, seconds float64) (ledger.Entry, error) {
	if f.err != nil {
		return ledger.Entry{}, f.err
	}
	e := ledger.Entry{Seconds: seconds, ID: id}
	f.entries = append(f.entries, e)
	return e, nil
}

func TestMarkCurrentAndAdvance(t *testing.T) {
	s := New([]string{"a.wav", "b.wav"})
	rec := &fakeRecorder{}

	entry, err := s.MarkCurrentAndAdvance(rec, 1.5)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if entry.ID != "a.wav" {
		t.Errorf("expected mark for a.wav, got %q", entry.ID)
	}
	if s.Index() != 1 {
		t.Errorf("expected index 1 after mark, got %d", s.Index())
	}
	if len(rec.entries) != 1 {
		t.Errorf("expected exactly one entry, got %d", len(rec.entries))
	}
}

func TestMarkFailureKeepsIndex(t *testing.T) {
	s := New([]string{"a.wav", "b.wav"})
	rec := &fakeRecorder{err: ledger.ErrWrite}

	if _, err := s.MarkCurrentAndAdvance(rec, 1); !errors.Is(err, ledger.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if s.Index() != 0 {
		t.Errorf("expected index to stay at 0, got %d", s.Index())
	}
}

func TestMarkEmptySession(t *testing.T) {
	rec := &fakeRecorder{}
	if _, err := New(nil).MarkCurrentAndAdvance(rec, 1); !errors.Is(err, ErrEmptySession) {
		t.Errorf("expected ErrEmptySession, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("expected no entries, got %d", len(rec.entries))
	}
}

func TestThreeLineMarkScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamp.txt")
	l := ledger.Open(path)
	s := New([]string{"a.wav", "b.wav", "c.wav"})

	for i, secs := range []float64{1, 2, 3} {
		entry, err := s.MarkCurrentAndAdvance(l, secs)
		if err != nil {
			t.Fatalf("mark %d failed: %v", i, err)
		}
		if want := []string{"a.wav", "b.wav", "c.wav"}[i]; entry.ID != want {
			t.Errorf("mark %d: expected %s, got %s", i, want, entry.ID)
		}
	}

	if s.Index() != 2 {
		t.Errorf("expected index clamped at 2, got %d", s.Index())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	want := "1.000|a.wav\n2.000|b.wav\n3.000|c.wav\n"
	if string(data) != want {
		t.Errorf("got ledger %q, want %q", string(data), want)
	}

	// marking again at the end re-times the last line
	if _, err := s.MarkCurrentAndAdvance(l, 4); err != nil {
		t.Fatalf("extra mark failed: %v", err)
	}
	last, found, err := l.FindLast("c.wav")
	if err != nil || !found || last.Seconds != 4 {
		t.Errorf("expected c.wav re-timed to 4, got %+v found=%v err=%v", last, found, err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wav.txt")
	if err := os.WriteFile(path, []byte("a.wav\r\nb.wav\n c.wav \n"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	s, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 lines, got %d", s.Len())
	}
	lines := s.Lines()
	for i, want := range []string{"a.wav", "b.wav", "c.wav"} {
		if lines[i].ID != want || lines[i].Index != i {
			t.Errorf("line %d: got %+v, want %s", i, lines[i], want)
		}
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
