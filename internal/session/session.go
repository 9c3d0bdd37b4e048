package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mgpai22/dubmark/internal/ledger"
)

// returned by Current when no subtitle lines were loaded
var ErrEmptySession = errors.New("session has no subtitle lines")

// Line is one manifest entry. ID names the audio clip and doubles as the
// display text.
type Line struct {
	Index int
	ID    string
}

// records a mark for a line; satisfied by *ledger.Ledger
type Recorder interface {
	Append(id string, seconds float64) (ledger.Entry, error)
}

// Session walks an ordered, fixed list of subtitle lines. The current index
// is clamped to [0, len-1] and never wraps.
type Session struct {
	lines   []Line
	current int
}

func New(ids []string) *Session {
	lines := make([]Line, len(ids))
	for i, id := range ids {
		lines[i] = Line{Index: i, ID: id}
	}
	return &Session{lines: lines}
}

// reads one identifier per manifest line
func LoadManifest(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ids = append(ids, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return New(ids), nil
}

func (s *Session) Len() int {
	return len(s.lines)
}

func (s *Session) Index() int {
	return s.current
}

// copy of all lines in order
func (s *Session) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Session) Current() (Line, error) {
	if len(s.lines) == 0 {
		return Line{}, ErrEmptySession
	}
	return s.lines[s.current], nil
}

func (s *Session) MoveNext() {
	s.Seek(s.current + 1)
}

func (s *Session) MovePrevious() {
	s.Seek(s.current - 1)
}

// jumps to index i, clamped to the valid range
func (s *Session) Seek(i int) {
	last := len(s.lines) - 1
	if last < 0 {
		s.current = 0
		return
	}
	s.current = max(0, min(i, last))
}

// MarkCurrentAndAdvance records seconds for the current line and then moves
// to the next one. On the last line the move is a no-op, so repeated marks
// re-time that line. A failed append leaves the index where it was.
func (s *Session) MarkCurrentAndAdvance(rec Recorder, seconds float64) (ledger.Entry, error) {
	line, err := s.Current()
	if err != nil {
		return ledger.Entry{}, err
	}

	entry, err := rec.Append(line.ID, seconds)
	if err != nil {
		return ledger.Entry{}, err
	}

	s.MoveNext()
	return entry, nil
}
