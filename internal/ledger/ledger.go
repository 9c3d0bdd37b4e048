package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// returned (wrapped) when an entry cannot be appended
var ErrWrite = errors.New("ledger write failed")

const separator = "|"

// one recorded mark
type Entry struct {
	Seconds float64
	ID      string
}

// renders the on-disk form without the trailing newline
func (e Entry) String() string {
	return strconv.FormatFloat(e.Seconds, 'f', 3, 64) + separator + e.ID
}

// parses a single "<seconds>|<identifier>" line
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	ts, id, ok := strings.Cut(line, separator)
	if !ok {
		return Entry{}, fmt.Errorf("missing separator in ledger line %q", line)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp in ledger line %q: %w", line, err)
	}

	return Entry{Seconds: seconds, ID: id}, nil
}

// Ledger is the append-only timestamp log. The file is created on first
// append; a ledger that has never been written reads as empty.
type Ledger struct {
	path string
	mu   sync.Mutex
}

func Open(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string {
	return l.path
}

// Append writes one entry as a single write on an O_APPEND descriptor, so a
// concurrent reader sees either the whole line or nothing.
func (l *Ledger) Append(id string, seconds float64) (Entry, error) {
	if strings.ContainsAny(id, "\r\n") {
		return Entry{}, fmt.Errorf("%w: identifier %q contains a line break", ErrWrite, id)
	}

	entry := Entry{Seconds: seconds, ID: id}
	line := []byte(entry.String() + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return Entry{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return entry, nil
}

// FindLast returns the most recently appended entry for id. A missing file or
// an unknown id reports found=false with a nil error.
func (l *Ledger) FindLast(id string) (Entry, bool, error) {
	entries, _, err := l.read()
	if err != nil {
		return Entry{}, false, err
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ID == id {
			return entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}

// all entries in append order
func (l *Ledger) Entries() ([]Entry, error) {
	entries, _, err := l.read()
	return entries, err
}

// Latest maps every identifier to its most recent entry and reports how many
// malformed lines were skipped.
func (l *Ledger) Latest() (map[string]Entry, int, error) {
	entries, skipped, err := l.read()
	if err != nil {
		return nil, 0, err
	}

	latest := make(map[string]Entry, len(entries))
	for _, e := range entries {
		latest[e.ID] = e
	}
	return latest, skipped, nil
}

func (l *Ledger) read() ([]Entry, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	var (
		entries []Entry
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseLine(line)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read ledger: %w", err)
	}

	return entries, skipped, nil
}
