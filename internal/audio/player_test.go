package audio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"
)

// fakeLauncher records start/stop order instead of spawning processes.
type fakeLauncher struct {
	mu      sync.Mutex
	events  []string
	handles map[string]*fakeHandle
	fail    error
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{handles: map[string]*fakeHandle{}}
}

func (l *fakeLauncher) Start(path string) (Handle, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	name := filepath.Base(path)
	h := &fakeHandle{name: name, launcher: l, done: make(chan struct{})}
	l.record("start " + name)
	l.mu.Lock()
	l.handles[name] = h
	l.mu.Unlock()
	return h, nil
}

func (l *fakeLauncher) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *fakeLauncher) log() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.events...)
}

type fakeHandle struct {
	name     string
	launcher *fakeLauncher
	once     sync.Once
	done     chan struct{}
	stopped  bool
}

func (h *fakeHandle) Stop() error {
	h.once.Do(func() {
		h.stopped = true
		h.launcher.record("stop " + h.name)
		close(h.done)
	})
	return nil
}

func (h *fakeHandle) Done() <-chan struct{} {
	return h.done
}

// finish simulates the clip playing to its end.
func (h *fakeHandle) finish() {
	h.once.Do(func() { close(h.done) })
}

func writeClips(t *testing.T, names ...string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := map[string]string{}
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("RIFF"), 0644); err != nil {
			t.Fatalf("failed to write clip: %v", err)
		}
		paths[n] = p
	}
	return paths
}

func TestPlayExclusiveStopsPrevious(t *testing.T) {
	clips := writeClips(t, "a.wav", "b.wav")
	launcher := newFakeLauncher()
	player := NewPlayer(launcher)

	if err := player.Play(clips["a.wav"]); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.PlayExclusive(clips["b.wav"]); err != nil {
		t.Fatalf("PlayExclusive failed: %v", err)
	}

	want := []string{"start a.wav", "stop a.wav", "start b.wav"}
	if got := launcher.log(); !reflect.DeepEqual(got, want) {
		t.Errorf("got events %v, want %v", got, want)
	}
	if player.Active() != 1 {
		t.Errorf("expected 1 active playback, got %d", player.Active())
	}
}

func TestPlayConcurrentLeavesPreviousRunning(t *testing.T) {
	clips := writeClips(t, "a.wav", "b.wav")
	launcher := newFakeLauncher()
	player := NewPlayer(launcher)

	if err := player.Play(clips["a.wav"]); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.Play(clips["b.wav"]); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if launcher.handles["a.wav"].stopped {
		t.Error("concurrent playback must not stop a.wav")
	}
	want := []string{"start a.wav", "start b.wav"}
	if got := launcher.log(); !reflect.DeepEqual(got, want) {
		t.Errorf("got events %v, want %v", got, want)
	}
	if player.Active() != 2 {
		t.Errorf("expected 2 active playbacks, got %d", player.Active())
	}
}

func TestActivePrunesFinished(t *testing.T) {
	clips := writeClips(t, "a.wav", "b.wav")
	launcher := newFakeLauncher()
	player := NewPlayer(launcher)

	_ = player.Play(clips["a.wav"])
	_ = player.Play(clips["b.wav"])
	launcher.handles["a.wav"].finish()

	if player.Active() != 1 {
		t.Errorf("expected 1 active playback, got %d", player.Active())
	}
}

func TestStopAll(t *testing.T) {
	clips := writeClips(t, "a.wav", "b.wav")
	launcher := newFakeLauncher()
	player := NewPlayer(launcher)

	_ = player.Play(clips["a.wav"])
	_ = player.Play(clips["b.wav"])

	if err := player.StopAll(); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if !launcher.handles["a.wav"].stopped || !launcher.handles["b.wav"].stopped {
		t.Error("expected every playback to be stopped")
	}
	if player.Active() != 0 {
		t.Errorf("expected no active playback, got %d", player.Active())
	}
}

func TestPlayMissingAsset(t *testing.T) {
	launcher := newFakeLauncher()
	player := NewPlayer(launcher)
	missing := filepath.Join(t.TempDir(), "missing.wav")

	if err := player.Play(missing); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Play: expected ErrAssetNotFound, got %v", err)
	}
	if err := player.PlayExclusive(missing); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("PlayExclusive: expected ErrAssetNotFound, got %v", err)
	}
	if err := player.Play(t.TempDir()); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("directory: expected ErrAssetNotFound, got %v", err)
	}
	if len(launcher.log()) != 0 {
		t.Errorf("nothing should have started, got %v", launcher.log())
	}
}

func TestPlayLauncherFailure(t *testing.T) {
	clips := writeClips(t, "a.wav")
	launcher := newFakeLauncher()
	launcher.fail = errors.New("exec: not found")
	player := NewPlayer(launcher)

	if err := player.Play(clips["a.wav"]); err == nil {
		t.Error("expected launcher error")
	}
	if player.Active() != 0 {
		t.Errorf("expected no active playback, got %d", player.Active())
	}
}

func TestCommandLauncherStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script in place of a player")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-player")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nsleep 30\n"), 0755); err != nil {
		t.Fatalf("failed to write fake player: %v", err)
	}
	clips := writeClips(t, "a.wav", "b.wav")

	player := NewPlayer(CommandLauncher{Binary: bin})
	if err := player.Play(clips["a.wav"]); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- player.PlayExclusive(clips["b.wav"]) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("PlayExclusive failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("PlayExclusive did not return after stopping the previous player")
	}

	if player.Active() != 1 {
		t.Errorf("expected 1 active playback, got %d", player.Active())
	}
	if err := player.StopAll(); err != nil {
		t.Errorf("StopAll failed: %v", err)
	}
}

func TestCommandLauncherNaturalExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script in place of a player")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-player")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("failed to write fake player: %v", err)
	}
	clips := writeClips(t, "a.wav")

	h, err := CommandLauncher{Binary: bin, Args: []string{"-q"}}.Start(clips["a.wav"])
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}
	if err := h.Stop(); err != nil {
		t.Errorf("Stop after exit failed: %v", err)
	}
}
