//go:build unix

package terminal

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSaveNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	g, err := Save(int(f.Fd()))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if g.Active() {
		t.Error("a regular file must not produce an active guard")
	}
	if err := g.Restore(); err != nil {
		t.Errorf("Restore failed: %v", err)
	}
	// idempotent
	if err := g.Restore(); err != nil {
		t.Errorf("second Restore failed: %v", err)
	}
}

func TestRestoreOnSignal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	g, err := Save(int(f.Fd()))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := make(chan os.Signal, 1)
	g.RestoreOnSignal(func(sig os.Signal) { got <- sig })

	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("failed to signal self: %v", err)
	}

	select {
	case sig := <-got:
		if sig != syscall.SIGHUP {
			t.Errorf("expected SIGHUP, got %v", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler did not run")
	}
}

func TestRestoreStopsSignalWatcher(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	g, _ := Save(int(f.Fd()))
	called := make(chan struct{}, 1)
	g.RestoreOnSignal(func(os.Signal) { called <- struct{}{} })

	if err := g.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	select {
	case <-called:
		t.Error("exit callback must not run after a normal restore")
	case <-time.After(50 * time.Millisecond):
	}
}
