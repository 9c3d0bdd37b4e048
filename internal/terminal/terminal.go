package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// Guard holds a snapshot of the terminal state taken before the video player
// and the UI start changing input modes.
type Guard struct {
	fd    int
	state *term.State

	once sync.Once
	err  error
	stop chan struct{}
}

// Save snapshots the state of fd. A descriptor that is not a terminal yields
// a guard whose Restore does nothing.
func Save(fd int) (*Guard, error) {
	g := &Guard{fd: fd, stop: make(chan struct{})}
	if !term.IsTerminal(fd) {
		return g, nil
	}

	state, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read terminal state: %w", err)
	}
	g.state = state
	return g, nil
}

// reports whether a snapshot was taken
func (g *Guard) Active() bool {
	return g.state != nil
}

// Restore puts the saved state back. Only the first call has an effect.
func (g *Guard) Restore() error {
	g.once.Do(func() {
		close(g.stop)
		if g.state != nil {
			if err := term.Restore(g.fd, g.state); err != nil {
				g.err = fmt.Errorf("failed to restore terminal state: %w", err)
			}
		}
	})
	return g.err
}

// RestoreOnSignal restores the terminal and calls exit when the process
// receives an interrupt, termination or hangup signal.
func (g *Guard) RestoreOnSignal(exit func(sig os.Signal)) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			_ = g.Restore()
			if exit != nil {
				exit(sig)
			}
		case <-g.stop:
		}
	}()
}
