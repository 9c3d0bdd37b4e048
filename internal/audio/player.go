package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"go.uber.org/multierr"
)

// returned (wrapped) when a clip file does not exist
var ErrAssetNotFound = errors.New("audio asset not found")

// one running playback
type Handle interface {
	// Stop requests termination and blocks until the playback has exited.
	Stop() error
	// Done is closed when the playback ends on its own or is stopped.
	Done() <-chan struct{}
}

// starts a playback of one clip
type Launcher interface {
	Start(path string) (Handle, error)
}

// Player owns every live playback handle. Exclusive playback stops and reaps
// all of them before starting; concurrent playback leaves them running.
type Player struct {
	launcher Launcher

	mu   sync.Mutex
	live []Handle
}

func NewPlayer(launcher Launcher) *Player {
	return &Player{launcher: launcher}
}

// Play starts path alongside anything already playing.
func (p *Player) Play(path string) error {
	if err := CheckAsset(path); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.start(path)
}

// PlayExclusive stops every live playback, waits for each to exit, then
// starts path.
func (p *Player) PlayExclusive(path string) error {
	if err := CheckAsset(path); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		return fmt.Errorf("failed to stop previous playback: %w", err)
	}
	return p.start(path)
}

// StopAll terminates and reaps every live playback.
func (p *Player) StopAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

// number of playbacks still running
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return len(p.live)
}

func (p *Player) start(path string) error {
	h, err := p.launcher.Start(path)
	if err != nil {
		return fmt.Errorf("failed to start playback of %s: %w", path, err)
	}
	p.pruneLocked()
	p.live = append(p.live, h)
	return nil
}

func (p *Player) stopLocked() error {
	var errs error
	for _, h := range p.live {
		errs = multierr.Append(errs, h.Stop())
	}
	p.live = nil
	return errs
}

func (p *Player) pruneLocked() {
	running := p.live[:0]
	for _, h := range p.live {
		select {
		case <-h.Done():
		default:
			running = append(running, h)
		}
	}
	p.live = running
}

// CommandLauncher plays clips with an external player process such as
// afplay or ffplay.
type CommandLauncher struct {
	Binary string
	Args   []string
}

func (l CommandLauncher) Start(path string) (Handle, error) {
	args := append(append([]string{}, l.Args...), path)
	cmd := exec.Command(l.Binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

func (h *processHandle) Stop() error {
	select {
	case <-h.done:
		return nil
	default:
	}

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-h.done
			return nil
		}
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to stop player: %w", err)
		}
	}
	<-h.done
	return nil
}
