package mpv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// options for starting the reference video player
type LaunchOptions struct {
	Binary    string
	Video     string
	Socket    string
	Geometry  string // WxH+X+Y or W+X+Y, empty leaves placement to mpv
	ExtraArgs []string
	Output    io.Writer // receives mpv stdout/stderr; nil discards
}

// command line for a paused, muted, frame-accurate review session
func Args(opts LaunchOptions) []string {
	args := []string{
		"--osd-level=3",
		"--osd-fractions",
		"--osd-status-msg=${time-pos} / ${duration}",
		"--input-ipc-server=" + opts.Socket,
		"--pause",
		"--mute",
		"--profile=low-latency",
		"--untimed",
	}
	if opts.Geometry != "" {
		args = append(args, "--geometry="+opts.Geometry)
	}
	args = append(args, opts.ExtraArgs...)
	// "--" keeps a video path starting with a dash from being read as an option
	return append(args, "--", opts.Video)
}

// running mpv instance
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func Launch(ctx context.Context, opts LaunchOptions) (*Process, error) {
	if _, err := os.Stat(opts.Video); err != nil {
		return nil, fmt.Errorf("video file not found: %s", opts.Video)
	}
	if opts.Socket == "" {
		return nil, fmt.Errorf("ipc socket path is required")
	}

	// a stale socket from a crashed session would satisfy WaitReady early
	if err := os.Remove(opts.Socket); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}

	cmd := exec.CommandContext(ctx, opts.Binary, Args(opts)...)
	if opts.Output != nil {
		cmd.Stdout = opts.Output
		cmd.Stderr = opts.Output
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// closed once the process has exited
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// exit error, valid after Done is closed
func (p *Process) Err() error {
	<-p.done
	return p.err
}

// Stop asks mpv to terminate and kills it if it is still running after grace.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = p.cmd.Process.Kill()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill mpv: %w", err)
		}
		<-p.done
		return nil
	}
}
