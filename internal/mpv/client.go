package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// returned (wrapped) when the control socket is unreachable or replies with
// something other than a successful, well-formed response
var ErrQuery = errors.New("media controller query failed")

// JSON IPC request; mpv echoes request_id in the matching reply
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type response struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
}

// Client talks to mpv's --input-ipc-server socket. Every command uses its own
// connection, bounded by the command timeout.
type Client struct {
	socket  string
	timeout time.Duration
	nextID  atomic.Int64
	dialer  net.Dialer
}

func NewClient(socket string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Client{socket: socket, timeout: timeout}
}

func (c *Client) Socket() string {
	return c.socket
}

// Command sends one command and returns the data field of its reply.
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrQuery)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrQuery, c.socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := request{Command: args, RequestID: c.nextID.Add(1)}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %v: %v", ErrQuery, args[0], err)
	}
	payload = append(payload, '\n')

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: send %v: %v", ErrQuery, args[0], err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: read reply to %v: %v", ErrQuery, args[0], err)
		}

		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("%w: malformed reply %q", ErrQuery, line)
		}
		// property-change and playback events interleave with replies
		if resp.Event != "" || resp.RequestID != req.RequestID {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("%w: %v: %s", ErrQuery, args[0], resp.Error)
		}
		return resp.Data, nil
	}
}

func (c *Client) run(ctx context.Context, args ...any) error {
	_, err := c.Command(ctx, args...)
	return err
}

// current playback position in seconds
func (c *Client) Position(ctx context.Context) (float64, error) {
	data, err := c.Command(ctx, "get_property", "time-pos")
	if err != nil {
		return 0, err
	}

	var pos *float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return 0, fmt.Errorf("%w: time-pos is not a number: %s", ErrQuery, data)
	}
	if pos == nil {
		return 0, fmt.Errorf("%w: time-pos unavailable", ErrQuery)
	}
	return *pos, nil
}

func (c *Client) SeekRelative(ctx context.Context, seconds float64) error {
	return c.run(ctx, "seek", seconds, "relative")
}

func (c *Client) SeekAbsolute(ctx context.Context, seconds float64) error {
	return c.run(ctx, "seek", seconds, "absolute")
}

func (c *Client) FrameStep(ctx context.Context) error {
	return c.run(ctx, "frame-step")
}

func (c *Client) FrameBackStep(ctx context.Context) error {
	return c.run(ctx, "frame-back-step")
}

func (c *Client) TogglePause(ctx context.Context) error {
	return c.run(ctx, "cycle", "pause")
}

func (c *Client) ToggleMute(ctx context.Context) error {
	return c.run(ctx, "cycle", "mute")
}

func (c *Client) AddVolume(ctx context.Context, delta int) error {
	return c.run(ctx, "add", "volume", delta)
}

func (c *Client) Quit(ctx context.Context) error {
	return c.run(ctx, "quit")
}
