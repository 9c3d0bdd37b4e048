package mpv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// returned (wrapped) when the socket never became connectable
var ErrNotReady = errors.New("media controller not ready")

// WaitReady polls socket with a fixed interval until it accepts a connection,
// maxWait elapses, or ctx is done.
func WaitReady(ctx context.Context, socket string, maxWait, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	var (
		dialer  net.Dialer
		lastErr error
	)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		conn, err := dialer.DialContext(ctx, "unix", socket)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf(
				"%w: %s after %d attempts in %v: %v",
				ErrNotReady,
				socket,
				attempt,
				maxWait,
				lastErr,
			)
		case <-ticker.C:
		}
	}
}
