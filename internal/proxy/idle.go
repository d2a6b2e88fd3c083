package proxy

import (
	"io"
	"time"
)

// idleTimeoutReader cancels cancel if no Read call returns data for
// timeout; each successful read resets the watchdog. This lets long-lived
// SSE streams run indefinitely while still bounding dead upstream
// connections, without imposing a cap on total call duration.
type idleTimeoutReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
}

func newIdleTimeoutReader(r io.Reader, timeout time.Duration, cancel func()) *idleTimeoutReader {
	return &idleTimeoutReader{
		r:       r,
		timeout: timeout,
		timer:   time.AfterFunc(timeout, cancel),
	}
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}
