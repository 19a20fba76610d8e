// Package terminal bridges the user's tty to an environment subshell.
package terminal

import (
	"io"
	"sync"
	"time"
)

const (
	// DetachChar is Ctrl+] (0x1D).
	DetachChar = 0x1D

	// DetachCount is the number of consecutive detach chars needed.
	DetachCount = 2

	// DetachTimeout is the maximum time between detach key presses.
	DetachTimeout = 500 * time.Millisecond
)

// DetachReader wraps an io.Reader and watches for the detach sequence.
// When DetachCount consecutive DetachChar bytes arrive within
// DetachTimeout, the Detached channel closes and Read returns io.EOF.
// A lone detach char followed by other input is passed through.
type DetachReader struct {
	r        io.Reader
	detached chan struct{}
	once     sync.Once

	mu       sync.Mutex
	pending  int
	lastSeen time.Time
}

// NewDetachReader creates a DetachReader wrapping the given reader.
func NewDetachReader(r io.Reader) *DetachReader {
	return &DetachReader{
		r:        r,
		detached: make(chan struct{}),
	}
}

// Detached returns a channel closed when the detach sequence is seen.
func (d *DetachReader) Detached() <-chan struct{} {
	return d.detached
}

func (d *DetachReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n == 0 {
		return n, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Filter in place: out never outruns the scan position.
	out := p[:0]
	for _, b := range p[:n] {
		if b == DetachChar {
			now := time.Now()
			if d.pending > 0 && now.Sub(d.lastSeen) > DetachTimeout {
				d.pending = 0
			}
			d.pending++
			d.lastSeen = now

			if d.pending >= DetachCount {
				d.once.Do(func() { close(d.detached) })
				if len(out) > 0 {
					return len(out), nil
				}
				return 0, io.EOF
			}
			continue
		}

		// A normal byte breaks the sequence: release held detach
		// chars as literal input, then the byte itself.
		for ; d.pending > 0; d.pending-- {
			out = append(out, DetachChar)
		}
		out = append(out, b)
	}

	if len(out) == 0 {
		// Everything read is held as a possible sequence start.
		// Zero bytes with nil error makes the caller read again.
		return 0, nil
	}

	return len(out), err
}
