package terminal

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestDetachReaderNormalRead(t *testing.T) {
	input := []byte("hello world")
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(buf[:n]) != "hello world" {
		t.Errorf("got %q, want %q", string(buf[:n]), "hello world")
	}

	select {
	case <-r.Detached():
		t.Error("detached channel should not be closed")
	default:
	}
}

func TestDetachReaderSingleDetachPassesThrough(t *testing.T) {
	// A lone Ctrl+] followed by normal input is literal input
	input := []byte{DetachChar, 'a', 'b'}
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)
	total := 0
	for total < 3 {
		n, err := r.Read(buf[total:])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total += n
	}

	expected := string([]byte{DetachChar, 'a', 'b'})
	if string(buf[:total]) != expected {
		t.Errorf("got %q (%v), want %q", string(buf[:total]), buf[:total], expected)
	}

	select {
	case <-r.Detached():
		t.Error("detached channel should not be closed for single detach char")
	default:
	}
}

func TestDetachReaderDoubleDetachTriggersExit(t *testing.T) {
	input := []byte{DetachChar, DetachChar}
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)
	n, err := r.Read(buf)

	if err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 bytes, got %d", n)
	}

	select {
	case <-r.Detached():
	default:
		t.Error("detached channel should be closed")
	}
}

func TestDetachReaderSequenceAfterInput(t *testing.T) {
	input := []byte{'a', 'b', DetachChar, DetachChar}
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)

	// The leading input comes through first
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("unexpected error on first read: %v", err)
	}
	if string(buf[:n]) != "ab" {
		t.Errorf("first read: got %q, want %q", string(buf[:n]), "ab")
	}

	n, err = r.Read(buf)
	if err != io.EOF {
		t.Errorf("second read: expected EOF, got %v", err)
	}
	if n != 0 {
		t.Errorf("second read: expected 0 bytes, got %d", n)
	}

	select {
	case <-r.Detached():
	default:
		t.Error("detached channel should be closed")
	}
}

func TestDetachReaderSequenceInOneBuffer(t *testing.T) {
	// Input before the sequence in the same read is returned before EOF
	input := []byte{'x', DetachChar, DetachChar}
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf[:n]) != "x" {
		t.Errorf("got %q, want %q", string(buf[:n]), "x")
	}

	select {
	case <-r.Detached():
	default:
		t.Error("detached channel should be closed")
	}

	// Next read reports the EOF
	n, err = r.Read(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("after detach: n=%d err=%v, want 0/EOF", n, err)
	}
}

func TestDetachReaderTimeoutResets(t *testing.T) {
	r := &DetachReader{
		r:        bytes.NewReader([]byte{DetachChar}),
		detached: make(chan struct{}),
	}

	buf := make([]byte, 1)
	r.Read(buf) // first detach char held

	// Age the held char past the timeout window
	r.mu.Lock()
	r.lastSeen = time.Now().Add(-DetachTimeout - time.Second)
	r.mu.Unlock()

	// Another detach char must start a new count, not complete the
	// sequence.
	r.r = bytes.NewReader([]byte{DetachChar, 'x'})
	buf = make([]byte, 64)
	total := 0
	for total < 2 {
		n, err := r.Read(buf[total:])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total += n
	}

	select {
	case <-r.Detached():
		t.Error("timed-out detach chars should not trigger")
	default:
	}
}

func TestDetachReaderIdempotentAfterDetach(t *testing.T) {
	input := []byte{DetachChar, DetachChar}
	r := NewDetachReader(bytes.NewReader(input))

	buf := make([]byte, 64)
	if _, err := r.Read(buf); err != io.EOF {
		t.Errorf("first read: expected EOF, got %v", err)
	}

	select {
	case <-r.Detached():
	default:
		t.Error("detached channel should remain closed")
	}
}
