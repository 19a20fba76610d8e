package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// ErrDetached is returned when the user triggers the detach sequence.
var ErrDetached = errors.New("detach sequence detected")

// Console wraps terminal operations for attaching to a subshell.
type Console struct {
	stdin  *os.File
	stdout *os.File
	fd     int
}

// Current returns the current console.
func Current() *Console {
	return &Console{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		fd:     int(os.Stdin.Fd()),
	}
}

// IsTTY returns true if the console's input is a terminal.
func (c *Console) IsTTY() bool {
	return term.IsTerminal(c.fd)
}

// SetRaw puts the terminal into raw mode and returns restore function.
func (c *Console) SetRaw() (func(), error) {
	oldState, err := term.MakeRaw(c.fd)
	if err != nil {
		return nil, err
	}
	return func() {
		term.Restore(c.fd, oldState)
	}, nil
}

// Size returns the current terminal size.
func (c *Console) Size() (width, height int, err error) {
	return term.GetSize(c.fd)
}

// Attach connects the terminal to the subshell's pty with bidirectional
// copy. The resize callback, if non-nil, receives the terminal size on
// attach and whenever the window changes. Blocks until ctx is
// cancelled, the detach sequence is seen, or an I/O stream closes.
// Returns ErrDetached if the user triggers Ctrl+] twice.
func (c *Console) Attach(ctx context.Context, shellIn io.Writer, shellOut io.Reader, resize func(width, height int)) error {
	restore, err := c.SetRaw()
	if err != nil {
		return err
	}
	defer restore()

	fmt.Fprintf(c.stdout, "Detach: Ctrl+] Ctrl+] (press twice quickly)\r\n")

	// Propagate window size changes to the pty
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	propagate := func() {
		if resize == nil {
			return
		}
		if w, h, err := c.Size(); err == nil {
			resize(w, h)
		}
	}
	propagate()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				propagate()
			}
		}
	}()

	detach := NewDetachReader(c.stdin)

	var wg sync.WaitGroup
	wg.Add(2)

	// keyboard -> shell (with detach detection)
	go func() {
		defer wg.Done()
		io.Copy(shellIn, detach)
	}()

	// shell -> display
	go func() {
		defer wg.Done()
		io.Copy(c.stdout, shellOut)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-detach.Detached():
		fmt.Fprintf(c.stdout, "\r\nDetached.\r\n")
		return ErrDetached
	case <-done:
		select {
		case <-detach.Detached():
			fmt.Fprintf(c.stdout, "\r\nDetached.\r\n")
			return ErrDetached
		default:
			return nil
		}
	}
}
