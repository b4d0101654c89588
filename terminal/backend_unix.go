//go:build unix

package terminal

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type unixBackend struct {
	in      *os.File
	out     *os.File
	inFd    int
	outFd   int
	oldTerm *term.State

	buf []byte

	resizeMu     sync.Mutex
	resizeStopCh chan struct{}
	resizeDoneCh chan struct{}
}

// NewBackend returns the stdin/stdout backend
func NewBackend() Backend {
	return &unixBackend{
		in:    os.Stdin,
		out:   os.Stdout,
		inFd:  int(os.Stdin.Fd()),
		outFd: int(os.Stdout.Fd()),
		buf:   make([]byte, 256),
	}
}

func (b *unixBackend) MakeRaw() error {
	if !term.IsTerminal(b.inFd) {
		return ErrNotTerminal
	}
	if b.oldTerm != nil {
		return nil
	}

	old, err := term.MakeRaw(b.inFd)
	if err != nil {
		return err
	}
	b.oldTerm = old
	return nil
}

func (b *unixBackend) Restore() error {
	if b.oldTerm == nil {
		return nil
	}
	if err := term.Restore(b.inFd, b.oldTerm); err != nil {
		return err
	}
	b.oldTerm = nil
	return nil
}

func (b *unixBackend) Size() (int, int) {
	ws, err := unix.IoctlGetWinsize(b.outFd, unix.TIOCGWINSZ)
	if err != nil {
		return 80, 24 // Fallback
	}
	return int(ws.Col), int(ws.Row)
}

func (b *unixBackend) Write(p []byte) error {
	_, err := b.out.Write(p)
	return err
}

// Read waits on poll(2) for at most timeout, rounded up to whole milliseconds
func (b *unixBackend) Read(timeout time.Duration) ([]byte, error) {
	if timeout < 0 {
		timeout = 0
	}
	ms := int((timeout + time.Millisecond - 1) / time.Millisecond)

	fds := []unix.PollFd{
		{Fd: int32(b.inFd), Events: unix.POLLIN},
	}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			// Signal (typically SIGWINCH) interrupted the wait, report as timeout
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLIN == 0 {
		return nil, io.EOF
	}

	rn, err := unix.Read(b.inFd, b.buf)
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return nil, nil
		}
		return nil, err
	}
	if rn == 0 {
		return nil, io.EOF
	}

	ret := make([]byte, rn)
	copy(ret, b.buf[:rn])
	return ret, nil
}

func (b *unixBackend) SetResizeHandler(handler func(width, height int)) {
	b.resizeMu.Lock()
	defer b.resizeMu.Unlock()

	if b.resizeStopCh != nil {
		close(b.resizeStopCh)
		<-b.resizeDoneCh
		b.resizeStopCh = nil
	}
	if handler == nil {
		return
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	b.resizeStopCh = stopCh
	b.resizeDoneCh = doneCh

	go func() {
		defer close(doneCh)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGWINCH)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-stopCh:
				return
			case <-sigCh:
				w, h := b.Size()
				handler(w, h)
			}
		}
	}()
}
