package transport

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Credentials identifies the process on the other end of an accepted
// connection, read via SO_PEERCRED at accept time.
type Credentials struct {
	PID int32
	UID uint32
	GID uint32
}

// Conn is a non-blocking AF_UNIX stream socket.
type Conn struct {
	fd int
}

// Listener is a non-blocking AF_UNIX stream listening socket.
type Listener struct {
	fd   int
	path string
}

// Listen creates, binds, and listens on a local stream socket at path,
// unlinking any stale socket file first.
func Listen(path string, backlog int) (*Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("transport: unlink %s: %w", path, err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: set nonblock: %w", err)
	}
	addr := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: bind %s: %w", path, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	return &Listener{fd: fd, path: path}, nil
}

// Fd returns the listener's file descriptor, for inclusion in a
// readiness set.
func (l *Listener) Fd() int { return l.fd }

// Accept accepts one pending connection and reads its peer credentials.
// It returns unix.EAGAIN (wrapped) if none is pending; callers normally
// call Accept only after Ready reports the listener fd readable.
func (l *Listener) Accept() (*Conn, Credentials, error) {
	fd, _, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK)
	if err != nil {
		return nil, Credentials{}, fmt.Errorf("transport: accept: %w", err)
	}
	cred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		unix.Close(fd)
		return nil, Credentials{}, fmt.Errorf("transport: peer credentials: %w", err)
	}
	return &Conn{fd: fd}, Credentials{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}, nil
}

// Close closes the listening socket and removes the socket file.
func (l *Listener) Close() error {
	err := unix.Close(l.fd)
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		if err == nil {
			err = rmErr
		}
	}
	return err
}

// Connect dials a busybus socket at path.
func Connect(path string) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}
	addr := &unix.SockaddrUnix{Name: path}
	if err := unix.Connect(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: connect %s: %w", path, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: set nonblock: %w", err)
	}
	return &Conn{fd: fd}, nil
}

// Fd returns the connection's file descriptor, for inclusion in a
// readiness set.
func (c *Conn) Fd() int { return c.fd }

// Close closes the connection.
func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

// RecvExact reads exactly len(buf) bytes, looping (with short readiness
// waits between retries) until the buffer is full. It returns
// ErrConnClosed on EOF mid-message, ErrShortRead on any other partial
// read that cannot make progress.
func (c *Conn) RecvExact(buf []byte) error {
	got := 0
	for got < len(buf) {
		n, err := unix.Read(c.fd, buf[got:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				if _, werr := Ready([]int{c.fd}, false, true, 500*time.Millisecond); werr != nil && werr != ErrPollInterrupted {
					return werr
				}
				continue
			}
			return fmt.Errorf("%w: %v", ErrShortRead, err)
		}
		if n == 0 {
			if got == 0 {
				return ErrConnClosed
			}
			return ErrConnClosed
		}
		got += n
	}
	return nil
}

// SendAll writes every byte of every buffer in bufs, looping until all
// are sent. It returns ErrShortWrite if a hard error stops it early.
func (c *Conn) SendAll(bufs ...[]byte) error {
	for _, b := range bufs {
		sent := 0
		for sent < len(b) {
			n, err := unix.Write(c.fd, b[sent:])
			if err != nil {
				if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
					if _, werr := Ready([]int{c.fd}, true, false, 500*time.Millisecond); werr != nil && werr != ErrPollInterrupted {
						return werr
					}
					continue
				}
				return fmt.Errorf("%w: %v", ErrShortWrite, err)
			}
			sent += n
		}
	}
	return nil
}

// Ready polls fds for readability (readable) and/or writability
// (writable), returning the subset that are ready. It returns
// ErrPollInterrupted on EINTR, leaving the caller to retry the loop.
func Ready(fds []int, writable, readable bool, timeout time.Duration) ([]int, error) {
	var events int16
	if readable {
		events |= unix.POLLIN
	}
	if writable {
		events |= unix.POLLOUT
	}
	pfds := make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: events}
	}
	n, err := unix.Poll(pfds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil, ErrPollInterrupted
		}
		return nil, fmt.Errorf("transport: poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int, 0, n)
	for _, pfd := range pfds {
		if pfd.Revents&(unix.POLLIN|unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
			out = append(out, int(pfd.Fd))
		}
	}
	return out, nil
}
