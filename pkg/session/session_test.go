package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chisheng/busybus/pkg/transport"
	"github.com/chisheng/busybus/pkg/wire"
)

func acceptOne(t *testing.T, ln *transport.Listener) (*transport.Conn, transport.Credentials) {
	t.Helper()
	if _, err := transport.Ready([]int{ln.Fd()}, false, true, 2*time.Second); err != nil {
		t.Fatalf("ready: %v", err)
	}
	conn, creds, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return conn, creds
}

func TestHandshakeAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	ln, err := transport.Listen(path, 1)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	result := make(chan *Client, 1)
	go func() {
		conn, creds := acceptOne(t, ln)
		cl, err := ServerHandshake(conn, creds, nil)
		if err != nil {
			t.Errorf("ServerHandshake: %v", err)
			return
		}
		result <- cl
	}()

	cl, err := DialAndOpen(path, wire.SOCaller, "c1")
	if err != nil {
		t.Fatalf("DialAndOpen: %v", err)
	}
	defer cl.Close()

	server := <-result
	if server.Type != wire.SOCaller {
		t.Fatalf("server saw type %v, want SOCaller", server.Type)
	}
	if server.Name != "c1" {
		t.Fatalf("server saw name %q, want c1", server.Name)
	}
	if server.State != Open {
		t.Fatalf("server state = %v, want Open", server.State)
	}
}

func TestHandshakeRejectedByAuth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	ln, err := transport.Listen(path, 1)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, creds := acceptOne(t, ln)
		_, err := ServerHandshake(conn, creds, func(transport.Credentials) error {
			return ErrUnauthorized
		})
		if err != ErrUnauthorized {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	}()

	_, err = DialAndOpen(path, wire.SOCaller, "c1")
	if err != ErrRejected {
		t.Fatalf("got %v, want ErrRejected", err)
	}
	<-done
}

func TestHandshakeUnknownSOType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	ln, err := transport.Listen(path, 1)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, creds := acceptOne(t, ln)
		_, err := ServerHandshake(conn, creds, nil)
		if err != ErrUnknownSOType {
			t.Errorf("got %v, want ErrUnknownSOType", err)
		}
	}()

	_, err = DialAndOpen(path, wire.SOType(99), "c1")
	if err != ErrRejected {
		t.Fatalf("got %v, want ErrRejected", err)
	}
	<-done
}
