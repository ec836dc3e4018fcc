package busclient

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chisheng/busybus/pkg/object"
	"github.com/chisheng/busybus/pkg/session"
	"github.com/chisheng/busybus/pkg/transport"
	"github.com/chisheng/busybus/pkg/wire"
	"github.com/stretchr/testify/require"
)

// fakeDaemon accepts exactly one connection, completes the handshake,
// then hands the session to fn for scripted protocol responses. It
// stands in for the router in tests that only exercise busclient.
func fakeDaemon(t *testing.T, path string, fn func(*session.Client)) {
	t.Helper()
	ln, err := transport.Listen(path, 1)
	require.NoError(t, err)

	go func() {
		defer ln.Close()
		var conn *transport.Conn
		var creds transport.Credentials
		for {
			c, cr, err := ln.Accept()
			if err == nil {
				conn, creds = c, cr
				break
			}
			time.Sleep(time.Millisecond)
		}
		sess, err := session.ServerHandshake(conn, creds, nil)
		if err != nil {
			return
		}
		fn(sess)
	}()
}

func TestCallEcho(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	fakeDaemon(t, path, func(sess *session.Client) {
		msg, err := session.ReadMessage(sess.Conn)
		require.NoError(t, err)
		require.Equal(t, wire.MsgCLICALL, msg.Header.Type)

		arg, err := msg.ExtractObject()
		require.NoError(t, err)
		vals, err := arg.Parse("s")
		require.NoError(t, err)
		require.Equal(t, "hello", vals[0])

		reply, err := object.Build("s", "hello")
		require.NoError(t, err)
		h := wire.NewHeader(wire.MsgCLIREPLY)
		h.Token = msg.Header.Token
		h.ErrCode = wire.EGood
		require.NoError(t, session.SendMessage(sess.Conn, h, "", reply))
	})

	cl, err := Dial(WithSockPath(path), WithName("c1"))
	require.NoError(t, err)
	defer cl.Close()

	got, err := cl.Call("bbus.bbusd.echo", "s", "hello")
	require.NoError(t, err)
	vals, err := got.Parse("s")
	require.NoError(t, err)
	require.Equal(t, "hello", vals[0])
}

func TestCallNoMethod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	fakeDaemon(t, path, func(sess *session.Client) {
		msg, err := session.ReadMessage(sess.Conn)
		require.NoError(t, err)
		h := wire.NewHeader(wire.MsgCLIREPLY)
		h.Token = msg.Header.Token
		h.ErrCode = wire.ENoMethod
		require.NoError(t, session.SendMessage(sess.Conn, h, "", nil))
	})

	cl, err := Dial(WithSockPath(path))
	require.NoError(t, err)
	defer cl.Close()

	_, err = cl.Call("no.such.method", "")
	require.ErrorIs(t, err, ErrNoMethod)
	require.ErrorIs(t, cl.LastErr(), ErrNoMethod)
}

func TestProviderRegisterAndReply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbus.sock")
	fakeDaemon(t, path, func(sess *session.Client) {
		msg, err := session.ReadMessage(sess.Conn)
		require.NoError(t, err)
		require.Equal(t, wire.MsgSRVREG, msg.Header.Type)
		meta, err := msg.ExtractMeta()
		require.NoError(t, err)
		require.Equal(t, "foo,bar,s,s", meta)

		ack := wire.NewHeader(wire.MsgSRVACK)
		ack.ErrCode = wire.EGood
		require.NoError(t, session.SendMessage(sess.Conn, ack, "", nil))

		arg, err := object.Build("s", "X")
		require.NoError(t, err)
		call := wire.NewHeader(wire.MsgSRVCALL)
		call.Token = 42
		require.NoError(t, session.SendMessage(sess.Conn, call, "bar", arg))

		reply, err := session.ReadMessage(sess.Conn)
		require.NoError(t, err)
		require.Equal(t, wire.MsgSRVREPLY, reply.Header.Type)
		require.Equal(t, uint32(42), reply.Header.Token)
	})

	p, err := DialProvider(WithSockPath(path), WithName("p1"))
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Register("foo", "bar", "s", "s"))

	in, err := p.ListenCall()
	require.NoError(t, err)
	require.Equal(t, uint32(42), in.Token)
	require.Equal(t, "bar", in.Method)

	out, err := object.Build("s", "x")
	require.NoError(t, err)
	require.NoError(t, p.Reply(in.Token, true, out))
}
