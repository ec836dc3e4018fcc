package session

import (
	"time"

	"github.com/chisheng/busybus/pkg/object"
	"github.com/chisheng/busybus/pkg/transport"
	"github.com/chisheng/busybus/pkg/wire"
)

// MaxNameLen is the cap, in bytes, on a client's human-readable name
// carried in the SO meta string.
const MaxNameLen = 32

// HandshakeTimeout bounds the short synchronous read used only during
// the handshake; every other socket read is non-blocking.
const HandshakeTimeout = 2 * time.Second

// State is a client session's place in the per-session state machine.
type State int

const (
	Opening State = iota
	Open
	Closing
	Closed
)

// AuthFunc optionally vets a connecting peer's credentials during the
// handshake; returning a non-nil error rejects the connection.
type AuthFunc func(transport.Credentials) error

// Client is one accepted (or dialed) connection after it has completed
// the SO handshake.
type Client struct {
	Conn  *transport.Conn
	Type  wire.SOType
	Token uint32 // callers only; 0 for provider/monitor/control sessions
	Name  string
	Creds transport.Credentials
	State State
}

// ServerHandshake reads one SO frame, validates its sotype, runs the
// optional auth hook, and replies SOOK or SORJCT. On success it returns
// an Open client with Token left at 0 (the caller is responsible for
// assigning one for SOCaller sessions).
func ServerHandshake(conn *transport.Conn, creds transport.Credentials, auth AuthFunc) (*Client, error) {
	msg, err := readMessage(conn)
	if err != nil {
		return nil, err
	}
	if msg.Header.Type != wire.MsgSO {
		return nil, ErrBadMessage
	}
	switch msg.Header.SOType {
	case wire.SOCaller, wire.SOProvider, wire.SOMonitor, wire.SOControl:
	default:
		_ = sendReject(conn)
		return nil, ErrUnknownSOType
	}
	name, err := msg.ExtractMeta()
	if err != nil {
		name = ""
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}

	if auth != nil {
		if err := auth(creds); err != nil {
			_ = sendReject(conn)
			return nil, ErrUnauthorized
		}
	}

	if err := sendAccept(conn); err != nil {
		return nil, err
	}

	return &Client{
		Conn:  conn,
		Type:  msg.Header.SOType,
		Name:  name,
		Creds: creds,
		State: Open,
	}, nil
}

// DialAndOpen connects, sends SO with the given type and name, and
// waits for SOOK. It returns ErrRejected if the server replies SORJCT.
func DialAndOpen(path string, soType wire.SOType, name string) (*Client, error) {
	conn, err := transport.Connect(path)
	if err != nil {
		return nil, err
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	h := wire.NewHeader(wire.MsgSO)
	h.SOType = soType
	msg, err := wire.Build(h, name, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := sendMessage(conn, msg); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := readMessage(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	switch reply.Header.Type {
	case wire.MsgSOOK:
		return &Client{Conn: conn, Type: soType, Name: name, State: Open}, nil
	case wire.MsgSORJCT:
		conn.Close()
		return nil, ErrRejected
	default:
		conn.Close()
		return nil, ErrBadMessage
	}
}

// Close sends a CLOSE frame and closes the underlying connection. It is
// safe to call even if the peer already hung up; send errors are
// ignored since the socket is going away regardless.
func (c *Client) Close() error {
	if c.State != Closed {
		h := wire.NewHeader(wire.MsgCLOSE)
		if msg, err := wire.Build(h, "", nil); err == nil {
			_ = sendMessage(c.Conn, msg)
		}
		c.State = Closed
	}
	return c.Conn.Close()
}

func sendAccept(conn *transport.Conn) error {
	msg, err := wire.Build(wire.NewHeader(wire.MsgSOOK), "", nil)
	if err != nil {
		return err
	}
	return sendMessage(conn, msg)
}

func sendReject(conn *transport.Conn) error {
	msg, err := wire.Build(wire.NewHeader(wire.MsgSORJCT), "", nil)
	if err != nil {
		return err
	}
	return sendMessage(conn, msg)
}

// sendMessage writes a header followed by its payload.
func sendMessage(conn *transport.Conn, msg wire.Message) error {
	h := msg.Header.Encode()
	return conn.SendAll(h[:], msg.Payload)
}

// readMessage reads one full frame: header, then exactly PSize payload
// bytes.
func readMessage(conn *transport.Conn) (wire.Message, error) {
	var hb [wire.HeaderSize]byte
	if err := conn.RecvExact(hb[:]); err != nil {
		return wire.Message{}, err
	}
	h, err := wire.DecodeHeader(hb[:])
	if err != nil {
		return wire.Message{}, err
	}
	payload := make([]byte, h.PSize)
	if h.PSize > 0 {
		if err := conn.RecvExact(payload); err != nil {
			return wire.Message{}, err
		}
	}
	return wire.Message{Header: h, Payload: payload}, nil
}

// ReadMessage exposes readMessage to the router, which owns the
// non-blocking post-handshake receive loop.
func ReadMessage(conn *transport.Conn) (wire.Message, error) {
	return readMessage(conn)
}

// SendMessage exposes sendMessage to the router and client library.
func SendMessage(conn *transport.Conn, h wire.Header, meta string, obj *object.Object) error {
	msg, err := wire.Build(h, meta, obj)
	if err != nil {
		return err
	}
	return sendMessage(conn, msg)
}
