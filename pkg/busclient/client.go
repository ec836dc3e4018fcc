package busclient

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chisheng/busybus/pkg/object"
	"github.com/chisheng/busybus/pkg/session"
	"github.com/chisheng/busybus/pkg/transport"
	"github.com/chisheng/busybus/pkg/wire"
)

// Client is a caller-side connection: Dial, then Call repeatedly.
// A Client is not safe for concurrent use; give each goroutine its own.
type Client struct {
	mu      sync.Mutex
	sess    *session.Client
	cfg     *Config
	lastErr error
	closed  bool
}

// Dial opens a caller session against the daemon at cfg's socket path.
func Dial(opts ...Option) (*Client, error) {
	cfg := applyConfig(opts)
	sess, err := session.DialAndOpen(cfg.sockPath, wire.SOCaller, cfg.name)
	if err != nil {
		return nil, err
	}
	return &Client{sess: sess, cfg: cfg}, nil
}

// LastErr returns the error from the most recent Call, or nil if that
// Call succeeded.
func (c *Client) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close sends CLOSE and releases the underlying socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.sess.Close()
}

// Call invokes the method at path with an argument built from descr and
// args (see pkg/object.Build), and returns the reply object. It blocks
// until the matching CLIREPLY arrives, the configured call timeout
// elapses, or the connection fails.
func (c *Client) Call(path, descr string, args ...any) (*object.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.lastErr = ErrClosed
		return nil, ErrClosed
	}

	var arg *object.Object
	var err error
	if descr != "" {
		arg, err = object.Build(descr, args...)
		if err != nil {
			c.lastErr = err
			return nil, err
		}
	}

	h := wire.NewHeader(wire.MsgCLICALL)
	h.SOType = wire.SOCaller
	if err := session.SendMessage(c.sess.Conn, h, path, arg); err != nil {
		c.lastErr = err
		return nil, err
	}

	reply, err := c.readReply()
	if err != nil {
		c.lastErr = err
		return nil, err
	}
	if reply.Header.Type != wire.MsgCLIREPLY {
		c.lastErr = ErrUnexpectedReply
		return nil, ErrUnexpectedReply
	}
	switch reply.Header.ErrCode {
	case wire.EGood:
		obj, err := reply.ExtractObject()
		if err != nil {
			c.lastErr = nil
			return object.New(), nil
		}
		c.lastErr = nil
		return obj, nil
	case wire.ENoMethod:
		c.lastErr = ErrNoMethod
		return nil, ErrNoMethod
	default:
		c.lastErr = ErrMethodFailed
		return nil, ErrMethodFailed
	}
}

func (c *Client) readReply() (wire.Message, error) {
	if c.cfg.callTimeout <= 0 {
		return session.ReadMessage(c.sess.Conn)
	}
	type result struct {
		msg wire.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := session.ReadMessage(c.sess.Conn)
		done <- result{msg, err}
	}()
	select {
	case r := <-done:
		return r.msg, r.err
	case <-time.After(c.cfg.callTimeout):
		return wire.Message{}, fmt.Errorf("busclient: call to daemon timed out after %s", c.cfg.callTimeout)
	}
}

// Incoming is one SRVCALL delivered to a registered provider method.
type Incoming struct {
	Token  uint32
	Method string
	Arg    *object.Object
}

// Provider is a provider-side connection: Register one or more methods,
// then ListenCall/Reply in a loop.
type Provider struct {
	mu   sync.Mutex
	sess *session.Client
	cfg  *Config
}

// DialProvider opens a provider session against the daemon.
func DialProvider(opts ...Option) (*Provider, error) {
	cfg := applyConfig(opts)
	sess, err := session.DialAndOpen(cfg.sockPath, wire.SOProvider, cfg.name)
	if err != nil {
		return nil, err
	}
	return &Provider{sess: sess, cfg: cfg}, nil
}

// Register publishes method under servicePath (dot-separated, without
// the leading "bbus." namespace root, which the daemon adds) with the
// given argument and return type descriptors, and waits for SRVACK.
func (p *Provider) Register(servicePath, method, argDescr, retDescr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	meta := strings.Join([]string{servicePath, method, argDescr, retDescr}, ",")
	h := wire.NewHeader(wire.MsgSRVREG)
	h.SOType = wire.SOProvider
	if err := session.SendMessage(p.sess.Conn, h, meta, nil); err != nil {
		return err
	}
	reply, err := session.ReadMessage(p.sess.Conn)
	if err != nil {
		return err
	}
	if reply.Header.Type != wire.MsgSRVACK {
		return ErrUnexpectedReply
	}
	if reply.Header.ErrCode != wire.EGood {
		return ErrRegistrationFailed
	}
	return nil
}

// Unregister removes a previously registered method and waits for
// SRVACK.
func (p *Provider) Unregister(servicePath, method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	meta := strings.Join([]string{servicePath, method}, ",")
	h := wire.NewHeader(wire.MsgSRVUNREG)
	h.SOType = wire.SOProvider
	if err := session.SendMessage(p.sess.Conn, h, meta, nil); err != nil {
		return err
	}
	reply, err := session.ReadMessage(p.sess.Conn)
	if err != nil {
		return err
	}
	if reply.Header.Type != wire.MsgSRVACK || reply.Header.ErrCode != wire.EGood {
		return ErrRegistrationFailed
	}
	return nil
}

// ListenCall blocks for the next SRVCALL addressed to this provider.
func (p *Provider) ListenCall() (*Incoming, error) {
	msg, err := session.ReadMessage(p.sess.Conn)
	if err != nil {
		return nil, err
	}
	if msg.Header.Type != wire.MsgSRVCALL {
		return nil, ErrUnexpectedReply
	}
	method, err := msg.ExtractMeta()
	if err != nil {
		method = ""
	}
	arg, err := msg.ExtractObject()
	if err != nil {
		arg = object.New()
	}
	return &Incoming{Token: msg.Header.Token, Method: method, Arg: arg}, nil
}

// Reply answers an Incoming call. ok selects GOOD vs METHODERR; obj is
// sent only when ok is true.
func (p *Provider) Reply(token uint32, ok bool, obj *object.Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := wire.NewHeader(wire.MsgSRVREPLY)
	h.Token = token
	if ok {
		h.ErrCode = wire.EGood
		return session.SendMessage(p.sess.Conn, h, "", obj)
	}
	h.ErrCode = wire.EMethodErr
	return session.SendMessage(p.sess.Conn, h, "", nil)
}

// Close sends CLOSE and releases the underlying socket.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess.Close()
}
