package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/chisheng/busybus/internal/logx"
	"github.com/chisheng/busybus/pkg/registry"
	"github.com/chisheng/busybus/pkg/session"
	"github.com/chisheng/busybus/pkg/transport"
	"github.com/chisheng/busybus/pkg/wire"
)

// clientConn is one live session plus router-private bookkeeping: a
// diagnostic id and a logger scoped to it for log correlation, and its
// own identity as a registry.RemoteEntry provider.
type clientConn struct {
	*session.Client
	id  string
	log *slog.Logger
}

// pendingCall is one outstanding token → caller/provider pair, with
// the provider kept alongside so its death can garbage-collect the
// entries it owns.
type pendingCall struct {
	caller   *clientConn
	provider *clientConn
}

// Router is the daemon's single-threaded readiness loop. It is not
// safe for concurrent use: Run must be called from exactly one
// goroutine; the registry and pending-call map it owns are never
// touched from anywhere else.
type Router struct {
	cfg      *Config
	ln       *transport.Listener
	registry *registry.Registry

	sessions  map[int]*clientConn
	pending   map[uint32]*pendingCall
	nextToken uint32

	shutdown bool
}

// New binds the listening socket and returns a Router ready for Run.
func New(opts ...Option) (*Router, error) {
	cfg := applyConfig(opts)
	ln, err := transport.Listen(cfg.sockPath, cfg.backlog)
	if err != nil {
		return nil, err
	}
	r := &Router{
		cfg:      cfg,
		ln:       ln,
		registry: registry.New(),
		sessions: map[int]*clientConn{},
		pending:  map[uint32]*pendingCall{},
	}
	r.registerBuiltins()
	return r, nil
}

// Close tears down the listening socket. Call after Run returns.
func (r *Router) Close() error {
	return r.ln.Close()
}

// Run drives the readiness loop until ctx is canceled, when it returns
// ctx.Err(), or a control client requests shutdown, when it returns
// ErrShuttingDown. Any other returned error is fatal.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if r.shutdown {
			return ErrShuttingDown
		}

		fds := make([]int, 0, len(r.sessions)+1)
		fds = append(fds, r.ln.Fd())
		for fd := range r.sessions {
			fds = append(fds, fd)
		}

		ready, err := transport.Ready(fds, false, true, r.cfg.pollTimeout)
		if err != nil {
			if errors.Is(err, transport.ErrPollInterrupted) {
				continue
			}
			return fmt.Errorf("router: poll: %w", err)
		}

		readySet := make(map[int]bool, len(ready))
		for _, fd := range ready {
			readySet[fd] = true
		}

		if readySet[r.ln.Fd()] {
			r.acceptLoop()
		}
		for fd := range readySet {
			if fd == r.ln.Fd() {
				continue
			}
			if cc, ok := r.sessions[fd]; ok {
				r.serviceClient(cc)
			}
		}
	}
}

// acceptLoop drains the listener's backlog, running the handshake on
// each connection.
func (r *Router) acceptLoop() {
	for {
		conn, creds, err := r.ln.Accept()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return
			}
			r.cfg.logger.Error("accept failed", "err", err)
			return
		}
		r.handshake(conn, creds)
	}
}

func (r *Router) handshake(conn *transport.Conn, creds transport.Credentials) {
	if ready, err := transport.Ready([]int{conn.Fd()}, false, true, session.HandshakeTimeout); err != nil || len(ready) == 0 {
		conn.Close()
		return
	}
	id := uuid.NewString()
	sess, err := session.ServerHandshake(conn, creds, r.cfg.auth)
	if err != nil {
		r.cfg.logger.Warn("handshake failed", "err", err, "conn", id)
		return
	}
	if sess.Type == wire.SOCaller {
		sess.Token = r.allocToken()
	}
	log := logx.ForConn(r.cfg.logger, id, creds.PID, creds.UID)
	cc := &clientConn{Client: sess, id: id, log: log}
	r.sessions[conn.Fd()] = cc
	r.cfg.metrics.IncSessionsOpened()
	r.cfg.metrics.SetActiveSessions(len(r.sessions))
	log.Info("session opened", "type", sess.Type, "name", sess.Name)
}

// allocToken mints the next caller token: monotonic u32, wrapping but
// never landing on 0.
func (r *Router) allocToken() uint32 {
	r.nextToken++
	if r.nextToken == 0 {
		r.nextToken = 1
	}
	return r.nextToken
}

// serviceClient reads exactly one framed message from cc, mirrors it
// to monitors, then dispatches by client type.
func (r *Router) serviceClient(cc *clientConn) {
	msg, err := session.ReadMessage(cc.Conn)
	if err != nil {
		r.closeClient(cc)
		return
	}
	r.cfg.metrics.IncFramesRouted()
	r.mirrorToMonitors(msg)

	switch msg.Header.Type {
	case wire.MsgCLOSE:
		r.closeClient(cc)
	case wire.MsgCLICALL:
		if cc.Type != wire.SOCaller {
			r.closeClient(cc)
			return
		}
		r.handleCall(cc, msg)
	case wire.MsgSRVREG:
		if cc.Type != wire.SOProvider {
			r.closeClient(cc)
			return
		}
		r.handleSrvReg(cc, msg)
	case wire.MsgSRVUNREG:
		if cc.Type != wire.SOProvider {
			r.closeClient(cc)
			return
		}
		r.handleSrvUnreg(cc, msg)
	case wire.MsgSRVREPLY:
		if cc.Type != wire.SOProvider {
			r.closeClient(cc)
			return
		}
		r.handleSrvReply(msg)
	case wire.MsgCTRL:
		if cc.Type != wire.SOControl {
			r.closeClient(cc)
			return
		}
		r.handleControl(cc, msg)
	default:
		cc.log.Warn("unexpected message type, closing session", "type", msg.Header.Type)
		r.closeClient(cc)
	}
}

// mirrorToMonitors copies the raw frame (header + payload, unmodified)
// to every monitor session.
func (r *Router) mirrorToMonitors(msg wire.Message) {
	hb := msg.Header.Encode()
	for _, mon := range r.sessions {
		if mon.Type != wire.SOMonitor {
			continue
		}
		if err := mon.Conn.SendAll(hb[:], msg.Payload); err != nil {
			mon.log.Warn("monitor send failed", "err", err)
		}
	}
}

// closeClient tears a session down: removes it from the multiplex set,
// cleans up any registry entries or pending calls it owned, and closes
// its socket. Safe to call more than once for the same session is not
// guaranteed; callers only reach it once per fd.
func (r *Router) closeClient(cc *clientConn) {
	delete(r.sessions, cc.Conn.Fd())

	if cc.Type == wire.SOProvider {
		removed := r.registry.RemoveByProvider(cc)
		if removed > 0 {
			cc.log.Info("provider disconnected, methods removed", "count", removed)
		}
		for token, pc := range r.pending {
			if pc.provider != cc {
				continue
			}
			delete(r.pending, token)
			h := wire.NewHeader(wire.MsgCLIREPLY)
			h.Token = token
			h.ErrCode = wire.EMethodErr
			if err := session.SendMessage(pc.caller.Conn, h, "", nil); err != nil {
				pc.caller.log.Warn("notify caller of provider death failed", "err", err)
			}
		}
	}
	if cc.Type == wire.SOCaller {
		delete(r.pending, cc.Token)
	}

	cc.Client.State = session.Closed
	_ = cc.Conn.Close()
	r.cfg.metrics.IncSessionsClosed()
	r.cfg.metrics.SetActiveSessions(len(r.sessions))
	r.cfg.metrics.SetPendingCalls(len(r.pending))
	cc.log.Info("session closed")
}
