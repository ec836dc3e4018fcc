package router

import (
	"strings"

	"github.com/chisheng/busybus/pkg/object"
	"github.com/chisheng/busybus/pkg/registry"
	"github.com/chisheng/busybus/pkg/session"
	"github.com/chisheng/busybus/pkg/wire"
)

// handleCall dispatches an inbound CLICALL.
func (r *Router) handleCall(cc *clientConn, msg wire.Message) {
	path, err := msg.ExtractMeta()
	if err != nil {
		r.sendCLIReply(cc, wire.ENoMethod, nil)
		return
	}

	entry, err := r.registry.Lookup(path)
	if err != nil {
		r.sendCLIReply(cc, wire.ENoMethod, nil)
		return
	}

	arg, err := msg.ExtractObject()
	if err != nil {
		arg = object.New()
	}

	if entry.IsLocal() {
		result, err := entry.Local(arg)
		if err != nil {
			r.cfg.metrics.IncCallsFailed()
			r.sendCLIReply(cc, wire.EMethodErr, nil)
			return
		}
		r.cfg.metrics.IncCallsRouted()
		r.sendCLIReply(cc, wire.EGood, result)
		return
	}

	provider := entry.Remote.Provider.(*clientConn)
	token := cc.Token
	h := wire.NewHeader(wire.MsgSRVCALL)
	h.Token = token
	if err := session.SendMessage(provider.Conn, h, entry.Remote.LeafName, arg); err != nil {
		r.cfg.metrics.IncCallsFailed()
		r.sendCLIReply(cc, wire.EMethodErr, nil)
		return
	}
	r.pending[token] = &pendingCall{caller: cc, provider: provider}
	r.cfg.metrics.SetPendingCalls(len(r.pending))
}

// handleSrvReply dispatches an inbound SRVREPLY and answers the
// original caller.
func (r *Router) handleSrvReply(msg wire.Message) {
	token := msg.Header.Token
	pc, ok := r.pending[token]
	if !ok {
		r.cfg.logger.Warn("srvreply for unknown token", "token", token)
		return
	}
	delete(r.pending, token)
	r.cfg.metrics.SetPendingCalls(len(r.pending))

	h := wire.NewHeader(wire.MsgCLIREPLY)
	h.Token = token
	obj, objErr := msg.ExtractObject()
	if msg.Header.ErrCode == wire.EGood && objErr == nil {
		h.ErrCode = wire.EGood
		if err := session.SendMessage(pc.caller.Conn, h, "", obj); err != nil {
			r.closeClient(pc.caller)
		}
		return
	}
	h.ErrCode = wire.EMethodErr
	if err := session.SendMessage(pc.caller.Conn, h, "", nil); err != nil {
		r.closeClient(pc.caller)
	}
}

// handleSrvReg registers a provider's method and replies SRVACK.
func (r *Router) handleSrvReg(cc *clientConn, msg wire.Message) {
	meta, err := msg.ExtractMeta()
	if err != nil {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	parts := strings.Split(meta, ",")
	if len(parts) != 4 {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	service, method := parts[0], parts[1]
	if service == "" || method == "" {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	full := "bbus." + service + "." + method
	entry := &registry.Entry{Remote: &registry.RemoteEntry{Provider: cc, LeafName: method}}
	if err := r.registry.Insert(full, entry); err != nil {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	r.sendSrvAck(cc, wire.EGood)
}

// handleSrvUnreg removes a provider's method and replies SRVACK.
func (r *Router) handleSrvUnreg(cc *clientConn, msg wire.Message) {
	meta, err := msg.ExtractMeta()
	if err != nil {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	parts := strings.Split(meta, ",")
	if len(parts) != 2 {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	full := "bbus." + parts[0] + "." + parts[1]
	if err := r.registry.RemoveByPath(full); err != nil {
		r.sendSrvAck(cc, wire.EMregErr)
		return
	}
	r.sendSrvAck(cc, wire.EGood)
}

// handleControl answers a control client's request. The handler
// surface is enumerate-methods, enumerate-clients, and
// request-shutdown.
func (r *Router) handleControl(cc *clientConn, msg wire.Message) {
	cmd, err := msg.ExtractMeta()
	if err != nil {
		r.sendControlReply(cc, wire.EMethodErr, "")
		return
	}

	switch cmd {
	case "methods":
		r.sendControlReply(cc, wire.EGood, strings.Join(r.registry.List(), ","))
	case "clients":
		names := make([]string, 0, len(r.sessions))
		for _, s := range r.sessions {
			names = append(names, s.Name+":"+soTypeName(s.Type))
		}
		r.sendControlReply(cc, wire.EGood, strings.Join(names, ","))
	case "shutdown":
		r.shutdown = true
		r.sendControlReply(cc, wire.EGood, "shutting down")
	default:
		r.sendControlReply(cc, wire.EMethodErr, "unknown control command")
	}
}

func soTypeName(t wire.SOType) string {
	switch t {
	case wire.SOCaller:
		return "caller"
	case wire.SOProvider:
		return "provider"
	case wire.SOMonitor:
		return "monitor"
	case wire.SOControl:
		return "control"
	default:
		return "none"
	}
}

// sendCLIReply answers cc with a CLIREPLY, mirroring the frame to
// monitors before sending it.
func (r *Router) sendCLIReply(cc *clientConn, code wire.ErrCode, obj *object.Object) {
	h := wire.NewHeader(wire.MsgCLIREPLY)
	h.Token = cc.Token
	h.ErrCode = code
	if code != wire.EGood {
		obj = nil
	}
	msg, err := wire.Build(h, "", obj)
	if err != nil {
		r.closeClient(cc)
		return
	}
	r.mirrorToMonitors(msg)
	hb := msg.Header.Encode()
	if err := cc.Conn.SendAll(hb[:], msg.Payload); err != nil {
		r.closeClient(cc)
	}
}

func (r *Router) sendSrvAck(cc *clientConn, code wire.ErrCode) {
	h := wire.NewHeader(wire.MsgSRVACK)
	h.ErrCode = code
	if err := session.SendMessage(cc.Conn, h, "", nil); err != nil {
		r.closeClient(cc)
	}
}

func (r *Router) sendControlReply(cc *clientConn, code wire.ErrCode, meta string) {
	h := wire.NewHeader(wire.MsgCTRL)
	h.ErrCode = code
	if err := session.SendMessage(cc.Conn, h, meta, nil); err != nil {
		r.closeClient(cc)
	}
}
