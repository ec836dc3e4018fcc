// Package metrics tracks daemon-wide operational counters. It offers a
// plain atomic-counter implementation for the low-level surface, and
// additionally exports a Prometheus registry for the daemon-wide
// gauges/counters that cmd/bbusd serves over its debug HTTP listener.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the interface the router reports through. DefaultMetrics
// implements it with atomic counters; Prometheus implements it by
// incrementing prometheus.Collector instances instead.
type Metrics interface {
	IncSessionsOpened()
	IncSessionsClosed()
	IncCallsRouted()
	IncCallsFailed()
	IncFramesRouted()
	SetActiveSessions(n int)
	SetPendingCalls(n int)
}

// DefaultMetrics implements Metrics with plain atomic counters. It has
// no export surface of its own; use Prometheus for that.
type DefaultMetrics struct {
	sessionsOpened int64
	sessionsClosed int64
	callsRouted    int64
	callsFailed    int64
	framesRouted   int64
	activeSessions int64
	pendingCalls   int64
}

// NewDefaultMetrics returns a zeroed DefaultMetrics.
func NewDefaultMetrics() *DefaultMetrics { return &DefaultMetrics{} }

func (m *DefaultMetrics) IncSessionsOpened() { atomic.AddInt64(&m.sessionsOpened, 1) }
func (m *DefaultMetrics) IncSessionsClosed() { atomic.AddInt64(&m.sessionsClosed, 1) }
func (m *DefaultMetrics) IncCallsRouted()     { atomic.AddInt64(&m.callsRouted, 1) }
func (m *DefaultMetrics) IncCallsFailed()     { atomic.AddInt64(&m.callsFailed, 1) }
func (m *DefaultMetrics) IncFramesRouted()    { atomic.AddInt64(&m.framesRouted, 1) }
func (m *DefaultMetrics) SetActiveSessions(n int) { atomic.StoreInt64(&m.activeSessions, int64(n)) }
func (m *DefaultMetrics) SetPendingCalls(n int)   { atomic.StoreInt64(&m.pendingCalls, int64(n)) }

func (m *DefaultMetrics) GetSessionsOpened() int64 { return atomic.LoadInt64(&m.sessionsOpened) }
func (m *DefaultMetrics) GetSessionsClosed() int64 { return atomic.LoadInt64(&m.sessionsClosed) }
func (m *DefaultMetrics) GetCallsRouted() int64     { return atomic.LoadInt64(&m.callsRouted) }
func (m *DefaultMetrics) GetCallsFailed() int64     { return atomic.LoadInt64(&m.callsFailed) }
func (m *DefaultMetrics) GetFramesRouted() int64    { return atomic.LoadInt64(&m.framesRouted) }
func (m *DefaultMetrics) GetActiveSessions() int64  { return atomic.LoadInt64(&m.activeSessions) }
func (m *DefaultMetrics) GetPendingCalls() int64    { return atomic.LoadInt64(&m.pendingCalls) }

// Prometheus implements Metrics over a dedicated registry, for
// cmd/bbusd's /metrics debug endpoint.
type Prometheus struct {
	Registry *prometheus.Registry

	sessionsOpened prometheus.Counter
	sessionsClosed prometheus.Counter
	callsRouted    prometheus.Counter
	callsFailed    prometheus.Counter
	framesRouted   prometheus.Counter
	activeSessions prometheus.Gauge
	pendingCalls   prometheus.Gauge
}

// NewPrometheus builds a Prometheus metrics sink registered under the
// busybus namespace.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		Registry: reg,
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busybus", Name: "sessions_opened_total", Help: "Sessions opened since daemon start.",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busybus", Name: "sessions_closed_total", Help: "Sessions closed since daemon start.",
		}),
		callsRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busybus", Name: "calls_routed_total", Help: "CLICALLs successfully dispatched.",
		}),
		callsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busybus", Name: "calls_failed_total", Help: "CLICALLs that ended in a non-GOOD errcode.",
		}),
		framesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "busybus", Name: "frames_routed_total", Help: "Frames observed by the router loop.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "busybus", Name: "active_sessions", Help: "Currently open client sessions.",
		}),
		pendingCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "busybus", Name: "pending_calls", Help: "Calls forwarded to a provider awaiting SRVREPLY.",
		}),
	}
	reg.MustRegister(p.sessionsOpened, p.sessionsClosed, p.callsRouted, p.callsFailed, p.framesRouted, p.activeSessions, p.pendingCalls)
	return p
}

func (p *Prometheus) IncSessionsOpened()      { p.sessionsOpened.Inc() }
func (p *Prometheus) IncSessionsClosed()      { p.sessionsClosed.Inc() }
func (p *Prometheus) IncCallsRouted()         { p.callsRouted.Inc() }
func (p *Prometheus) IncCallsFailed()         { p.callsFailed.Inc() }
func (p *Prometheus) IncFramesRouted()        { p.framesRouted.Inc() }
func (p *Prometheus) SetActiveSessions(n int) { p.activeSessions.Set(float64(n)) }
func (p *Prometheus) SetPendingCalls(n int)   { p.pendingCalls.Set(float64(n)) }
