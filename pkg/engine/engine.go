package engine

import (
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/store"
)

// Tags stamped on every element the engine creates.
const (
	TagRoot  = "retain.root"  // owning root id
	TagRoute = "retain.route" // host events on this element are routed to the engine
)

// DefaultStoreKey is the key snapshots are saved under when WithStore is
// given no explicit key.
const DefaultStoreKey = "retain:snapshot"

// IDSource hands out unique root ids.
type IDSource interface {
	Next() uint64
}

// Counter is the default IDSource: a process-wide incrementing counter.
type Counter struct {
	n atomic.Uint64
}

// Next returns the next id, starting at 1.
func (c *Counter) Next() uint64 {
	return c.n.Add(1)
}

// Restore makes sure later ids are greater than last.
func (c *Counter) Restore(last uint64) {
	for {
		cur := c.n.Load()
		if cur >= last || c.n.CompareAndSwap(cur, last) {
			return
		}
	}
}

// Stats counts the painter's decisions.
type Stats struct {
	Reused    int64 `json:"reused"`
	Rebuilt   int64 `json:"rebuilt"`
	Created   int64 `json:"created"`
	Destroyed int64 `json:"destroyed"`
	Updated   int64 `json:"updated"`
}

// Engine reconciles registered element types onto a host.
// An Engine is not safe for concurrent use; drive it from one goroutine
// (see Loop).
type Engine struct {
	host     host.Host
	registry *Registry
	ids      IDSource
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	onDiag   func(error)

	store    store.Store
	storeKey string

	roots   map[RootID]*Root
	barrier barrier
	stats   Stats
	nodeSeq uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer. Default: otel.Tracer("retain").
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithIDSource replaces the default root id counter.
func WithIDSource(ids IDSource) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithStore sets the persistence store used by Save, Hydrate, OnStartup
// and Shutdown. An empty key means DefaultStoreKey.
func WithStore(s store.Store, key string) Option {
	return func(e *Engine) {
		e.store = s
		if key == "" {
			key = DefaultStoreKey
		}
		e.storeKey = key
	}
}

// WithDiagnostics registers fn to receive every structural and invariant
// error the engine recovers from.
func WithDiagnostics(fn func(error)) Option {
	return func(e *Engine) {
		e.onDiag = fn
	}
}

// New creates an Engine painting onto h with the types in reg.
func New(h host.Host, reg *Registry, opts ...Option) *Engine {
	e := &Engine{
		host:     h,
		registry: reg,
		roots:    make(map[RootID]*Root),
		storeKey: DefaultStoreKey,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = &Counter{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// Host returns the host the engine paints onto.
func (e *Engine) Host() host.Host {
	return e.host
}

// Registry returns the engine's element registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Stats returns the painter counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// ResetStats zeroes the painter counters.
func (e *Engine) ResetStats() {
	e.stats = Stats{}
}

// Bind registers exactly one dispatcher per event type the bus can emit.
// Events from elements tagged with TagRoute bubble from the owning node.
func (e *Engine) Bind(bus host.EventBus) {
	for _, typ := range bus.EventTypes() {
		bus.Subscribe(typ, e.dispatchEvent)
	}
}

func (e *Engine) dispatchEvent(ev host.Event) {
	if _, ok := e.host.Tag(ev.Element, TagRoute); !ok {
		return
	}
	h, ok := e.Handle(ev.Element)
	if !ok {
		return
	}
	e.metrics.event(ev.Type)
	if err := e.SendBubble(h, ev); err != nil {
		e.logger.Error("event dispatch failed", "event", ev.Type, "element", ev.Element, "error", err)
	}
}

func (e *Engine) nextNodeID() uint64 {
	e.nodeSeq++
	return e.nodeSeq
}
