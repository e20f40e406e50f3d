package vtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// Harness drives an engine painting onto an in-memory host.
type Harness struct {
	T      testing.TB
	Host   *host.Memory
	Screen host.Element
	Engine *engine.Engine
}

// New creates a harness for the types in reg. Engine logs are discarded
// unless opts set a logger.
//
// Example:
//
//	h := vtest.New(t, reg, engine.WithStore(store.NewMemoryStore(), ""))
func New(t testing.TB, reg *engine.Registry, opts ...engine.Option) *Harness {
	t.Helper()
	mem := host.NewMemory()
	opts = append([]engine.Option{engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	h := &Harness{
		T:      t,
		Host:   mem,
		Screen: mem.NewScreen("main"),
		Engine: engine.New(mem, reg, opts...),
	}
	h.Engine.Bind(mem)
	return h
}

// Mount creates a root under the screen and fails the test on error.
func (h *Harness) Mount(name, typ string, props vdom.Props) engine.RootID {
	h.T.Helper()
	id, err := h.Engine.CreateRoot(h.Screen, name, typ, props)
	if err != nil {
		h.T.Fatalf("mount %s (%s): %v", name, typ, err)
	}
	return id
}

// Find returns the element reached from the root's element by following
// the named children in path.
func (h *Harness) Find(id engine.RootID, path ...string) host.Element {
	h.T.Helper()
	r, ok := h.Engine.Root(id)
	if !ok {
		h.T.Fatalf("root %d not found", id)
	}
	el := r.Element()
	for i, name := range path {
		next, ok := host.ChildNamed(h.Host, el, name)
		if !ok {
			h.T.Fatalf("no element at %s:\n%s", strings.Join(path[:i+1], " > "), h.Host.Dump(r.Element()))
		}
		el = next
	}
	return el
}

// Emit delivers an input event to the element at path.
func (h *Harness) Emit(id engine.RootID, eventType string, data map[string]any, path ...string) {
	h.T.Helper()
	h.Host.Emit(host.Event{Type: eventType, Element: h.Find(id, path...), Data: data})
}

// Click delivers a click to the element at path.
//
// Example:
//
//	h.Click(id, "increment")
func (h *Harness) Click(id engine.RootID, path ...string) {
	h.T.Helper()
	h.Emit(id, "click", nil, path...)
}

// Type delivers a text_changed event carrying text to the element at path.
func (h *Harness) Type(id engine.RootID, text string, path ...string) {
	h.T.Helper()
	h.Emit(id, "text_changed", map[string]any{"text": text}, path...)
}

// Prop returns a property of the element at path.
func (h *Harness) Prop(id engine.RootID, key string, path ...string) any {
	h.T.Helper()
	return h.Host.Prop(h.Find(id, path...), key)
}

// Reset clears the mutation log and the painter counters.
func (h *Harness) Reset() {
	h.Host.ResetOps()
	h.Engine.ResetStats()
}

// Dump renders every root under the screen.
func (h *Harness) Dump() string {
	return h.Host.Dump(h.Screen)
}

// ExpectProp asserts that the element at path holds key=want.
//
// Example:
//
//	h.ExpectProp(id, "text", "3", "value")
func (h *Harness) ExpectProp(id engine.RootID, key string, want any, path ...string) {
	h.T.Helper()
	if got := h.Prop(id, key, path...); got != want {
		h.T.Errorf("%s.%s = %v, want %v", strings.Join(path, " > "), key, got, want)
	}
}

// ExpectOps asserts how many mutations of kind were recorded since the
// last Reset.
func (h *Harness) ExpectOps(kind host.OpKind, want int) {
	h.T.Helper()
	if got := h.Host.Count(kind); got != want {
		h.T.Errorf("%s ops = %d, want %d; log: %+v", kind, got, want, h.Host.Ops())
	}
}

// ExpectStats asserts the painter counters since the last Reset.
func (h *Harness) ExpectStats(want engine.Stats) {
	h.T.Helper()
	if got := h.Engine.Stats(); got != want {
		h.T.Errorf("stats = %+v, want %+v", got, want)
	}
}

// ExpectContains asserts that the dumped tree contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.T.Helper()
	if dump := h.Dump(); !strings.Contains(dump, expected) {
		h.T.Errorf("expected tree to contain %q, got:\n%s", expected, truncate(dump, 500))
	}
}

// ExpectNotContains asserts that the dumped tree does not contain
// unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.T.Helper()
	if dump := h.Dump(); strings.Contains(dump, unexpected) {
		h.T.Errorf("expected tree to NOT contain %q, got:\n%s", unexpected, truncate(dump, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
