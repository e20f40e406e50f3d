package engine

import (
	"slices"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/vdom"
)

// Definition errors.
var (
	ErrDuplicateType   = errors.New("E001")
	ErrMissingRender   = errors.New("E002")
	ErrEmptyTypeName   = errors.New("E003")
	ErrPrimitiveRender = errors.New("E004")
)

// RenderFunc renders a node's children from its props and state. It must
// be free of observable side effects and call hooks unconditionally, in
// the same order, on every render.
type RenderFunc func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node

// MessageHandler handles a message delivered to a node. It reports whether
// the message was handled.
type MessageHandler func(h Handle, payload any, props vdom.Props, state any) bool

// QueryHandler answers a query delivered to a node. The tag, when non-nil,
// keys the result in broadcast aggregation.
type QueryHandler func(h Handle, payload any, props vdom.Props, state any) (result any, tag any, handled bool)

// MessageOverride is a per-instance message handler set with the
// message_handler prop. next is the element type's own handler, or nil.
type MessageOverride func(h Handle, payload any, props vdom.Props, state any, next MessageHandler) bool

// QueryOverride is a per-instance query handler set with the query_handler
// prop. next is the element type's own handler, or nil.
type QueryOverride func(h Handle, payload any, props vdom.Props, state any, next QueryHandler) (any, any, bool)

// Definition describes an element type.
type Definition struct {
	// Name is the unique type name, used in descriptors and snapshots.
	Name string

	// Render produces the children of a virtual node. Primitive types
	// leave it nil.
	Render RenderFunc

	// InitialState returns the state of a freshly constructed node.
	InitialState func(props vdom.Props) any

	// OnMessage is the type's message handler.
	OnMessage MessageHandler

	// OnQuery is the type's query handler.
	OnQuery QueryHandler

	// Primitive marks types that map 1:1 to native elements of the same
	// kind.
	Primitive bool

	// CreateOnly lists props the host can only set at creation. Changing
	// or removing one rebuilds the element.
	CreateOnly []string
}

func (d *Definition) createOnly(key string) bool {
	return slices.Contains(d.CreateOnly, key)
}

// Registry maps element type names to definitions. It is populated at
// startup and read-only afterwards.
type Registry struct {
	defs  map[string]*Definition
	names []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates and adds def, returning a descriptor factory for it.
func (r *Registry) Register(def Definition) (vdom.Factory, error) {
	if def.Name == "" {
		return nil, errors.New("E003")
	}
	if _, exists := r.defs[def.Name]; exists {
		return nil, errors.New("E001").WithDetailf("element type %q", def.Name)
	}
	if def.Primitive && def.Render != nil {
		return nil, errors.New("E004").WithDetailf("element type %q", def.Name)
	}
	if !def.Primitive && def.Render == nil {
		return nil, errors.New("E002").WithDetailf("element type %q", def.Name)
	}

	d := def
	d.CreateOnly = slices.Clone(def.CreateOnly)
	r.defs[d.Name] = &d
	r.names = append(r.names, d.Name)
	return vdom.Element(d.Name), nil
}

// Define is like Register but panics on a definition error.
func (r *Registry) Define(def Definition) vdom.Factory {
	f, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return f
}

// Primitives registers primitive types for each native kind.
func (r *Registry) Primitives(kinds ...string) {
	for _, k := range kinds {
		r.Define(Definition{Name: k, Primitive: true})
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered type names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}
