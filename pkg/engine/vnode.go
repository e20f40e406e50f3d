package engine

import (
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// vnode is one node of the retained tree. It owns its children and, for
// primitive nodes, its live element. parent is a non-owning back reference
// used for bubbling and root discovery only.
type vnode struct {
	id   uint64
	eng  *Engine
	typ  string // empty once pruned
	def  *Definition
	root *Root

	parent   *vnode
	children []*vnode

	props     vdom.Props
	prevProps vdom.Props
	state     any

	// Primitive nodes only.
	element   host.Element
	committed vdom.Props          // props last applied to element
	removed   map[string]struct{} // host keys dropped since the last paint

	hooks      []HookSlot
	transients []CleanupFunc
	hookIdx    int
}

func (v *vnode) alive() bool {
	return v != nil && v.typ != ""
}

func (v *vnode) primitive() bool {
	return v.def != nil && v.def.Primitive
}

// trackRemoved records host keys present in the previous props but absent
// from the current ones.
func (v *vnode) trackRemoved() {
	for k := range v.prevProps {
		if vdom.IsReserved(k) {
			continue
		}
		if _, ok := v.props[k]; ok {
			continue
		}
		if v.removed == nil {
			v.removed = make(map[string]struct{})
		}
		v.removed[k] = struct{}{}
	}
}

// find returns the node in v's subtree painted onto el.
func (v *vnode) find(el host.Element) *vnode {
	if !v.alive() {
		return nil
	}
	if v.element == el {
		return v
	}
	for _, c := range v.children {
		if found := c.find(el); found != nil {
			return found
		}
	}
	return nil
}

// Handle is a reference to a node, handed to handlers, effects and render
// functions. The zero Handle is invalid.
type Handle struct {
	v *vnode
}

// Valid reports whether the node still exists.
func (h Handle) Valid() bool {
	return h.v.alive()
}

// ID returns an engine-local identifier for diagnostics.
func (h Handle) ID() uint64 {
	if h.v == nil {
		return 0
	}
	return h.v.id
}

// Type returns the node's element type, or "" once pruned.
func (h Handle) Type() string {
	if h.v == nil {
		return ""
	}
	return h.v.typ
}

// Props returns the node's current props.
func (h Handle) Props() vdom.Props {
	if !h.Valid() {
		return nil
	}
	return h.v.props
}

// State returns the node's current state.
func (h Handle) State() any {
	if !h.Valid() {
		return nil
	}
	return h.v.state
}

// Parent returns the parent node's handle.
func (h Handle) Parent() Handle {
	if !h.Valid() || h.v.parent == nil {
		return Handle{}
	}
	return Handle{v: h.v.parent}
}

// Children returns handles to the node's children. Null descriptor
// positions yield invalid handles.
func (h Handle) Children() []Handle {
	if !h.Valid() {
		return nil
	}
	out := make([]Handle, len(h.v.children))
	for i, c := range h.v.children {
		if c.alive() {
			out[i] = Handle{v: c}
		}
	}
	return out
}

// Root returns the id of the root the node belongs to.
func (h Handle) Root() RootID {
	if h.v == nil || h.v.root == nil {
		return 0
	}
	return h.v.root.ID
}

// Element returns the node's live element (primitive nodes only).
func (h Handle) Element() host.Element {
	if !h.Valid() {
		return 0
	}
	return h.v.element
}

// SetState replaces the node's state, or applies it when value is an
// Updater.
func (h Handle) SetState(value any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	return h.v.eng.SetState(h, value)
}

// Send delivers payload to this node only.
func (h Handle) Send(payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	return h.v.eng.Send(h, payload)
}

// Bubble delivers payload to this node, then its ancestors until handled.
func (h Handle) Bubble(payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	return h.v.eng.SendBubble(h, payload)
}

// Broadcast delivers payload to this node and all of its descendants.
func (h Handle) Broadcast(payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	return h.v.eng.SendBroadcast(h, payload)
}

// BroadcastChildren delivers payload to every descendant, skipping this
// node.
func (h Handle) BroadcastChildren(payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	return h.v.eng.SendBroadcastChildren(h, payload)
}

// IsValidHandle reports whether h refers to a live node.
func IsValidHandle(h Handle) bool {
	return h.Valid()
}
