package engine

import (
	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/vdom"
)

// reconcile brings v in line with descriptor d and returns the node now
// occupying v's position. A nil descriptor or a type change prunes v.
func (e *Engine) reconcile(parent *vnode, root *Root, v *vnode, d *vdom.Node) *vnode {
	if v.alive() && (d == nil || d.Type != v.typ) {
		e.prune(v, false)
		v = nil
	}
	if d == nil {
		return nil
	}
	if !v.alive() {
		v = e.construct(parent, root, d)
		if v == nil {
			return nil
		}
	}
	e.update(v, d.Props)
	return v
}

func (e *Engine) construct(parent *vnode, root *Root, d *vdom.Node) *vnode {
	def, ok := e.registry.Lookup(d.Type)
	if !ok {
		e.structural(errors.New("E101").WithDetailf("element type %q", d.Type))
		return nil
	}
	v := &vnode{
		id:     e.nextNodeID(),
		eng:    e,
		typ:    d.Type,
		def:    def,
		root:   root,
		parent: parent,
	}
	if def.InitialState != nil {
		v.state = def.InitialState(d.Props)
	}
	return v
}

func (e *Engine) update(v *vnode, props vdom.Props) {
	v.prevProps = v.props
	v.props = props
	if v.primitive() {
		v.trackRemoved()
	}
	e.rerender(v)
}

// rerender renders v with its current props and state and reconciles the
// result against v's children.
func (e *Engine) rerender(v *vnode) {
	e.reconcileChildren(v, e.render(v, false))
}

func (e *Engine) render(v *vnode, restoring bool) []*vdom.Node {
	if v.primitive() {
		return v.props.Children()
	}
	v.hookIdx = 0
	return v.def.Render(&RenderContext{v: v, restoring: restoring}, v.props, v.state)
}

// reconcileChildren matches children positionally: child i against
// descriptor i. Surplus children are pruned from the end.
func (e *Engine) reconcileChildren(v *vnode, descs []*vdom.Node) {
	old := v.children
	next := make([]*vnode, len(descs))
	for i := len(old) - 1; i >= len(descs); i-- {
		e.prune(old[i], false)
	}
	for i, d := range descs {
		var prev *vnode
		if i < len(old) {
			prev = old[i]
		}
		next[i] = e.reconcile(v, v.root, prev, d)
	}
	v.children = next
}

// prune tears down v's subtree: children in reverse order, then v's
// cleanups, then v's live element. owned is set once an ancestor's element
// is going away, since destroying it takes the descendants with it.
func (e *Engine) prune(v *vnode, owned bool) {
	if !v.alive() {
		return
	}
	live := v.element != 0 && e.host.Valid(v.element)
	for i := len(v.children) - 1; i >= 0; i-- {
		e.prune(v.children[i], owned || live)
	}
	v.runCleanups()

	if v.element != 0 {
		if live && !owned {
			if err := e.destroy(v.element); err != nil {
				e.logger.Warn("prune: destroy failed", "element", v.element, "error", err)
			}
		}
		if r := v.root; r != nil {
			delete(r.index, v.element)
			if r.element == v.element {
				r.element = 0
			}
		}
	}

	v.typ = ""
	v.children = nil
	v.element = 0
	v.committed = nil
}
