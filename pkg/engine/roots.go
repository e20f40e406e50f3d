package engine

import (
	"maps"
	"slices"
	"strconv"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// RootID identifies a root. Ids come from the engine's IDSource and are
// never reused within a persisted lineage.
type RootID uint64

// Root is a virtual tree mounted under a named child of a container
// element.
type Root struct {
	ID        RootID
	Container host.Element
	Name      string
	Type      string
	Props     vdom.Props

	vtree        *vnode
	element      host.Element
	elementIndex int
	index        map[host.Element]*vnode
	destroyed    bool
}

// Element returns the root's top-level live element, or 0.
func (r *Root) Element() host.Element {
	return r.element
}

// CreateRoot mounts a new tree of type typ under container. name must be
// non-empty and unused by the container's children. Called from inside
// another operation, the build is deferred and only the id is returned.
func (e *Engine) CreateRoot(container host.Element, name, typ string, props vdom.Props) (RootID, error) {
	if name == "" {
		return 0, errors.New("E105").WithDetail("name is empty")
	}
	if !e.host.Valid(container) {
		return 0, errors.New("E105").WithDetailf("container %d is not a live element", container)
	}
	if _, taken := host.ChildNamed(e.host, container, name); taken {
		return 0, errors.New("E105").WithDetailf("name %q already used in container %d", name, container)
	}
	for _, r := range e.roots {
		if r.Container == container && r.Name == name {
			return 0, errors.New("E105").WithDetailf("name %q already used in container %d", name, container)
		}
	}

	r := &Root{
		ID:           RootID(e.ids.Next()),
		Container:    container,
		Name:         name,
		Type:         typ,
		Props:        props,
		elementIndex: len(e.host.Children(container)),
		index:        make(map[host.Element]*vnode),
	}
	e.roots[r.ID] = r
	e.metrics.roots(len(e.roots))
	e.logger.Debug("root created", "root_id", r.ID, "name", name, "type", typ)

	deferred := e.Epoch()
	err := e.exec("create_root", nil, r, func() error {
		r.vtree = e.reconcile(nil, r, nil, vdom.New(typ, props))
		if err := e.paintRoot(r); err != nil {
			e.destroyRoot(r)
			return err
		}
		if r.element == 0 {
			e.destroyRoot(r)
			empty := errors.New("E202").WithDetailf("root %q of type %s", name, typ)
			if deferred {
				// The caller already has the id; the epoch carries on.
				e.invariant(empty)
				return nil
			}
			return empty
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// UpdateRoot re-renders a root with new props.
func (e *Engine) UpdateRoot(id RootID, props vdom.Props) error {
	r, ok := e.roots[id]
	if !ok {
		return errors.New("E105").WithDetailf("unknown root %d", id)
	}
	return e.exec("update_root", nil, r, func() error {
		if !e.checkRoot(r) {
			return nil
		}
		r.Props = props
		r.vtree = e.reconcile(nil, r, r.vtree, vdom.New(r.Type, props))
		return e.paintRoot(r)
	})
}

// DestroyRoot prunes a root's tree and destroys its live element.
func (e *Engine) DestroyRoot(id RootID) error {
	r, ok := e.roots[id]
	if !ok {
		return errors.New("E105").WithDetailf("unknown root %d", id)
	}
	return e.exec("destroy_root", nil, r, func() error {
		e.destroyRoot(r)
		return nil
	})
}

func (e *Engine) destroyRoot(r *Root) {
	if r.destroyed {
		return
	}
	e.prune(r.vtree, false)
	if r.element != 0 && e.host.Valid(r.element) {
		if err := e.destroy(r.element); err != nil {
			e.logger.Warn("destroy root element failed", "root_id", r.ID, "error", err)
		}
	}
	r.destroyed = true
	r.vtree = nil
	r.element = 0
	clear(r.index)
	delete(e.roots, r.ID)
	e.metrics.roots(len(e.roots))
	e.logger.Debug("root destroyed", "root_id", r.ID, "name", r.Name)
}

// checkRoot reports whether r is usable, force-destroying it when its live
// element vanished behind the engine's back.
func (e *Engine) checkRoot(r *Root) bool {
	if r == nil || r.destroyed {
		return false
	}
	if r.element != 0 && !e.host.Valid(r.element) {
		e.invariant(errors.New("E201").WithDetailf("root %d (%s)", r.ID, r.Name))
		r.element = 0
		e.destroyRoot(r)
		return false
	}
	return true
}

// Roots returns the ids of all live roots in ascending order.
func (e *Engine) Roots() []RootID {
	return slices.Sorted(maps.Keys(e.roots))
}

// Root returns the root with the given id.
func (e *Engine) Root(id RootID) (*Root, bool) {
	r, ok := e.roots[id]
	if !ok || !e.checkRoot(r) {
		return nil, false
	}
	return r, true
}

// RootHandle returns the handle of a root's top node.
func (e *Engine) RootHandle(id RootID) Handle {
	r, ok := e.Root(id)
	if !ok || !r.vtree.alive() {
		return Handle{}
	}
	return Handle{v: r.vtree}
}

// RootID returns the root owning a live element created by the engine.
func (e *Engine) RootID(el host.Element) (RootID, bool) {
	tag, ok := e.host.Tag(el, TagRoot)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(tag, 10, 64)
	if err != nil {
		return 0, false
	}
	id := RootID(n)
	if _, ok := e.roots[id]; !ok {
		return 0, false
	}
	return id, true
}

// Handle returns the handle of the node painted onto el.
func (e *Engine) Handle(el host.Element) (Handle, bool) {
	id, ok := e.RootID(el)
	if !ok {
		return Handle{}, false
	}
	r := e.roots[id]
	if !e.checkRoot(r) {
		return Handle{}, false
	}
	if v, ok := r.index[el]; ok && v.alive() && v.element == el {
		return Handle{v: v}, true
	}
	v := r.vtree.find(el)
	if v == nil {
		return Handle{}, false
	}
	r.index[el] = v
	return Handle{v: v}, true
}
