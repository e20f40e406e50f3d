package engine

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// OnStartup discards persisted state so the next Hydrate starts fresh.
func (e *Engine) OnStartup(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Delete(ctx, e.storeKey); err != nil {
		return errors.New("E403").WithDetail("delete " + e.storeKey).Wrap(err)
	}
	return nil
}

// Save persists every live root to the configured store.
func (e *Engine) Save(ctx context.Context) error {
	ctx, span := e.startSpan(ctx, "save")
	defer span.End()
	if e.store == nil {
		return nil
	}

	s := e.Snapshot()
	data, err := s.Encode()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("roots", len(s.Roots)), attribute.Int("bytes", len(data)))
	if err := e.store.Save(ctx, e.storeKey, data); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return errors.New("E403").WithDetail("save " + e.storeKey).Wrap(err)
	}
	e.logger.Debug("snapshot saved", "snapshot_id", s.ID, "roots", len(s.Roots), "bytes", len(data))
	return nil
}

// Hydrate loads the persisted snapshot, if any, and restores it.
func (e *Engine) Hydrate(ctx context.Context) error {
	ctx, span := e.startSpan(ctx, "hydrate")
	defer span.End()
	if e.store == nil {
		return nil
	}

	data, err := e.store.Load(ctx, e.storeKey)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return errors.New("E403").WithDetail("load " + e.storeKey).Wrap(err)
	}
	if data == nil {
		return nil
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("snapshot_id", s.ID), attribute.Int("roots", len(s.Roots)))
	return e.Restore(s)
}

// Restore rebuilds the virtual trees recorded in s. Render functions run in
// restoring mode: no effect callbacks, no native mutations. Nodes are
// relinked to the live elements that survived under each root's container.
// A subtree whose structure no longer matches is dropped and reported.
func (e *Engine) Restore(s *Snapshot) error {
	if c, ok := e.ids.(interface{ Restore(uint64) }); ok {
		c.Restore(s.LastID)
	}
	return e.exec("restore", nil, nil, func() error {
		for i := range s.Roots {
			rec := &s.Roots[i]
			if _, exists := e.roots[rec.ID]; exists {
				e.logger.Warn("restore: root already live, skipped", "root_id", rec.ID)
				continue
			}
			if !e.host.Valid(rec.Container) {
				e.invariant(errors.New("E201").WithDetailf("container of root %d (%s) is gone", rec.ID, rec.Name))
				continue
			}
			r := &Root{
				ID:        rec.ID,
				Container: rec.Container,
				Name:      rec.Name,
				Type:      rec.Type,
				Props:     rec.Props,
				index:     make(map[host.Element]*vnode),
			}
			r.vtree = e.hydrateNode(nil, r, &rec.Tree, rec.Props)
			if r.vtree == nil {
				continue
			}
			e.roots[r.ID] = r
			e.relinkRoot(r)
			e.logger.Debug("root restored", "root_id", r.ID, "name", r.Name, "element", r.element)
		}
		e.metrics.roots(len(e.roots))
		return nil
	})
}

func (e *Engine) hydrateNode(parent *vnode, root *Root, rec *NodeRecord, props vdom.Props) *vnode {
	def, ok := e.registry.Lookup(rec.Type)
	if !ok {
		e.structural(errors.New("E101").WithDetailf("persisted element type %q", rec.Type))
		return nil
	}
	v := &vnode{
		id:     e.nextNodeID(),
		eng:    e,
		typ:    rec.Type,
		def:    def,
		root:   root,
		parent: parent,
		props:  props,
		state:  rec.State,
		hooks:  rec.Hooks,
	}
	v.transients = make([]CleanupFunc, len(v.hooks))

	descs := e.render(v, true)
	if len(descs) != len(rec.Children) {
		e.structural(errors.New("E102").WithDetailf("%s rendered %d children, %d persisted", v.typ, len(descs), len(rec.Children)))
		e.prune(v, true)
		return nil
	}

	v.children = make([]*vnode, len(descs))
	for i, d := range descs {
		cr := &rec.Children[i]
		switch {
		case d == nil && cr.Type == "":
		case d == nil || d.Type != cr.Type:
			got := "null"
			if d != nil {
				got = d.Type
			}
			e.structural(errors.New("E102").WithDetailf("%s child %d is %s, persisted %q", v.typ, i, got, cr.Type))
		default:
			v.children[i] = e.hydrateNode(v, root, cr, d.Props)
		}
	}
	return v
}

// relinkRoot attaches restored primitives to the live elements under the
// root's container, matching by position and kind. It never mutates the
// host.
func (e *Engine) relinkRoot(r *Root) {
	el, ok := host.ChildNamed(e.host, r.Container, r.Name)
	if !ok {
		e.logger.Warn("restore: root element not found, it will be recreated on next paint",
			"root_id", r.ID, "name", r.Name)
		r.elementIndex = math.MaxInt
		return
	}
	// Claim the slot even when nothing can be linked to it, so the next
	// paint replaces the element in place.
	r.element = el
	r.elementIndex = host.IndexOf(e.host, r.Container, el)

	tops := topPrimitives(r.vtree, nil)
	if len(tops) == 0 || e.host.Kind(el) != tops[0].typ {
		return
	}
	e.link(tops[0], el)
	e.relinkChildren(tops[0])
}

func (e *Engine) relinkChildren(v *vnode) {
	kids := e.host.Children(v.element)
	i := 0
	var walk func(c *vnode)
	walk = func(c *vnode) {
		if !c.alive() {
			return
		}
		if !c.primitive() {
			for _, cc := range c.children {
				walk(cc)
			}
			return
		}
		if i < len(kids) && e.host.Kind(kids[i]) == c.typ {
			e.link(c, kids[i])
			i++
			e.relinkChildren(c)
		}
	}
	for _, c := range v.children {
		walk(c)
	}
}

func (e *Engine) link(v *vnode, el host.Element) {
	v.element = el
	v.committed = v.props
	v.root.index[el] = v
}

// Shutdown destroys every root and clears persisted state.
func (e *Engine) Shutdown(ctx context.Context) error {
	err := e.exec("shutdown", nil, nil, func() error {
		for _, id := range e.Roots() {
			e.destroyRoot(e.roots[id])
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.OnStartup(ctx)
}
