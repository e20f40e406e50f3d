package engine

import (
	"maps"
	"slices"
	"strconv"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// paintCtx tracks the native position the next primitive paints into.
// Virtual nodes share their parent's context; primitives open a fresh one
// for their children.
type paintCtx struct {
	parent host.Element
	index  int
	root   *Root
	top    bool // root slot: the element is named after the root
}

func (e *Engine) paint(v *vnode, pc *paintCtx) error {
	if !v.alive() {
		return nil
	}
	if !v.primitive() {
		for _, c := range v.children {
			if err := e.paint(c, pc); err != nil {
				return err
			}
		}
		return nil
	}
	if err := e.commit(v, pc); err != nil {
		return err
	}
	pc.index++
	return e.paintChildren(v)
}

// paintChildren paints v's children into v's element and destroys native
// children past the last painted one.
func (e *Engine) paintChildren(v *vnode) error {
	pc := &paintCtx{parent: v.element, root: v.root}
	for _, c := range v.children {
		if err := e.paint(c, pc); err != nil {
			return err
		}
	}
	kids := e.host.Children(v.element)
	for i := len(kids) - 1; i >= pc.index; i-- {
		if err := e.destroy(kids[i]); err != nil {
			return err
		}
	}
	return nil
}

// paintRoot paints the first top-level primitive of r into r's slot in the
// container.
func (e *Engine) paintRoot(r *Root) error {
	tops := topPrimitives(r.vtree, nil)
	if len(tops) == 0 {
		if r.element != 0 && e.host.Valid(r.element) {
			if err := e.destroy(r.element); err != nil {
				return err
			}
		}
		r.element = 0
		return nil
	}
	if len(tops) > 1 {
		e.logger.Warn("root rendered more than one top-level element, extras ignored",
			"root_id", r.ID, "count", len(tops))
	}
	v := tops[0]

	if r.element != 0 && r.element != v.element && e.host.Valid(r.element) {
		if err := e.destroy(r.element); err != nil {
			return err
		}
		r.element = 0
	}

	pc := &paintCtx{parent: r.Container, index: e.rootSlot(r), root: r, top: true}
	if err := e.commit(v, pc); err != nil {
		return err
	}
	return e.paintChildren(v)
}

func (e *Engine) rootSlot(r *Root) int {
	if r.element != 0 {
		if i := host.IndexOf(e.host, r.Container, r.element); i >= 0 {
			return i
		}
	}
	return min(r.elementIndex, len(e.host.Children(r.Container)))
}

func topPrimitives(v *vnode, out []*vnode) []*vnode {
	if !v.alive() {
		return out
	}
	if v.primitive() {
		return append(out, v)
	}
	for _, c := range v.children {
		out = topPrimitives(c, out)
	}
	return out
}

// repaint paints the region affected by a re-render of v: the children of
// v's nearest primitive ancestor, or the whole root.
func (e *Engine) repaint(v *vnode) error {
	anchor := v.parent
	for anchor != nil && !anchor.primitive() {
		anchor = anchor.parent
	}
	if anchor == nil {
		return e.paintRoot(v.root)
	}
	if anchor.element == 0 || !e.host.Valid(anchor.element) {
		e.structural(errors.New("E103").WithDetailf("%s under %s", v.typ, anchor.typ))
		return nil
	}
	return e.paintChildren(anchor)
}

// commit brings the live element at the context's index in line with v.
func (e *Engine) commit(v *vnode, pc *paintCtx) error {
	for {
		live := e.liveAt(pc)
		switch {
		case live != 0 && live == v.element:
			if e.host.Kind(live) != v.typ || e.needsRebuild(v, pc) {
				if err := e.destroy(live); err != nil {
					return err
				}
				return e.create(v, pc, true)
			}
			e.stats.Reused++
			e.metrics.paint("reused")
			return e.patch(v)

		case live != 0 && !pc.top && v.element != 0 && e.host.Valid(v.element):
			// v's element is further along; whatever sits here is stale.
			if err := e.destroy(live); err != nil {
				return err
			}

		default:
			return e.create(v, pc, v.element != 0)
		}
	}
}

func (e *Engine) liveAt(pc *paintCtx) host.Element {
	if pc.top {
		if pc.root.element != 0 && e.host.Valid(pc.root.element) {
			return pc.root.element
		}
		return 0
	}
	kids := e.host.Children(pc.parent)
	if pc.index < len(kids) {
		return kids[pc.index]
	}
	return 0
}

func (e *Engine) nameFor(v *vnode, pc *paintCtx) string {
	if pc.top {
		return pc.root.Name
	}
	return v.props.String(vdom.KeyName)
}

// needsRebuild reports whether the pending prop changes cannot be applied
// to the existing element.
func (e *Engine) needsRebuild(v *vnode, pc *paintCtx) bool {
	if e.host.Name(v.element) != e.nameFor(v, pc) {
		return true
	}
	if _, had := v.committed[vdom.KeyStyle]; had {
		if _, has := v.props[vdom.KeyStyle]; !has {
			return true
		}
	}
	style := v.props.Style()
	for k := range v.committed.Style() {
		if _, ok := style[k]; !ok {
			return true
		}
	}
	for _, k := range v.def.CreateOnly {
		old, had := v.committed[k]
		cur, has := v.props[k]
		if had != has || (has && !vdom.PropsEqual(old, cur)) {
			return true
		}
	}
	return false
}

// hostKey reports whether key is sent to the host through Create/Update.
func hostKey(key string) bool {
	return !vdom.IsReserved(key) && key != vdom.KeyStyle && key != vdom.KeyName
}

func (e *Engine) create(v *vnode, pc *paintCtx, rebuilt bool) error {
	props := make(map[string]any)
	for k, val := range v.props {
		if hostKey(k) && val != nil {
			props[k] = val
		}
	}
	spec := host.CreateSpec{Kind: v.typ, Name: e.nameFor(v, pc), Props: props}
	el, err := e.host.Create(pc.parent, pc.index, spec)
	if err != nil {
		return hostError("create "+v.typ, err)
	}

	style := v.props.Style()
	for _, k := range slices.Sorted(maps.Keys(style)) {
		if err := e.host.SetStyle(el, k, style[k]); err != nil {
			return hostError("style "+k, err)
		}
	}
	e.host.SetTag(el, TagRoot, strconv.FormatUint(uint64(pc.root.ID), 10))
	e.host.SetTag(el, TagRoute, "1")

	r := pc.root
	if v.element != 0 {
		delete(r.index, v.element)
	}
	v.element = el
	v.committed = v.props
	v.removed = nil
	r.index[el] = v
	if pc.top {
		r.element = el
		r.elementIndex = pc.index
	}

	if rebuilt {
		e.stats.Rebuilt++
		e.metrics.paint("rebuilt")
	} else {
		e.stats.Created++
		e.metrics.paint("created")
	}
	return nil
}

// patch applies changed, removed and style keys to v's element.
func (e *Engine) patch(v *vnode) error {
	el := v.element
	for _, k := range v.props.SortedKeys() {
		if !hostKey(k) {
			continue
		}
		cur := v.props[k]
		old, had := v.committed[k]
		if (had && vdom.PropsEqual(old, cur)) || (!had && cur == nil) {
			continue
		}
		if err := e.setProp(el, k, cur); err != nil {
			return err
		}
	}

	removed := maps.Clone(v.removed)
	for k := range v.committed {
		if _, ok := v.props[k]; !ok {
			if removed == nil {
				removed = make(map[string]struct{})
			}
			removed[k] = struct{}{}
		}
	}
	for _, k := range slices.Sorted(maps.Keys(removed)) {
		if _, back := v.props[k]; back || !hostKey(k) {
			continue
		}
		if err := e.setProp(el, k, nil); err != nil {
			return err
		}
	}

	style, oldStyle := v.props.Style(), v.committed.Style()
	for _, k := range slices.Sorted(maps.Keys(style)) {
		if old, ok := oldStyle[k]; ok && vdom.PropsEqual(old, style[k]) {
			continue
		}
		if err := e.host.SetStyle(el, k, style[k]); err != nil {
			return hostError("style "+k, err)
		}
		e.stats.Updated++
		e.metrics.paint("updated")
	}

	v.committed = v.props
	v.removed = nil
	return nil
}

func (e *Engine) setProp(el host.Element, key string, value any) error {
	if err := e.host.Update(el, key, value); err != nil {
		return hostError("update "+key, err)
	}
	e.stats.Updated++
	e.metrics.paint("updated")
	return nil
}

func (e *Engine) destroy(el host.Element) error {
	if err := e.host.Destroy(el); err != nil {
		return hostError("destroy", err)
	}
	e.stats.Destroyed++
	e.metrics.paint("destroyed")
	return nil
}
