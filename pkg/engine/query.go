package engine

import (
	"github.com/vango-dev/retain/pkg/vdom"
)

// Query asks h alone. Queries never mutate and are never deferred.
func (e *Engine) Query(h Handle, payload any) (any, bool) {
	if !h.Valid() {
		return nil, false
	}
	e.metrics.message("query")
	result, _, ok := e.ask(h.v, payload)
	return result, ok
}

// QueryBubble asks h, then each ancestor, returning the first answer.
func (e *Engine) QueryBubble(h Handle, payload any) (any, bool) {
	if !h.Valid() {
		return nil, false
	}
	e.metrics.message("query_bubble")
	for n := h.v; n.alive(); n = n.parent {
		if result, _, ok := e.ask(n, payload); ok {
			return result, true
		}
	}
	return nil, false
}

// QueryBroadcast asks h; if h does not answer, its children are asked
// recursively and their answers collected into a map[any]any. Each entry
// is keyed by the answering handler's tag, else the child's query_tag
// prop, else the child's position.
func (e *Engine) QueryBroadcast(h Handle, payload any) (any, bool) {
	if !h.Valid() {
		return nil, false
	}
	e.metrics.message("query_broadcast")
	result, _, ok := e.queryTree(h.v, payload)
	return result, ok
}

func (e *Engine) queryTree(v *vnode, payload any) (any, any, bool) {
	if result, tag, ok := e.ask(v, payload); ok {
		return result, tag, true
	}
	var agg map[any]any
	for i, c := range v.children {
		if !c.alive() {
			continue
		}
		result, tag, ok := e.queryTree(c, payload)
		if !ok {
			continue
		}
		key := tag
		if key == nil {
			if qt, ok := c.props[vdom.KeyQueryTag]; ok && qt != nil {
				key = qt
			} else {
				key = i
			}
		}
		if agg == nil {
			agg = make(map[any]any)
		}
		agg[key] = result
	}
	if agg == nil {
		return nil, nil, false
	}
	return agg, nil, true
}

func (e *Engine) ask(v *vnode, payload any) (any, any, bool) {
	h := Handle{v: v}
	next := v.def.OnQuery
	switch o := v.props[vdom.KeyQueryHandler].(type) {
	case QueryOverride:
		return o(h, payload, v.props, v.state, next)
	case func(Handle, any, vdom.Props, any, QueryHandler) (any, any, bool):
		return o(h, payload, v.props, v.state, next)
	}
	if next == nil {
		return nil, nil, false
	}
	return next(h, payload, v.props, v.state)
}
