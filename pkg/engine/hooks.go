package engine

import (
	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/vdom"
)

// HookSlot is the persisted part of one UseEffect call site.
type HookSlot struct {
	Key   any
	Value any
}

// EffectFunc runs when an effect's key changes. prevKey is nil on the
// first run. The returned value is stored in the slot and handed to the
// cleanup.
type EffectFunc func(h Handle, key, prevKey any) any

// CleanupFunc releases what an effect set up. It receives the value the
// effect returned.
type CleanupFunc func(value any)

// RenderContext is passed to render functions. It is only valid for the
// duration of the render call.
type RenderContext struct {
	v         *vnode
	restoring bool
}

// Handle returns the handle of the node being rendered.
func (c *RenderContext) Handle() Handle {
	return Handle{v: c.v}
}

// Restoring reports whether the render is rebuilding persisted state.
func (c *RenderContext) Restoring() bool {
	return c.restoring
}

// UseEffect declares a keyed effect and returns the slot's stored value.
//
// On the first render effect runs with a nil prevKey. On later renders the
// key is compared with the stored one, one level deep: maps and slices are
// equal when their elements are identical, nested containers are compared
// by identity. When the key changed the stored cleanup runs with the stored
// value, then effect runs and its result and cleanup replace the old ones.
//
// While restoring, effect is never called; only cleanup is reattached.
func (c *RenderContext) UseEffect(key any, effect EffectFunc, cleanup CleanupFunc) any {
	v := c.v
	i := v.hookIdx
	v.hookIdx++

	for len(v.transients) < len(v.hooks) {
		v.transients = append(v.transients, nil)
	}

	if c.restoring {
		if i >= len(v.hooks) {
			v.eng.structural(errors.New("E104").WithDetailf("%s slot %d", v.typ, i))
			v.hooks = append(v.hooks, HookSlot{Key: key})
			v.transients = append(v.transients, nil)
			return nil
		}
		v.transients[i] = cleanup
		return v.hooks[i].Value
	}

	if i >= len(v.hooks) {
		value := effect(Handle{v: v}, key, nil)
		v.hooks = append(v.hooks, HookSlot{Key: key, Value: value})
		v.transients = append(v.transients, cleanup)
		return value
	}

	slot := &v.hooks[i]
	if vdom.ShallowEqual(slot.Key, key) {
		return slot.Value
	}
	if old := v.transients[i]; old != nil {
		old(slot.Value)
	}
	prev := slot.Key
	slot.Key = key
	slot.Value = effect(Handle{v: v}, key, prev)
	v.transients[i] = cleanup
	return slot.Value
}

// runCleanups calls every stored cleanup in reverse slot order.
func (v *vnode) runCleanups() {
	for i := len(v.hooks) - 1; i >= 0; i-- {
		if i < len(v.transients) && v.transients[i] != nil {
			v.transients[i](v.hooks[i].Value)
		}
	}
	v.transients = nil
}
