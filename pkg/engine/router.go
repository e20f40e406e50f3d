package engine

import (
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// Updater computes a node's next state from its previous one.
type Updater func(prev any) any

// EventHandler is the signature of on_<event> props on primitive elements.
// It reports whether the event was handled; unhandled events keep bubbling.
type EventHandler func(h Handle, ev host.Event) bool

// SetState replaces h's state, or applies value when it is an Updater or a
// func(any) any, then re-renders and repaints h's subtree.
func (e *Engine) SetState(h Handle, value any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	v := h.v
	return e.exec("set_state", v, v.root, func() error {
		if !e.checkRoot(v.root) || !v.alive() {
			return nil
		}
		switch fn := value.(type) {
		case Updater:
			v.state = fn(v.state)
		case func(any) any:
			v.state = fn(v.state)
		default:
			v.state = value
		}
		e.rerender(v)
		return e.repaint(v)
	})
}

// Send delivers payload to h only. An unhandled message is dropped.
func (e *Engine) Send(h Handle, payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	v := h.v
	return e.exec("send", v, v.root, func() error {
		e.metrics.message("unicast")
		e.deliver(v, payload)
		return nil
	})
}

// SendBubble delivers payload to h, then to each ancestor in turn, stopping
// at the first node that handles it.
func (e *Engine) SendBubble(h Handle, payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	v := h.v
	return e.exec("bubble", v, v.root, func() error {
		e.metrics.message("bubble")
		for n := v; n.alive(); n = n.parent {
			if e.deliver(n, payload) {
				return nil
			}
		}
		return nil
	})
}

// SendBroadcast delivers payload to h and every descendant, depth first in
// pre-order. Handling does not stop the broadcast.
func (e *Engine) SendBroadcast(h Handle, payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	v := h.v
	return e.exec("broadcast", v, v.root, func() error {
		e.metrics.message("broadcast")
		e.broadcast(v, payload, true)
		return nil
	})
}

// SendBroadcastChildren is SendBroadcast without delivery to h itself.
func (e *Engine) SendBroadcastChildren(h Handle, payload any) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	v := h.v
	return e.exec("broadcast", v, v.root, func() error {
		e.metrics.message("broadcast_children")
		e.broadcast(v, payload, false)
		return nil
	})
}

func (e *Engine) broadcast(v *vnode, payload any, self bool) {
	if !v.alive() {
		return
	}
	if self {
		e.deliver(v, payload)
	}
	for _, c := range v.children {
		e.broadcast(c, payload, true)
	}
}

// deliver hands payload to v's message_handler override, if any, with the
// type handler as next; otherwise to the type handler.
func (e *Engine) deliver(v *vnode, payload any) bool {
	h := Handle{v: v}
	next := e.typeHandler(v)
	switch o := v.props[vdom.KeyMessageHandler].(type) {
	case MessageOverride:
		return o(h, payload, v.props, v.state, next)
	case func(Handle, any, vdom.Props, any, MessageHandler) bool:
		return o(h, payload, v.props, v.state, next)
	}
	if next == nil {
		return false
	}
	return next(h, payload, v.props, v.state)
}

func (e *Engine) typeHandler(v *vnode) MessageHandler {
	if v.def.OnMessage != nil {
		return v.def.OnMessage
	}
	if v.primitive() {
		return handleHostEvent
	}
	return nil
}

// handleHostEvent is the message handler of primitive types: it invokes
// the on_<event> prop matching a host event.
func handleHostEvent(h Handle, payload any, props vdom.Props, _ any) bool {
	ev, ok := payload.(host.Event)
	if !ok {
		return false
	}
	switch fn := props[vdom.EventKey(ev.Type)].(type) {
	case EventHandler:
		return fn(h, ev)
	case func(Handle, host.Event) bool:
		return fn(h, ev)
	case func(host.Event):
		fn(ev)
		return true
	case func():
		fn()
		return true
	}
	return false
}
