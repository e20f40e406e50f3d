package vdom

import (
	"maps"
	"slices"
	"strings"
)

// Reserved prop keys.
const (
	KeyChildren       = "children"
	KeyMessageHandler = "message_handler"
	KeyQueryHandler   = "query_handler"
	KeyQueryTag       = "query_tag"
	KeyStyle          = "style"
	KeyName           = "name"
)

// EventPrefix marks props that hold host event handlers (e.g. "on_click").
const EventPrefix = "on_"

// Node is an element descriptor.
type Node struct {
	Type  string // Registered element type name
	Props Props  // Properties, including nested children
}

// Props holds descriptor properties.
type Props map[string]any

// Factory builds descriptors of one element type.
type Factory func(props Props, children ...*Node) *Node

// Element returns a Factory for the named element type.
func Element(typ string) Factory {
	return func(props Props, children ...*Node) *Node {
		return New(typ, props, children...)
	}
}

// New creates a descriptor. Props are copied so later changes to the
// caller's map do not leak into the descriptor. Explicit children replace
// any children prop.
func New(typ string, props Props, children ...*Node) *Node {
	p := make(Props, len(props)+1)
	maps.Copy(p, props)
	if len(children) > 0 {
		p[KeyChildren] = children
	}
	return &Node{Type: typ, Props: p}
}

// Children returns the nested descriptors of n.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.Props.Children()
}

// Children returns the descriptors stored under the children key.
func (p Props) Children() []*Node {
	switch c := p[KeyChildren].(type) {
	case []*Node:
		return c
	case *Node:
		return []*Node{c}
	default:
		return nil
	}
}

// Style returns the style sub-object, or nil.
func (p Props) Style() map[string]any {
	switch s := p[KeyStyle].(type) {
	case map[string]any:
		return s
	case Props:
		return s
	default:
		return nil
	}
}

// String returns the string prop for key, or "".
func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// SortedKeys returns the prop keys in lexical order.
func (p Props) SortedKeys() []string {
	return slices.Sorted(maps.Keys(p))
}

// IsReserved reports whether key is consumed by the engine and must not be
// sent to the host.
func IsReserved(key string) bool {
	switch key {
	case KeyChildren, KeyMessageHandler, KeyQueryHandler, KeyQueryTag:
		return true
	}
	return IsEventHandler(key)
}

// IsEventHandler reports whether key names an event handler prop.
func IsEventHandler(key string) bool {
	return len(key) > len(EventPrefix) && strings.HasPrefix(key, EventPrefix)
}

// EventKey returns the handler prop key for a host event type.
func EventKey(eventType string) string {
	return EventPrefix + eventType
}
