// Package vdom provides the descriptor model for retain.
//
// A descriptor (Node) is an immutable {type, props} value produced by a
// render function. Nested descriptors live under the "children" prop. The
// engine reconciles descriptors against its retained VNode tree and paints
// the result onto a host's native element tree.
//
// # Building descriptors
//
// Descriptors are built with New or with a Factory bound to a type name:
//
//	frame := vdom.Element("frame")
//	label := vdom.Element("label")
//
//	frame(vdom.Props{"caption": "Inventory"},
//	    label(vdom.Props{"caption": "Slots: 12"}),
//	)
//
// # Reserved props
//
// Some prop keys are consumed by the engine and never reach the host:
// children, message_handler, query_handler, query_tag and every on_<event>
// handler. The style prop is split into per-key updates.
//
// # Equality
//
// PropsEqual decides whether a painted prop changed. ShallowEqual compares
// effect keys one level deep: maps and slices are compared element by
// element, with nested containers compared by identity only.
package vdom
