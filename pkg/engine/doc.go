// Package engine implements retain's reconciliation engine.
//
// Application code registers element types in a Registry and mounts them
// as roots inside host containers. The engine keeps a retained VNode tree
// per root, reconciles it against freshly rendered descriptors, and paints
// the primitive nodes onto the host's native tree with the fewest
// mutations it can.
//
// # Element types
//
// Primitive types map 1:1 to native elements. Their children come straight
// from the children prop. Virtual types have a Render function and
// contribute only structure and behavior:
//
//	reg := engine.NewRegistry()
//	reg.Primitives("frame", "label", "button")
//
//	counter := reg.Define(engine.Definition{
//	    Name:         "counter",
//	    InitialState: func(vdom.Props) any { return 0 },
//	    Render: func(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
//	        h := ctx.Handle()
//	        return []*vdom.Node{frame(nil,
//	            label(vdom.Props{"caption": fmt.Sprint(state)}),
//	            button(vdom.Props{"caption": "+", "on_click": func(host.Event) {
//	                h.SetState(engine.Updater(func(s any) any { return s.(int) + 1 }))
//	            }}),
//	        )}
//	    },
//	})
//
// # Hooks
//
// RenderContext.UseEffect is the single hook. Hook identity is the call
// ordinal within one render, so hooks must be called unconditionally and
// in the same order on every render of a node.
//
// # Messaging
//
// Messages travel to one node (Send), up the ancestor chain until handled
// (SendBubble), or down the subtree (SendBroadcast). Queries are the
// side-effect-free, value-returning counterpart.
//
// # Ordering
//
// Every mutating operation runs inside a barrier epoch. Operations started
// while an epoch is in flight (from handlers, effects or cleanups) are
// queued and run in submission order once the outermost operation
// finishes, so each external event produces one deterministic,
// non-interleaved mutation pass.
//
// # Persistence
//
// Snapshot captures each root's type, props, state and hook slots; Hydrate
// rebuilds the VNode trees from a snapshot after a restart without running
// effects or creating native elements.
package engine
