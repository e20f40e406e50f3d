// Package vtest provides testing helpers for retain element types.
//
// A Harness mounts roots on an in-memory host, drives input events by
// element name, and asserts on the resulting native tree.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t, myapp.NewRegistry())
//	    id := h.Mount("counter", "counter", nil)
//	    h.Click(id, "increment")
//	    h.ExpectProp(id, "text", "1", "value")
//	}
//
// # Element Paths
//
// Elements are addressed by the names of the native elements leading to
// them from the root's element:
//
//	h.Click(id, "toolbar", "save")       // root > toolbar > save
//	h.Prop(id, "text", "status")         // root > status
//
// An empty path addresses the root's element itself.
//
// # Mutation Assertions
//
// Reset clears the host's mutation log and the painter counters, so the
// assertions that follow see only what the next interaction did:
//
//	h.Reset()
//	h.Click(id, "increment")
//	h.ExpectOps(host.OpUpdate, 1)
//	h.ExpectStats(engine.Stats{Reused: 2, Updated: 1})
//
// # Tree Assertions
//
// Assert on the indented dump of every root:
//
//	h.ExpectContains(`label "value" text=1`)
//	h.ExpectNotContains("error")
package vtest
