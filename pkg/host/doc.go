// Package host defines the boundary between the retain engine and a native
// UI toolkit.
//
// The engine never owns native elements directly. It drives a Host through
// create/update/destroy calls, reads child order back with Children, and
// stamps ownership on elements with string tags. Input events travel the
// other way through an EventBus.
//
// Memory is a complete in-process Host and EventBus. It keeps a mutation
// log, which makes it the reference host for tests, the CLI demo and the
// inspector's live stream.
package host
