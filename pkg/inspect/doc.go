// Package inspect serves a read-mostly HTTP view of a running engine.
//
// Routes:
//
//	GET    /healthz             liveness
//	GET    /roots               every root, as engine.RootInfo
//	GET    /roots/{id}          one root
//	DELETE /roots/{id}          destroy a root
//	POST   /roots/{id}/messages broadcast a JSON payload to a root
//	GET    /stats               painter counters
//	POST   /snapshot            save a snapshot to the engine's store
//	GET    /metrics             Prometheus metrics
//	GET    /ws                  live stream of host mutations
//
// Every engine access is funnelled through an engine.Loop.
package inspect
