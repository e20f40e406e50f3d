// Package errors provides coded, categorized errors for the retain engine.
//
// Every error the engine reports carries a stable code (e.g. "E101") that
// maps to a registered template: a category, a short message and a longer
// explanation. Codes let callers branch on the kind of failure with
// errors.Is, and let diagnostics be grouped by code in logs and metrics.
//
// # Categories
//
//   - definition: element type registration errors (programmer errors)
//   - structural: malformed trees found during reconciliation or hydration
//   - invariant: the native tree changed outside the engine's control
//   - host: the native toolkit rejected an operation
//   - persistence: snapshot encoding or store failures
//   - config: configuration loading and validation
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail(`element type "counter" is not registered`)
//
//	if errors.Is(err, errors.New("E101")) { ... }
package errors
