package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Definition Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryDefinition,
		Message:  "Duplicate element type",
		Detail:   "An element type with this name is already registered. Type names must be unique per registry.",
	},
	"E002": {
		Category: CategoryDefinition,
		Message:  "Missing render function",
		Detail:   "Non-primitive element types must provide a Render function.",
	},
	"E003": {
		Category: CategoryDefinition,
		Message:  "Empty element type name",
		Detail:   "Element types must have a non-empty name.",
	},
	"E004": {
		Category: CategoryDefinition,
		Message:  "Primitive element type has a render function",
		Detail:   "Primitive element types map 1:1 to native elements; their children come from the children prop.",
	},

	// ============================================
	// Structural Errors (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryStructural,
		Message:  "Unknown element type",
		Detail:   "A descriptor referenced an element type that is not registered. The subtree was pruned.",
	},
	"E102": {
		Category: CategoryStructural,
		Message:  "Hydration mismatch: child count differs",
		Detail:   "Re-rendering a persisted node produced a different number of children than were persisted. The subtree was pruned.",
	},
	"E103": {
		Category: CategoryStructural,
		Message:  "Repaint on a never-painted node",
		Detail:   "A repaint was requested for a node whose native anchor was never created.",
	},
	"E104": {
		Category: CategoryStructural,
		Message:  "Hydration mismatch: hook slot missing",
		Detail:   "Render called more hooks than were persisted for this node.",
	},
	"E105": {
		Category: CategoryStructural,
		Message:  "Invalid root",
		Detail:   "The root name is empty or already used by a child of the container.",
	},
	"E106": {
		Category: CategoryStructural,
		Message:  "Invalid handle",
		Detail:   "The node referenced by this handle has been pruned.",
	},

	// ============================================
	// Invariant Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryInvariant,
		Message:  "Root element vanished",
		Detail:   "The live element of a root was destroyed outside the engine. The root was destroyed.",
	},
	"E202": {
		Category: CategoryInvariant,
		Message:  "Root produced no element",
		Detail:   "Painting a new root did not create any native element.",
	},

	// ============================================
	// Host Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryHost,
		Message:  "Host operation failed",
		Detail:   "The native toolkit rejected an operation. The current update was aborted.",
	},

	// ============================================
	// Persistence Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryPersistence,
		Message:  "Snapshot encoding failed",
	},
	"E402": {
		Category: CategoryPersistence,
		Message:  "Snapshot decoding failed",
	},
	"E403": {
		Category: CategoryPersistence,
		Message:  "Store operation failed",
	},

	// ============================================
	// Config Errors (E501-E599)
	// ============================================

	"E501": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
}
