package host

// Element is an opaque handle to a live native element. The zero value
// means "no element".
type Element uint64

// CreateSpec describes a native element to create.
type CreateSpec struct {
	Kind  string         // Native element kind (e.g. "button")
	Name  string         // Optional name, unique among siblings
	Props map[string]any // Host-applicable properties only
}

// Host is the native UI toolkit as seen by the engine.
type Host interface {
	// Create adds a new element under parent at index. An index outside
	// [0, len(children)) appends.
	Create(parent Element, index int, spec CreateSpec) (Element, error)

	// Update sets a property. A nil value clears it.
	Update(el Element, key string, value any) error

	// SetStyle sets a single style property.
	SetStyle(el Element, key string, value any) error

	// Destroy removes el and all of its descendants.
	Destroy(el Element) error

	// Children returns the ordered children of el.
	Children(el Element) []Element

	// Valid reports whether el is still alive.
	Valid(el Element) bool

	// Kind returns the native kind of el.
	Kind(el Element) string

	// Name returns the name el was created with.
	Name(el Element) string

	// SetTag attaches an opaque string tag to el.
	SetTag(el Element, key, value string)

	// Tag reads a tag previously attached with SetTag.
	Tag(el Element, key string) (string, bool)
}

// Event is an input event emitted by the host.
type Event struct {
	Type    string         // Event type (e.g. "click")
	Element Element        // Originating element
	Data    map[string]any // Event-specific payload
}

// EventBus delivers host input events.
type EventBus interface {
	// EventTypes lists every event type the host can emit.
	EventTypes() []string

	// Subscribe registers fn for one event type.
	Subscribe(eventType string, fn func(Event))
}

// ChildNamed returns the direct child of parent with the given name.
func ChildNamed(h Host, parent Element, name string) (Element, bool) {
	for _, c := range h.Children(parent) {
		if h.Name(c) == name {
			return c, true
		}
	}
	return 0, false
}

// IndexOf returns the position of el among parent's children, or -1.
func IndexOf(h Host, parent, el Element) int {
	for i, c := range h.Children(parent) {
		if c == el {
			return i
		}
	}
	return -1
}
