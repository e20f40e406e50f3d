package host

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// OpKind identifies a recorded host mutation.
type OpKind uint8

const (
	OpCreate OpKind = iota + 1
	OpUpdate
	OpStyle
	OpDestroy
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpUpdate:
		return "Update"
	case OpStyle:
		return "Style"
	case OpDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Op is a single recorded mutation.
type Op struct {
	Kind    OpKind  `json:"kind"`
	Element Element `json:"element"`
	Parent  Element `json:"parent,omitempty"`
	Index   int     `json:"index,omitempty"`
	Type    string  `json:"type,omitempty"`
	Key     string  `json:"key,omitempty"`
	Value   any     `json:"value,omitempty"`
}

// ErrInvalidElement is returned when an operation targets a destroyed or
// unknown element.
type ErrInvalidElement struct {
	Element Element
}

func (e ErrInvalidElement) Error() string {
	return fmt.Sprintf("host: invalid element %d", e.Element)
}

type memNode struct {
	kind     string
	name     string
	parent   Element
	children []Element
	props    map[string]any
	style    map[string]any
	tags     map[string]string
}

// Memory is an in-memory Host and EventBus.
type Memory struct {
	mu        sync.Mutex
	nodes     map[Element]*memNode
	next      Element
	ops       []Op
	observers []func(Op)
	fail      map[OpKind]error

	eventTypes []string
	subs       map[string][]func(Event)
}

// DefaultEventTypes are the input events emitted by NewMemory when none are
// given.
var DefaultEventTypes = []string{"click", "text_changed", "checked_state_changed", "selection_changed", "closed"}

// NewMemory creates an empty in-memory host.
func NewMemory(eventTypes ...string) *Memory {
	if len(eventTypes) == 0 {
		eventTypes = DefaultEventTypes
	}
	return &Memory{
		nodes:      make(map[Element]*memNode),
		fail:       make(map[OpKind]error),
		eventTypes: slices.Clone(eventTypes),
		subs:       make(map[string][]func(Event)),
	}
}

// NewScreen creates a top-level container element. It is not recorded in
// the mutation log.
func (m *Memory) NewScreen(name string) Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.nodes[m.next] = &memNode{kind: "screen", name: name, props: map[string]any{}}
	return m.next
}

// Create implements Host.
func (m *Memory) Create(parent Element, index int, spec CreateSpec) (Element, error) {
	m.mu.Lock()
	if err := m.fail[OpCreate]; err != nil {
		m.mu.Unlock()
		return 0, err
	}
	p, ok := m.nodes[parent]
	if !ok {
		m.mu.Unlock()
		return 0, ErrInvalidElement{Element: parent}
	}
	if spec.Name != "" {
		for _, c := range p.children {
			if m.nodes[c].name == spec.Name {
				m.mu.Unlock()
				return 0, fmt.Errorf("host: name %q already used under element %d", spec.Name, parent)
			}
		}
	}

	m.next++
	el := m.next
	props := make(map[string]any, len(spec.Props))
	maps.Copy(props, spec.Props)
	m.nodes[el] = &memNode{kind: spec.Kind, name: spec.Name, parent: parent, props: props}

	if index < 0 || index >= len(p.children) {
		index = len(p.children)
	}
	p.children = slices.Insert(p.children, index, el)

	op := Op{Kind: OpCreate, Element: el, Parent: parent, Index: index, Type: spec.Kind}
	observers := m.record(op)
	m.mu.Unlock()

	notify(observers, op)
	return el, nil
}

// Update implements Host.
func (m *Memory) Update(el Element, key string, value any) error {
	m.mu.Lock()
	if err := m.fail[OpUpdate]; err != nil {
		m.mu.Unlock()
		return err
	}
	n, ok := m.nodes[el]
	if !ok {
		m.mu.Unlock()
		return ErrInvalidElement{Element: el}
	}
	if value == nil {
		delete(n.props, key)
	} else {
		n.props[key] = value
	}
	op := Op{Kind: OpUpdate, Element: el, Key: key, Value: value}
	observers := m.record(op)
	m.mu.Unlock()

	notify(observers, op)
	return nil
}

// SetStyle implements Host.
func (m *Memory) SetStyle(el Element, key string, value any) error {
	m.mu.Lock()
	if err := m.fail[OpStyle]; err != nil {
		m.mu.Unlock()
		return err
	}
	n, ok := m.nodes[el]
	if !ok {
		m.mu.Unlock()
		return ErrInvalidElement{Element: el}
	}
	if n.style == nil {
		n.style = make(map[string]any)
	}
	n.style[key] = value
	op := Op{Kind: OpStyle, Element: el, Key: key, Value: value}
	observers := m.record(op)
	m.mu.Unlock()

	notify(observers, op)
	return nil
}

// Destroy implements Host.
func (m *Memory) Destroy(el Element) error {
	m.mu.Lock()
	if err := m.fail[OpDestroy]; err != nil {
		m.mu.Unlock()
		return err
	}
	n, ok := m.nodes[el]
	if !ok {
		m.mu.Unlock()
		return ErrInvalidElement{Element: el}
	}
	if p, ok := m.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c Element) bool { return c == el })
	}
	m.drop(el)
	op := Op{Kind: OpDestroy, Element: el, Parent: n.parent}
	observers := m.record(op)
	m.mu.Unlock()

	notify(observers, op)
	return nil
}

func (m *Memory) drop(el Element) {
	n := m.nodes[el]
	for _, c := range n.children {
		m.drop(c)
	}
	delete(m.nodes, el)
}

// Children implements Host.
func (m *Memory) Children(el Element) []Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return slices.Clone(n.children)
	}
	return nil
}

// Valid implements Host.
func (m *Memory) Valid(el Element) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[el]
	return ok
}

// Kind implements Host.
func (m *Memory) Kind(el Element) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return n.kind
	}
	return ""
}

// Name implements Host.
func (m *Memory) Name(el Element) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return n.name
	}
	return ""
}

// SetTag implements Host.
func (m *Memory) SetTag(el Element, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		if n.tags == nil {
			n.tags = make(map[string]string)
		}
		n.tags[key] = value
	}
}

// Tag implements Host.
func (m *Memory) Tag(el Element, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		v, ok := n.tags[key]
		return v, ok
	}
	return "", false
}

// Prop returns a property of el as last set by Create or Update.
func (m *Memory) Prop(el Element, key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return n.props[key]
	}
	return nil
}

// Style returns a style property of el.
func (m *Memory) Style(el Element, key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return n.style[key]
	}
	return nil
}

// Parent returns the parent of el.
func (m *Memory) Parent(el Element) Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[el]; ok {
		return n.parent
	}
	return 0
}

// Ops returns a copy of the mutation log.
func (m *Memory) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ops)
}

// Count returns how many mutations of kind were recorded.
func (m *Memory) Count(kind OpKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, op := range m.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// ResetOps clears the mutation log.
func (m *Memory) ResetOps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

// Observe registers fn to be called after every recorded mutation.
func (m *Memory) Observe(fn func(Op)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// FailOn makes every subsequent operation of kind fail with err. A nil err
// clears the failure.
func (m *Memory) FailOn(kind OpKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, kind)
		return
	}
	m.fail[kind] = err
}

// record appends op to the log and returns the observers to notify.
// Callers hold m.mu.
func (m *Memory) record(op Op) []func(Op) {
	m.ops = append(m.ops, op)
	return slices.Clone(m.observers)
}

func notify(observers []func(Op), op Op) {
	for _, fn := range observers {
		fn(op)
	}
}

// EventTypes implements EventBus.
func (m *Memory) EventTypes() []string {
	return slices.Clone(m.eventTypes)
}

// Subscribe implements EventBus.
func (m *Memory) Subscribe(eventType string, fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[eventType] = append(m.subs[eventType], fn)
}

// Emit delivers an event to its subscribers, as if the user interacted
// with the element.
func (m *Memory) Emit(ev Event) {
	m.mu.Lock()
	subs := slices.Clone(m.subs[ev.Type])
	m.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Dump renders the subtree under el as indented text.
func (m *Memory) Dump(el Element) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	m.dump(&b, el, 0)
	return b.String()
}

func (m *Memory) dump(b *strings.Builder, el Element, depth int) {
	n, ok := m.nodes[el]
	if !ok {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.kind)
	if n.name != "" {
		fmt.Fprintf(b, " %q", n.name)
	}
	for _, k := range slices.Sorted(maps.Keys(n.props)) {
		fmt.Fprintf(b, " %s=%v", k, n.props[k])
	}
	b.WriteString("\n")
	for _, c := range n.children {
		m.dump(b, c, depth+1)
	}
}
