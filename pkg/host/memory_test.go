package host

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestMemoryCreateAndChildren(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")

	a, err := m.Create(screen, -1, CreateSpec{Kind: "frame", Name: "a"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	c, _ := m.Create(screen, -1, CreateSpec{Kind: "frame", Name: "c"})
	b, _ := m.Create(screen, 1, CreateSpec{Kind: "label", Name: "b", Props: map[string]any{"caption": "hi"}})

	if got := m.Children(screen); !slices.Equal(got, []Element{a, b, c}) {
		t.Errorf("Children = %v, want [%d %d %d]", got, a, b, c)
	}
	if m.Kind(b) != "label" || m.Name(b) != "b" {
		t.Errorf("Kind/Name = %q/%q", m.Kind(b), m.Name(b))
	}
	if m.Prop(b, "caption") != "hi" {
		t.Errorf("caption = %v", m.Prop(b, "caption"))
	}
	if m.Count(OpCreate) != 3 {
		t.Errorf("Count(OpCreate) = %d, want 3", m.Count(OpCreate))
	}
}

func TestMemoryDuplicateName(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")
	if _, err := m.Create(screen, -1, CreateSpec{Kind: "frame", Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(screen, -1, CreateSpec{Kind: "frame", Name: "x"}); err == nil {
		t.Error("expected duplicate name error")
	}
	if el, ok := ChildNamed(m, screen, "x"); !ok || IndexOf(m, screen, el) != 0 {
		t.Errorf("ChildNamed = %v, %v", el, ok)
	}
}

func TestMemoryDestroyRecursive(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")
	frame, _ := m.Create(screen, -1, CreateSpec{Kind: "frame"})
	label, _ := m.Create(frame, -1, CreateSpec{Kind: "label"})

	if err := m.Destroy(frame); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if m.Valid(frame) || m.Valid(label) {
		t.Error("destroyed subtree should be invalid")
	}
	if len(m.Children(screen)) != 0 {
		t.Error("frame should be removed from its parent")
	}

	var invalid ErrInvalidElement
	if err := m.Update(label, "caption", "x"); !errors.As(err, &invalid) {
		t.Errorf("Update on destroyed element = %v, want ErrInvalidElement", err)
	}
}

func TestMemoryUpdateNilClears(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")
	el, _ := m.Create(screen, -1, CreateSpec{Kind: "label", Props: map[string]any{"tooltip": "t"}})

	if err := m.Update(el, "tooltip", nil); err != nil {
		t.Fatal(err)
	}
	if m.Prop(el, "tooltip") != nil {
		t.Error("nil update should clear the prop")
	}
	if err := m.SetStyle(el, "width", 40); err != nil {
		t.Fatal(err)
	}
	if m.Style(el, "width") != 40 {
		t.Errorf("style width = %v", m.Style(el, "width"))
	}
}

func TestMemoryTags(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")
	el, _ := m.Create(screen, -1, CreateSpec{Kind: "button"})

	m.SetTag(el, "root", "7")
	if v, ok := m.Tag(el, "root"); !ok || v != "7" {
		t.Errorf("Tag = %q, %v", v, ok)
	}
	if _, ok := m.Tag(el, "missing"); ok {
		t.Error("missing tag should not be found")
	}
}

func TestMemoryObserveAndFail(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")

	var seen []OpKind
	m.Observe(func(op Op) { seen = append(seen, op.Kind) })

	el, _ := m.Create(screen, -1, CreateSpec{Kind: "label"})
	_ = m.Update(el, "caption", "a")

	boom := errors.New("boom")
	m.FailOn(OpCreate, boom)
	if _, err := m.Create(screen, -1, CreateSpec{Kind: "label"}); !errors.Is(err, boom) {
		t.Errorf("Create error = %v, want boom", err)
	}
	m.FailOn(OpCreate, nil)
	if _, err := m.Create(screen, -1, CreateSpec{Kind: "label"}); err != nil {
		t.Errorf("Create after clearing failure: %v", err)
	}

	want := []OpKind{OpCreate, OpUpdate, OpCreate}
	if !slices.Equal(seen, want) {
		t.Errorf("observed %v, want %v", seen, want)
	}
}

func TestMemoryEvents(t *testing.T) {
	m := NewMemory("click")
	if got := m.EventTypes(); !slices.Equal(got, []string{"click"}) {
		t.Errorf("EventTypes = %v", got)
	}

	var got []Event
	m.Subscribe("click", func(ev Event) { got = append(got, ev) })
	m.Emit(Event{Type: "click", Element: 4})
	m.Emit(Event{Type: "closed", Element: 4})

	if len(got) != 1 || got[0].Element != 4 {
		t.Errorf("events = %v", got)
	}
}

func TestMemoryDump(t *testing.T) {
	m := NewMemory()
	screen := m.NewScreen("screen")
	frame, _ := m.Create(screen, -1, CreateSpec{Kind: "frame", Name: "main"})
	_, _ = m.Create(frame, -1, CreateSpec{Kind: "label", Props: map[string]any{"caption": "x"}})

	out := m.Dump(screen)
	if !strings.Contains(out, `frame "main"`) || !strings.Contains(out, "    label caption=x") {
		t.Errorf("Dump =\n%s", out)
	}
}
