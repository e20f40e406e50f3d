package engine

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// defineNode registers "node": it wraps its children in a panel, logs
// every message it receives and handles it when its stop prop is set.
func defineNode(p *probe) func(*Registry) {
	return func(reg *Registry) {
		reg.Define(Definition{
			Name: "node",
			Render: func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node {
				return []*vdom.Node{panel(nil, props.Children()...)}
			},
			OnMessage: func(h Handle, payload any, props vdom.Props, state any) bool {
				p.record(props.String("id"))
				return props["stop"] == true
			},
		})
	}
}

func node(id string, extra vdom.Props, children ...*vdom.Node) *vdom.Node {
	props := vdom.Props{"id": id}
	for k, v := range extra {
		props[k] = v
	}
	return vdom.New("node", props, children...)
}

// find returns the handle of the "node" with the given id.
func find(h Handle, id string) Handle {
	if !h.Valid() {
		return Handle{}
	}
	if h.Type() == "node" && h.Props().String("id") == id {
		return h
	}
	for _, c := range h.Children() {
		if found := find(c, id); found.Valid() {
			return found
		}
	}
	return Handle{}
}

// defineTree registers "tree", rendering the descriptor held in its tree
// prop.
func defineTree(reg *Registry) {
	reg.Define(Definition{
		Name: "tree",
		Render: func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node {
			d, _ := props["tree"].(*vdom.Node)
			return []*vdom.Node{d}
		},
	})
}

func TestBubbleTermination(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineNode(p), defineTree)
	id := f.mount("t", "tree", vdom.Props{"tree": node("a", vdom.Props{"stop": true},
		node("b", vdom.Props{"stop": true},
			node("c", nil),
		),
	)})
	root := f.eng.RootHandle(id)

	if err := f.eng.SendBubble(find(root, "c"), "ping"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "b"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("bubble visited %v, want %v", p.log, want)
	}

	p.log = nil
	f.eng.Send(find(root, "c"), "ping")
	if want := []string{"c"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("unicast visited %v, want %v", p.log, want)
	}
}

func TestBubbleReachesRoot(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineNode(p), defineTree)
	id := f.mount("t", "tree", vdom.Props{"tree": node("a", nil, node("b", nil, node("c", nil)))})

	f.eng.SendBubble(find(f.eng.RootHandle(id), "c"), "ping")
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("bubble visited %v, want %v", p.log, want)
	}
}

func TestBroadcastCompleteness(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineNode(p), defineTree)
	stop := vdom.Props{"stop": true}
	id := f.mount("t", "tree", vdom.Props{"tree": node("a", stop,
		node("b", stop, node("d", stop), node("e", stop)),
		node("c", stop),
	)})
	a := find(f.eng.RootHandle(id), "a")

	if err := f.eng.SendBroadcast(a, "hello"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "d", "e", "c"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("broadcast visited %v, want %v", p.log, want)
	}

	p.log = nil
	if err := a.BroadcastChildren("hello"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "d", "e", "c"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("broadcast children visited %v, want %v", p.log, want)
	}
}

func TestMessageHandlerOverride(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineNode(p), defineTree)
	override := MessageOverride(func(h Handle, payload any, props vdom.Props, state any, next MessageHandler) bool {
		p.record(fmt.Sprintf("override %v", payload))
		if payload == "swallow" {
			return true
		}
		return next(h, payload, props, state)
	})
	id := f.mount("t", "tree", vdom.Props{"tree": node("a", vdom.Props{"message_handler": override})})
	a := find(f.eng.RootHandle(id), "a")

	f.eng.Send(a, "pass")
	f.eng.Send(a, "swallow")
	want := []string{"override pass", "a", "override swallow"}
	if !reflect.DeepEqual(p.log, want) {
		t.Errorf("log = %v, want %v", p.log, want)
	}
}

func TestHostEventBubblesFromPrimitive(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineNode(p), defineTree)
	f.eng.Bind(f.mem)
	clicked := 0
	id := f.mount("t", "tree", vdom.Props{"tree": node("a", nil,
		button(vdom.Props{"name": "plain"}),
		button(vdom.Props{"name": "handled", "on_click": func(ev host.Event) { clicked++ }}),
	)})
	top := f.element(id)

	f.mem.Emit(host.Event{Type: "click", Element: f.child(top, "handled")})
	if clicked != 1 || len(p.log) != 0 {
		t.Errorf("handled click: clicked %d, log %v", clicked, p.log)
	}

	f.mem.Emit(host.Event{Type: "click", Element: f.child(top, "plain")})
	if want := []string{"a"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("unhandled click reached %v, want %v", p.log, want)
	}
}

func TestInvalidHandle(t *testing.T) {
	f := newFixture(t)
	var zero Handle
	if zero.Valid() || IsValidHandle(zero) {
		t.Error("zero Handle is valid")
	}
	for name, err := range map[string]error{
		"Send":      f.eng.Send(zero, 1),
		"Bubble":    f.eng.SendBubble(zero, 1),
		"Broadcast": f.eng.SendBroadcast(zero, 1),
		"SetState":  f.eng.SetState(zero, 1),
	} {
		if !stderrors.Is(err, ErrInvalidHandle) {
			t.Errorf("%s error = %v, want E106", name, err)
		}
	}
	if _, ok := f.eng.Query(zero, 1); ok {
		t.Error("Query on zero handle answered")
	}
}

// defineAnswer registers "answer": it renders its children in a panel and
// answers queries with its value prop, tagged by its tag prop.
func defineAnswer(reg *Registry) {
	reg.Define(Definition{
		Name: "answer",
		Render: func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node {
			return []*vdom.Node{panel(nil, props.Children()...)}
		},
		OnQuery: func(h Handle, payload any, props vdom.Props, state any) (any, any, bool) {
			v, ok := props["value"]
			if !ok {
				return nil, nil, false
			}
			return v, props["tag"], true
		},
	})
}

func answer(props vdom.Props, children ...*vdom.Node) *vdom.Node {
	return vdom.New("answer", props, children...)
}

func TestQuery(t *testing.T) {
	f := newFixture(t, defineAnswer, defineTree)
	id := f.mount("t", "tree", vdom.Props{"tree": answer(vdom.Props{"value": "top"},
		answer(nil, answer(vdom.Props{"value": "leaf"})),
	)})
	top := f.eng.RootHandle(id).Children()[0]
	inner := top.Children()[0].Children()[0]
	leaf := inner.Children()[0].Children()[0]
	if leaf.Type() != "answer" || inner.Type() != "answer" {
		t.Fatalf("unexpected tree shape: %s, %s", inner.Type(), leaf.Type())
	}

	if got, ok := f.eng.Query(leaf, "q"); !ok || got != "leaf" {
		t.Errorf("Query(leaf) = %v, %v", got, ok)
	}
	if _, ok := f.eng.Query(inner, "q"); ok {
		t.Error("Query(inner) answered")
	}
	if got, ok := f.eng.QueryBubble(inner, "q"); !ok || got != "top" {
		t.Errorf("QueryBubble(inner) = %v, %v, want top", got, ok)
	}
	if got, ok := f.eng.QueryBubble(leaf, "q"); !ok || got != "leaf" {
		t.Errorf("QueryBubble(leaf) = %v, %v, want leaf", got, ok)
	}
}

func TestQueryHandlerOverride(t *testing.T) {
	f := newFixture(t, defineAnswer, defineTree)
	var sawNext bool
	override := QueryOverride(func(h Handle, payload any, props vdom.Props, state any, next QueryHandler) (any, any, bool) {
		sawNext = next != nil
		if payload == "mine" {
			return "overridden", nil, true
		}
		return next(h, payload, props, state)
	})
	id := f.mount("t", "tree", vdom.Props{"tree": answer(vdom.Props{"value": 7, "query_handler": override},
		answer(nil),
	)})
	top := f.eng.RootHandle(id).Children()[0]
	child := top.Children()[0].Children()[0]

	if got, ok := f.eng.QueryBubble(child, "mine"); !ok || got != "overridden" {
		t.Errorf("QueryBubble(mine) = %v, %v", got, ok)
	}
	if got, ok := f.eng.QueryBubble(child, "other"); !ok || got != 7 {
		t.Errorf("QueryBubble(other) = %v, %v, want 7", got, ok)
	}
	if !sawNext {
		t.Error("override was not given the type handler as next")
	}
}

func TestQueryBroadcastAggregates(t *testing.T) {
	f := newFixture(t, defineAnswer, defineTree)
	id := f.mount("t", "tree", vdom.Props{"tree": answer(nil,
		answer(vdom.Props{"value": 1, "tag": "first"}),
		answer(vdom.Props{"value": 2, "query_tag": "second"}),
		answer(vdom.Props{"value": 3}),
		answer(nil),
	)})
	root := f.eng.RootHandle(id)

	got, ok := f.eng.QueryBroadcast(root, "q")
	if !ok {
		t.Fatal("QueryBroadcast did not answer")
	}
	// root -> answer -> panel -> answers; positions are per parent.
	want := map[any]any{0: map[any]any{0: map[any]any{"first": 1, "second": 2, 2: 3}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QueryBroadcast = %#v, want %#v", got, want)
	}

	leaf := root.Children()[0].Children()[0].Children()[3]
	if _, ok := f.eng.QueryBroadcast(leaf, "q"); ok {
		t.Error("QueryBroadcast on a silent leaf answered")
	}
}
