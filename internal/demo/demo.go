// Package demo holds the element types mounted by the retain CLI: a
// counter, a greeting and a todo list built from the primitive kinds of
// the in-memory host.
package demo

import (
	"strconv"

	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// Primitive kinds understood by host.Memory renderings.
var (
	Panel   = vdom.Element("panel")
	Label   = vdom.Element("label")
	Button  = vdom.Element("button")
	Textbox = vdom.Element("textbox")
)

// Messages understood by the demo types.
type (
	// Reset sets a counter back to zero.
	Reset struct{}

	// Greet replaces the greeting text.
	Greet struct{ Text string }

	// AddItem appends an entry to a todo list.
	AddItem struct{ Text string }

	// CountQuery asks for a counter's value.
	CountQuery struct{}
)

func init() {
	engine.RegisterType(Reset{})
	engine.RegisterType(Greet{})
	engine.RegisterType(AddItem{})
	engine.RegisterType([]string{})
}

// NewRegistry returns a registry with the primitives and every demo type.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	Register(reg)
	return reg
}

// Register adds the primitives and demo types to reg.
func Register(reg *engine.Registry) {
	reg.Primitives("panel", "label", "button")
	reg.Define(engine.Definition{Name: "textbox", Primitive: true, CreateOnly: []string{"multiline"}})

	reg.Define(engine.Definition{
		Name: "counter",
		InitialState: func(props vdom.Props) any {
			start, _ := props["start"].(int)
			return start
		},
		Render: renderCounter,
		OnMessage: func(h engine.Handle, payload any, props vdom.Props, state any) bool {
			if _, ok := payload.(Reset); ok {
				h.SetState(0)
				return true
			}
			return false
		},
		OnQuery: func(h engine.Handle, payload any, props vdom.Props, state any) (any, any, bool) {
			if _, ok := payload.(CountQuery); ok {
				return state, props["title"], true
			}
			return nil, nil, false
		},
	})

	reg.Define(engine.Definition{
		Name: "greeting",
		InitialState: func(props vdom.Props) any {
			if s := props.String("text"); s != "" {
				return s
			}
			return "hello"
		},
		Render: func(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
			return []*vdom.Node{Panel(nil, Label(vdom.Props{"name": "text", "text": state}))}
		},
		OnMessage: func(h engine.Handle, payload any, props vdom.Props, state any) bool {
			switch m := payload.(type) {
			case Greet:
				h.SetState(m.Text)
				return true
			case string:
				h.SetState(m)
				return true
			}
			return false
		},
	})

	reg.Define(engine.Definition{
		Name:         "todo",
		InitialState: func(vdom.Props) any { return []string{} },
		Render:       renderTodo,
		OnMessage: func(h engine.Handle, payload any, props vdom.Props, state any) bool {
			m, ok := payload.(AddItem)
			if !ok || m.Text == "" {
				return false
			}
			h.SetState(engine.Updater(func(prev any) any {
				items, _ := prev.([]string)
				return append(append([]string(nil), items...), m.Text)
			}))
			return true
		},
	})
}

func renderCounter(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
	n, _ := state.(int)
	self := ctx.Handle()
	return []*vdom.Node{
		Panel(vdom.Props{"style": map[string]any{"direction": "row"}},
			Label(vdom.Props{"name": "title", "text": props.String("title")}),
			Label(vdom.Props{"name": "value", "text": strconv.Itoa(n)}),
			Button(vdom.Props{
				"name": "increment",
				"text": "+",
				"on_click": engine.EventHandler(func(h engine.Handle, ev host.Event) bool {
					self.SetState(engine.Updater(func(prev any) any {
						n, _ := prev.(int)
						return n + 1
					}))
					return true
				}),
			}),
		),
	}
}

func renderTodo(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
	items, _ := state.([]string)

	summary := ctx.UseEffect(len(items), func(h engine.Handle, key, prev any) any {
		return strconv.Itoa(key.(int)) + " items"
	}, nil)

	self := ctx.Handle()
	rows := make([]*vdom.Node, len(items))
	for i, item := range items {
		rows[i] = Label(vdom.Props{"name": "item-" + strconv.Itoa(i), "text": item})
	}
	return []*vdom.Node{
		Panel(nil,
			Textbox(vdom.Props{
				"name": "entry",
				"on_text_changed": engine.EventHandler(func(h engine.Handle, ev host.Event) bool {
					text, _ := ev.Data["text"].(string)
					self.Send(AddItem{Text: text})
					return true
				}),
			}),
			Label(vdom.Props{"name": "summary", "text": summary}),
			Panel(vdom.Props{"name": "items"}, rows...),
		),
	}
}
