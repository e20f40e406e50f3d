package engine

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// defineSender registers "sender", whose handler issues further
// operations while it runs.
func defineSender(p *probe) func(*Registry) {
	return func(reg *Registry) {
		reg.Define(Definition{
			Name:         "sender",
			InitialState: func(vdom.Props) any { return 0 },
			Render: func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node {
				p.record(fmt.Sprintf("render %v", state))
				return []*vdom.Node{label(vdom.Props{"text": fmt.Sprint(state)})}
			},
			OnMessage: func(h Handle, payload any, props vdom.Props, state any) bool {
				p.record(fmt.Sprintf("handle %v", payload))
				switch payload {
				case "go":
					h.Send("second")
					h.SetState(1)
					p.record("after")
				case "fail":
					h.SetState(1)
					h.Send("second")
				case "orphan":
					h.Parent().SetState(false)
					h.Send("late")
				}
				return true
			},
		})
		reg.Define(Definition{
			Name:         "holder",
			InitialState: func(vdom.Props) any { return true },
			Render: func(ctx *RenderContext, props vdom.Props, state any) []*vdom.Node {
				if state == true {
					return []*vdom.Node{vdom.New("sender", nil)}
				}
				return []*vdom.Node{label(vdom.Props{"text": "gone"})}
			},
		})
	}
}

func TestBarrierOrdering(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineSender(p))
	id := f.mount("s", "sender", nil)
	p.log = nil

	if err := f.eng.Send(f.eng.RootHandle(id), "go"); err != nil {
		t.Fatal(err)
	}
	want := []string{"handle go", "after", "handle second", "render 1"}
	if !reflect.DeepEqual(p.log, want) {
		t.Errorf("order = %v, want %v", p.log, want)
	}
	if f.eng.Epoch() {
		t.Error("epoch still open after Send returned")
	}
	if got := f.mem.Prop(f.element(id), "text"); got != "1" {
		t.Errorf("label text = %v, want 1", got)
	}
}

func TestBarrierDropsPrunedTargets(t *testing.T) {
	p := &probe{}
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	mem := host.NewMemory()
	screen := mem.NewScreen("main")
	eng := New(mem, newRegistry(defineSender(p)), WithLogger(quiet), WithMetrics(m))
	id, err := eng.CreateRoot(screen, "h", "holder", nil)
	if err != nil {
		t.Fatal(err)
	}
	sender := eng.RootHandle(id).Children()[0]
	if sender.Type() != "sender" {
		t.Fatalf("child type = %s, want sender", sender.Type())
	}
	p.log = nil

	if err := eng.Send(sender, "orphan"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"handle orphan"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("log = %v, want %v", p.log, want)
	}
	if sender.Valid() {
		t.Error("sender handle still valid after its subtree was replaced")
	}
	if got := testutil.ToFloat64(m.queuedOps); got != 2 {
		t.Errorf("queued ops = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.droppedOps); got != 1 {
		t.Errorf("dropped ops = %v, want 1", got)
	}
	r, _ := eng.Root(id)
	if got := mem.Prop(r.Element(), "text"); got != "gone" {
		t.Errorf("root element text = %v, want gone", got)
	}
}

func TestBarrierHostErrorAbortsEpoch(t *testing.T) {
	p := &probe{}
	f := newFixture(t, defineSender(p))
	id := f.mount("s", "sender", nil)
	p.log = nil

	boom := stderrors.New("toolkit refused")
	f.mem.FailOn(host.OpUpdate, boom)
	err := f.eng.Send(f.eng.RootHandle(id), "fail")
	if !stderrors.Is(err, ErrHost) {
		t.Fatalf("Send error = %v, want E301", err)
	}
	if !stderrors.Is(err, boom) {
		t.Errorf("Send error %v does not wrap the host error", err)
	}
	want := []string{"handle fail", "render 1"}
	if !reflect.DeepEqual(p.log, want) {
		t.Errorf("log = %v, want %v (queued send must be discarded)", p.log, want)
	}
	if f.eng.Epoch() {
		t.Error("epoch still open after an aborted operation")
	}

	f.mem.FailOn(host.OpUpdate, nil)
	p.log = nil
	if err := f.eng.Send(f.eng.RootHandle(id), "second"); err != nil {
		t.Fatalf("Send after recovery failed: %v", err)
	}
	if want := []string{"handle second"}; !reflect.DeepEqual(p.log, want) {
		t.Errorf("log = %v, want %v", p.log, want)
	}
}
