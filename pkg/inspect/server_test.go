package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

type fixture struct {
	srv    *Server
	eng    *engine.Engine
	loop   *engine.Loop
	mem    *host.Memory
	screen host.Element
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := host.NewMemory()
	reg := engine.NewRegistry()
	reg.Primitives("panel", "label")
	label := vdom.Element("label")
	reg.Define(engine.Definition{
		Name:         "greeting",
		InitialState: func(vdom.Props) any { return "hello" },
		Render: func(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
			return []*vdom.Node{vdom.New("panel", nil, label(vdom.Props{"text": state}))}
		},
		OnMessage: func(h engine.Handle, payload any, props vdom.Props, state any) bool {
			if s, ok := payload.(string); ok {
				h.SetState(s)
				return true
			}
			return false
		},
	})

	promReg := prometheus.NewRegistry()
	eng := engine.New(mem, reg, engine.WithMetrics(engine.NewMetrics(engine.WithRegistry(promReg))))
	loop := engine.NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	f := &fixture{
		srv:    New(eng, loop, mem, WithGatherer(promReg)),
		eng:    eng,
		loop:   loop,
		mem:    mem,
		screen: mem.NewScreen("main"),
	}
	return f
}

func (f *fixture) createRoot(t *testing.T, name string) engine.RootID {
	t.Helper()
	var id engine.RootID
	err := f.loop.Do(context.Background(), func() error {
		var err error
		id, err = f.eng.CreateRoot(f.screen, name, "greeting", nil)
		return err
	})
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	return id
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do("GET", "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestListRoots(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/roots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty engine body = %q, want []", rec.Body.String())
	}

	id := f.createRoot(t, "hello")
	rec = f.do("GET", "/roots", "")
	var roots []engine.RootInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &roots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != id || roots[0].Name != "hello" {
		t.Fatalf("roots = %+v", roots)
	}
	if roots[0].Tree == nil || roots[0].Tree.Type != "greeting" || roots[0].Tree.State != "hello" {
		t.Errorf("tree = %+v", roots[0].Tree)
	}
}

func TestGetRoot(t *testing.T) {
	f := newFixture(t)
	id := f.createRoot(t, "hello")

	tests := []struct {
		path   string
		status int
	}{
		{"/roots/" + itoa(id), http.StatusOK},
		{"/roots/999", http.StatusNotFound},
		{"/roots/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := f.do("GET", tt.path, ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestBroadcastAndStats(t *testing.T) {
	f := newFixture(t)
	id := f.createRoot(t, "hello")

	rec := f.do("POST", "/roots/"+itoa(id)+"/messages", `"bonjour"`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var text any
	f.loop.Do(context.Background(), func() error {
		r, _ := f.eng.Root(id)
		label := f.mem.Children(r.Element())[0]
		text = f.mem.Prop(label, "text")
		return nil
	})
	if text != "bonjour" {
		t.Errorf("label text = %v, want bonjour", text)
	}

	rec = f.do("GET", "/stats", "")
	var st engine.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Updated != 1 || st.Created != 2 {
		t.Errorf("stats = %+v, want 2 created, 1 updated", st)
	}

	if rec := f.do("POST", "/roots/"+itoa(id)+"/messages", `{bad`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad payload status = %d", rec.Code)
	}
	if rec := f.do("POST", "/roots/42/messages", `"x"`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown root status = %d", rec.Code)
	}
}

func TestDeleteRoot(t *testing.T) {
	f := newFixture(t)
	id := f.createRoot(t, "hello")

	if rec := f.do("DELETE", "/roots/"+itoa(id), ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := f.do("DELETE", "/roots/"+itoa(id), ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if n := len(f.mem.Children(f.screen)); n != 0 {
		t.Errorf("screen has %d children after delete", n)
	}
}

func TestSnapshotWithoutStore(t *testing.T) {
	f := newFixture(t)
	if rec := f.do("POST", "/snapshot", ""); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.createRoot(t, "hello")

	rec := f.do("GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"retain_engine_paint_ops_total", "retain_engine_active_roots 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.createRoot(t, "hello")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var op struct {
		Kind string `json:"kind"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if op.Kind != "Create" || op.Type != "panel" {
		t.Errorf("first op = %+v, want Create panel", op)
	}
}

func itoa(id engine.RootID) string {
	return strconv.FormatUint(uint64(id), 10)
}
