package engine

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/retain/internal/errors"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// SnapshotVersion is bumped whenever the persisted layout changes.
const SnapshotVersion = 1

// Snapshot is the persisted form of every root. It holds no closures and
// no live references.
type Snapshot struct {
	Version int
	ID      string
	SavedAt time.Time
	LastID  uint64
	Roots   []RootRecord
}

// RootRecord is one persisted root.
type RootRecord struct {
	ID        RootID
	Container host.Element
	Name      string
	Type      string
	Props     vdom.Props
	Tree      NodeRecord
}

// NodeRecord is one persisted node. An empty Type marks a null child.
type NodeRecord struct {
	Type     string
	State    any
	Hooks    []HookSlot
	Children []NodeRecord
}

func init() {
	for _, v := range []any{
		map[string]any{},
		map[any]any{},
		[]any{},
		vdom.Props{},
		RootID(0),
		host.Element(0),
	} {
		gob.Register(v)
	}
}

// RegisterType makes a concrete type usable in persisted state, hook keys
// and hook values. Call it at startup for every such type that is not a
// Go builtin.
func RegisterType(value any) {
	gob.Register(value)
}

// Snapshot captures every live root.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		ID:      uuid.NewString(),
		SavedAt: time.Now().UTC(),
	}
	for _, id := range e.Roots() {
		r := e.roots[id]
		if !e.checkRoot(r) {
			continue
		}
		s.LastID = max(s.LastID, uint64(id))
		s.Roots = append(s.Roots, RootRecord{
			ID:        r.ID,
			Container: r.Container,
			Name:      r.Name,
			Type:      r.Type,
			Props:     persistable(r.Props),
			Tree:      record(r.vtree),
		})
	}
	return s
}

func record(v *vnode) NodeRecord {
	if !v.alive() {
		return NodeRecord{}
	}
	rec := NodeRecord{Type: v.typ, State: v.state}
	if len(v.hooks) > 0 {
		rec.Hooks = append([]HookSlot(nil), v.hooks...)
	}
	for _, c := range v.children {
		rec.Children = append(rec.Children, record(c))
	}
	return rec
}

// persistable strips children and handler props, which cannot be encoded
// and are re-derived on render.
func persistable(p vdom.Props) vdom.Props {
	out := make(vdom.Props, len(p))
	for k, v := range p {
		switch k {
		case vdom.KeyChildren, vdom.KeyMessageHandler, vdom.KeyQueryHandler:
			continue
		}
		if vdom.IsEventHandler(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Encode serializes s with encoding/gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.New("E401").Wrap(err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot parses data written by Snapshot.Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, errors.New("E402").Wrap(err)
	}
	if s.Version != SnapshotVersion {
		return nil, errors.New("E402").WithDetailf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	return &s, nil
}
