package engine

import (
	"fmt"

	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

// RootInfo is a JSON-friendly view of a root.
type RootInfo struct {
	ID        RootID       `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	Container host.Element `json:"container"`
	Element   host.Element `json:"element,omitempty"`
	Tree      *NodeInfo    `json:"tree,omitempty"`
}

// NodeInfo is a JSON-friendly view of a node.
type NodeInfo struct {
	ID       uint64            `json:"id"`
	Type     string            `json:"type"`
	Element  host.Element      `json:"element,omitempty"`
	State    string            `json:"state,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Hooks    int               `json:"hooks,omitempty"`
	Children []*NodeInfo       `json:"children,omitempty"`
}

// Describe returns a view of every live root, for diagnostics.
func (e *Engine) Describe() []RootInfo {
	var out []RootInfo
	for _, id := range e.Roots() {
		if info, ok := e.DescribeRoot(id); ok {
			out = append(out, info)
		}
	}
	return out
}

// DescribeRoot returns a view of one root.
func (e *Engine) DescribeRoot(id RootID) (RootInfo, bool) {
	r, ok := e.Root(id)
	if !ok {
		return RootInfo{}, false
	}
	return RootInfo{
		ID:        r.ID,
		Name:      r.Name,
		Type:      r.Type,
		Container: r.Container,
		Element:   r.element,
		Tree:      describe(r.vtree),
	}, true
}

func describe(v *vnode) *NodeInfo {
	if !v.alive() {
		return nil
	}
	info := &NodeInfo{
		ID:      v.id,
		Type:    v.typ,
		Element: v.element,
		Hooks:   len(v.hooks),
	}
	if v.state != nil {
		info.State = fmt.Sprintf("%v", v.state)
	}
	for _, k := range v.props.SortedKeys() {
		if k == vdom.KeyChildren {
			continue
		}
		if info.Props == nil {
			info.Props = make(map[string]string)
		}
		switch val := v.props[k].(type) {
		case string:
			info.Props[k] = val
		default:
			if vdom.IsReserved(k) && k != vdom.KeyQueryTag {
				info.Props[k] = fmt.Sprintf("%T", val)
			} else {
				info.Props[k] = fmt.Sprintf("%v", val)
			}
		}
	}
	for _, c := range v.children {
		if ci := describe(c); ci != nil {
			info.Children = append(info.Children, ci)
		}
	}
	return info
}
