package agast

import (
	"sort"

	"github.com/benbjohnson/immutable"
)

// NodeView is a read-only handle on a node of a tree snapshot.  Views
// stay valid after the evaluation moves on since snapshots are never
// modified.
type NodeView struct {
	t  tree
	id NodeID
}

func (v NodeView) IsZero() bool { return v.id == NoNode || v.t.nodes == nil }
func (v NodeView) ID() NodeID   { return v.id }

func (v NodeView) node() *node { return v.t.get(v.id) }

func (v NodeView) Type() string     { return v.node().typ }
func (v NodeView) Language() string { return v.node().language }
func (v NodeView) Flags() NodeFlags { return v.node().flags }

func (v NodeView) Attributes() Attributes {
	attrs := make(Attributes, len(v.node().attributes))
	for k, val := range v.node().attributes {
		attrs[k] = val
	}
	return attrs
}

// UnboundAttributes lists, sorted, the attribute names the node still
// expects to be bound.
func (v NodeView) UnboundAttributes() []string {
	keys := make([]string, 0, len(v.node().unbound))
	for k := range v.node().unbound {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v NodeView) Children() []Child { return v.t.children(v.id) }
func (v NodeView) Len() int          { return v.node().children.Len() }

// Node returns a view of another node of the same snapshot, usually
// one found in Children.
func (v NodeView) Node(id NodeID) NodeView { return NodeView{t: v.t, id: id} }

func (v NodeView) HasProperty(name string) bool {
	_, ok := v.node().properties[name]
	return ok
}

// Property returns the node bound to the single reference `name`.
// A reference left null by a failed frame gives a zero view.
func (v NodeView) Property(name string) (NodeView, bool) {
	p, ok := v.node().properties[name]
	if !ok || p.IsArray {
		return NodeView{}, false
	}
	if p.Node == NoNode {
		return NodeView{}, true
	}
	return v.Node(p.Node), true
}

// PropertyArray returns the nodes bound to the array reference `name`
func (v NodeView) PropertyArray(name string) ([]NodeView, bool) {
	p, ok := v.node().properties[name]
	if !ok || !p.IsArray {
		return nil, false
	}
	return nodeViews(v.t, p.Items), true
}

// Tags lists the node's tags in document order with sub-nodes
// expanded.
func (v NodeView) Tags() []Tag {
	var tags []Tag
	v.t.walk(v.id, 0, func(t Tag) bool {
		tags = append(tags, t)
		return true
	})
	return tags
}

func (v NodeView) Text() string      { return v.t.Text(v.id) }
func (v NodeView) SourceLength() int { return v.t.SourceLength(v.id) }
func (v NodeView) Pretty() string    { return v.t.Pretty(v.id) }
func (v NodeView) Highlight() string { return v.t.Highlight(v.id) }

func nodeViews(t tree, ids *immutable.List[NodeID]) []NodeView {
	out := []NodeView{}
	if ids == nil {
		return out
	}
	itr := ids.Iterator()
	for !itr.Done() {
		_, id := itr.Next()
		out = append(out, NodeView{t: t, id: id})
	}
	return out
}

// BuildToken builds a standalone token node holding `text`, e.g. to
// be spliced into gaps as an expression.
func BuildToken(language, typ, text string) NodeView {
	t := newTree()
	t, id := t.add(node{typ: typ, language: language, flags: NodeFlags{Token: true}})
	open := OpenNode{Flags: NodeFlags{Token: true}, Language: language, Type: typ}
	t = t.appendChild(id, Child{Tag: open})
	if text != "" {
		t = t.appendChild(id, Child{Tag: Literal{Value: text}})
	}
	t = t.appendChild(id, Child{Tag: CloseNode{}})
	return NodeView{t: t, id: id}
}

// FrameView is a snapshot of a frame handed to strategies
type FrameView struct {
	Type               string
	Language           string
	Depth              int
	IsNode             bool
	IsCover            bool
	Cover              bool
	Token              bool
	Effects            Effects
	Reference          *Reference
	MergedReference    *Reference
	RangePreviousIndex int
	Node               NodeView
}

func newFrameView(m *Match) FrameView {
	if m == nil {
		return FrameView{}
	}
	return FrameView{
		Type:               m.typ,
		Language:           m.url(),
		Depth:              m.index,
		IsNode:             m.isNode,
		IsCover:            m.isCover,
		Cover:              m.cover,
		Token:              m.token,
		Effects:            m.effects,
		Reference:          m.reference,
		MergedReference:    m.mergedReference,
		RangePreviousIndex: m.rangePreviousIndex,
		Node:               NodeView{t: m.state.tree, id: m.node},
	}
}

// StateView is a read-only snapshot of a State
type StateView struct {
	s State
}

func (v StateView) Node() NodeView      { return NodeView{t: v.s.tree, id: v.s.node} }
func (v StateView) Depths() Depths      { return v.s.depths }
func (v StateView) Status() Status      { return v.s.status }
func (v StateView) Offset() int         { return v.s.source.Offset() }
func (v StateView) Done() bool          { return v.s.source.Done() }
func (v StateView) Holding() bool       { return v.s.source.Holding() }
func (v StateView) ResultPath() TagPath { return v.s.resultPath }
func (v StateView) Span() Span          { return v.s.span() }
func (v StateView) Spans() []Span       { return v.s.spans.values() }
func (v StateView) Balanced() int       { return v.s.balanced.size() }
func (v StateView) Expressions() int    { return v.s.expressions.size() }

// Held returns the node detached by the last shift, if any
func (v StateView) Held() (NodeView, bool) {
	if v.s.held == NoNode {
		return NodeView{}, false
	}
	return NodeView{t: v.s.tree, id: v.s.held}, true
}
