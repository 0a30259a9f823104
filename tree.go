package agast

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/clarete/agast/ascii"
)

type NodeID int32

// NoNode is the zero NodeID, no node ever gets it
const NoNode NodeID = 0

// Child is one entry of a node's children: either a tag or a sub-node
// embedded at that position.
type Child struct {
	Tag  Tag
	Node NodeID
}

func (c Child) IsNode() bool { return c.Node != NoNode }

func (c Child) kind() TagKind {
	if c.IsNode() {
		return TagKind_OpenNode
	}
	return c.Tag.Kind()
}

// Property is the value bound to a reference name
type Property struct {
	Node    NodeID
	IsArray bool
	Items   *immutable.List[NodeID]
}

type node struct {
	id         NodeID
	typ        string
	language   string
	flags      NodeFlags
	attributes Attributes
	children   *immutable.List[Child]
	properties map[string]Property
	unbound    map[string]struct{}
}

func (n *node) withProperty(name string, p Property) {
	props := make(map[string]Property, len(n.properties)+1)
	for k, v := range n.properties {
		props[k] = v
	}
	props[name] = p
	n.properties = props
}

func (n *node) withoutProperty(name string) {
	props := make(map[string]Property, len(n.properties))
	for k, v := range n.properties {
		if k != name {
			props[k] = v
		}
	}
	n.properties = props
}

func (n *node) withoutUnbound(key string) {
	if _, ok := n.unbound[key]; !ok {
		return
	}
	unbound := make(map[string]struct{}, len(n.unbound))
	for k := range n.unbound {
		if k != key {
			unbound[k] = struct{}{}
		}
	}
	n.unbound = unbound
}

func (n *node) lastChild() (Child, bool) {
	if n.children.Len() == 0 {
		return Child{}, false
	}
	return n.children.Get(n.children.Len() - 1), true
}

// tree is the node arena.  It's a value type: every change returns a
// new tree and leaves the receiver untouched, so any state holding an
// older tree keeps seeing its own snapshot.
type tree struct {
	nodes *immutable.List[*node]
}

func newTree() tree {
	// slot zero belongs to NoNode
	return tree{nodes: immutable.NewList[*node](nil)}
}

func (t tree) Len() int { return t.nodes.Len() - 1 }

func (t tree) get(id NodeID) *node {
	if id <= NoNode || int(id) >= t.nodes.Len() {
		panic(fmt.Sprintf("node %d is not in the tree", id))
	}
	return t.nodes.Get(int(id))
}

func (t tree) has(id NodeID) bool {
	return id > NoNode && int(id) < t.nodes.Len()
}

func (t tree) add(n node) (tree, NodeID) {
	id := NodeID(t.nodes.Len())
	n.id = id
	if n.children == nil {
		n.children = immutable.NewList[Child]()
	}
	return tree{nodes: t.nodes.Append(&n)}, id
}

func (t tree) update(id NodeID, fn func(n *node)) tree {
	cp := *t.get(id)
	fn(&cp)
	return tree{nodes: t.nodes.Set(int(id), &cp)}
}

func (t tree) appendChild(id NodeID, c Child) tree {
	return t.update(id, func(n *node) {
		n.children = n.children.Append(c)
		if !c.IsNode() && c.Tag.Kind() == TagKind_Gap {
			n.flags.HasGap = true
		}
	})
}

func (t tree) replaceChild(id NodeID, index int, c Child) tree {
	return t.update(id, func(n *node) {
		n.children = n.children.Set(index, c)
	})
}

func (t tree) popChild(id NodeID) tree {
	return t.update(id, func(n *node) {
		n.children = n.children.Slice(0, n.children.Len()-1)
	})
}

// bind attaches `child` to `parent` right after the parent's pending
// reference, or under the self reference when there's none.
func (t tree) bind(parent, child NodeID) tree {
	name, isArray := SelfReference, false
	if last, ok := t.get(parent).lastChild(); ok && !last.IsNode() {
		if ref, ok := last.Tag.(Reference); ok {
			name, isArray = ref.Name, ref.IsArray
		}
	}
	return t.update(parent, func(n *node) {
		n.children = n.children.Append(Child{Node: child})
		if !isArray {
			n.withProperty(name, Property{Node: child})
			return
		}
		items := immutable.NewList[NodeID]()
		if prev, ok := n.properties[name]; ok && prev.Items != nil {
			items = prev.Items
		}
		n.withProperty(name, Property{IsArray: true, Items: items.Append(child)})
	})
}

// importNode copies node `id` of `from`, and everything under it, into
// the receiver with fresh ids.
func (t tree) importNode(from tree, id NodeID) (tree, NodeID) {
	src := from.get(id)
	cp := *src
	cp.children = immutable.NewList[Child]()
	cp.properties = nil
	t, newID := t.add(cp)

	itr := src.children.Iterator()
	for !itr.Done() {
		_, c := itr.Next()
		if !c.IsNode() {
			t = t.appendChild(newID, c)
			continue
		}
		var childID NodeID
		t, childID = t.importNode(from, c.Node)
		t = t.bind(newID, childID)
	}
	// references left null by a rejected frame have no child to
	// rebind them
	for name, p := range src.properties {
		if p.Node == NoNode && p.Items == nil {
			t = t.update(newID, func(n *node) { n.withProperty(name, p) })
		}
	}
	return t, newID
}

func (t tree) children(id NodeID) []Child {
	n := t.get(id)
	out := make([]Child, 0, n.children.Len())
	itr := n.children.Iterator()
	for !itr.Done() {
		_, c := itr.Next()
		out = append(out, c)
	}
	return out
}

// walk yields the tags of node `id` in document order, expanding
// embedded sub-nodes in place.
func (t tree) walk(id NodeID, from int, yield func(Tag) bool) bool {
	children := t.children(id)
	for i := from; i < len(children); i++ {
		c := children[i]
		if c.IsNode() {
			if !t.walk(c.Node, 0, yield) {
				return false
			}
			continue
		}
		if !yield(c.Tag) {
			return false
		}
	}
	return true
}

// Text returns the literal text matched under node `id`
func (t tree) Text(id NodeID) string {
	var b strings.Builder
	t.walk(id, 0, func(tag Tag) bool {
		if lit, ok := tag.(Literal); ok {
			b.WriteString(lit.Value)
		}
		return true
	})
	return b.String()
}

// SourceLength is the number of source units node `id` accounts for
func (t tree) SourceLength(id NodeID) int {
	sum := 0
	for _, c := range t.children(id) {
		if c.IsNode() {
			sum += t.SourceLength(c.Node)
			continue
		}
		sum += tagWeight(c.Tag)
	}
	return sum
}

func (t tree) openTag(id NodeID) (OpenNode, bool) {
	n := t.get(id)
	if n.children.Len() == 0 {
		return OpenNode{}, false
	}
	c := n.children.Get(0)
	if c.IsNode() {
		return OpenNode{}, false
	}
	tag, ok := c.Tag.(OpenNode)
	return tag, ok
}

type FormatToken int

const (
	FormatToken_None FormatToken = iota
	FormatToken_Node
	FormatToken_Reference
	FormatToken_Literal
	FormatToken_Gap
)

func (t tree) Pretty(id NodeID) string {
	vi := newPrettyPrinter(t, func(input string, _ FormatToken) string {
		return input
	})
	vi.visit(id)
	return vi.String()
}

func (t tree) Highlight(id NodeID) string {
	vi := newPrettyPrinter(t, func(input string, token FormatToken) string {
		color := treePrinterTheme[token]
		if color == "" {
			return input
		}
		return color + input + ascii.Reset
	})
	vi.visit(id)
	return vi.String()
}

var treePrinterTheme = map[FormatToken]string{
	FormatToken_Node:      ascii.DefaultTheme.Node,
	FormatToken_Reference: ascii.DefaultTheme.Reference,
	FormatToken_Literal:   ascii.DefaultTheme.Literal,
	FormatToken_Gap:       ascii.DefaultTheme.Placeholder,
}

type prettyPrinter struct {
	tree tree
	*treePrinter[FormatToken]
}

func newPrettyPrinter(t tree, format FormatFunc[FormatToken]) *prettyPrinter {
	return &prettyPrinter{tree: t, treePrinter: newTreePrinter(format)}
}

// item is one printable line under a node: an optional reference name
// and the value that follows it.
type item struct {
	ref   *Reference
	child Child
}

func (vi *prettyPrinter) items(id NodeID) []item {
	var (
		out      []item
		children = vi.tree.children(id)
	)
	for i := 0; i < len(children); i++ {
		c := children[i]
		if !c.IsNode() {
			switch tag := c.Tag.(type) {
			case OpenNode, CloseNode, OpenFragment, CloseFragment:
				continue
			case Reference:
				if i+1 < len(children) {
					ref := tag
					out = append(out, item{ref: &ref, child: children[i+1]})
					i++
					continue
				}
			}
		}
		out = append(out, item{child: c})
	}
	return out
}

func (vi *prettyPrinter) header(id NodeID) string {
	n := vi.tree.get(id)
	if open, ok := vi.tree.openTag(id); ok {
		return FormatTag(open)
	}
	if n.typ == "" {
		return "<>"
	}
	return fmt.Sprintf("<%s>", n.typ)
}

func (vi *prettyPrinter) visit(id NodeID) {
	vi.write(vi.header(id), FormatToken_Node)
	items := vi.items(id)
	for i, it := range items {
		leave := vi.branch(i == len(items)-1)
		if it.ref != nil {
			vi.write(FormatTag(*it.ref), FormatToken_Reference)
			vi.raw(" ")
		}
		vi.visitChild(it.child)
		leave()
	}
}

func (vi *prettyPrinter) visitChild(c Child) {
	if c.IsNode() {
		vi.visit(c.Node)
		return
	}
	switch c.Tag.(type) {
	case Literal:
		vi.write(FormatTag(c.Tag), FormatToken_Literal)
	case Gap, Null, ArrayInitializer:
		vi.write(FormatTag(c.Tag), FormatToken_Gap)
	default:
		vi.write(FormatTag(c.Tag), FormatToken_None)
	}
}
