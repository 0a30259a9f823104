package agast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNumber(tr tree, text string) (tree, NodeID) {
	tr, id := tr.add(node{typ: "Number", flags: NodeFlags{Token: true}})
	tr = tr.appendChild(id, Child{Tag: numberOpen()})
	tr = tr.appendChild(id, Child{Tag: Literal{Value: text}})
	tr = tr.appendChild(id, Child{Tag: CloseNode{}})
	return tr, id
}

func TestTreeSnapshots(t *testing.T) {
	before, root := newTree().add(node{typ: "List"})
	after := before.appendChild(root, Child{Tag: Reference{Name: "a"}})

	assert.Equal(t, 0, before.get(root).children.Len())
	assert.Equal(t, 1, after.get(root).children.Len())

	after, n := buildNumber(after, "1")
	assert.False(t, before.has(n))
	assert.True(t, after.has(n))
	assert.Panics(t, func() { before.get(n) })
}

func TestTreeBind(t *testing.T) {
	tr, root := newTree().add(node{typ: "List"})
	tr, one := buildNumber(tr, "1")
	tr, two := buildNumber(tr, "2")
	tr, three := buildNumber(tr, "3")

	tr = tr.appendChild(root, Child{Tag: Reference{Name: "items", IsArray: true}})
	tr = tr.bind(root, one)
	tr = tr.appendChild(root, Child{Tag: Reference{Name: "items", IsArray: true}})
	tr = tr.bind(root, two)
	tr = tr.bind(root, three)

	view := NodeView{t: tr, id: root}
	items, ok := view.PropertyArray("items")
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, one, items[0].ID())
	assert.Equal(t, two, items[1].ID())

	self, ok := view.Property(".")
	require.True(t, ok)
	assert.Equal(t, three, self.ID())

	assert.Equal(t, "123", view.Text())
	assert.Equal(t, 3, view.SourceLength())
}

func TestTreeImport(t *testing.T) {
	src, root := newTree().add(node{typ: "Pair"})
	src = src.appendChild(root, Child{Tag: OpenNode{Type: "Pair"}})
	src = src.appendChild(root, Child{Tag: Reference{Name: "key"}})
	src, key := buildNumber(src, "1")
	src = src.bind(root, key)
	src = src.appendChild(root, Child{Tag: CloseNode{}})

	dst, other := newTree().add(node{typ: "Other"})
	dst, imported := dst.importNode(src, root)

	assert.NotEqual(t, other, imported)
	view := NodeView{t: dst, id: imported}
	assert.Equal(t, "Pair", view.Type())
	k, ok := view.Property("key")
	require.True(t, ok)
	assert.Equal(t, "1", k.Text())
	assert.Equal(t, NodeView{t: src, id: root}.Tags(), view.Tags())
}

func TestTreeHighlight(t *testing.T) {
	tr, root := newTree().add(node{typ: "List"})
	tr, one := buildNumber(tr, "1")
	tr = tr.appendChild(root, Child{Tag: Reference{Name: "first"}})
	tr = tr.bind(root, one)
	tr = tr.appendChild(root, Child{Tag: Reference{Name: "rest"}})
	tr = tr.appendChild(root, Child{Tag: Null{}})

	assert.Equal(t, `<List>
├── first: <*Number>
│   └── "1"
└── rest: null`, tr.Pretty(root))

	highlighted := tr.Highlight(root)
	assert.NotEqual(t, tr.Pretty(root), highlighted)
	assert.True(t, strings.Contains(highlighted, "\033["))
}

func TestPersistentStack(t *testing.T) {
	var empty pstack[int]
	one := empty.push(1)
	two := one.push(2)

	assert.Equal(t, 0, empty.size())
	assert.Equal(t, []int{1}, one.values())
	assert.Equal(t, []int{1, 2}, two.values())

	top, ok := two.top()
	require.True(t, ok)
	assert.Equal(t, 2, top)
	below, ok := two.peek(1)
	require.True(t, ok)
	assert.Equal(t, 1, below)
	_, ok = two.peek(2)
	assert.False(t, ok)

	assert.Equal(t, []int{1}, two.pop().values())
	assert.Equal(t, 0, empty.pop().size())
}

func TestFrameStack(t *testing.T) {
	var frames frameStack
	assert.Nil(t, frames.top())

	a, b := &Match{typ: "A"}, &Match{typ: "B"}
	frames.push(a)
	frames.push(b)
	assert.Equal(t, 1, b.index)
	assert.Equal(t, b, frames.top())
	assert.Equal(t, a, frames.peek(1))
	assert.Equal(t, a, frames.at(0))
	assert.Nil(t, frames.at(2))

	assert.Equal(t, b, frames.pop())
	assert.Equal(t, 1, frames.len())
}
