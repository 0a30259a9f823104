package agast

import (
	"context"

	"github.com/clarete/agast/source"
)

type Status int

const (
	Status_Active Status = iota
	Status_Rejected
)

func (s Status) String() string {
	if s == Status_Rejected {
		return "rejected"
	}
	return "active"
}

// Depths tracks how deep tree construction is (Path) separately from
// how deep the emitted output is (Emitted).  Emitted never exceeds
// Path.
type Depths struct {
	Path    int
	Emitted int
}

// TagPath points at child `Index` of node `Node`.  `Tag` is the tag
// found there when the path was taken.
type TagPath struct {
	Node  NodeID
	Index int
	Tag   Tag
}

// State is the cursor-like context a frame runs with.  Everything in
// it is either a value or a persistent structure, so branching is a
// copy and backtracking is dropping the copy.
type State struct {
	source        source.Cursor
	tree          tree
	node          NodeID
	resultPath    TagPath
	referencePath *TagPath
	depths        Depths
	held          NodeID
	expressions   pstack[NodeID]
	spans         pstack[Span]
	balanced      pstack[NodeID]
	status        Status
}

func newState(cursor source.Cursor, expressions []NodeView) *State {
	t := newTree()
	t, root := t.add(node{})

	imported := make([]NodeID, len(expressions))
	for i, expr := range expressions {
		t, imported[i] = t.importNode(expr.t, expr.id)
	}
	// the first expression given is the first one spliced
	var exprs pstack[NodeID]
	for i := len(imported) - 1; i >= 0; i-- {
		exprs = exprs.push(imported[i])
	}

	var spans pstack[Span]
	spans = spans.push(Span{Type: SpanType_Lexical, Name: DefaultSpan})

	return &State{
		source:      cursor,
		tree:        t,
		node:        root,
		expressions: exprs,
		spans:       spans,
	}
}

// branch returns the state a child frame starts with
func (s *State) branch() *State {
	child := *s
	child.source = s.source.Fork()
	child.status = Status_Active
	return &child
}

// accept adopts everything a successful child frame did
func (s *State) accept(child *State) {
	*s = *child
	s.status = Status_Active
}

func (s *State) reject() {
	s.status = Status_Rejected
}

func (s *State) depth() int {
	return s.depths.Path
}

func (s *State) span() Span {
	span, _ := s.spans.top()
	return span
}

// advance appends `tag` to the node receiving tags
func (s *State) advance(tag Tag) {
	s.tree = s.tree.appendChild(s.node, Child{Tag: tag})
	s.resultPath = TagPath{
		Node:  s.node,
		Index: s.tree.get(s.node).children.Len() - 1,
		Tag:   tag,
	}
}

func (s *State) match(p source.Pattern) *source.Future[source.Result] {
	return s.source.Match(p)
}

// guardedMatch refuses to match when the innermost span is guarded
// and its guard is under the cursor.  A pending guard is waited on
// until `ctx` is done.
func (s *State) guardedMatch(ctx context.Context, p source.Pattern) *source.Future[source.Result] {
	guard := s.span().Guard
	if guard == "" {
		return s.match(p)
	}
	g := s.source.Match(source.Literal(guard))
	if !g.Pending() {
		res, err := g.Value()
		switch {
		case err != nil:
			return source.Failed[source.Result](err)
		case res.OK:
			return source.Ready(source.Result{})
		}
		return s.match(p)
	}

	// The evaluation is suspended until `f` settles, so nothing else
	// touches the cursor meanwhile.
	f := source.NewFuture[source.Result]()
	cursor := s.source
	go func() {
		res, err := g.Wait(ctx)
		switch {
		case err != nil:
			f.Reject(err)
			return
		case res.OK:
			f.Resolve(source.Result{})
			return
		}
		res, err = cursor.Match(p).Wait(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(res)
	}()
	return f
}
