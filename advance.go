package agast

import (
	"fmt"

	"github.com/clarete/agast/source"
)

// advance applies `tag` to the current frame's state
func (vm *vm) advance(tag Tag) error {
	m := vm.frames.top()
	if m == nil {
		return ErrNoFrame
	}
	s := m.state
	if tag.Kind() != TagKind_Reference {
		s.referencePath = nil
	}

	var err error
	switch t := tag.(type) {
	case Doctype:
		s.node = m.node
		language, _ := t.Attributes.String("bablrLanguage")
		typ, _ := t.Attributes.String("type")
		s.tree = s.tree.update(s.node, func(n *node) {
			n.typ = typ
			n.language = language
		})
		s.advance(t)
		m.rangePreviousIndex = 0

	case Reference:
		s.advance(t)
		path := s.resultPath
		s.referencePath = &path
		if m.referencePath == nil && s.node == m.fragmentNode {
			m.referencePath = &path
		}

	case OpenFragment:
		s.advance(t)

	case OpenNode:
		err = vm.openNode(m, t)

	case CloseNode:
		err = vm.closeNode(m, t)

	case CloseFragment:
		s.advance(t)
		s.node = m.node

	case Literal:
		err = vm.advanceLiteral(s, t)

	case Gap:
		err = vm.advanceGap(m, t)

	case Shift:
		err = vm.shift(s)

	default:
		s.advance(tag)
	}
	if err != nil {
		return err
	}
	return vm.emit(nil)
}

func (vm *vm) openNode(m *Match, t OpenNode) error {
	s := m.state
	if !m.isNode {
		return fmt.Errorf("%w: OpenNode in `%s`, which doesn't build nodes", ErrInvalidTag, m.typ)
	}
	if _, opened := s.tree.openTag(m.node); opened {
		return fmt.Errorf("%w: node `%s` is already open", ErrInvalidTag, m.typ)
	}

	topLevel := s.depths.Path == 0
	s.depths.Path++
	s.node = m.node
	s.tree = s.tree.update(m.node, func(n *node) {
		if t.Type != "" {
			n.typ = t.Type
		}
		if t.Language != "" {
			n.language = t.Language
		}
		n.flags.Token = n.flags.Token || t.Flags.Token
		n.flags.Cover = t.Flags.Cover
		for k, v := range t.Attributes {
			n.attributes = n.attributes.With(k, v)
		}
	})
	s.advance(t)
	if topLevel {
		s.tree = s.tree.bind(m.fragmentNode, m.node)
	}
	return s.updateSpans(m.node, spanPhase_Open)
}

func (vm *vm) closeNode(m *Match, t CloseNode) error {
	s := m.state
	if s.node != m.node || s.depths.Path == 0 {
		return fmt.Errorf("%w: CloseNode without an open node in `%s`", ErrInvalidTag, m.typ)
	}

	if m.referencePath != nil {
		ref, _ := m.referencePath.Tag.(Reference)
		if ref.Name == CookedReference {
			if err := vm.cook(m); err != nil {
				return err
			}
		}
	}

	id := s.node
	s.advance(t)
	s.node = m.fragmentNode
	s.depths.Path--
	if err := s.updateSpans(id, spanPhase_Close); err != nil {
		return err
	}
	if s.depths.Path > 0 {
		s.tree = s.tree.bind(m.fragmentNode, id)
	}
	if !m.hasParent() {
		return vm.checkCompletion(s)
	}
	return nil
}

// cook binds the `cooked` attribute of the node of frame `m`.  It is
// null when the node holds a gap or its language doesn't cook.
func (vm *vm) cook(m *Match) error {
	s := m.state
	var value any
	cooker, ok := m.language.(Cooker)
	if ok && !s.tree.get(m.node).flags.HasGap {
		var err error
		value, err = cooker.Cooked(NodeView{t: s.tree, id: m.node}, s.span().Name, vm.registry)
		if err != nil {
			return fmt.Errorf("cooking `%s`: %w", m.typ, err)
		}
	}
	vm.bindAttribute(m, "cooked", value)
	return nil
}

func (vm *vm) advanceLiteral(s *State, t Literal) error {
	balancer := false
	if open, ok := s.resultPath.Tag.(OpenNode); ok && open.Attributes.Bool("balancer") {
		if id, ok := s.balanced.top(); ok {
			closer, _ := s.tree.get(id).attributes.String("balanced")
			balancer = closer == t.Value
		}
	}

	var f *source.Future[source.Result]
	pattern := source.Literal(t.Value)
	if balancer {
		f = s.match(pattern)
	} else {
		f = s.guardedMatch(vm.ctx, pattern)
	}
	res, err := await(vm, f)
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("%w: `%s`", ErrLiteralMismatch, t.Value)
	}
	if _, err := await(vm, s.source.Advance(len(res.Text))); err != nil {
		return err
	}
	s.advance(t)
	return nil
}

// advanceGap consumes a gap of the input and fills it with, in order
// of preference, the held node, the next expression or a placeholder.
func (vm *vm) advanceGap(m *Match, t Gap) error {
	s := m.state
	_, sym := s.source.Value()
	if sym != source.SymbolGap || s.source.Done() {
		return fmt.Errorf("%w: %s under the cursor", ErrGapAdvanceFailed, sym)
	}
	if s.source.Holding() {
		s.source.Unshift()
	} else if _, err := await(vm, s.source.Advance(1)); err != nil {
		return err
	}

	if s.held != NoNode {
		s.tree = s.tree.bind(s.node, s.held)
		s.held = NoNode
		return nil
	}
	if expr, ok := s.expressions.top(); ok {
		s.expressions = s.expressions.pop()
		s.tree = s.tree.bind(s.node, expr)
		return nil
	}

	previous := s.node
	s.node = m.node
	if s.tree.get(m.node).children.Len() > 0 {
		s.advance(t)
		s.node = previous
		return nil
	}
	// a node made of nothing but the gap
	s.tree = s.tree.bind(m.fragmentNode, m.node)
	s.advance(t)
	s.node = m.fragmentNode
	return nil
}

// shift detaches the node most recently bound to the current node and
// holds it.  The reference it was bound to stays, so a gap following
// can attach the held node to it again.
func (vm *vm) shift(s *State) error {
	if s.held != NoNode {
		return fmt.Errorf("%w: a node is held already", ErrShiftWithoutTarget)
	}
	children := s.tree.children(s.node)
	if len(children) < 2 || !children[len(children)-1].IsNode() {
		return ErrShiftWithoutTarget
	}
	refChild := children[len(children)-2]
	if refChild.IsNode() {
		return ErrShiftWithoutTarget
	}
	ref, ok := refChild.Tag.(Reference)
	if !ok {
		return ErrShiftWithoutTarget
	}

	held := children[len(children)-1].Node
	s.tree = s.tree.popChild(s.node)
	s.tree = s.tree.update(s.node, func(n *node) {
		p := n.properties[ref.Name]
		if !p.IsArray || p.Items == nil || p.Items.Len() <= 1 {
			n.withoutProperty(ref.Name)
			return
		}
		p.Items = p.Items.Slice(0, p.Items.Len()-1)
		n.withProperty(ref.Name, p)
	})
	s.held = held
	s.source.Hold()
	return nil
}
