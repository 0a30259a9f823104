package agast

import (
	"fmt"
	"strings"
)

// Match is a frame: one production being evaluated.  Frames never
// point at each other, the parent is found by index in the frame
// stack.
type Match struct {
	index  int
	parent int

	language Language
	typ      string
	effects  Effects

	isNode  bool
	isCover bool
	cover   bool
	token   bool

	// node is the node this frame builds.  Frames that aren't nodes
	// share their parent's.
	node NodeID

	// fragmentNode is the node that was receiving tags when the frame
	// started.  The frame's node is bound under it.
	fragmentNode NodeID

	reference       *Reference
	mergedReference *Reference
	referencePath   *TagPath

	rangePreviousIndex int
	state              *State
}

func (m *Match) hasParent() bool { return m.parent >= 0 }

func (m *Match) url() string {
	if m.language == nil {
		return ""
	}
	return m.language.CanonicalURL()
}

// startFrame pushes a frame running `matcher` on a branch of the
// current state.
func (vm *vm) startFrame(matcher Matcher, effects Effects, options FrameOptions) (*Match, error) {
	parent := vm.frames.top()
	if vm.language == nil {
		return nil, ErrNotInitialized
	}

	language := vm.language
	if parent != nil {
		language = parent.language
	}
	if matcher.Language != "" {
		l, ok := vm.registry.Get(matcher.Language)
		if !ok {
			return nil, fmt.Errorf("%w: `%s`", ErrUnknownLanguage, matcher.Language)
		}
		language = l
	}

	production, ok := language.Production(matcher.Type)
	if !ok {
		var hint string
		if s := suggestProductions(language, matcher.Type); len(s) > 0 {
			hint = fmt.Sprintf(", did you mean %s?", strings.Join(s, ", "))
		}
		return nil, fmt.Errorf("%w: `%s` in `%s`%s", ErrUndefinedProduction, matcher.Type, language.CanonicalURL(), hint)
	}
	return vm.pushFrame(parent, language, production, matcher, effects, options)
}

func (vm *vm) pushFrame(
	parent *Match,
	language Language,
	production Production,
	matcher Matcher,
	effects Effects,
	options FrameOptions,
) (*Match, error) {
	m := &Match{
		parent:    -1,
		language:  language,
		typ:       production.Name,
		effects:   effects,
		isNode:    production.Node,
		isCover:   production.Cover,
		token:     production.Token || matcher.Flags.Token,
		reference: matcher.Ref,
	}
	m.cover = m.isCover

	switch {
	case m.isNode && m.isCover:
		return nil, fmt.Errorf("%w: `%s`", ErrNodeCover, m.typ)
	case m.token && !m.isNode:
		return nil, fmt.Errorf("%w: `%s`", ErrTokenMustBeNode, m.typ)
	case !m.isNode && len(options.UnboundAttributes) > 0:
		return nil, fmt.Errorf("%w: `%s`", ErrUnboundAttributesOnNonNode, m.typ)
	}

	if parent != nil && parent.cover && !m.isNode && m.reference != nil {
		ref := m.reference
		if ref.Name != SelfReference || ref.IsArray || ref.Flags.Expression || ref.Flags.HasGap {
			return nil, fmt.Errorf("%w: `%s` in `%s`", ErrInvalidCoverReference, FormatTag(*ref), m.typ)
		}
	}

	var s *State
	if parent == nil {
		s = vm.state
	} else {
		m.parent = parent.index
		m.cover = m.isCover || (parent.cover && !m.isNode)
		s = parent.state.branch()
		selfRef := m.reference == nil || m.reference.Name == SelfReference
		if selfRef && parent.cover && !parent.isNode {
			m.mergedReference = parent.mergedReference
		}
	}
	if m.mergedReference == nil {
		m.mergedReference = m.reference
	}

	m.state = s
	m.fragmentNode = s.node
	m.node = s.node
	if s.referencePath != nil {
		path := *s.referencePath
		m.referencePath = &path
	}

	if m.isNode {
		unbound := make(map[string]struct{}, len(options.UnboundAttributes))
		for _, key := range options.UnboundAttributes {
			unbound[key] = struct{}{}
		}
		s.tree, m.node = s.tree.add(node{
			typ:      m.typ,
			language: m.url(),
			flags:    NodeFlags{Token: m.token},
			unbound:  unbound,
		})
	}

	if parent != nil {
		m.rangePreviousIndex = s.resultPath.Index
		switch s.resultPath.Tag.(type) {
		case CloseNode, Null, Gap:
			m.rangePreviousIndex = s.tree.get(m.fragmentNode).children.Len() - 1
		}
	}

	vm.frames.push(m)
	vm.state = s
	return m, nil
}

// endFrame pops the current frame and merges what it built into its
// parent.  It returns the frame that is current afterwards, nil when
// the root frame finished.
func (vm *vm) endFrame(hasContinuation bool) (*Match, error) {
	if vm.frames.len() == 0 {
		return nil, ErrNoFrame
	}
	finished := vm.frames.pop()
	parent := vm.frames.at(finished.parent)
	if parent == nil {
		vm.state = finished.state
		vm.observeFrame(true)
		return nil, vm.emit(nil)
	}

	s := parent.state
	accepted := finished.state.status != Status_Rejected
	if accepted {
		s.accept(finished.state)
		s.node = finished.fragmentNode
	}
	vm.state = s
	vm.observeFrame(accepted)
	if !accepted {
		return parent, nil
	}

	var target *TagPath
	refPath := finished.referencePath
	if (!parent.cover || parent.isCover) && refPath != nil && !hasContinuation {
		if ref, ok := refPath.Tag.(Reference); ok && ref.Flags.Expression {
			if s.depths.Emitted == s.depths.Path {
				target = &TagPath{Node: s.node, Index: refPath.Index, Tag: refPath.Tag}
			} else {
				target = refPath
			}
		}
	}
	return parent, vm.emit(target)
}

// throw rejects the current frame.  A failed node frame leaves a
// stand-in behind in its parent so the reference it was bound to is
// still present.
func (vm *vm) throw() (*Match, error) {
	if vm.frames.len() == 0 {
		return nil, ErrNoFrame
	}
	rejected := vm.frames.pop()
	rejected.state.reject()
	vm.observeFrame(false)

	parent := vm.frames.at(rejected.parent)
	if parent == nil {
		vm.state = rejected.state
		return nil, nil
	}
	s := parent.state
	vm.state = s

	if !rejected.isNode {
		return parent, nil
	}
	ref := rejected.mergedReference
	if ref == nil || ref.Name == DiscardReference {
		return parent, nil
	}
	if pending, ok := s.resultPath.Tag.(Reference); !ok || pending.Name != ref.Name || s.resultPath.Node != s.node {
		s.advance(*ref)
	}
	s.tree = s.tree.update(s.node, func(n *node) {
		if _, bound := n.properties[ref.Name]; bound && ref.IsArray {
			return
		}
		n.withProperty(ref.Name, Property{IsArray: ref.IsArray})
	})
	if ref.IsArray {
		s.advance(ArrayInitializer{})
	} else {
		s.advance(Null{})
	}
	s.referencePath = nil
	return parent, vm.emit(nil)
}
