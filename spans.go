package agast

import "fmt"

type SpanType int

const (
	SpanType_Lexical SpanType = iota
	SpanType_Instruction
	SpanType_Inner
	SpanType_Explicit
)

func (t SpanType) String() string {
	switch t {
	case SpanType_Lexical:
		return "Lexical"
	case SpanType_Instruction:
		return "Instruction"
	case SpanType_Inner:
		return "Inner"
	case SpanType_Explicit:
		return "Explicit"
	default:
		return "Unknown"
	}
}

// DefaultSpan names the span every evaluation starts in
const DefaultSpan = "Bare"

// Span is a named region of the input.  A guarded span won't let a
// guarded match consume its guard text.
type Span struct {
	Type  SpanType
	Name  string
	Guard string
	Node  NodeID
}

type spanPhase int

const (
	spanPhase_Open spanPhase = iota
	spanPhase_Close
)

// updateSpans keeps spans and balanced nodes in sync with the node
// `id` opening or closing.  Attributes that matter:
//
//	span          the node is an Inner span with that name
//	balanced      the node opens a region closed by that text
//	balancedSpan  name of the region a balanced node opens
//	balancer      the node closes the innermost balanced region
func (s *State) updateSpans(id NodeID, phase spanPhase) error {
	attrs := s.tree.get(id).attributes
	innerSpan, hasInner := attrs.String("span")
	closer, _ := attrs.String("balanced")

	switch phase {
	case spanPhase_Open:
		if closer != "" {
			s.balanced = s.balanced.push(id)
		}
		if hasInner {
			s.spans = s.spans.push(Span{Type: SpanType_Inner, Name: innerSpan, Node: id})
		}

	case spanPhase_Close:
		if hasInner {
			top := s.span()
			if top.Type != SpanType_Inner || top.Name != innerSpan {
				return fmt.Errorf("%w: closing span %q but %s span %q is open", ErrSpanMismatch, innerSpan, top.Type, top.Name)
			}
			s.spans = s.spans.pop()
		}
		if closer != "" {
			name, ok := attrs.String("balancedSpan")
			if !ok {
				name = s.span().Name
			}
			s.spans = s.spans.push(Span{Type: SpanType_Explicit, Name: name, Guard: closer, Node: id})
		}
		if attrs.Bool("balancer") {
			if s.balanced.size() == 0 {
				return fmt.Errorf("%w: balancer without a balanced node", ErrUnbalancedConstruct)
			}
			s.balanced = s.balanced.pop()
			if top := s.span(); top.Type != SpanType_Explicit {
				return fmt.Errorf("%w: balancer closing %s span %q", ErrSpanMismatch, top.Type, top.Name)
			}
			s.spans = s.spans.pop()
		}
	}
	return nil
}
