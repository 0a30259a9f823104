package agast

import (
	"context"
	"iter"

	"github.com/clarete/agast/source"
)

type OutputKind int

const (
	OutputKind_Tag OutputKind = iota
	OutputKind_Effect
	OutputKind_Pending
)

func (k OutputKind) String() string {
	switch k {
	case OutputKind_Tag:
		return "tag"
	case OutputKind_Effect:
		return "effect"
	case OutputKind_Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Output is one item of an evaluation's output.  Pending items carry
// an input read the consumer must wait for before pulling again.
type Output struct {
	Kind    OutputKind
	Tag     Tag
	Effect  *WriteEffect
	Pending source.Awaitable
}

// Stream is the lazy output of an evaluation.  Nothing runs until it
// is iterated, and it can only be iterated once.
type Stream struct {
	vm       *vm
	consumed bool
	done     bool
	err      error
}

// All runs the evaluation, yielding its output as it goes.  An error
// ending the evaluation is yielded last.
func (s *Stream) All() iter.Seq2[Output, error] {
	return func(yield func(Output, error) bool) {
		if s.consumed {
			yield(Output{}, ErrStreamConsumed)
			return
		}
		s.consumed = true

		stopped := false
		err := s.vm.run(func(o Output) bool {
			if !yield(o, nil) {
				stopped = true
				return false
			}
			return true
		})
		s.done = true
		s.err = err
		if err != nil && !stopped {
			yield(Output{}, err)
		}
	}
}

// Collect runs the evaluation to the end, waiting for pending input
// reads, and returns the tags it emitted.
func (s *Stream) Collect(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	for out, err := range s.All() {
		if err != nil {
			return tags, err
		}
		switch out.Kind {
		case OutputKind_Tag:
			tags = append(tags, out.Tag)
		case OutputKind_Pending:
			if err := out.Pending.Await(ctx); err != nil {
				return tags, err
			}
		}
	}
	return tags, nil
}

// Result returns the root of the tree the evaluation built.  It is
// only available once the stream was drained without errors.
func (s *Stream) Result() (NodeView, bool) {
	if !s.done || s.err != nil {
		return NodeView{}, false
	}
	return s.vm.result(), true
}

func (s *Stream) Err() error { return s.err }
