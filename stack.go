package agast

import "github.com/benbjohnson/immutable"

// pstack is a persistent stack: push and pop return new stacks and
// never touch the receiver.  The zero value is an empty stack.
type pstack[T any] struct {
	items *immutable.List[T]
}

func (s pstack[T]) size() int {
	if s.items == nil {
		return 0
	}
	return s.items.Len()
}

func (s pstack[T]) push(v T) pstack[T] {
	items := s.items
	if items == nil {
		items = immutable.NewList[T]()
	}
	return pstack[T]{items: items.Append(v)}
}

func (s pstack[T]) pop() pstack[T] {
	n := s.size()
	if n == 0 {
		return s
	}
	return pstack[T]{items: s.items.Slice(0, n-1)}
}

// peek returns the value `n` positions below the top
func (s pstack[T]) peek(n int) (T, bool) {
	size := s.size()
	if n >= size {
		var zero T
		return zero, false
	}
	return s.items.Get(size - n - 1), true
}

func (s pstack[T]) top() (T, bool) {
	return s.peek(0)
}

// values lists the stack from bottom to top
func (s pstack[T]) values() []T {
	out := make([]T, 0, s.size())
	for i := 0; i < s.size(); i++ {
		out = append(out, s.items.Get(i))
	}
	return out
}

// frameStack owns every active frame.  Frames refer to their parent
// by index into it.
type frameStack struct {
	frames []*Match
}

func (s *frameStack) push(m *Match) {
	m.index = len(s.frames)
	s.frames = append(s.frames, m)
}

func (s *frameStack) pop() *Match {
	idx := len(s.frames) - 1
	m := s.frames[idx]
	s.frames[idx] = nil
	s.frames = s.frames[:idx]
	return m
}

func (s *frameStack) top() *Match {
	if len(s.frames) == 0 {
		return nil
	}
	return s.peek(0)
}

func (s *frameStack) peek(n int) *Match {
	return s.frames[len(s.frames)-n-1]
}

func (s *frameStack) at(index int) *Match {
	if index < 0 || index >= len(s.frames) {
		return nil
	}
	return s.frames[index]
}

func (s *frameStack) len() int {
	return len(s.frames)
}
