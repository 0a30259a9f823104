package source

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Part is one piece of an in memory input, see Text and Gap.
type Part struct {
	text string
	gap  bool
}

func Text(s string) Part { return Part{text: s} }

// Gap is a hole in the input.
var Gap = Part{gap: true}

type memInput struct {
	data []byte
	// gaps holds the sorted offsets of gap units within data
	gaps []int
}

// MemCursor is a synchronous cursor over input fully held in memory.
// It never returns pending futures.
type MemCursor struct {
	in      *memInput
	pos     int
	holding bool
}

func New(parts ...Part) *MemCursor {
	in := &memInput{}
	for _, p := range parts {
		if p.gap {
			in.gaps = append(in.gaps, len(in.data))
			in.data = append(in.data, 0)
			continue
		}
		in.data = append(in.data, p.text...)
	}
	return &MemCursor{in: in}
}

func FromString(s string) *MemCursor {
	return New(Text(s))
}

func (c *MemCursor) isGap(pos int) bool {
	i := sort.SearchInts(c.in.gaps, pos)
	return i < len(c.in.gaps) && c.in.gaps[i] == pos
}

// nextGap returns the offset of the first gap at or after pos, or the
// input length when there's none.
func (c *MemCursor) nextGap(pos int) int {
	i := sort.SearchInts(c.in.gaps, pos)
	if i < len(c.in.gaps) {
		return c.in.gaps[i]
	}
	return len(c.in.data)
}

func (c *MemCursor) Advance(n int) *Future[int] {
	if n < 0 || c.pos+n > len(c.in.data) {
		return Failed[int](fmt.Errorf("source: can't advance %d units at offset %d", n, c.pos))
	}
	c.pos += n
	return Ready(n)
}

func (c *MemCursor) Match(p Pattern) *Future[Result] {
	if c.holding || c.isGap(c.pos) {
		return Ready(Result{})
	}
	return Ready(p.matchBytes(c.in.data[c.pos:c.nextGap(c.pos)]))
}

func (c *MemCursor) Value() (rune, Symbol) {
	switch {
	case c.holding, c.isGap(c.pos):
		return 0, SymbolGap
	case c.pos >= len(c.in.data):
		return 0, SymbolEOF
	}
	if r := c.in.data[c.pos]; r < utf8.RuneSelf {
		return rune(r), SymbolText
	}
	r, _ := utf8.DecodeRune(c.in.data[c.pos:])
	return r, SymbolText
}

func (c *MemCursor) Done() bool    { return !c.holding && c.pos >= len(c.in.data) }
func (c *MemCursor) Hold()         { c.holding = true }
func (c *MemCursor) Holding() bool { return c.holding }
func (c *MemCursor) Unshift()      { c.holding = false }
func (c *MemCursor) Offset() int   { return c.pos }

func (c *MemCursor) Fork() Cursor {
	fork := *c
	return &fork
}
