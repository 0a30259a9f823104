// Package source implements the cursors the evaluator reads input
// symbols from.  A symbol is either a piece of text or a gap, a hole
// in the input reserved for content supplied by other means.
package source

import (
	"bytes"
	"fmt"
	"regexp"
)

type Symbol int

const (
	SymbolText Symbol = iota
	SymbolGap
	SymbolEOF
	// SymbolPending is reported by asynchronous cursors when the
	// symbol under the cursor hasn't been read yet.
	SymbolPending
)

func (s Symbol) String() string {
	switch s {
	case SymbolText:
		return "text"
	case SymbolGap:
		return "gap"
	case SymbolEOF:
		return "eof"
	case SymbolPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Result is what a Match operation produces.  `OK` is false when the
// pattern didn't match, which is different from matching the empty
// string.
type Result struct {
	Text string
	OK   bool
}

// Cursor is a pull based cursor over input symbols.  Operations that
// may need input that isn't available yet return pending futures.
type Cursor interface {
	// Advance moves the cursor `n` units forward.  Each gap counts
	// as one unit.  The future resolves once the symbol after the
	// new position is known.
	Advance(n int) *Future[int]

	// Match tries `p` at the current position without moving.
	Match(p Pattern) *Future[Result]

	// Value returns the symbol under the cursor.
	Value() (rune, Symbol)

	// Done is true when the input is exhausted and nothing is held.
	Done() bool

	// Hold makes the cursor report a virtual gap at the current
	// position until Unshift is called.
	Hold()
	Holding() bool
	Unshift()

	// Fork returns an independent cursor at the same position that
	// shares the underlying input.
	Fork() Cursor

	Offset() int
}

// Pattern is something a cursor can match: a literal or an anchored
// regular expression.
type Pattern struct {
	literal string
	re      *regexp.Regexp
}

func Literal(s string) Pattern { return Pattern{literal: s} }

// Regexp compiles `expr` anchored at the cursor position.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return Pattern{}, fmt.Errorf("source: invalid pattern %q: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

func MustRegexp(expr string) Pattern {
	p, err := Regexp(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) IsRegexp() bool { return p.re != nil }

func (p Pattern) String() string {
	if p.re != nil {
		return "/" + p.re.String() + "/"
	}
	return fmt.Sprintf("%q", p.literal)
}

// minLookahead tells how many bytes must be buffered after the cursor
// before the pattern can be decided, or -1 when only the end of the
// input can tell.
func (p Pattern) minLookahead() int {
	if p.re != nil {
		return -1
	}
	return len(p.literal)
}

// matchBytes matches against `data`, which must not contain gaps.
func (p Pattern) matchBytes(data []byte) Result {
	if p.re != nil {
		loc := p.re.FindIndex(data)
		if loc == nil {
			return Result{}
		}
		return Result{Text: string(data[:loc[1]]), OK: true}
	}
	if bytes.HasPrefix(data, []byte(p.literal)) {
		return Result{Text: p.literal, OK: true}
	}
	return Result{}
}
