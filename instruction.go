package agast

import (
	"fmt"

	"github.com/clarete/agast/source"
)

// Verb names an instruction a strategy can issue
type Verb string

const (
	VerbInit          Verb = "init"
	VerbAdvance       Verb = "advance"
	VerbMatch         Verb = "match"
	VerbOpenSpan      Verb = "openSpan"
	VerbCloseSpan     Verb = "closeSpan"
	VerbStartFrame    Verb = "startFrame"
	VerbEndFrame      Verb = "endFrame"
	VerbBindAttribute Verb = "bindAttribute"
	VerbThrow         Verb = "throw"
	VerbWrite         Verb = "write"
	VerbGetState      Verb = "getState"
)

var verbs = []Verb{
	VerbInit,
	VerbAdvance,
	VerbMatch,
	VerbOpenSpan,
	VerbCloseSpan,
	VerbStartFrame,
	VerbEndFrame,
	VerbBindAttribute,
	VerbThrow,
	VerbWrite,
	VerbGetState,
}

func (v Verb) String() string { return string(v) }

// Instruction is what a strategy yields to the VM.  The VM writes the
// outcome back into it before the strategy resumes.
type Instruction struct {
	Verb Verb
	Args []any

	result any
	err    error
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%s%v", i.Verb, i.Args)
}

func (i *Instruction) arg(n int) any {
	if n >= len(i.Args) {
		return nil
	}
	return i.Args[n]
}

func (i *Instruction) stringArg(n int) (string, error) {
	s, ok := i.arg(n).(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d of %s should be a string, not %T", ErrInvalidArgument, n, i.Verb, i.arg(n))
	}
	return s, nil
}

func (i *Instruction) boolArg(n int) (bool, error) {
	switch v := i.arg(n).(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("%w: argument %d of %s should be a bool, not %T", ErrInvalidArgument, n, i.Verb, v)
	}
}

func (i *Instruction) patternArg(n int) (source.Pattern, error) {
	switch v := i.arg(n).(type) {
	case source.Pattern:
		return v, nil
	case string:
		return source.Literal(v), nil
	default:
		return source.Pattern{}, fmt.Errorf("%w: argument %d of %s should be a pattern, not %T", ErrInvalidArgument, n, i.Verb, v)
	}
}

const (
	EffectEat  = "eat"
	EffectFail = "fail"
	EffectNone = "none"
)

// Effects is what a frame means to do when it succeeds or fails
type Effects struct {
	Success string
	Failure string
}

// Matcher selects the production a new frame runs
type Matcher struct {
	Type string

	// Language is the canonical URL of the language the production
	// belongs to.  Empty means the language of the parent frame.
	Language string

	// Ref is the reference the frame's result is bound to
	Ref *Reference

	Flags NodeFlags
}

type FrameOptions struct {
	// UnboundAttributes are attribute names a node frame promises
	// to bind before it closes
	UnboundAttributes []string
}

// WriteEffect is the payload of the `write` verb
type WriteEffect struct {
	Text    string
	Options map[string]any
}
