package agast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/clarete/agast/source"
)

type vm struct {
	registry    *Registry
	cursor      source.Cursor
	strategy    Strategy
	cfg         *Config
	log         logrus.FieldLogger
	metrics     *Metrics
	expressions []NodeView

	language Language
	frames   frameStack
	state    *State

	// fragment is the root node everything is built under, emitted
	// counts how many of its children went out already
	fragment NodeID
	emitted  int

	// ctx is done once the evaluation returns, it bounds background
	// waits on the cursor
	ctx   context.Context
	yield func(Output) bool
}

// await hands a pending future to the consumer of the output and
// expects it settled once the consumer asks for the next output.
func await[T any](vm *vm, f *source.Future[T]) (T, error) {
	if f.Pending() {
		if !vm.yield(Output{Kind: OutputKind_Pending, Pending: f}) {
			var zero T
			return zero, ErrAborted
		}
		if f.Pending() {
			var zero T
			return zero, ErrPendingUnresolved
		}
	}
	return f.Value()
}

func (vm *vm) run(yield func(Output) bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if closer, ok := vm.cursor.(io.Closer); ok {
		defer closer.Close()
	}
	vm.ctx = ctx
	vm.yield = yield
	vm.state = newState(vm.cursor, vm.expressions)
	vm.fragment = vm.state.node

	// make sure the first symbol is known before anything looks at it
	if _, err := await(vm, vm.state.source.Advance(0)); err != nil {
		return vm.fail(nil, err)
	}

	var strategyErr error
	next, stop := iter.Pull(func(yield func(*Instruction) bool) {
		strategyErr = vm.strategy(&Driver{yield: yield})
	})
	defer stop()

	for {
		instr, ok := next()
		if !ok {
			break
		}
		if vm.cfg.GetBool("vm.trace") {
			vm.trace(instr)
		}
		vm.metrics.instruction(instr.Verb)

		result, err := vm.dispatch(instr)
		if err != nil {
			err = vm.fail(instr, err)
			if !IsRecoverable(err) {
				vm.log.WithError(err).Debug("evaluation failed")
				return err
			}
		}
		instr.result, instr.err = result, err
	}
	if strategyErr != nil {
		return vm.fail(nil, strategyErr)
	}
	return vm.emit(nil)
}

func (vm *vm) trace(instr *Instruction) {
	fields := logrus.Fields{
		"verb":   instr.Verb,
		"frames": vm.frames.len(),
		"depth":  vm.state.depth(),
		"offset": vm.state.source.Offset(),
	}
	if m := vm.frames.top(); m != nil {
		fields["production"] = m.typ
	}
	vm.log.WithFields(fields).Debug(instr.String())
}

// fail turns `err` into an EvalError, unless it already is one
func (vm *vm) fail(instr *Instruction, err error) error {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return err
	}
	evalErr = &EvalError{Err: err, Offset: vm.state.source.Offset()}
	if instr != nil {
		evalErr.Verb = instr.Verb
	}
	if m := vm.frames.top(); m != nil {
		evalErr.Production = m.typ
	}
	return evalErr
}

func (vm *vm) dispatch(instr *Instruction) (any, error) {
	switch instr.Verb {
	case VerbInit:
		url, err := instr.stringArg(0)
		if err != nil {
			return nil, err
		}
		return nil, vm.init(url)

	case VerbAdvance:
		tag, err := DecodeTag(instr.arg(0))
		if err != nil {
			return nil, err
		}
		return tag, vm.advance(tag)

	case VerbMatch:
		p, err := instr.patternArg(0)
		if err != nil {
			return nil, err
		}
		return await(vm, vm.state.guardedMatch(vm.ctx, p))

	case VerbOpenSpan:
		name, err := instr.stringArg(0)
		if err != nil {
			return nil, err
		}
		return nil, vm.openSpan(name)

	case VerbCloseSpan:
		return nil, vm.closeSpan()

	case VerbStartFrame:
		matcher, effects, options, err := frameArgs(instr)
		if err != nil {
			return nil, err
		}
		m, err := vm.startFrame(matcher, effects, options)
		if err != nil {
			return nil, err
		}
		return newFrameView(m), nil

	case VerbEndFrame:
		hasContinuation, err := instr.boolArg(0)
		if err != nil {
			return nil, err
		}
		m, err := vm.endFrame(hasContinuation)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return vm.result(), nil
		}
		return NodeView{t: m.state.tree, id: m.node}, nil

	case VerbBindAttribute:
		key, err := instr.stringArg(0)
		if err != nil {
			return nil, err
		}
		m := vm.frames.top()
		if m == nil {
			return nil, ErrNoFrame
		}
		vm.bindAttribute(m, key, instr.arg(1))
		return nil, vm.emit(nil)

	case VerbThrow:
		m, err := vm.throw()
		if err != nil {
			return nil, err
		}
		return newFrameView(m), nil

	case VerbWrite:
		text, err := instr.stringArg(0)
		if err != nil {
			return nil, err
		}
		options, _ := instr.arg(1).(map[string]any)
		return nil, vm.write(text, options)

	case VerbGetState:
		return StateView{s: *vm.state}, nil

	default:
		return nil, fmt.Errorf("%w: `%s`", ErrUnknownVerb, instr.Verb)
	}
}

func frameArgs(instr *Instruction) (Matcher, Effects, FrameOptions, error) {
	var (
		matcher Matcher
		effects = Effects{Success: EffectEat, Failure: EffectFail}
		options FrameOptions
	)
	switch v := instr.arg(0).(type) {
	case Matcher:
		matcher = v
	case *Matcher:
		matcher = *v
	case string:
		matcher = Matcher{Type: v}
	default:
		return matcher, effects, options, fmt.Errorf("%w: startFrame expects a matcher, not %T", ErrInvalidArgument, v)
	}
	switch v := instr.arg(1).(type) {
	case nil:
	case Effects:
		effects = v
	default:
		return matcher, effects, options, fmt.Errorf("%w: startFrame expects effects, not %T", ErrInvalidArgument, v)
	}
	switch v := instr.arg(2).(type) {
	case nil:
	case FrameOptions:
		options = v
	default:
		return matcher, effects, options, fmt.Errorf("%w: startFrame expects frame options, not %T", ErrInvalidArgument, v)
	}
	return matcher, effects, options, nil
}

func (vm *vm) init(url string) error {
	if vm.language != nil {
		return fmt.Errorf("%w: `%s`", ErrAlreadyInitialized, vm.language.CanonicalURL())
	}
	l, ok := vm.registry.Get(url)
	if !ok {
		return fmt.Errorf("%w: `%s`", ErrUnknownLanguage, url)
	}
	vm.language = l
	return nil
}

func (vm *vm) openSpan(name string) error {
	s := vm.state
	s.spans = s.spans.push(Span{Type: SpanType_Instruction, Name: name, Node: s.node})
	return nil
}

func (vm *vm) closeSpan() error {
	s := vm.state
	top := s.span()
	if top.Type != SpanType_Instruction {
		return fmt.Errorf("%w: closing an instruction span but %s span `%s` is open", ErrSpanMismatch, top.Type, top.Name)
	}
	s.spans = s.spans.pop()
	return nil
}

func (vm *vm) write(text string, options map[string]any) error {
	if !vm.cfg.GetBool("vm.emit_effects") {
		return nil
	}
	effect := &WriteEffect{Text: text, Options: options}
	if !vm.yield(Output{Kind: OutputKind_Effect, Effect: effect}) {
		return ErrAborted
	}
	return nil
}

// bindAttribute sets `key` on the node of frame `m`.  The node's open
// tag is rewritten so it carries the new attributes too.
func (vm *vm) bindAttribute(m *Match, key string, value any) {
	s := vm.state
	if value != nil {
		if open, ok := s.tree.openTag(m.node); ok {
			open.Attributes = open.Attributes.With(key, value)
			s.tree = s.tree.replaceChild(m.node, 0, Child{Tag: open})
		}
		s.tree = s.tree.update(m.node, func(n *node) {
			n.attributes = n.attributes.With(key, value)
		})
	}
	s.tree = s.tree.update(m.node, func(n *node) {
		n.withoutUnbound(key)
	})
}

// checkCompletion is what the root frame must hold once it closed
func (vm *vm) checkCompletion(s *State) error {
	if !s.source.Done() {
		return ErrUnconsumedInput
	}
	if s.balanced.size() > 0 {
		return ErrUnbalancedConstruct
	}
	return nil
}

func (vm *vm) result() NodeView {
	if vm.state == nil {
		return NodeView{}
	}
	return NodeView{t: vm.state.tree, id: vm.fragment}
}

// emit sends out the children of the root fragment that are complete.
// Only the root frame's state emits, anything built by a frame that
// may still be rejected is held back.  Under an open node nothing is
// complete, unless `target` points into the fragment.
func (vm *vm) emit(target *TagPath) error {
	if vm.frames.len() > 1 {
		return nil
	}
	s := vm.state
	children := s.tree.children(vm.fragment)
	end := len(children)
	if s.depths.Path > 0 {
		if target == nil || target.Node != vm.fragment {
			return nil
		}
		end = min(end, target.Index+1)
	}
	for ; vm.emitted < end; vm.emitted++ {
		c := children[vm.emitted]
		var ok bool
		if c.IsNode() {
			ok = s.tree.walk(c.Node, 0, vm.emitTag)
		} else {
			ok = vm.emitTag(c.Tag)
		}
		if !ok {
			return ErrAborted
		}
	}
	return nil
}

func (vm *vm) emitTag(t Tag) bool {
	switch t.(type) {
	case OpenNode:
		vm.state.depths.Emitted++
	case CloseNode:
		vm.state.depths.Emitted--
	}
	vm.metrics.tagEmitted(t)
	return vm.yield(Output{Kind: OutputKind_Tag, Tag: t})
}
