package agast

import "github.com/clarete/agast/source"

// Strategy drives an evaluation by issuing instructions through the
// driver.  An error it returns ends the evaluation.
type Strategy func(d *Driver) error

// Driver is the strategy's end of the coroutine.  Each call suspends
// the strategy until the VM carried the instruction out.
type Driver struct {
	yield func(*Instruction) bool
}

// Call issues a raw instruction
func (d *Driver) Call(verb Verb, args ...any) (any, error) {
	instr := &Instruction{Verb: verb, Args: args}
	if !d.yield(instr) {
		return nil, ErrAborted
	}
	return instr.result, instr.err
}

func (d *Driver) Init(url string) error {
	_, err := d.Call(VerbInit, url)
	return err
}

// Advance appends `tag` to the tree.  Literals consume input.
func (d *Driver) Advance(tag Tag) error {
	_, err := d.Call(VerbAdvance, tag)
	return err
}

// Match runs `p` at the cursor without consuming anything.  The empty
// string and false are returned when it doesn't match.
func (d *Driver) Match(p source.Pattern) (string, bool, error) {
	v, err := d.Call(VerbMatch, p)
	if err != nil {
		return "", false, err
	}
	res, _ := v.(source.Result)
	return res.Text, res.OK, nil
}

func (d *Driver) OpenSpan(name string) error {
	_, err := d.Call(VerbOpenSpan, name)
	return err
}

func (d *Driver) CloseSpan() error {
	_, err := d.Call(VerbCloseSpan)
	return err
}

func (d *Driver) StartFrame(m Matcher, e Effects, o FrameOptions) (FrameView, error) {
	v, err := d.Call(VerbStartFrame, m, e, o)
	if err != nil {
		return FrameView{}, err
	}
	return v.(FrameView), nil
}

// EndFrame finishes the current frame.  The view returned is the
// node the parent frame is building, or the result root once the root
// frame finished.
func (d *Driver) EndFrame(hasContinuation bool) (NodeView, error) {
	v, err := d.Call(VerbEndFrame, hasContinuation)
	if err != nil {
		return NodeView{}, err
	}
	return v.(NodeView), nil
}

func (d *Driver) BindAttribute(key string, value any) error {
	_, err := d.Call(VerbBindAttribute, key, value)
	return err
}

// Throw rejects the current frame and returns the parent's view.  The
// view is zero when the root frame was rejected.
func (d *Driver) Throw() (FrameView, error) {
	v, err := d.Call(VerbThrow)
	if err != nil {
		return FrameView{}, err
	}
	return v.(FrameView), nil
}

func (d *Driver) Write(text string, options map[string]any) error {
	_, err := d.Call(VerbWrite, text, options)
	return err
}

func (d *Driver) GetState() (StateView, error) {
	v, err := d.Call(VerbGetState)
	if err != nil {
		return StateView{}, err
	}
	return v.(StateView), nil
}

// Eat runs production `typ` bound to `ref` in its own frame through
// `body`.  A recoverable failure inside `body` rejects the frame and
// reports false.
func (d *Driver) Eat(typ string, ref *Reference, body func(d *Driver) error) (bool, error) {
	if _, err := d.StartFrame(Matcher{Type: typ, Ref: ref}, Effects{Success: EffectEat, Failure: EffectFail}, FrameOptions{}); err != nil {
		return false, err
	}
	if err := body(d); err != nil {
		if !IsRecoverable(err) {
			return false, err
		}
		if _, err := d.Throw(); err != nil {
			return false, err
		}
		return false, nil
	}
	if _, err := d.EndFrame(false); err != nil {
		return false, err
	}
	return true, nil
}
