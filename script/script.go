// Package script replays evaluations described in YAML: a language
// declared as a list of productions and a fixed tree of frames, each
// made of the instructions a strategy would issue.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"github.com/clarete/agast"
	"github.com/clarete/agast/source"
)

var (
	ErrEmptyStep     = errors.New("step without an action")
	ErrAmbiguousStep = errors.New("step with more than one action")
	ErrMismatch      = errors.New("emitted tags don't match the expected ones")
)

type Script struct {
	Language Language `yaml:"language"`

	// Input is used when no other input is given
	Input string `yaml:"input,omitempty"`

	// Expect holds the emitted tags, one per line as FormatTag
	// renders them
	Expect string `yaml:"expect,omitempty"`

	Root Frame `yaml:"strategy"`
}

type Language struct {
	URL         string       `yaml:"url"`
	Productions []Production `yaml:"productions"`
}

type Production struct {
	Name  string `yaml:"name"`
	Node  bool   `yaml:"node,omitempty"`
	Cover bool   `yaml:"cover,omitempty"`
	Token bool   `yaml:"token,omitempty"`
}

type Ref struct {
	Name    string   `yaml:"name"`
	IsArray bool     `yaml:"isArray,omitempty"`
	Flags   []string `yaml:"flags,omitempty"`
}

// Frame runs a production.  A fallible frame throws when one of its
// steps fails to match instead of failing the evaluation.
type Frame struct {
	Type     string   `yaml:"type"`
	Language string   `yaml:"language,omitempty"`
	Ref      *Ref     `yaml:"ref,omitempty"`
	Token    bool     `yaml:"token,omitempty"`
	Fallible bool     `yaml:"fallible,omitempty"`
	Unbound  []string `yaml:"unbound,omitempty"`
	Steps    []Step   `yaml:"steps"`
}

type Binding struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// Step holds exactly one action
type Step struct {
	Advance       *agast.TagDescriptor `yaml:"advance,omitempty"`
	Frame         *Frame               `yaml:"frame,omitempty"`
	OpenSpan      string               `yaml:"openSpan,omitempty"`
	CloseSpan     bool                 `yaml:"closeSpan,omitempty"`
	BindAttribute *Binding             `yaml:"bindAttribute,omitempty"`
	Write         string               `yaml:"write,omitempty"`
	Match         string               `yaml:"match,omitempty"`
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Advance != nil,
		s.Frame != nil,
		s.OpenSpan != "",
		s.CloseSpan,
		s.BindAttribute != nil,
		s.Write != "",
		s.Match != "",
	} {
		if set {
			n++
		}
	}
	return n
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.Language.URL == "" {
		return errors.New("language without an url")
	}
	return s.Root.validate("strategy")
}

func (f *Frame) validate(path string) error {
	if f.Type == "" {
		return fmt.Errorf("%s: frame without a type", path)
	}
	path = path + "/" + f.Type
	for i, step := range f.Steps {
		switch step.actions() {
		case 0:
			return fmt.Errorf("%s[%d]: %w", path, i, ErrEmptyStep)
		case 1:
		default:
			return fmt.Errorf("%s[%d]: %w", path, i, ErrAmbiguousStep)
		}
		if step.Match != "" {
			if _, err := regexp.Compile(step.Match); err != nil {
				return fmt.Errorf("%s[%d]: %w", path, i, err)
			}
		}
		if step.Frame != nil {
			if err := step.Frame.validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Registry returns a registry holding the declared language
func (s *Script) Registry() *agast.Registry {
	productions := make([]agast.Production, len(s.Language.Productions))
	for i, p := range s.Language.Productions {
		productions[i] = agast.Production{Name: p.Name, Node: p.Node, Cover: p.Cover, Token: p.Token}
	}
	return agast.NewRegistry(agast.NewGrammar(s.Language.URL, productions...))
}

// Strategy returns the strategy that replays the script
func (s *Script) Strategy() agast.Strategy {
	return func(d *agast.Driver) error {
		if err := d.Init(s.Language.URL); err != nil {
			return err
		}
		return s.Root.run(d)
	}
}

func (f *Frame) matcher() agast.Matcher {
	m := agast.Matcher{Type: f.Type, Language: f.Language, Flags: agast.NodeFlags{Token: f.Token}}
	if f.Ref != nil {
		ref := agast.Reference{Name: f.Ref.Name, IsArray: f.Ref.IsArray}
		for _, flag := range f.Ref.Flags {
			switch strings.ToLower(flag) {
			case "expression":
				ref.Flags.Expression = true
			case "gap":
				ref.Flags.HasGap = true
			}
		}
		m.Ref = &ref
	}
	return m
}

func (f *Frame) run(d *agast.Driver) error {
	effects := agast.Effects{Success: agast.EffectEat, Failure: agast.EffectFail}
	if f.Fallible {
		effects.Failure = agast.EffectNone
	}
	if _, err := d.StartFrame(f.matcher(), effects, agast.FrameOptions{UnboundAttributes: f.Unbound}); err != nil {
		return err
	}
	for _, step := range f.Steps {
		err := step.run(d)
		if err == nil {
			continue
		}
		if f.Fallible && agast.IsRecoverable(err) {
			_, err = d.Throw()
			return err
		}
		return err
	}
	_, err := d.EndFrame(false)
	return err
}

func (s Step) run(d *agast.Driver) error {
	switch {
	case s.Advance != nil:
		_, err := d.Call(agast.VerbAdvance, *s.Advance)
		return err
	case s.Frame != nil:
		return s.Frame.run(d)
	case s.OpenSpan != "":
		return d.OpenSpan(s.OpenSpan)
	case s.CloseSpan:
		return d.CloseSpan()
	case s.BindAttribute != nil:
		return d.BindAttribute(s.BindAttribute.Key, s.BindAttribute.Value)
	case s.Write != "":
		return d.Write(s.Write, nil)
	case s.Match != "":
		p, err := source.Regexp(s.Match)
		if err != nil {
			return err
		}
		_, _, err = d.Match(p)
		return err
	}
	return ErrEmptyStep
}

// Run replays the script over `cursor`, or over the script's own input
// when `cursor` is nil.
func (s *Script) Run(ctx context.Context, cursor source.Cursor, opts ...agast.Option) (agast.NodeView, []agast.Tag, error) {
	if cursor == nil {
		cursor = source.FromString(s.Input)
	}
	return agast.Parse(ctx, s.Registry(), cursor, s.Strategy(), opts...)
}

// FormatTags renders `tags` one per line
func FormatTags(tags []agast.Tag) string {
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = agast.FormatTag(t)
	}
	return strings.Join(lines, "\n")
}

// Check compares `tags` with the expected output of the script.  The
// error carries a character diff when they differ.
func (s *Script) Check(tags []agast.Tag) error {
	if s.Expect == "" {
		return nil
	}
	expected := strings.TrimSpace(s.Expect)
	actual := FormatTags(tags)
	if expected == actual {
		return nil
	}
	return fmt.Errorf("%w:\n%s", ErrMismatch, Diff(expected, actual))
}

func Diff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected, actual, false)
	return dmp.DiffPrettyText(diffs)
}
