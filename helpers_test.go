package agast

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clarete/agast/source"
)

const testLanguage = "https://example.com/calc"

func testGrammar() *Grammar {
	return NewGrammar(testLanguage,
		Production{Name: "Fragment"},
		Production{Name: "Program", Node: true},
		Production{Name: "Number", Node: true, Token: true},
		Production{Name: "Punctuator", Node: true, Token: true},
		Production{Name: "BinaryExpression", Node: true},
		Production{Name: "Expression", Cover: true},
		Production{Name: "Trivia"},
		Production{Name: "Broken", Node: true, Cover: true},
	).WithCooker(func(node NodeView, span string, _ *Registry) (any, error) {
		return strings.ToUpper(node.Text()), nil
	})
}

func testRegistry() *Registry {
	return NewRegistry(testGrammar())
}

func ref(name string) *Reference {
	return &Reference{Name: name}
}

var eat = Effects{Success: EffectEat, Failure: EffectFail}

func numberOpen() OpenNode {
	return OpenNode{Flags: NodeFlags{Token: true}, Type: "Number"}
}

// script runs `steps` in order and stops at the first error
func script(steps ...func(d *Driver) error) Strategy {
	return func(d *Driver) error {
		for _, step := range steps {
			if err := step(d); err != nil {
				return err
			}
		}
		return nil
	}
}

func initLang(d *Driver) error { return d.Init(testLanguage) }

func start(typ string, r *Reference) func(d *Driver) error {
	return func(d *Driver) error {
		_, err := d.StartFrame(Matcher{Type: typ, Ref: r}, eat, FrameOptions{})
		return err
	}
}

func end(d *Driver) error {
	_, err := d.EndFrame(false)
	return err
}

func adv(tags ...Tag) func(d *Driver) error {
	return func(d *Driver) error {
		for _, tag := range tags {
			if err := d.Advance(tag); err != nil {
				return err
			}
		}
		return nil
	}
}

// number eats the token `text` bound to `name` in a frame of its own,
// throwing when the literal doesn't match.
func number(name, text string) func(d *Driver) error {
	return func(d *Driver) error {
		_, err := d.Eat("Number", ref(name), script(
			adv(Reference{Name: name}, numberOpen(), Literal{Value: text}, CloseNode{}),
		))
		return err
	}
}

func fragment(body ...func(d *Driver) error) Strategy {
	steps := []func(d *Driver) error{initLang, start("Fragment", nil), adv(OpenFragment{})}
	steps = append(steps, body...)
	steps = append(steps, adv(CloseFragment{}), end)
	return script(steps...)
}

func program(body ...func(d *Driver) error) Strategy {
	steps := []func(d *Driver) error{initLang, start("Program", nil), adv(OpenNode{Type: "Program"})}
	steps = append(steps, body...)
	steps = append(steps, adv(CloseNode{}), end)
	return script(steps...)
}

func parse(t *testing.T, input source.Cursor, strategy Strategy, opts ...Option) (NodeView, []Tag, error) {
	t.Helper()
	return Parse(context.Background(), testRegistry(), input, strategy, opts...)
}

func mustParse(t *testing.T, input string, strategy Strategy, opts ...Option) (NodeView, []Tag) {
	t.Helper()
	root, tags, err := parse(t, source.FromString(input), strategy, opts...)
	require.NoError(t, err)
	return root, tags
}
