package script

import (
	"context"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/agast"
	"github.com/clarete/agast/source"
)

func TestLoadAndRun(t *testing.T) {
	s, err := Load("testdata/sum.yaml")
	require.NoError(t, err)

	root, tags, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Check(tags))

	prog, ok := root.Property(".")
	require.True(t, ok)
	assert.Equal(t, "1+2", prog.Text())

	right, ok := prog.Property("right")
	require.True(t, ok)
	assert.Equal(t, agast.Attributes{"base": 10}, right.Attributes())
	assert.Empty(t, right.UnboundAttributes())
}

func TestCheckMismatch(t *testing.T) {
	s := &Script{Expect: "<>\n</>"}
	err := s.Check([]agast.Tag{agast.OpenFragment{}, agast.Literal{Value: "x"}, agast.CloseFragment{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestRunOverGivenInput(t *testing.T) {
	s, err := Parse([]byte(dedent.Dedent(`
		language:
		  url: https://example.com/words
		  productions:
		    - {name: Words}
		    - {name: Word, node: true, token: true}
		strategy:
		  type: Words
		  steps:
		    - advance: {kind: OpenFragment}
		    - frame:
		        type: Word
		        ref: {name: word}
		        steps:
		          - advance: {kind: Reference, name: word}
		          - advance: {kind: OpenNode, type: Word, flags: [token]}
		          - advance: {kind: Literal, value: hi}
		          - advance: {kind: CloseNode}
		    - advance: {kind: CloseFragment}
	`)))
	require.NoError(t, err)

	root, tags, err := s.Run(context.Background(), source.FromString("hi"))
	require.NoError(t, err)
	assert.Equal(t, dedent.Dedent(`
		<>
		word:
		<*Word>
		"hi"
		</>
		</>`)[1:], FormatTags(tags))

	word, ok := root.Property("word")
	require.True(t, ok)
	assert.Equal(t, "hi", word.Text())
}

func TestRunFailure(t *testing.T) {
	s, err := Parse([]byte(dedent.Dedent(`
		language:
		  url: https://example.com/words
		  productions:
		    - {name: Word, node: true, token: true}
		strategy:
		  type: Word
		  steps:
		    - advance: {kind: OpenNode, type: Word, flags: [token]}
		    - advance: {kind: Literal, value: hi}
		    - advance: {kind: CloseNode}
	`)))
	require.NoError(t, err)

	_, _, err = s.Run(context.Background(), source.FromString("ho"))
	require.Error(t, err)
	assert.ErrorIs(t, err, agast.ErrLiteralMismatch)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		Name     string
		Script   string
		Expected string
	}{
		{
			Name:     "No language",
			Script:   "strategy: {type: A}",
			Expected: "language without an url",
		},
		{
			Name:     "No frame type",
			Script:   "language: {url: x}\nstrategy: {steps: []}",
			Expected: "strategy: frame without a type",
		},
		{
			Name:     "Empty step",
			Script:   "language: {url: x}\nstrategy: {type: A, steps: [{}]}",
			Expected: "strategy/A[0]: step without an action",
		},
		{
			Name:     "Two actions",
			Script:   "language: {url: x}\nstrategy: {type: A, steps: [{openSpan: S, closeSpan: true}]}",
			Expected: "strategy/A[0]: step with more than one action",
		},
		{
			Name:     "Nested frame",
			Script:   "language: {url: x}\nstrategy: {type: A, steps: [{frame: {type: B, steps: [{}]}}]}",
			Expected: "strategy/A[0]/B[0]: step without an action",
		},
		{
			Name:     "Bad pattern",
			Script:   "language: {url: x}\nstrategy: {type: A, steps: [{match: \"(\"}]}",
			Expected: "strategy/A[0]: error parsing regexp",
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := Parse([]byte(test.Script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.Expected)
		})
	}
}
