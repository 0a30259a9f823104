package agast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatTag(t *testing.T) {
	tests := []struct {
		Tag      Tag
		Expected string
	}{
		{OpenFragment{}, "<>"},
		{CloseFragment{}, "</>"},
		{Doctype{Version: 0, Attributes: Attributes{"bablrLanguage": "x"}}, `<!0:cstml bablrLanguage="x">`},
		{OpenNode{Type: "Number"}, "<Number>"},
		{OpenNode{Flags: NodeFlags{Token: true, HasGap: true}, Language: "l", Type: "N", Attributes: Attributes{"b": true, "a": 1}}, "<*$l:N a=1 b>"},
		{CloseNode{}, "</>"},
		{Reference{Name: "items", IsArray: true, Flags: ReferenceFlags{Expression: true}}, "items[]+:"},
		{Literal{Value: "a\n"}, `"a\n"`},
		{Gap{}, "<//>"},
		{Shift{}, "^^^"},
		{Null{}, "null"},
		{ArrayInitializer{}, "[]"},
		{nil, "<nil>"},
	}
	for _, test := range tests {
		t.Run(test.Expected, func(t *testing.T) {
			assert.Equal(t, test.Expected, FormatTag(test.Tag))
		})
	}
}

func TestDecodeTag(t *testing.T) {
	var descriptors []TagDescriptor
	require.NoError(t, yaml.Unmarshal([]byte(`
- {kind: OpenFragment}
- {kind: doctype, version: 0, attributes: {bablrLanguage: "https://example.com/calc"}}
- {kind: Reference, name: items, isArray: true, flags: [expression]}
- {kind: OpenNode, type: Number, language: calc, flags: [token, cover], attributes: {span: Number}}
- {kind: Literal, value: "42"}
- {kind: Gap}
- {kind: Shift}
- {kind: Null}
- {kind: literal, value: null}
- {kind: ArrayInitializer}
- {kind: CloseNode}
- {kind: CloseFragment}
`), &descriptors))

	var tags []Tag
	for _, d := range descriptors {
		tag, err := DecodeTag(d)
		require.NoError(t, err)
		tags = append(tags, tag)
	}

	expected := []Tag{
		OpenFragment{},
		Doctype{Attributes: Attributes{"bablrLanguage": "https://example.com/calc"}},
		Reference{Name: "items", IsArray: true, Flags: ReferenceFlags{Expression: true}},
		OpenNode{Flags: NodeFlags{Token: true, Cover: true}, Language: "calc", Type: "Number", Attributes: Attributes{"span": "Number"}},
		Literal{Value: "42"},
		Gap{},
		Shift{},
		Null{},
		Literal{Value: "null"},
		ArrayInitializer{},
		CloseNode{},
		CloseFragment{},
	}
	if diff := cmp.Diff(expected, tags); diff != "" {
		t.Errorf("decoded tags mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTagErrors(t *testing.T) {
	tests := []struct {
		Name  string
		Value any
	}{
		{"Nil", nil},
		{"Nil descriptor", (*TagDescriptor)(nil)},
		{"Not a tag", 42},
		{"Unknown kind", TagDescriptor{Kind: "Comment"}},
		{"Reference without name", TagDescriptor{Kind: "Reference"}},
		{"OpenNode without type", TagDescriptor{Kind: "OpenNode"}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := DecodeTag(test.Value)
			assert.ErrorIs(t, err, ErrInvalidTag)
		})
	}
}

func TestDecodeTagPassesTagsThrough(t *testing.T) {
	tag, err := DecodeTag(Literal{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, Literal{Value: "x"}, tag)

	tag, err = DecodeTag(&TagDescriptor{Kind: "gap"})
	require.NoError(t, err)
	assert.Equal(t, TagKind_Gap, tag.Kind())
	assert.Equal(t, "Gap", tag.Kind().String())
}
