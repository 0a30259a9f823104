package agast

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TagDescriptor is the loosely typed, embeddable form of a tag, the
// one instructions carry when they don't come straight from Go code.
type TagDescriptor struct {
	Kind       string         `yaml:"kind"`
	Type       string         `yaml:"type,omitempty"`
	Language   string         `yaml:"language,omitempty"`
	Name       string         `yaml:"name,omitempty"`
	Value      string         `yaml:"value,omitempty"`
	Version    int            `yaml:"version,omitempty"`
	Flags      []string       `yaml:"flags,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	IsArray    bool           `yaml:"isArray,omitempty"`
}

// UnmarshalYAML keeps `kind` and `value` as written.  Plain YAML
// decoding would read `Null` or `null` as a null scalar and leave
// them empty.
func (d *TagDescriptor) UnmarshalYAML(value *yaml.Node) error {
	type plain TagDescriptor
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			v := value.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				continue
			}
			switch value.Content[i].Value {
			case "kind":
				p.Kind = v.Value
			case "value":
				p.Value = v.Value
			}
		}
	}
	*d = TagDescriptor(p)
	return nil
}

func (d TagDescriptor) hasFlag(name string) bool {
	for _, f := range d.Flags {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// DecodeTag normalizes the descriptor embedded in an `advance`
// instruction into exactly one Tag variant.
func DecodeTag(v any) (Tag, error) {
	switch d := v.(type) {
	case Tag:
		return d, nil
	case TagDescriptor:
		return decodeDescriptor(d)
	case *TagDescriptor:
		if d == nil {
			return nil, fmt.Errorf("%w: nil descriptor", ErrInvalidTag)
		}
		return decodeDescriptor(*d)
	case nil:
		return nil, fmt.Errorf("%w: missing tag", ErrInvalidTag)
	default:
		return nil, fmt.Errorf("%w: can't decode %T", ErrInvalidTag, v)
	}
}

func decodeDescriptor(d TagDescriptor) (Tag, error) {
	switch strings.ToLower(d.Kind) {
	case "openfragment":
		return OpenFragment{}, nil
	case "closefragment":
		return CloseFragment{}, nil
	case "doctype":
		return Doctype{Version: d.Version, Attributes: Attributes(d.Attributes)}, nil
	case "opennode":
		if d.Type == "" && !d.hasFlag("gap") {
			return nil, fmt.Errorf("%w: OpenNode without a type", ErrInvalidTag)
		}
		return OpenNode{
			Flags: NodeFlags{
				Token:  d.hasFlag("token"),
				HasGap: d.hasFlag("gap"),
				Cover:  d.hasFlag("cover"),
			},
			Language:   d.Language,
			Type:       d.Type,
			Attributes: Attributes(d.Attributes),
		}, nil
	case "closenode":
		return CloseNode{}, nil
	case "reference":
		if d.Name == "" {
			return nil, fmt.Errorf("%w: Reference without a name", ErrInvalidTag)
		}
		return Reference{
			Name:    d.Name,
			IsArray: d.IsArray,
			Flags: ReferenceFlags{
				Expression: d.hasFlag("expression"),
				HasGap:     d.hasFlag("gap"),
			},
		}, nil
	case "literal":
		return Literal{Value: d.Value}, nil
	case "gap":
		return Gap{}, nil
	case "shift":
		return Shift{}, nil
	case "null":
		return Null{}, nil
	case "arrayinitializer":
		return ArrayInitializer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTag, d.Kind)
	}
}
