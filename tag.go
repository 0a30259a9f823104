package agast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type TagKind uint8

const (
	TagKind_Null TagKind = iota
	TagKind_OpenFragment
	TagKind_CloseFragment
	TagKind_Doctype
	TagKind_OpenNode
	TagKind_CloseNode
	TagKind_Reference
	TagKind_Literal
	TagKind_Gap
	TagKind_Shift
	TagKind_ArrayInitializer
)

var tagKindNames = map[TagKind]string{
	TagKind_Null:             "Null",
	TagKind_OpenFragment:     "OpenFragment",
	TagKind_CloseFragment:    "CloseFragment",
	TagKind_Doctype:          "Doctype",
	TagKind_OpenNode:         "OpenNode",
	TagKind_CloseNode:        "CloseNode",
	TagKind_Reference:        "Reference",
	TagKind_Literal:          "Literal",
	TagKind_Gap:              "Gap",
	TagKind_Shift:            "Shift",
	TagKind_ArrayInitializer: "ArrayInitializer",
}

func (k TagKind) String() string {
	if name, ok := tagKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Reserved reference names
const (
	// SelfReference is the unnamed reference a cover passes through
	SelfReference = "."
	// DiscardReference is the anonymous target whose failures leave
	// nothing behind in the parent
	DiscardReference = "#"
	// CookedReference is the slot whose nodes get a cooked value
	// bound when they close
	CookedReference = "@"
)

// Tag is one immutable increment of tree construction.  The set of
// implementations is closed.
type Tag interface {
	Kind() TagKind
	isTag()
}

// Attributes maps attribute names to scalar values.  Values are never
// mutated in place, a change always produces a new map.
type Attributes map[string]any

func (a Attributes) With(key string, value any) Attributes {
	out := make(Attributes, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = value
	return out
}

func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

func (a Attributes) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

type NodeFlags struct {
	Token  bool
	HasGap bool
	Cover  bool
}

type ReferenceFlags struct {
	Expression bool
	HasGap     bool
}

type (
	OpenFragment  struct{}
	CloseFragment struct{}
	CloseNode     struct{}
	Gap           struct{}
	Null          struct{}

	// ArrayInitializer marks an array reference that was bound to
	// no elements
	ArrayInitializer struct{}

	Doctype struct {
		Version    int
		Attributes Attributes
	}

	OpenNode struct {
		Flags      NodeFlags
		Language   string
		Type       string
		Attributes Attributes
	}

	Reference struct {
		Name    string
		IsArray bool
		Flags   ReferenceFlags
	}

	Literal struct {
		Value string
	}

	// Shift detaches the most recent child of the current node so a
	// following Gap can attach it elsewhere
	Shift struct{}
)

func (OpenFragment) Kind() TagKind     { return TagKind_OpenFragment }
func (CloseFragment) Kind() TagKind    { return TagKind_CloseFragment }
func (Doctype) Kind() TagKind          { return TagKind_Doctype }
func (OpenNode) Kind() TagKind         { return TagKind_OpenNode }
func (CloseNode) Kind() TagKind        { return TagKind_CloseNode }
func (Reference) Kind() TagKind        { return TagKind_Reference }
func (Literal) Kind() TagKind          { return TagKind_Literal }
func (Gap) Kind() TagKind              { return TagKind_Gap }
func (Shift) Kind() TagKind            { return TagKind_Shift }
func (Null) Kind() TagKind             { return TagKind_Null }
func (ArrayInitializer) Kind() TagKind { return TagKind_ArrayInitializer }

func (OpenFragment) isTag()     {}
func (CloseFragment) isTag()    {}
func (Doctype) isTag()          {}
func (OpenNode) isTag()         {}
func (CloseNode) isTag()        {}
func (Reference) isTag()        {}
func (Literal) isTag()          {}
func (Gap) isTag()              {}
func (Shift) isTag()            {}
func (Null) isTag()             {}
func (ArrayInitializer) isTag() {}

// tagWeight is how many source units a tag accounts for
func tagWeight(t Tag) int {
	switch tt := t.(type) {
	case Literal:
		return len(tt.Value)
	case Gap:
		return 1
	default:
		return 0
	}
}

// FormatTag renders a tag in a compact form meant for debugging
// output and logs.
func FormatTag(t Tag) string {
	switch tt := t.(type) {
	case nil:
		return "<nil>"
	case OpenFragment:
		return "<>"
	case CloseFragment:
		return "</>"
	case Doctype:
		return fmt.Sprintf("<!%d:cstml%s>", tt.Version, formatAttributes(tt.Attributes))
	case OpenNode:
		var b strings.Builder
		b.WriteByte('<')
		if tt.Flags.Token {
			b.WriteByte('*')
		}
		if tt.Flags.HasGap {
			b.WriteByte('$')
		}
		if tt.Language != "" {
			b.WriteString(tt.Language)
			b.WriteByte(':')
		}
		b.WriteString(tt.Type)
		b.WriteString(formatAttributes(tt.Attributes))
		b.WriteByte('>')
		return b.String()
	case CloseNode:
		return "</>"
	case Reference:
		name := tt.Name
		if tt.IsArray {
			name += "[]"
		}
		if tt.Flags.Expression {
			name += "+"
		}
		if tt.Flags.HasGap {
			name += "$"
		}
		return name + ":"
	case Literal:
		return strconv.Quote(tt.Value)
	case Gap:
		return "<//>"
	case Shift:
		return "^^^"
	case Null:
		return "null"
	case ArrayInitializer:
		return "[]"
	default:
		return fmt.Sprintf("<?%T>", t)
	}
}

func formatAttributes(attrs Attributes) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				fmt.Fprintf(&b, " %s", k)
			} else {
				fmt.Fprintf(&b, " %s=false", k)
			}
		case string:
			fmt.Fprintf(&b, " %s=%s", k, strconv.Quote(v))
		default:
			fmt.Fprintf(&b, " %s=%v", k, v)
		}
	}
	return b.String()
}
