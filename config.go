package agast

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values the evaluator and its tooling expect.
func NewConfig() *Config {
	m := make(Config)
	// send `write` effects to the output
	m.SetBool("vm.emit_effects", false)
	// log every instruction dispatched at debug level
	m.SetBool("vm.trace", false)
	// panic, fatal, error, warn, info, debug or trace
	m.SetString("log.level", "info")
	// text or json
	m.SetString("log.format", "text")
	// bytes a regular expression may look ahead when reading from a
	// stream
	m.SetInt("source.window", 4096)
	// bytes read from a stream at a time
	m.SetInt("source.chunk_size", 512)
	return &m
}

// LoadConfig reads a YAML document of `key: value` pairs on top of
// the defaults.  Nested mappings are flattened with dots, so
// `vm: {trace: true}` sets `vm.trace`.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig()
	if err := cfg.UnmarshalYAML(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) UnmarshalYAML(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	return c.load("", doc)
}

func (c *Config) load(prefix string, doc map[string]any) error {
	for k, v := range doc {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if err := c.Set(path, v); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns `v` to `path`, refusing values of a type other than the
// one of the default.
func (c *Config) Set(path string, v any) error {
	if nested, ok := v.(map[string]any); ok {
		return c.load(path, nested)
	}
	expected := cfgValType_Undefined
	if current, ok := (*c)[path]; ok {
		expected = current.typ
	}
	check := func(actual cfgValType) error {
		if expected != cfgValType_Undefined && expected != actual {
			return fmt.Errorf("setting `%s` is a %s, not a %s", path, expected, actual)
		}
		return nil
	}
	switch v := v.(type) {
	case bool:
		if err := check(cfgValType_Bool); err != nil {
			return err
		}
		c.SetBool(path, v)
	case int:
		if err := check(cfgValType_Int); err != nil {
			return err
		}
		c.SetInt(path, v)
	case string:
		if err := check(cfgValType_String); err != nil {
			return err
		}
		c.SetString(path, v)
	default:
		return fmt.Errorf("setting `%s` can't hold a %T", path, v)
	}
	return nil
}

// SetFromString parses `value` according to the type of `path`, which
// must exist.  Useful for `key=value` flags.
func (c *Config) SetFromString(path, value string) error {
	current, ok := (*c)[path]
	if !ok {
		return fmt.Errorf("unknown setting `%s`", path)
	}
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return fmt.Errorf("setting `%s`: %w", path, err)
	}
	if current.typ == cfgValType_String {
		v = value
	}
	return c.Set(path, v)
}

func (c *Config) Keys() []string {
	keys := make([]string, 0, len(*c))
	for k := range *c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) Debug(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := c.Keys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k].String())
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

// assignType is mostly for preventing programming errors, it
// panics if the value changes type
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Bool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Int)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_String)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("Bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("Int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("String setting `%s` does not exist", path))
}
