package agast

import "strings"

type FormatFunc[T any] func(input string, token T) string

// treePrinter draws trees with box characters.  `prefix` is what lines
// under the current branch start with.
type treePrinter[T any] struct {
	prefix string
	output strings.Builder
	format FormatFunc[T]
}

func newTreePrinter[T any](format FormatFunc[T]) *treePrinter[T] {
	return &treePrinter[T]{format: format}
}

// branch starts the line of a child and returns the function that
// leaves its subtree
func (tp *treePrinter[T]) branch(last bool) func() {
	saved := tp.prefix
	tp.output.WriteString("\n" + tp.prefix)
	if last {
		tp.output.WriteString("└── ")
		tp.prefix += "    "
	} else {
		tp.output.WriteString("├── ")
		tp.prefix += "│   "
	}
	return func() { tp.prefix = saved }
}

func (tp *treePrinter[T]) write(s string, token T) {
	tp.output.WriteString(tp.format(s, token))
}

func (tp *treePrinter[T]) raw(s string) {
	tp.output.WriteString(s)
}

func (tp *treePrinter[T]) String() string {
	return tp.output.String()
}
