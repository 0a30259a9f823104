package agast

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/clarete/agast/source"
)

type Option func(*vm)

func WithConfig(cfg *Config) Option {
	return func(vm *vm) { vm.cfg = cfg }
}

// WithExpressions gives nodes to be spliced, in order, into the gaps
// of the input.
func WithExpressions(expressions ...NodeView) Option {
	return func(vm *vm) { vm.expressions = append(vm.expressions, expressions...) }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(vm *vm) { vm.log = log }
}

func WithMetrics(m *Metrics) Option {
	return func(vm *vm) { vm.metrics = m }
}

// Evaluate prepares the evaluation of `strategy` over `cursor`.  It
// runs as the returned stream is consumed.
func Evaluate(registry *Registry, cursor source.Cursor, strategy Strategy, opts ...Option) *Stream {
	vm := &vm{registry: registry, cursor: cursor, strategy: strategy}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.cfg == nil {
		vm.cfg = NewConfig()
	}
	if vm.log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		vm.log = log
	}
	return &Stream{vm: vm}
}

// Parse evaluates `strategy` to the end and returns the tree built
// along with the tags emitted.
func Parse(ctx context.Context, registry *Registry, cursor source.Cursor, strategy Strategy, opts ...Option) (NodeView, []Tag, error) {
	stream := Evaluate(registry, cursor, strategy, opts...)
	tags, err := stream.Collect(ctx)
	if err != nil {
		return NodeView{}, tags, err
	}
	root, _ := stream.Result()
	return root, tags, nil
}
