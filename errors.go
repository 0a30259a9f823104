package agast

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized         = errors.New("language already initialized")
	ErrNotInitialized             = errors.New("no language initialized")
	ErrUnknownLanguage            = errors.New("unknown language")
	ErrUndefinedProduction        = errors.New("undefined production")
	ErrTokenMustBeNode            = errors.New("tokens must be nodes")
	ErrNodeCover                  = errors.New("a frame can't be both a node and a cover")
	ErrInvalidCoverReference      = errors.New("invalid reference inside a cover")
	ErrUnboundAttributesOnNonNode = errors.New("unbound attributes declared on a frame that isn't a node")
	ErrUnconsumedInput            = errors.New("parser failed to consume input")
	ErrUnbalancedConstruct        = errors.New("parser did not match all balanced nodes")
	ErrLiteralMismatch            = errors.New("failed to advance literal")
	ErrGapAdvanceFailed           = errors.New("failed to advance gap")
	ErrShiftWithoutTarget         = errors.New("shift without a reference to detach")
	ErrSpanMismatch               = errors.New("span mismatch")
	ErrUnknownVerb                = errors.New("unknown verb")
	ErrInvalidTag                 = errors.New("invalid tag")
	ErrNoFrame                    = errors.New("no active frame")
	ErrInvalidArgument            = errors.New("invalid argument")

	// ErrAborted is what a strategy sees from the driver after the
	// evaluation stopped underneath it.
	ErrAborted = errors.New("evaluation aborted")

	ErrStreamConsumed    = errors.New("stream already consumed")
	ErrPendingUnresolved = errors.New("pending source read resumed before it settled")
)

// EvalError is the error an evaluation stops with.  It wraps one of
// the sentinel errors above, so callers should use errors.Is.
type EvalError struct {
	Err        error
	Verb       Verb
	Production string
	Offset     int
}

func (e *EvalError) Error() string {
	message := e.Err.Error()
	if e.Production != "" {
		return fmt.Sprintf("%s [%s in %s] @ %d", message, e.Verb, e.Production, e.Offset)
	}
	return fmt.Sprintf("%s [%s] @ %d", message, e.Verb, e.Offset)
}

func (e *EvalError) Unwrap() error { return e.Err }

// IsRecoverable tells if `err` is the kind of failure a strategy is
// expected to answer with a `throw`.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrLiteralMismatch)
}
