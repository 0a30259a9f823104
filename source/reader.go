package source

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

const defaultChunkSize = 4096

// ErrClosed rejects reads of a ReaderCursor that was closed
var ErrClosed = errors.New("source: cursor closed")

// DefaultWindow is how many bytes past the cursor a ReaderCursor
// buffers before trying a regular expression.
const DefaultWindow = 4096

type readerInput struct {
	mu   sync.Mutex
	cond *sync.Cond
	data   []byte
	eof    bool
	closed bool
	err    error
}

func (in *readerInput) fill(r io.Reader, chunkSize int) {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		in.mu.Lock()
		if in.closed {
			in.mu.Unlock()
			return
		}
		in.data = append(in.data, buf[:n]...)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				in.err = err
			}
			in.eof = true
		}
		in.cond.Broadcast()
		in.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// available must be called with the lock held
func (in *readerInput) available(end int) bool {
	return in.eof || in.closed || len(in.data) >= end
}

func (in *readerInput) waitFor(end int) {
	in.mu.Lock()
	for !in.available(end) {
		in.cond.Wait()
	}
	in.mu.Unlock()
}

// ReaderCursor reads its input from an io.Reader in a background
// goroutine.  Operations that need bytes that haven't arrived yet
// return pending futures.
type ReaderCursor struct {
	in      *readerInput
	pos     int
	holding bool
	window  int
}

type ReaderOption func(*readerConfig)

type readerConfig struct {
	chunkSize int
	window    int
}

func WithChunkSize(n int) ReaderOption { return func(c *readerConfig) { c.chunkSize = n } }
func WithWindow(n int) ReaderOption    { return func(c *readerConfig) { c.window = n } }

func FromReader(r io.Reader, opts ...ReaderOption) *ReaderCursor {
	cfg := readerConfig{chunkSize: defaultChunkSize, window: DefaultWindow}
	for _, opt := range opts {
		opt(&cfg)
	}
	in := &readerInput{}
	in.cond = sync.NewCond(&in.mu)
	go in.fill(r, cfg.chunkSize)
	return &ReaderCursor{in: in, window: cfg.window}
}

func (c *ReaderCursor) Advance(n int) *Future[int] {
	if n < 0 {
		return Failed[int](fmt.Errorf("source: can't advance %d units", n))
	}
	target := c.pos + n
	c.pos = target

	settle := func(f *Future[int]) {
		if c.in.closed {
			f.Reject(ErrClosed)
			return
		}
		if c.in.err != nil {
			f.Reject(c.in.err)
			return
		}
		if target > len(c.in.data) {
			f.Reject(fmt.Errorf("source: can't advance past the end of the input (offset %d)", target))
			return
		}
		f.Resolve(n)
	}

	c.in.mu.Lock()
	if c.in.available(target + 1) {
		defer c.in.mu.Unlock()
		f := NewFuture[int]()
		settle(f)
		return f
	}
	c.in.mu.Unlock()

	f := NewFuture[int]()
	go func() {
		c.in.waitFor(target + 1)
		c.in.mu.Lock()
		defer c.in.mu.Unlock()
		settle(f)
	}()
	return f
}

func (c *ReaderCursor) Match(p Pattern) *Future[Result] {
	if c.holding {
		return Ready(Result{})
	}
	pos := c.pos
	end := pos + p.minLookahead()
	if p.minLookahead() < 0 {
		end = pos + c.window
	}
	settle := func(f *Future[Result]) {
		if c.in.closed {
			f.Reject(ErrClosed)
			return
		}
		if c.in.err != nil {
			f.Reject(c.in.err)
			return
		}
		if pos > len(c.in.data) {
			f.Resolve(Result{})
			return
		}
		f.Resolve(p.matchBytes(c.in.data[pos:]))
	}

	c.in.mu.Lock()
	if c.in.available(end) {
		defer c.in.mu.Unlock()
		f := NewFuture[Result]()
		settle(f)
		return f
	}
	c.in.mu.Unlock()

	f := NewFuture[Result]()
	go func() {
		c.in.waitFor(end)
		c.in.mu.Lock()
		defer c.in.mu.Unlock()
		settle(f)
	}()
	return f
}

func (c *ReaderCursor) Value() (rune, Symbol) {
	if c.holding {
		return 0, SymbolGap
	}
	c.in.mu.Lock()
	defer c.in.mu.Unlock()
	if c.pos < len(c.in.data) {
		r, _ := utf8.DecodeRune(c.in.data[c.pos:])
		return r, SymbolText
	}
	if c.in.eof {
		return 0, SymbolEOF
	}
	return 0, SymbolPending
}

func (c *ReaderCursor) Done() bool {
	if c.holding {
		return false
	}
	c.in.mu.Lock()
	defer c.in.mu.Unlock()
	return c.in.eof && c.pos >= len(c.in.data)
}

// Close stops the cursor and every fork of it.  Reads still waiting
// for input are rejected with ErrClosed.  The reader itself isn't
// closed, the goroutine filling the buffer returns once its current
// read does.
func (c *ReaderCursor) Close() error {
	c.in.mu.Lock()
	defer c.in.mu.Unlock()
	c.in.closed = true
	c.in.cond.Broadcast()
	return nil
}

func (c *ReaderCursor) Hold()         { c.holding = true }
func (c *ReaderCursor) Holding() bool { return c.holding }
func (c *ReaderCursor) Unshift()      { c.holding = false }
func (c *ReaderCursor) Offset() int   { return c.pos }

func (c *ReaderCursor) Fork() Cursor {
	fork := *c
	return &fork
}
