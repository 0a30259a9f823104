package source

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCursor(t *testing.T) {
	t.Run("literal match does not move the cursor", func(t *testing.T) {
		c := FromString("42")
		res, err := c.Match(Literal("42")).Value()
		require.NoError(t, err)
		assert.Equal(t, Result{Text: "42", OK: true}, res)
		assert.Equal(t, 0, c.Offset())

		res, err = c.Match(Literal("43")).Value()
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("advance until done", func(t *testing.T) {
		c := FromString("42")
		assert.False(t, c.Done())
		n, err := c.Advance(2).Value()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.True(t, c.Done())

		_, sym := c.Value()
		assert.Equal(t, SymbolEOF, sym)

		_, err = c.Advance(1).Value()
		require.Error(t, err)
	})

	t.Run("regular expressions are anchored", func(t *testing.T) {
		c := FromString("abc123")
		res, _ := c.Match(MustRegexp(`[0-9]+`)).Value()
		assert.False(t, res.OK)

		res, _ = c.Match(MustRegexp(`[a-z]+`)).Value()
		assert.Equal(t, "abc", res.Text)

		_, err := Regexp(`(`)
		require.Error(t, err)
	})

	t.Run("gaps stop matches and count as one unit", func(t *testing.T) {
		c := New(Text("1+"), Gap, Text("2"))
		res, _ := c.Match(Literal("1+2")).Value()
		assert.False(t, res.OK)

		res, _ = c.Match(MustRegexp(`[0-9+]+`)).Value()
		assert.Equal(t, "1+", res.Text)

		c.Advance(2)
		r, sym := c.Value()
		assert.Equal(t, SymbolGap, sym)
		assert.Equal(t, rune(0), r)

		c.Advance(1)
		r, sym = c.Value()
		assert.Equal(t, SymbolText, sym)
		assert.Equal(t, '2', r)
	})

	t.Run("hold reports a virtual gap", func(t *testing.T) {
		c := FromString("")
		assert.True(t, c.Done())
		c.Hold()
		assert.True(t, c.Holding())
		assert.False(t, c.Done())
		_, sym := c.Value()
		assert.Equal(t, SymbolGap, sym)
		c.Unshift()
		assert.True(t, c.Done())
	})

	t.Run("forks are independent", func(t *testing.T) {
		c := FromString("abc")
		f := c.Fork()
		f.Advance(2)
		assert.Equal(t, 0, c.Offset())
		assert.Equal(t, 2, f.Offset())
	})
}

func TestReaderCursor(t *testing.T) {
	t.Run("reads everything from a plain reader", func(t *testing.T) {
		c := FromReader(strings.NewReader("hello"), WithChunkSize(2))
		ctx := context.Background()

		_, err := c.Advance(0).Wait(ctx)
		require.NoError(t, err)

		res, err := c.Match(Literal("hello")).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, res.OK)

		_, err = c.Advance(5).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, c.Done())
	})

	t.Run("pending until the writer catches up", func(t *testing.T) {
		r, w := io.Pipe()
		c := FromReader(r)

		f := c.Advance(0)
		assert.True(t, f.Pending())
		_, sym := c.Value()
		assert.Equal(t, SymbolPending, sym)

		go func() {
			w.Write([]byte("x"))
			w.Close()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := f.Wait(ctx)
		require.NoError(t, err)

		r0, sym := c.Value()
		assert.Equal(t, SymbolText, sym)
		assert.Equal(t, 'x', r0)
	})

	t.Run("closing rejects reads still waiting", func(t *testing.T) {
		r, w := io.Pipe()
		defer w.Close()
		c := FromReader(r)

		advance := c.Advance(0)
		match := c.Fork().Match(Literal("x"))
		require.True(t, advance.Pending())
		require.True(t, match.Pending())
		require.NoError(t, c.Close())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := advance.Wait(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = match.Wait(ctx)
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("context cancellation interrupts waits", func(t *testing.T) {
		r, w := io.Pipe()
		defer w.Close()
		c := FromReader(r)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Advance(0).Wait(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFuture(t *testing.T) {
	f := NewFuture[int]()
	_, err := f.Value()
	require.ErrorIs(t, err, ErrPending)

	f.Resolve(1)
	f.Resolve(2)
	v, err := f.Value()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
