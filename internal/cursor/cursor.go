// Package cursor implements the lazy, caching, rewindable token cursor
// (spec component A) that every parser — the meta-grammar parser and
// any generated parser — reads through.
package cursor

import "github.com/btouchard/pegc/internal/token"

// Mark is an opaque, cheap-to-copy handle into the cursor's buffer.
// A Mark obtained at any point remains valid for the lifetime of the
// Cursor that produced it.
type Mark int

// Cursor wraps a token.Producer with an append-only buffer so that
// previously-seen tokens can be revisited by resetting to an earlier
// Mark without re-invoking the producer.
type Cursor struct {
	producer token.Producer
	buf      []token.Token
	index    int
	lastSeen token.Token
	hasSeen  bool
}

// New wraps producer in a Cursor starting at the beginning of the stream.
func New(producer token.Producer) *Cursor {
	return &Cursor{producer: producer}
}

// significant reports whether a token kind survives the filter policy:
// NL (insignificant/blank-line newline) and COMMENT are dropped while
// filling; everything else, including significant NEWLINE, INDENT,
// DEDENT and ENDMARKER, is preserved (§4.1 filter policy).
func significant(k token.Kind) bool {
	return k != token.NL && k != token.COMMENT
}

// fill pulls from the producer until the buffer holds at least n+1
// tokens, or the producer is exhausted (ENDMARKER is itself buffered and
// re-delivered forever once reached).
func (c *Cursor) fill(n int) error {
	for len(c.buf) <= n {
		if len(c.buf) > 0 && c.buf[len(c.buf)-1].Kind == token.EOF {
			// ENDMARKER repeats; peek/getnext past it keeps returning it.
			c.buf = append(c.buf, c.buf[len(c.buf)-1])
			continue
		}
		for {
			tok, err := c.producer.Next()
			if err != nil {
				return err
			}
			c.lastSeen = tok
			c.hasSeen = true
			if significant(tok.Kind) {
				c.buf = append(c.buf, tok)
				break
			}
			// insignificant token dropped; keep pulling.
			if tok.Kind == token.EOF {
				c.buf = append(c.buf, tok)
				break
			}
		}
	}
	return nil
}

// Peek returns the token at the current index without advancing.
func (c *Cursor) Peek() (token.Token, error) {
	if err := c.fill(c.index); err != nil {
		return token.Token{}, err
	}
	return c.buf[c.index], nil
}

// GetNext returns the token at the current index and advances past it.
func (c *Cursor) GetNext() (token.Token, error) {
	tok, err := c.Peek()
	if err != nil {
		return token.Token{}, err
	}
	c.index++
	return tok, nil
}

// Mark returns a handle to the current position.
func (c *Cursor) Mark() Mark { return Mark(c.index) }

// Reset rewinds the cursor to a previously obtained Mark. The buffer is
// never truncated — reset is O(1) and never re-invokes the producer for
// already-buffered tokens.
func (c *Cursor) Reset(m Mark) {
	if int(m) < 0 {
		panic("cursor: reset to negative mark")
	}
	c.index = int(m)
}

// Diagnose returns the furthest token the cursor has looked at, for
// error reporting — even if it was never consumed (e.g. a failed
// alternative's lookahead). If nothing has been seen yet, it pulls one
// token to have something to report.
func (c *Cursor) Diagnose() (token.Token, error) {
	if int(len(c.buf)) > 0 {
		// furthest buffered token is always >= furthest consumed one,
		// since reset never truncates the buffer.
		idx := len(c.buf) - 1
		return c.buf[idx], nil
	}
	if c.hasSeen {
		return c.lastSeen, nil
	}
	return c.Peek()
}
