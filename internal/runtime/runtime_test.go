package runtime

import (
	"testing"

	"github.com/btouchard/pegc/internal/cursor"
	"github.com/btouchard/pegc/internal/token"
)

func sliceProducer(toks []token.Token) token.Producer {
	i := 0
	return token.ProducerFunc(func() (token.Token, error) {
		if i >= len(toks) {
			return token.Token{Kind: token.EOF}, nil
		}
		t := toks[i]
		i++
		return t, nil
	})
}

func opTok(text string) token.Token {
	return token.Token{Kind: token.OP, Text: text}
}

func TestMemoizeCachesAcrossCalls(t *testing.T) {
	p := NewBaseParser(sliceProducer([]token.Token{opTok("+")}))
	cache := make(map[cursor.Mark]CacheEntry[string])

	calls := 0
	body := func() (string, bool) {
		calls++
		_, ok := p.Expect("+")
		if !ok {
			return "", false
		}
		return "matched", true
	}

	v1, ok1 := Memoize(p, cache, body)
	m := p.Cursor.Mark()
	p.Cursor.Reset(0)
	v2, ok2 := Memoize(p, cache, body)

	if !ok1 || !ok2 || v1 != v2 {
		t.Fatalf("expected equal cached results, got (%q,%v) (%q,%v)", v1, ok1, v2, ok2)
	}
	if calls != 1 {
		t.Fatalf("body should only run once, ran %d times", calls)
	}
	_ = m
}

func TestMemoizeCachesFailure(t *testing.T) {
	p := NewBaseParser(sliceProducer([]token.Token{opTok("-")}))
	cache := make(map[cursor.Mark]CacheEntry[string])

	calls := 0
	body := func() (string, bool) {
		calls++
		_, ok := p.Expect("+")
		if !ok {
			return "", false
		}
		return "matched", true
	}

	_, ok1 := Memoize(p, cache, body)
	p.Cursor.Reset(0)
	_, ok2 := Memoize(p, cache, body)

	if ok1 || ok2 {
		t.Fatalf("expected both attempts to fail")
	}
	if calls != 1 {
		t.Fatalf("failing body should still only run once, ran %d times", calls)
	}
}

// TestMemoizeLeftRecGrows exercises spec scenario S3: expr: expr '+' term | term
// against the token stream NUMBER '+' NUMBER '+' NUMBER, hand-coded without
// the generator, to pin down the seed-and-grow contract directly.
func TestMemoizeLeftRecGrows(t *testing.T) {
	p := NewBaseParser(sliceProducer([]token.Token{
		{Kind: token.NUMBER, Text: "1"},
		opTok("+"),
		{Kind: token.NUMBER, Text: "2"},
		opTok("+"),
		{Kind: token.NUMBER, Text: "3"},
	}))

	exprCache := make(map[cursor.Mark]CacheEntry[int])
	termCache := make(map[cursor.Mark]CacheEntry[int])

	var term func() (int, bool)
	var expr func() (int, bool)

	term = func() (int, bool) {
		return Memoize(p, termCache, func() (int, bool) {
			tok, ok := p.Number()
			if !ok {
				return 0, false
			}
			switch tok.Text {
			case "1":
				return 1, true
			case "2":
				return 2, true
			case "3":
				return 3, true
			}
			return 0, false
		})
	}

	expr = func() (int, bool) {
		return MemoizeLeftRec(p, exprCache, func() (int, bool) {
			m := p.Cursor.Mark()
			if left, ok := CachedSelf(p, exprCache); ok {
				if _, ok := p.Expect("+"); ok {
					if right, ok := term(); ok {
						return left + right, true
					}
				}
			}
			p.Cursor.Reset(m)
			return term()
		})
	}

	got, ok := expr()
	if !ok {
		t.Fatalf("expected expr to match")
	}
	if got != 6 {
		t.Fatalf("expected 1+2+3=6, got %d", got)
	}
	if p.Stats.LeftRecIterations != 3 {
		t.Fatalf("expected 3 grow iterations (base 1, then 1+2, then 1+2+3; the 4th attempt does not grow), got %d", p.Stats.LeftRecIterations)
	}
}

func TestExpectClearOnTerminal(t *testing.T) {
	p := NewBaseParser(sliceProducer([]token.Token{opTok("+"), opTok("-")}))
	p.WithClearCachesOnTerminal(true)

	cleared := false
	p.RegisterRuleCache(func() { cleared = true })

	if _, ok := p.Expect("+"); !ok {
		t.Fatalf("expected first terminal to match")
	}
	if !cleared {
		t.Fatalf("expected rule caches to be cleared after a terminal match")
	}
}

func TestExpectCachesByMarkAndSpec(t *testing.T) {
	p := NewBaseParser(sliceProducer([]token.Token{opTok("+")}))

	_, ok1 := p.Expect("+")
	p.Cursor.Reset(0)
	_, ok2 := p.Expect("+")
	if !ok1 || !ok2 {
		t.Fatalf("expected both Expect calls to succeed")
	}
	if p.Stats.TermMisses != 1 || p.Stats.TermHits != 1 {
		t.Fatalf("expected one miss then one hit, got misses=%d hits=%d", p.Stats.TermMisses, p.Stats.TermHits)
	}
}
