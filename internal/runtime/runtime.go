// Package runtime provides the packrat memoization fabric and terminal
// matchers (spec component B) that every generated parser method is
// built on: mark/reset discipline, non-recursive memoization, the
// Warth-style seed-and-grow combinator for direct left recursion, and a
// dedicated terminal-match cache.
package runtime

import (
	"strings"

	"github.com/btouchard/pegc/internal/cursor"
	"github.com/btouchard/pegc/internal/token"
)

// CacheEntry is the (result, endmark) pair the spec's §3 memoization
// caches store. Present reports whether the rule matched; when it did
// not, End equals the mark the attempt started at.
type CacheEntry[T any] struct {
	Present bool
	Value   T
	End     cursor.Mark
}

// Stats accumulates one parser instance's rule-cache and terminal-cache
// hit/miss counters and its left-recursion grow iterations. The driver
// does not print them.
type Stats struct {
	RuleHits, RuleMisses   int
	TermHits, TermMisses   int
	LeftRecIterations      int
}

// BaseParser holds the state every generated parser instance embeds:
// the cursor, the terminal-match cache, a recursion-depth counter used
// only for diagnostics/tracing, a verbose flag, and the optional
// clear-on-terminal-match behavior from SPEC_FULL Open Question 2.
type BaseParser struct {
	Cursor  *cursor.Cursor
	Verbose int
	Stats   Stats

	termCache map[termKey]CacheEntry[token.Token]
	depth     int

	clearOnTerminal bool
	clearHooks      []func()
}

type termKey struct {
	mark cursor.Mark
	spec string
}

// NewBaseParser wraps a token producer in a Cursor and returns a fresh
// BaseParser ready for use by generated rule methods.
func NewBaseParser(producer token.Producer) *BaseParser {
	return &BaseParser{
		Cursor:    cursor.New(producer),
		termCache: make(map[termKey]CacheEntry[token.Token]),
	}
}

// WithClearCachesOnTerminal enables the optional cache-clearing
// behavior: after every successful terminal match, both the terminal
// cache and every registered rule cache are cleared together, never one
// without the other (§5 invariant). Off by default.
func (p *BaseParser) WithClearCachesOnTerminal(enabled bool) *BaseParser {
	p.clearOnTerminal = enabled
	return p
}

// RegisterRuleCache lets a generated rule's cache participate in the
// clear-both-or-neither policy above. Generated code calls this once
// per rule cache at construction time.
func (p *BaseParser) RegisterRuleCache(clear func()) {
	p.clearHooks = append(p.clearHooks, clear)
}

func (p *BaseParser) clearAllCaches() {
	p.termCache = make(map[termKey]CacheEntry[token.Token])
	for _, clear := range p.clearHooks {
		clear()
	}
}

func (p *BaseParser) enterRule() { p.depth++ }
func (p *BaseParser) exitRule()  { p.depth-- }

// Depth returns the current recursion depth (diagnostics only).
func (p *BaseParser) Depth() int { return p.depth }

// Memoize implements the standard (non-left-recursive) packrat
// memoization contract of §4.2: on entry at the current mark, a cached
// success resets to its endmark and is returned verbatim; a cached
// failure is returned without moving the cursor; otherwise body runs
// once and its outcome is recorded before returning.
func Memoize[T any](p *BaseParser, cache map[cursor.Mark]CacheEntry[T], body func() (T, bool)) (T, bool) {
	m := p.Cursor.Mark()
	if entry, ok := cache[m]; ok {
		p.Stats.RuleHits++
		if entry.Present {
			p.Cursor.Reset(entry.End)
			return entry.Value, true
		}
		var zero T
		return zero, false
	}
	p.Stats.RuleMisses++
	p.enterRule()
	value, ok := body()
	p.exitRule()
	if ok {
		end := p.Cursor.Mark()
		cache[m] = CacheEntry[T]{Present: true, Value: value, End: end}
		return value, true
	}
	p.Cursor.Reset(m)
	cache[m] = CacheEntry[T]{Present: false, End: m}
	var zero T
	return zero, false
}

// MemoizeLeftRec implements the Warth-style seed-and-grow algorithm of
// §4.2 for a directly left-recursive rule: seed the cache with failure
// at the start mark so the first recursive self-call fails and a base
// alternative can succeed, then iteratively re-invoke body from the
// same mark, keeping each strictly longer result until the rule can
// grow no further.
func MemoizeLeftRec[T any](p *BaseParser, cache map[cursor.Mark]CacheEntry[T], body func() (T, bool)) (T, bool) {
	m := p.Cursor.Mark()
	if entry, ok := cache[m]; ok {
		p.Stats.RuleHits++
		if entry.Present {
			p.Cursor.Reset(entry.End)
			return entry.Value, true
		}
		var zero T
		return zero, false
	}
	p.Stats.RuleMisses++

	// 1. Seed with failure at m.
	cache[m] = CacheEntry[T]{Present: false, End: m}

	lastEnd := m
	var lastValue T
	lastPresent := false

	for {
		p.Cursor.Reset(m)
		p.enterRule()
		value, ok := body()
		p.exitRule()
		if !ok {
			break
		}
		end := p.Cursor.Mark()
		if end <= lastEnd {
			break
		}
		p.Stats.LeftRecIterations++
		lastEnd = end
		lastValue = value
		lastPresent = true
		cache[m] = CacheEntry[T]{Present: true, Value: value, End: end}
	}

	p.Cursor.Reset(lastEnd)
	if !lastPresent {
		cache[m] = CacheEntry[T]{Present: false, End: m}
		var zero T
		return zero, false
	}
	cache[m] = CacheEntry[T]{Present: true, Value: lastValue, End: lastEnd}
	return lastValue, true
}

// CachedSelf reads a left-recursive rule's own cache entry at the
// current mark without invoking its body. A generated left-recursive
// rule's first-position self-reference calls this instead of the rule
// method itself, so that each "grow" iteration of MemoizeLeftRec sees
// the previous iteration's result rather than recursing back into a
// fresh seed-and-grow loop.
func CachedSelf[T any](p *BaseParser, cache map[cursor.Mark]CacheEntry[T]) (T, bool) {
	m := p.Cursor.Mark()
	if entry, ok := cache[m]; ok && entry.Present {
		p.Cursor.Reset(entry.End)
		return entry.Value, true
	}
	var zero T
	return zero, false
}

// Expect matches a terminal by exact text (operators, string literals,
// keywords) or by token kind name ("NEWLINE", "INDENT", "DEDENT",
// "ENDMARKER"), using the dedicated terminal cache (§4.2, "Memoization —
// terminal"). It never advances the cursor on failure.
func (p *BaseParser) Expect(spec string) (token.Token, bool) {
	m := p.Cursor.Mark()
	key := termKey{mark: m, spec: spec}
	if entry, ok := p.termCache[key]; ok {
		p.Stats.TermHits++
		if entry.Present {
			p.Cursor.Reset(entry.End)
			return entry.Value, true
		}
		return token.Token{}, false
	}
	p.Stats.TermMisses++

	tok, err := p.Cursor.Peek()
	matched := err == nil && tokenMatchesSpec(tok, spec)
	if !matched {
		p.termCache[key] = CacheEntry[token.Token]{Present: false, End: m}
		return token.Token{}, false
	}
	_, _ = p.Cursor.GetNext()
	end := p.Cursor.Mark()
	p.termCache[key] = CacheEntry[token.Token]{Present: true, Value: tok, End: end}
	if p.clearOnTerminal {
		p.clearAllCaches()
	}
	return tok, true
}

func tokenMatchesSpec(tok token.Token, spec string) bool {
	switch spec {
	case "NEWLINE":
		return tok.Kind == token.NEWLINE
	case "INDENT":
		return tok.Kind == token.INDENT
	case "DEDENT":
		return tok.Kind == token.DEDENT
	case "ENDMARKER":
		return tok.Kind == token.EOF
	default:
		// exact-text match for operators, punctuation and quoted
		// string-literal keywords (quotes stripped for comparison).
		return tok.Text == strings.Trim(spec, "'\"")
	}
}

// Name matches an identifier token used as a rule/terminal-class name
// reference (NAME in the meta-grammar, or any bare identifier terminal
// in a generated parser's own grammar).
func (p *BaseParser) Name() (token.Token, bool) {
	tok, err := p.Cursor.Peek()
	if err != nil || tok.Kind != token.NAME {
		return token.Token{}, false
	}
	_, _ = p.Cursor.GetNext()
	return tok, true
}

// Number matches a NUMBER token.
func (p *BaseParser) Number() (token.Token, bool) {
	tok, err := p.Cursor.Peek()
	if err != nil || tok.Kind != token.NUMBER {
		return token.Token{}, false
	}
	_, _ = p.Cursor.GetNext()
	return tok, true
}

// String matches a STRING token (quotes included in Text).
func (p *BaseParser) String() (token.Token, bool) {
	tok, err := p.Cursor.Peek()
	if err != nil || tok.Kind != token.STRING {
		return token.Token{}, false
	}
	_, _ = p.Cursor.GetNext()
	return tok, true
}

// CurlyStuff matches a synthetic CURLY_STUFF token produced by gscan's
// action capture (§4.4).
func (p *BaseParser) CurlyStuff() (token.Token, bool) {
	tok, err := p.Cursor.Peek()
	if err != nil || tok.Kind != token.CURLYSTUFF {
		return token.Token{}, false
	}
	_, _ = p.Cursor.GetNext()
	return tok, true
}
