// Package metaparser is the hand-written recursive-descent parser over
// the grammar meta-language (spec component D, §4.3). It is built
// directly on internal/cursor and internal/runtime — every rule method
// below is wrapped with the non-recursive memoization contract of
// §4.2, exactly as a generated parser's rule methods would be.
//
// Grammar (restated from spec §4.3):
//
//	start:        rule+ ENDMARKER
//	rule:         NAME ':' alternatives NEWLINE
//	alternatives: alternative ('|' alternative)*
//	alternative:  named_item+ [CURLY_STUFF]
//	named_item:   NAME '=' item | item
//	item:         '[' alternatives ']'
//	            | atom (' '* ('?' | '*' | '+'))?
//	atom:         '(' alternatives ')' | NAME | STRING
package metaparser

import (
	"fmt"

	"github.com/btouchard/pegc/internal/ast"
	"github.com/btouchard/pegc/internal/cursor"
	"github.com/btouchard/pegc/internal/gscan"
	"github.com/btouchard/pegc/internal/perrors"
	"github.com/btouchard/pegc/internal/runtime"
	"github.com/btouchard/pegc/internal/token"
)

// Parser wraps a BaseParser with one memoization cache per rule method.
type Parser struct {
	*runtime.BaseParser
	filename string

	startCache        map[cursor.Mark]runtime.CacheEntry[[]*ast.Rule]
	ruleCache         map[cursor.Mark]runtime.CacheEntry[*ast.Rule]
	alternativesCache map[cursor.Mark]runtime.CacheEntry[*ast.Alts]
	alternativeCache  map[cursor.Mark]runtime.CacheEntry[*ast.Alt]
	namedItemCache    map[cursor.Mark]runtime.CacheEntry[*ast.NamedItem]
	itemCache         map[cursor.Mark]runtime.CacheEntry[ast.Item]
	atomCache         map[cursor.Mark]runtime.CacheEntry[ast.Item]
}

// New builds a Parser over an already-constructed token producer
// (typically gscan.New(source)).
func New(producer token.Producer, filename string) *Parser {
	return &Parser{
		BaseParser:        runtime.NewBaseParser(producer),
		filename:          filename,
		startCache:        make(map[cursor.Mark]runtime.CacheEntry[[]*ast.Rule]),
		ruleCache:         make(map[cursor.Mark]runtime.CacheEntry[*ast.Rule]),
		alternativesCache: make(map[cursor.Mark]runtime.CacheEntry[*ast.Alts]),
		alternativeCache:  make(map[cursor.Mark]runtime.CacheEntry[*ast.Alt]),
		namedItemCache:    make(map[cursor.Mark]runtime.CacheEntry[*ast.NamedItem]),
		itemCache:         make(map[cursor.Mark]runtime.CacheEntry[ast.Item]),
		atomCache:         make(map[cursor.Mark]runtime.CacheEntry[ast.Item]),
	}
}

// ParseFile tokenizes and parses a whole grammar source file, returning
// its top-level rules in declaration order.
func ParseFile(source, filename string) ([]*ast.Rule, error) {
	raw, err := gscan.New(source)
	if err != nil {
		return nil, fmt.Errorf("metaparser: %w", err)
	}
	p := New(raw, filename)
	return p.Parse(source)
}

// Parse runs the start rule and converts a no-match at the furthest
// token into a perrors.SyntaxError (§6, §7, §8 scenario S6). source is
// used only to extract the offending line's text for the error message.
func (p *Parser) Parse(source string) ([]*ast.Rule, error) {
	rules, ok := p.start()
	if !ok {
		tok, _ := p.Cursor.Diagnose()
		return nil, &perrors.SyntaxError{
			Pos:   perrors.Position{File: p.filename, Line: tok.Start.Line, Column: tok.Start.Column},
			Token: tok.Text,
			Line:  sourceLine(source, tok.Start.Line),
		}
	}
	if err := checkInvariants(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func checkInvariants(rules []*ast.Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.IsHelper() {
			return fmt.Errorf("metaparser: rule name %q uses a reserved generator prefix", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("metaparser: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if len(r.Alts.Alts) == 0 {
			return fmt.Errorf("metaparser: rule %q has no alternatives", r.Name)
		}
		for _, alt := range r.Alts.Alts {
			if len(alt.Items) == 0 {
				return fmt.Errorf("metaparser: rule %q has an empty alternative", r.Name)
			}
		}
	}
	return nil
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	start, cur := 0, 1
	for i := 0; i < len(source); i++ {
		if cur == line {
			start = i
			break
		}
		if source[i] == '\n' {
			cur++
		}
	}
	if cur != line {
		return ""
	}
	end := start
	for end < len(source) && source[end] != '\n' {
		end++
	}
	return source[start:end]
}

// start: rule+ ENDMARKER
func (p *Parser) start() ([]*ast.Rule, bool) {
	return runtime.Memoize(p.BaseParser, p.startCache, func() ([]*ast.Rule, bool) {
		var rules []*ast.Rule
		for {
			r, ok := p.rule()
			if !ok {
				break
			}
			rules = append(rules, r)
		}
		if len(rules) == 0 {
			return nil, false
		}
		if _, ok := p.Expect("ENDMARKER"); !ok {
			return nil, false
		}
		return rules, true
	})
}

// rule: NAME ':' alternatives NEWLINE
func (p *Parser) rule() (*ast.Rule, bool) {
	return runtime.Memoize(p.BaseParser, p.ruleCache, func() (*ast.Rule, bool) {
		m := p.Cursor.Mark()
		name, ok := p.Name()
		if !ok {
			return nil, false
		}
		if _, ok := p.Expect(":"); !ok {
			p.Cursor.Reset(m)
			return nil, false
		}
		alts, ok := p.alternatives()
		if !ok {
			p.Cursor.Reset(m)
			return nil, false
		}
		if _, ok := p.Expect("NEWLINE"); !ok {
			p.Cursor.Reset(m)
			return nil, false
		}
		return &ast.Rule{Name: name.Text, Alts: alts}, true
	})
}

// alternatives: alternative ('|' alternative)*
func (p *Parser) alternatives() (*ast.Alts, bool) {
	return runtime.Memoize(p.BaseParser, p.alternativesCache, func() (*ast.Alts, bool) {
		first, ok := p.alternative()
		if !ok {
			return nil, false
		}
		alts := &ast.Alts{Alts: []*ast.Alt{first}}
		for {
			m := p.Cursor.Mark()
			if _, ok := p.Expect("|"); !ok {
				break
			}
			next, ok := p.alternative()
			if !ok {
				p.Cursor.Reset(m)
				break
			}
			alts.Alts = append(alts.Alts, next)
		}
		return alts, true
	})
}

// alternative: named_item+ [CURLY_STUFF]
func (p *Parser) alternative() (*ast.Alt, bool) {
	return runtime.Memoize(p.BaseParser, p.alternativeCache, func() (*ast.Alt, bool) {
		var items []*ast.NamedItem
		for {
			it, ok := p.namedItem()
			if !ok {
				break
			}
			items = append(items, it)
		}
		if len(items) == 0 {
			return nil, false
		}
		action := ""
		if tok, ok := p.CurlyStuff(); ok {
			action = tok.Text
		}
		return &ast.Alt{Items: items, Action: action}, true
	})
}

// named_item: NAME '=' item | item
func (p *Parser) namedItem() (*ast.NamedItem, bool) {
	return runtime.Memoize(p.BaseParser, p.namedItemCache, func() (*ast.NamedItem, bool) {
		m := p.Cursor.Mark()
		if name, ok := p.Name(); ok {
			if _, ok := p.Expect("="); ok {
				item, ok := p.item()
				if ok {
					return &ast.NamedItem{Name: name.Text, Item: item}, true
				}
			}
			p.Cursor.Reset(m)
		}
		item, ok := p.item()
		if !ok {
			return nil, false
		}
		return &ast.NamedItem{Item: item}, true
	})
}

// item: '[' alternatives ']' | atom (' '* ('?' | '*' | '+'))?
func (p *Parser) item() (ast.Item, bool) {
	return runtime.Memoize(p.BaseParser, p.itemCache, func() (ast.Item, bool) {
		m := p.Cursor.Mark()
		if _, ok := p.Expect("["); ok {
			alts, ok := p.alternatives()
			if ok {
				if _, ok := p.Expect("]"); ok {
					return &ast.Opt{Inner: &ast.Group{Alts: alts}}, true
				}
			}
			p.Cursor.Reset(m)
		}

		atom, ok := p.atom()
		if !ok {
			return nil, false
		}
		// SPEC_FULL Open Question 1: the meta-grammar's own "' '*"
		// production between an atom and its quantifier is always
		// zero-width here — gscan never emits space tokens.
		if _, ok := p.Expect("?"); ok {
			return &ast.Opt{Inner: atom}, true
		}
		if _, ok := p.Expect("*"); ok {
			return &ast.Repeat0{Inner: atom}, true
		}
		if _, ok := p.Expect("+"); ok {
			return &ast.Repeat1{Inner: atom}, true
		}
		return atom, true
	})
}

// atom: '(' alternatives ')' | NAME | STRING
func (p *Parser) atom() (ast.Item, bool) {
	return runtime.Memoize(p.BaseParser, p.atomCache, func() (ast.Item, bool) {
		m := p.Cursor.Mark()
		if _, ok := p.Expect("("); ok {
			alts, ok := p.alternatives()
			if ok {
				if _, ok := p.Expect(")"); ok {
					return &ast.Group{Alts: alts}, true
				}
			}
			p.Cursor.Reset(m)
		}
		if name, ok := p.Name(); ok {
			return &ast.NameLeaf{Name: name.Text}, true
		}
		if str, ok := p.String(); ok {
			return &ast.StringLeaf{Literal: str.Text}, true
		}
		return nil, false
	})
}
