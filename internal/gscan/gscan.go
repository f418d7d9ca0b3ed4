// Package gscan is the external physical tokenizer for grammar source
// text (spec §1 "we rely on an external tokenizer that produces a
// stream of typed tokens with source positions" — a thin collaborator,
// deliberately out of the HARD CORE). It is built on
// github.com/timtadh/lexmachine, the scanner-generator library the
// retrieval pack's npillmayer/gorgo project uses for its own lexer
// adapters.
//
// A semantic action's `{ ... }` body (spec §4.4) is target-language Go
// source, not grammar syntax, so it is never run through the DFA built
// for grammar tokens: Next captures it as a raw byte span directly off
// the source buffer once it sees the opening brace, and repositions the
// underlying lexmachine scanner past the span before resuming normal
// tokenization.
package gscan

import (
	"fmt"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/btouchard/pegc/internal/token"
)

// raw token ids fed to lexmachine; rawNewline is resolved into either
// token.NEWLINE or token.NL once the scanner knows whether the line
// carried any content.
const (
	idName = iota
	idNumber
	idString
	idOp
	idComment
	idRawNewline
)

var operators = []string{":", "|", "[", "]", "(", ")", "*", "+", "?", "=", "{", "}", ","}

func build() (*lexmachine.Lexer, error) {
	lexer := lexmachine.NewLexer()

	lexer.Add([]byte(`[A-Za-z_][A-Za-z0-9_]*`), tokenAction(idName))
	lexer.Add([]byte(`[0-9]+(\.[0-9]+)?`), tokenAction(idNumber))
	lexer.Add([]byte(`'([^'\\]|\\.)*'`), tokenAction(idString))
	lexer.Add([]byte(`"([^"\\]|\\.)*"`), tokenAction(idString))
	for _, op := range operators {
		lexer.Add([]byte("\\"+op), tokenAction(idOp))
	}
	lexer.Add([]byte(`#[^\n]*`), tokenAction(idComment))
	lexer.Add([]byte(`\n`), tokenAction(idRawNewline))
	lexer.Add([]byte(`[ \t\r]+`), skip)

	if err := lexer.Compile(); err != nil {
		return nil, fmt.Errorf("gscan: compiling grammar lexer: %w", err)
	}
	return lexer, nil
}

func skip(_ *lexmachine.Scanner, _ *machines.Match) (interface{}, error) {
	return nil, nil
}

func tokenAction(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// Scanner tokenizes grammar source text into the project's token.Token
// stream, deciding NEWLINE-vs-NL significance as it goes: a newline
// ending a physical line that carried no name/number/string/operator content
// (a blank line, or a comment-only line) is emitted as the insignificant
// token.NL; any other newline is the significant token.NEWLINE that
// terminates a rule (§4.1, §4.3).
type Scanner struct {
	scanner    *lexmachine.Scanner
	source     []byte
	sawContent bool
	reachedEOF bool
}

// New tokenizes source and returns a Scanner implementing token.Producer.
func New(source string) (*Scanner, error) {
	lexer, err := build()
	if err != nil {
		return nil, err
	}
	raw := []byte(source)
	s, err := lexer.Scanner(raw)
	if err != nil {
		return nil, fmt.Errorf("gscan: starting scanner: %w", err)
	}
	return &Scanner{scanner: s, source: raw}, nil
}

// Next implements token.Producer. Once end-of-input is reached it keeps
// returning an ENDMARKER token.
func (s *Scanner) Next() (token.Token, error) {
	if s.reachedEOF {
		return token.Token{Kind: token.EOF}, nil
	}

	tok, err, eof := s.scanner.Next()
	if eof {
		s.reachedEOF = true
		return token.Token{Kind: token.EOF}, nil
	}
	if err != nil {
		if ui, ok := err.(*machines.UnconsumedInput); ok {
			s.scanner.TC = ui.FailTC
		}
		return token.Token{}, fmt.Errorf("gscan: %w", err)
	}

	lt := tok.(*lexmachine.Token)
	text := lt.Value.(string)
	start := token.Position{Line: lt.StartLine, Column: lt.StartColumn}
	end := token.Position{Line: lt.EndLine, Column: lt.EndColumn}

	switch lt.Type {
	case idName:
		s.sawContent = true
		return token.Token{Kind: token.NAME, Text: text, Start: start, End: end}, nil
	case idNumber:
		s.sawContent = true
		return token.Token{Kind: token.NUMBER, Text: text, Start: start, End: end}, nil
	case idString:
		s.sawContent = true
		return token.Token{Kind: token.STRING, Text: text, Start: start, End: end}, nil
	case idOp:
		s.sawContent = true
		if text == "{" {
			return s.captureCurlyStuff(start)
		}
		return token.Token{Kind: token.OP, Text: text, Start: start, End: end}, nil
	case idComment:
		// comments never count as line content; cursor drops them.
		return token.Token{Kind: token.COMMENT, Text: text, Start: start, End: end}, nil
	case idRawNewline:
		kind := token.NL
		if s.sawContent {
			kind = token.NEWLINE
		}
		s.sawContent = false
		return token.Token{Kind: kind, Text: text, Start: start, End: end}, nil
	default:
		return token.Token{}, fmt.Errorf("gscan: unrecognized token id %d (%q)", lt.Type, text)
	}
}

// captureCurlyStuff reads the raw source bytes from just past an
// already-consumed opening '{' up to and including its matching close
// brace, tracking nesting depth and skipping over quoted string
// literals so a brace inside target-language string content doesn't
// throw off the count. It never hands the span to the lexer: the
// action body is opaque Go source, not grammar syntax, and may use
// operators (., -, /, <, >, ...) the grammar lexer has no rule for.
// lexmachine.Scanner.TC is repositioned to just past the closing brace
// so normal tokenization resumes from there.
func (s *Scanner) captureCurlyStuff(openStart token.Position) (token.Token, error) {
	depth := 1
	buf := []byte{'{'}
	line, col := openStart.Line, openStart.Column+1

	for depth > 0 {
		if s.scanner.TC >= len(s.source) {
			return token.Token{}, fmt.Errorf("gscan: unbalanced braces starting at %d:%d: reached end of input with depth %d",
				openStart.Line, openStart.Column, depth)
		}
		c := s.source[s.scanner.TC]
		s.scanner.TC++
		buf = append(buf, c)

		switch {
		case c == '\'' || c == '"':
			quoted, err := s.consumeQuoted(c)
			if err != nil {
				return token.Token{}, fmt.Errorf("gscan: in action starting at %d:%d: %w", openStart.Line, openStart.Column, err)
			}
			buf = append(buf, quoted...)
			for _, qc := range quoted {
				if qc == '\n' {
					line++
					col = 0
				}
				col++
			}
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '\n':
			line++
			col = 0
		}
		col++
	}

	return token.Token{
		Kind:  token.CURLYSTUFF,
		Text:  string(buf),
		Start: openStart,
		End:   token.Position{Line: line, Column: col},
	}, nil
}

// consumeQuoted reads the remainder of a quoted literal whose opening
// quote byte has already been consumed, honoring backslash escapes, so
// its contents are never mistaken for brace nesting.
func (s *Scanner) consumeQuoted(quote byte) ([]byte, error) {
	var buf []byte
	for s.scanner.TC < len(s.source) {
		c := s.source[s.scanner.TC]
		s.scanner.TC++
		buf = append(buf, c)
		if c == '\\' && s.scanner.TC < len(s.source) {
			buf = append(buf, s.source[s.scanner.TC])
			s.scanner.TC++
			continue
		}
		if c == quote {
			return buf, nil
		}
	}
	return buf, fmt.Errorf("unterminated string literal")
}
