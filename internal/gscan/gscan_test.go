package gscan

import (
	"testing"

	"github.com/btouchard/pegc/internal/token"
)

func collect(t *testing.T, source string, n int) []token.Token {
	t.Helper()
	s, err := New(source)
	if err != nil {
		t.Fatalf("unexpected error building scanner: %v", err)
	}
	toks := make([]token.Token, 0, n)
	for i := 0; i < n; i++ {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("unexpected error at token %d: %v", i, err)
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestTokenizesNameOperatorAndTrailingNewline(t *testing.T) {
	toks := collect(t, "start: NAME\n", 4)
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.NAME, "start"},
		{token.OP, ":"},
		{token.NAME, "NAME"},
		{token.NEWLINE, "\n"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d: got %+v, want kind=%s text=%q", i, toks[i], w.kind, w.text)
		}
	}
}

func TestBlankLineYieldsInsignificantNL(t *testing.T) {
	toks := collect(t, "\n\n", 2)
	if toks[0].Kind != token.NL || toks[1].Kind != token.NL {
		t.Fatalf("expected two NL tokens for blank lines, got %+v", toks)
	}
}

func TestCommentOnlyLineYieldsNL(t *testing.T) {
	toks := collect(t, "# hello\n", 2)
	if toks[0].Kind != token.COMMENT || toks[0].Text != "# hello" {
		t.Fatalf("expected a comment token, got %+v", toks[0])
	}
	if toks[1].Kind != token.NL {
		t.Fatalf("expected a comment-only line's newline to be insignificant, got %+v", toks[1])
	}
}

func TestContentThenCommentStillYieldsNewline(t *testing.T) {
	toks := collect(t, "rule # trailing\n", 3)
	if toks[0].Kind != token.NAME {
		t.Fatalf("expected a NAME token first, got %+v", toks[0])
	}
	if toks[1].Kind != token.COMMENT {
		t.Fatalf("expected a comment token second, got %+v", toks[1])
	}
	if toks[2].Kind != token.NEWLINE {
		t.Fatalf("expected the line's newline to stay significant because of the earlier NAME, got %+v", toks[2])
	}
}

func TestStringAndOperatorTokens(t *testing.T) {
	toks := collect(t, "'hi' | (x)\n", 6)
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.STRING, "'hi'"},
		{token.OP, "|"},
		{token.OP, "("},
		{token.NAME, "x"},
		{token.OP, ")"},
		{token.NEWLINE, "\n"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d: got %+v, want kind=%s text=%q", i, toks[i], w.kind, w.text)
		}
	}
}

func TestCurlyStuffCapturesRawActionText(t *testing.T) {
	toks := collect(t, "rule: a { int(a.Text) + 1 }\n", 5)
	if toks[0].Kind != token.NAME || toks[1].Kind != token.OP || toks[2].Kind != token.NAME {
		t.Fatalf("unexpected prefix tokens: %+v %+v %+v", toks[0], toks[1], toks[2])
	}
	if toks[3].Kind != token.CURLYSTUFF {
		t.Fatalf("expected a CURLY_STUFF token, got %+v", toks[3])
	}
	want := "{ int(a.Text) + 1 }"
	if toks[3].Text != want {
		t.Fatalf("expected action text %q, got %q", want, toks[3].Text)
	}
	if toks[4].Kind != token.NEWLINE {
		t.Fatalf("expected trailing NEWLINE after the action, got %+v", toks[4])
	}
}

func TestCurlyStuffIgnoresBracesInsideStrings(t *testing.T) {
	toks := collect(t, `rule: a { fmt.Sprintf("{%s}", a.Text) }`+"\n", 4)
	if toks[3].Kind != token.CURLYSTUFF {
		t.Fatalf("expected a CURLY_STUFF token, got %+v", toks[3])
	}
	want := `{ fmt.Sprintf("{%s}", a.Text) }`
	if toks[3].Text != want {
		t.Fatalf("expected action text %q, got %q", want, toks[3].Text)
	}
}

func TestCurlyStuffUnbalancedIsError(t *testing.T) {
	s, err := New("a { int(a.Text)\n")
	if err != nil {
		t.Fatalf("unexpected error building scanner: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("unexpected error on NAME: %v", err)
	}
	if _, err := s.Next(); err == nil {
		t.Fatalf("expected an unbalanced-braces error")
	}
}

func TestEOFRepeatsForever(t *testing.T) {
	s, err := New("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := s.Next()
	if err != nil || first.Kind != token.NAME {
		t.Fatalf("expected a NAME token first, got %+v, %v", first, err)
	}
	for i := 0; i < 3; i++ {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("unexpected error on EOF repeat %d: %v", i, err)
		}
		if tok.Kind != token.EOF {
			t.Fatalf("expected repeated EOF tokens once input is exhausted, got %+v", tok)
		}
	}
}
