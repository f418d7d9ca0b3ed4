package metaparser

import (
	"testing"

	"github.com/btouchard/pegc/internal/ast"
	"github.com/btouchard/pegc/internal/perrors"
)

// TestTrivialRule covers spec scenario S1: a grammar with one rule and
// two unnamed leaf items.
func TestTrivialRule(t *testing.T) {
	rules, err := ParseFile("start: NAME ENDMARKER\n", "s1.peg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "start" {
		t.Fatalf("got %+v", rules)
	}
	alts := rules[0].Alts
	if len(alts.Alts) != 1 || len(alts.Alts[0].Items) != 2 {
		t.Fatalf("expected one alternative with two items, got %+v", alts)
	}
	first, ok := alts.Alts[0].Items[0].Item.(*ast.NameLeaf)
	if !ok || first.Name != "NAME" {
		t.Fatalf("expected first item NameLeaf(NAME), got %+v", alts.Alts[0].Items[0].Item)
	}
	second, ok := alts.Alts[0].Items[1].Item.(*ast.NameLeaf)
	if !ok || second.Name != "ENDMARKER" {
		t.Fatalf("expected second item NameLeaf(ENDMARKER), got %+v", alts.Alts[0].Items[1].Item)
	}
}

// TestAlternationOrder covers spec scenario S2: both alternatives parse,
// in declaration order, regardless of which would match more input.
func TestAlternationOrder(t *testing.T) {
	rules, err := ParseFile("start: 'a' 'b' | 'a'\n", "s2.peg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alts := rules[0].Alts.Alts
	if len(alts) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(alts))
	}
	if len(alts[0].Items) != 2 || len(alts[1].Items) != 1 {
		t.Fatalf("expected shapes [2 items, 1 item], got [%d items, %d items]", len(alts[0].Items), len(alts[1].Items))
	}
}

// TestOptionalAndRepetition covers spec scenario S4: a Repeat0 wrapping
// a Group.
func TestOptionalAndRepetition(t *testing.T) {
	rules, err := ParseFile("list: NUMBER (',' NUMBER)*\n", "s4.peg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := rules[0].Alts.Alts[0].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if _, ok := items[0].Item.(*ast.NameLeaf); !ok {
		t.Fatalf("expected first item to be a NameLeaf, got %T", items[0].Item)
	}
	rep, ok := items[1].Item.(*ast.Repeat0)
	if !ok {
		t.Fatalf("expected second item to be a Repeat0, got %T", items[1].Item)
	}
	if _, ok := rep.Inner.(*ast.Group); !ok {
		t.Fatalf("expected Repeat0 to wrap a Group, got %T", rep.Inner)
	}
}

// TestSemanticAction covers spec scenario S5: named bindings and a
// verbatim action payload.
func TestSemanticAction(t *testing.T) {
	const action = "{ int(a.Text) + int(b.Text) }"
	rules, err := ParseFile("sum: a=NUMBER '+' b=NUMBER "+action+"\n", "s5.peg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alt := rules[0].Alts.Alts[0]
	if len(alt.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(alt.Items))
	}
	if alt.Items[0].Name != "a" || alt.Items[2].Name != "b" {
		t.Fatalf("expected bindings a and b, got %q and %q", alt.Items[0].Name, alt.Items[2].Name)
	}
	if alt.Action != action {
		t.Fatalf("expected action %q, got %q", action, alt.Action)
	}
}

// TestSemanticActionWithStringLiteral covers an action whose raw body
// contains a brace inside a quoted string, which must not be mistaken
// for the action's own closing brace.
func TestSemanticActionWithStringLiteral(t *testing.T) {
	const action = `{ fmt.Sprintf("{%s}", a.Text) }`
	rules, err := ParseFile("wrap: a=NAME "+action+"\n", "s5b.peg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alt := rules[0].Alts.Alts[0]
	if alt.Action != action {
		t.Fatalf("expected action %q, got %q", action, alt.Action)
	}
}

// TestSyntaxErrorReporting covers the furthest-token diagnostic (§7):
// a malformed grammar file reports the exact token it gave up at.
func TestSyntaxErrorReporting(t *testing.T) {
	_, err := ParseFile("start: NAME\nbroken\n", "bad.peg")
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	syn, ok := err.(*perrors.SyntaxError)
	if !ok {
		t.Fatalf("expected *perrors.SyntaxError, got %T (%v)", err, err)
	}
	if syn.Pos.File != "bad.peg" {
		t.Fatalf("expected filename to be threaded through, got %q", syn.Pos.File)
	}
	if syn.Pos.Line != 2 {
		t.Fatalf("expected the error to land on the second line, got line %d", syn.Pos.Line)
	}
}

func TestDuplicateRuleNameRejected(t *testing.T) {
	_, err := ParseFile("a: NAME\na: NUMBER\n", "dup.peg")
	if err == nil {
		t.Fatalf("expected duplicate rule name to be rejected")
	}
}

func TestReservedPrefixRejected(t *testing.T) {
	_, err := ParseFile("_tmp_1: NAME\n", "reserved.peg")
	if err == nil {
		t.Fatalf("expected reserved-prefix rule name to be rejected")
	}
}
