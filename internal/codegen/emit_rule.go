package codegen

import (
	"fmt"
	"strings"

	"github.com/btouchard/pegc/internal/ast"
)

func isLoopRule(name string) bool {
	return strings.HasPrefix(name, ast.LoopPrefix)
}

// emitRule writes one generated method to out, following §4.5 in order:
// step 1 decides Memoize vs MemoizeLeftRec, step 2 inlines a trivial
// single-alt/single-item/Group wrapper, then the rule's alternatives (or
// its loop body) are emitted in turn.
func (g *Generator) emitRule(out *strings.Builder, rule *ast.Rule) {
	if !rule.Analyzed() {
		rule.MarkAnalyzed(ast.IsRecursive(rule.Alts, rule.Name))
	}
	recursive := rule.Recursive
	effective := rule.Alts
	if !isLoopRule(rule.Name) {
		effective = inlineTrivialGroup(effective)
	}

	ctx := &ruleCtx{name: rule.Name, recursive: recursive}

	if isLoopRule(rule.Name) {
		fmt.Fprintf(out, "// %s is a synthesized repetition helper: it always matches,\n", rule.Name)
		out.WriteString("// possibly zero times, and never itself fails.\n")
		fmt.Fprintf(out, "func (p *%s) %s() []interface{} {\n", ClassName, rule.Name)
		fmt.Fprintf(out, "\tv, _ := runtime.Memoize(p.BaseParser, p.cache_%s, func() (interface{}, bool) {\n", rule.Name)
		g.emitLoopBody(out, effective, ctx)
		out.WriteString("\t})\n")
		out.WriteString("\treturn v.([]interface{})\n")
		out.WriteString("}\n\n")
		return
	}

	fmt.Fprintf(out, "func (p *%s) %s() (interface{}, bool) {\n", ClassName, rule.Name)
	memoizer := "runtime.Memoize"
	if recursive {
		memoizer = "runtime.MemoizeLeftRec"
	}
	fmt.Fprintf(out, "\treturn %s(p.BaseParser, p.cache_%s, func() (interface{}, bool) {\n", memoizer, rule.Name)
	out.WriteString("\t\tm := p.Cursor.Mark()\n")

	for _, alt := range effective.Alts {
		// each alternative gets its own block scope: sibling
		// alternatives often reuse the same default binding names
		// (two string literals both default to "literal", say), and
		// without a fresh scope a second `:=` would redeclare nothing
		// new and fail to compile.
		out.WriteString("\t\t{\n")
		for _, line := range g.emitAlt(alt, ctx) {
			out.WriteString("\t\t\t" + line + "\n")
		}
		out.WriteString("\t\t}\n")
		out.WriteString("\t\tp.Cursor.Reset(m)\n")
	}
	out.WriteString("\t\treturn nil, false\n")

	out.WriteString("\t})\n")
	out.WriteString("}\n\n")
}

// inlineTrivialGroup implements §4.5 step 2: a non-loop rule whose
// entire right-hand side is one action-less Alt holding one NamedItem
// that wraps a Group is replaced by that group's own Alts. The item's
// binding name, if it has one, is not checked and is dropped.
func inlineTrivialGroup(alts *ast.Alts) *ast.Alts {
	if len(alts.Alts) != 1 || alts.Alts[0].Action != "" {
		return alts
	}
	items := alts.Alts[0].Items
	if len(items) != 1 {
		return alts
	}
	grp, ok := items[0].Item.(*ast.Group)
	if !ok {
		return alts
	}
	return grp.Alts
}

// emitLoopBody renders a _loop_N helper's body: a greedy-match loop over
// its single wrapped item (a multi-item Group there is itself called
// through a synthesized _tmp_N helper), accumulating matches until the
// item fails to match, then returning whatever was gathered
// (possibly nothing — a loop rule itself never fails; Repeat0/Repeat1
// call sites decide what an empty result means, per §4.5).
func (g *Generator) emitLoopBody(out *strings.Builder, alts *ast.Alts, ctx *ruleCtx) {
	item := alts.Alts[0].Items[0].Item
	out.WriteString("\t\tvar acc []interface{}\n")
	out.WriteString("\t\tfor {\n")
	out.WriteString("\t\t\titerMark := p.Cursor.Mark()\n")

	namer := newAltNamer()
	frag := g.itemSynthesis(namer, item, false, ctx)
	for _, s := range frag.Stmts {
		out.WriteString("\t\t\t" + s + "\n")
	}
	test := frag.Test
	if test == "" {
		// an inner item that cannot fail (an Opt or Repeat0, as in
		// `(x?)*`) would otherwise never end the loop: stop on the first
		// iteration that consumes no tokens.
		test = "(p.Cursor.Mark() != iterMark)"
	}
	fmt.Fprintf(out, "\t\t\tif !%s {\n", test)
	out.WriteString("\t\t\t\tp.Cursor.Reset(iterMark)\n")
	out.WriteString("\t\t\t\tbreak\n")
	out.WriteString("\t\t\t}\n")
	fmt.Fprintf(out, "\t\t\tacc = append(acc, %s)\n", frag.Name)
	out.WriteString("\t\t}\n")
	out.WriteString("\t\treturn acc, true\n")
}
