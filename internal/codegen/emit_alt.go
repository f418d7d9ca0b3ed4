package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/btouchard/pegc/internal/ast"
)

// emitAlt renders one non-loop Alt as a sequence of statements ending,
// on success, in a return. Items that cannot fail (Opt, Repeat0) never
// open a nesting level; items that can (everything else) nest the rest
// of the alternative inside an `if` so that failure at any point falls
// straight through to the line after the whole block, where the caller
// resets the cursor and tries the next alternative.
func (g *Generator) emitAlt(alt *ast.Alt, ctx *ruleCtx) []string {
	namer := newAltNamer()
	var lines []string
	indent := 0
	openBraces := 0
	names := make([]string, 0, len(alt.Items))

	emit := func(s string) {
		lines = append(lines, strings.Repeat("\t", indent)+s)
	}

	for i, ni := range alt.Items {
		frag := g.itemSynthesis(namer, ni.Item, i == 0, ctx)
		if ni.Name != "" {
			frag.Name = renameBinding(namer, frag, ni.Name)
		}
		names = append(names, frag.Name)
		for _, s := range frag.Stmts {
			emit(s)
		}
		if frag.Test != "" {
			emit(fmt.Sprintf("if %s {", frag.Test))
			indent++
			openBraces++
		}
	}

	// An action may only reference some of the alternative's bindings
	// (or none), but every item is still := bound above; discard each
	// one explicitly so an action that ignores a binding doesn't leave
	// it declared and unused.
	if alt.Action != "" {
		for _, name := range names {
			emit(fmt.Sprintf("_ = %s", name))
		}
	}
	emit(successBody(alt.Action, names))
	for ; openBraces > 0; openBraces-- {
		indent--
		lines = append(lines, strings.Repeat("\t", indent)+"}")
	}
	return lines
}

// renameBinding substitutes an explicit "name = item" binding name for
// the item's default, still subject to the same per-alternative dedup.
// Because the item's Stmts were already generated against the default
// name, the simplest correct fix is a plain textual substitution of the
// whole-word default identifier.
func renameBinding(namer *altNamer, frag fragment, explicit string) string {
	name := namer.allocate(explicit)
	old := frag.Name
	for i, s := range frag.Stmts {
		frag.Stmts[i] = replaceIdent(s, old, name)
	}
	return name
}

func replaceIdent(s, old, new string) string {
	return regexp.MustCompile(`\b`+regexp.QuoteMeta(old)+`\b`).ReplaceAllString(s, new)
}

// successBody renders the return statement for a matched alternative:
// the action's raw code fragment if present (braces stripped, spec
// §4.3/§4.4 — it is opaque target-language text copied verbatim), else
// a default list literal of the alternative's bound names in order.
func successBody(action string, names []string) string {
	if action != "" {
		return fmt.Sprintf("return %s, true", stripAction(action))
	}
	if len(names) == 0 {
		return "return nil, true"
	}
	return fmt.Sprintf("return []interface{}{%s}, true", strings.Join(names, ", "))
}

func stripAction(action string) string {
	s := strings.TrimSpace(action)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	return strings.TrimSpace(s)
}

