package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btouchard/pegc/internal/ast"
)

// ruleCtx carries the information item synthesis needs about the rule
// currently being emitted: its own name (for detecting the
// left-recursive first-position self-reference) and whether §4.5 step 1
// found it recursive.
type ruleCtx struct {
	name      string
	recursive bool
}

// itemSynthesis turns one grammar Item into Go statements plus a
// binding name and optional success test, per the §4.5 call-synthesis
// table. isFirst marks the first item of its alternative — the only
// position where a left-recursive rule's self-reference must read its
// own growing cache entry (runtime.CachedSelf) instead of recursing
// through the rule method.
func (g *Generator) itemSynthesis(namer *altNamer, it ast.Item, isFirst bool, ctx *ruleCtx) fragment {
	switch v := it.(type) {
	case *ast.NameLeaf:
		return g.nameLeafFragment(namer, v, isFirst, ctx)

	case *ast.StringLeaf:
		name := namer.allocate(defaultItemName(v))
		// v.Literal keeps its original quote characters (§4.3 STRING
		// token text); runtime.Expect strips them itself, so it must
		// receive them as part of the Go string value, not as Go
		// source-level quoting.
		return fragment{
			Name:  name,
			Stmts: []string{fmt.Sprintf("%s, %sOk := p.Expect(%s)", name, name, strconv.Quote(v.Literal))},
			Test:  name + "Ok",
		}

	case *ast.Group:
		return g.altsAsItem(namer, v.Alts, isFirst, ctx)

	case *ast.Opt:
		inner := g.itemSynthesis(namer, v.Inner, false, ctx)
		name := namer.allocate("opt")
		var stmts []string
		if inner.Test == "" {
			// inner cannot fail either: just run it and rename its result.
			stmts = append(stmts, inner.Stmts...)
			stmts = append(stmts, fmt.Sprintf("%s := %s", name, inner.Name))
		} else {
			stmts = append(stmts, inner.Stmts...)
			stmts = append(stmts,
				fmt.Sprintf("var %s interface{}", name),
				fmt.Sprintf("if %s {", inner.Test),
				fmt.Sprintf("\t%s = %s", name, inner.Name),
				"}",
			)
		}
		return fragment{Name: name, Stmts: stmts, Test: ""}

	case *ast.Repeat0:
		loopName := g.nameLoop(v.Inner)
		name := namer.allocate("rep")
		return fragment{
			Name:  name,
			Stmts: []string{fmt.Sprintf("%s := p.%s()", name, loopName)},
			Test:  "",
		}

	case *ast.Repeat1:
		loopName := g.nameLoop(v.Inner)
		name := namer.allocate("rep")
		return fragment{
			Name: name,
			Stmts: []string{
				fmt.Sprintf("%s := p.%s()", name, loopName),
				fmt.Sprintf("%sOk := len(%s) > 0", name, name),
			},
			Test: name + "Ok",
		}

	default:
		panic(fmt.Sprintf("codegen: unhandled item type %T", it))
	}
}

func (g *Generator) nameLeafFragment(namer *altNamer, v *ast.NameLeaf, isFirst bool, ctx *ruleCtx) fragment {
	name := namer.allocate(defaultItemName(v))

	switch v.Name {
	case "NAME", "NUMBER", "STRING", "CURLY_STUFF":
		method := exportedTerminal(v.Name)
		return fragment{
			Name:  name,
			Stmts: []string{fmt.Sprintf("%s, %sOk := p.%s()", name, name, method)},
			Test:  name + "Ok",
		}

	case "NEWLINE", "DEDENT", "INDENT", "ENDMARKER":
		return fragment{
			Name:  name,
			Stmts: []string{fmt.Sprintf("%s, %sOk := p.Expect(%q)", name, name, v.Name)},
			Test:  name + "Ok",
		}

	default:
		if isFirst && ctx.recursive && v.Name == ctx.name {
			return fragment{
				Name: name,
				Stmts: []string{
					fmt.Sprintf("%s, %sOk := runtime.CachedSelf(p.BaseParser, p.cache_%s)", name, name, ctx.name),
				},
				Test: name + "Ok",
			}
		}
		return fragment{
			Name:  name,
			Stmts: []string{fmt.Sprintf("%s, %sOk := p.%s()", name, name, v.Name)},
			Test:  name + "Ok",
		}
	}
}

func exportedTerminal(name string) string {
	switch name {
	case "NAME":
		return "Name"
	case "NUMBER":
		return "Number"
	case "STRING":
		return "String"
	case "CURLY_STUFF":
		return "CurlyStuff"
	default:
		return strings.Title(strings.ToLower(name)) //nolint:staticcheck
	}
}

// altsAsItem implements the "Group/single-alt Alts delegate, otherwise
// synthesize a _tmp_N helper" half of the §4.5 table. It is also the
// entry point used by rule emission to process a Group used as an item.
func (g *Generator) altsAsItem(namer *altNamer, alts *ast.Alts, isFirst bool, ctx *ruleCtx) fragment {
	if len(alts.Alts) == 1 && len(alts.Alts[0].Items) == 1 && alts.Alts[0].Action == "" {
		return g.itemSynthesis(namer, alts.Alts[0].Items[0].Item, isFirst, ctx)
	}
	helperName := g.nameNode(alts)
	name := namer.allocate("group")
	return fragment{
		Name:  name,
		Stmts: []string{fmt.Sprintf("%s, %sOk := p.%s()", name, name, helperName)},
		Test:  name + "Ok",
	}
}
