// Package codegen walks the grammar AST (spec component C) and emits Go
// source for a recursive-descent, packrat-memoized parser (spec
// component E, §4.5). The worklist is an explicit FIFO queue drained to
// a done-set — as SPEC_FULL's §9 note on the generator worklist asks
// for — backed by github.com/emirpasic/gods rather than a hand-rolled
// slice-and-map pair.
package codegen

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/btouchard/pegc/internal/ast"
)

// ClassName is the stable, documented name of the generated parser type
// (spec §6).
const ClassName = "GeneratedParser"

// Generator turns a list of top-level rules into Go source for a
// packrat parser. Use New per generation; it is not reusable across
// generations (the worklist and helper counter are single-use).
type Generator struct {
	todo    *arraylist.List // FIFO queue of *ast.Rule awaiting emission
	queued  *hashset.Set    // rule names already pushed to todo or done
	done    []*ast.Rule     // emitted, in worklist-discovery order
	counter int
}

// New seeds the worklist with the grammar's top-level rules, in
// declaration order.
func New(rules []*ast.Rule) *Generator {
	g := &Generator{
		todo:   arraylist.New(),
		queued: hashset.New(),
	}
	for _, r := range rules {
		g.enqueue(r)
	}
	return g
}

func (g *Generator) enqueue(r *ast.Rule) {
	if g.queued.Contains(r.Name) {
		return
	}
	g.queued.Add(r.Name)
	g.todo.Add(r)
}

// nameNode allocates a _tmp_N helper rule wrapping alts and enqueues it
// (§4.5 "helper-rule synthesis"). Returns the helper's name.
func (g *Generator) nameNode(alts *ast.Alts) string {
	g.counter++
	name := fmt.Sprintf("%s%d", ast.TmpPrefix, g.counter)
	g.enqueue(&ast.Rule{Name: name, Alts: alts})
	return name
}

// nameLoop allocates a _loop_N helper rule whose body is a single Alt
// wrapping one Item, and enqueues it. The generator's per-rule logic,
// seeing the _loop_ prefix, emits a loop body instead of a standard one.
func (g *Generator) nameLoop(item ast.Item) string {
	g.counter++
	name := fmt.Sprintf("%s%d", ast.LoopPrefix, g.counter)
	alts := &ast.Alts{Alts: []*ast.Alt{{Items: []*ast.NamedItem{{Item: item}}}}}
	g.enqueue(&ast.Rule{Name: name, Alts: alts})
	return name
}

// Generate drains the worklist — emitting each rule's method and
// synthesizing new helper rules into the same queue as it goes — and
// returns complete, gofmt'd parser source, plus the total number of
// emitted rules and how many of those are generator-synthesized
// helpers (_tmp_/_loop_). Termination is guaranteed because every
// synthesized rule strictly reduces the structural depth of its
// right-hand side (§4.5).
func Generate(rules []*ast.Rule) (source string, ruleCount, helperCount int, err error) {
	g := New(rules)

	var body strings.Builder
	for !g.todo.Empty() {
		v, _ := g.todo.Get(0)
		g.todo.Remove(0)
		rule := v.(*ast.Rule)
		g.emitRule(&body, rule)
		g.done = append(g.done, rule)
	}

	var out strings.Builder
	out.WriteString(prologue())
	out.WriteString(fmt.Sprintf("type %s struct {\n\t*runtime.BaseParser\n\n", ClassName))
	for _, r := range g.done {
		out.WriteString(fmt.Sprintf("\tcache_%s map[cursor.Mark]runtime.CacheEntry[interface{}]\n", r.Name))
	}
	out.WriteString("}\n\n")
	out.WriteString(constructor(g.done))
	out.WriteString(body.String())
	out.WriteString(epilogue(g.done))

	for _, r := range g.done {
		ruleCount++
		if r.IsHelper() {
			helperCount++
		}
	}

	formatted, fmtErr := format.Source([]byte(out.String()))
	if fmtErr != nil {
		return out.String(), ruleCount, helperCount, fmt.Errorf("codegen: formatting generated source: %w", fmtErr)
	}
	return string(formatted), ruleCount, helperCount, nil
}
