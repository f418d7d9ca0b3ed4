package codegen

import (
	"fmt"
	"strings"

	"github.com/btouchard/pegc/internal/ast"
)

func prologue() string {
	return `// Code generated by pegc. DO NOT EDIT.

package generated

import (
	"github.com/btouchard/pegc/internal/cursor"
	"github.com/btouchard/pegc/internal/runtime"
	"github.com/btouchard/pegc/internal/token"
)

`
}

// constructor emits New<ClassName>, which allocates one cache per rule
// (including every synthesized helper) and always registers each
// cache's clear hook; the hooks run only when the clear-on-terminal
// option is enabled, keeping the rule caches in lockstep with the
// terminal cache (§5).
func constructor(rules []*ast.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "func New%s(producer token.Producer) *%s {\n", ClassName, ClassName)
	fmt.Fprintf(&b, "\tp := &%s{\n\t\tBaseParser: runtime.NewBaseParser(producer),\n", ClassName)
	for _, r := range rules {
		fmt.Fprintf(&b, "\t\tcache_%s: make(map[cursor.Mark]runtime.CacheEntry[interface{}]),\n", r.Name)
	}
	b.WriteString("\t}\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "\tp.RegisterRuleCache(func() { p.cache_%s = make(map[cursor.Mark]runtime.CacheEntry[interface{}]) })\n", r.Name)
	}
	b.WriteString("\treturn p\n}\n\n")
	return b.String()
}

// epilogue emits the driver entry point a generated parser exposes: a
// package-level Parse function running the grammar's first declared rule (the start
// symbol, by the spec's §2 convention) to completion.
func epilogue(rules []*ast.Rule) string {
	if len(rules) == 0 {
		return ""
	}
	start := rules[0].Name
	var b strings.Builder
	fmt.Fprintf(&b, "// Parse runs the grammar's start rule (%s) over producer.\n", start)
	fmt.Fprintf(&b, "func Parse(producer token.Producer) (interface{}, bool) {\n")
	fmt.Fprintf(&b, "\tp := New%s(producer)\n", ClassName)
	fmt.Fprintf(&b, "\treturn p.%s()\n", start)
	b.WriteString("}\n")
	return b.String()
}
