package codegen

import (
	"fmt"
	"strings"

	"github.com/btouchard/pegc/internal/ast"
)

// defaultItemName picks the unsuffixed binding name for an item per the
// §4.5 call-synthesis table, before the per-alternative dedup pass.
func defaultItemName(it ast.Item) string {
	switch v := it.(type) {
	case *ast.NameLeaf:
		switch v.Name {
		case "NAME", "NUMBER", "STRING", "CURLY_STUFF":
			return strings.ToLower(v.Name)
		case "NEWLINE", "DEDENT", "INDENT", "ENDMARKER":
			return strings.ToLower(v.Name)
		default:
			return v.Name
		}
	case *ast.StringLeaf:
		return "literal"
	case *ast.Group:
		return "group"
	case *ast.Opt:
		return "opt"
	case *ast.Repeat0, *ast.Repeat1:
		return "rep"
	default:
		return "item"
	}
}

// altNamer disambiguates binding names within a single alternative,
// suffixing repeats with _1, _2, ... against names already used in that
// same alternative (§4.5 "NamedItem binding-name de-duplication").
type altNamer struct {
	used map[string]int
}

func newAltNamer() *altNamer {
	return &altNamer{used: make(map[string]int)}
}

func (n *altNamer) allocate(base string) string {
	count := n.used[base]
	n.used[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, count)
}
