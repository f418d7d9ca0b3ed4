package codegen

// fragment is the Go-statement-level result of synthesizing one item's
// match attempt. Stmts runs unconditionally (it may itself move the
// cursor); Test, if non-empty, is a boolean expression that must hold
// before any later item in the same alternative is attempted.
type fragment struct {
	Name  string
	Stmts []string
	Test  string
}
