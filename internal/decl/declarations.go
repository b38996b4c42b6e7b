package decl

import "github.com/genie68/a68run/internal/tree"

// DeclareOperator records an operator or brief-operator declaration's
// tag in the given symbol table (§4.7 "Operator & priority
// declarations: record in the symbol table"). The parser/mode-checker
// has already verified every dyadic operator has a priority
// declaration and that operand firmness is legal; this package trusts
// that and only performs the bookkeeping.
func DeclareOperator(st *tree.SymbolTable, name string, priority int, defining *tree.Node) *tree.Tag {
	tag := &tree.Tag{Name: name, Kind: tree.TagOperator, Defining: defining, Priority: priority}
	st.Declare(tag)
	return tag
}

// DeclarePriority records a priority declaration.
func DeclarePriority(st *tree.SymbolTable, name string, priority int) *tree.Tag {
	tag := &tree.Tag{Name: name, Kind: tree.TagPriority, Priority: priority}
	st.Declare(tag)
	return tag
}
