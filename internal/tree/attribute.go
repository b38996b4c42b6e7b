// Package tree defines the shape of the decorated syntax tree the genie
// executes. The lexer, parser, mode-checker and coercion pass that
// produce this tree are external collaborators; this package only
// specifies the contract a fully decorated node must satisfy.
package tree

// Attribute tags the syntactic kind of a node. The vocabulary follows
// the Revised Report's grammar productions, restyled as Go constants.
type Attribute int

const (
	Unknown Attribute = iota
	UnitAttr
	Tertiary
	Secondary
	Primary
	Assignation
	IdentityRelation
	AndFunction
	OrFunction
	RoutineText
	Skip
	Jump
	Assertion
	Call
	Slice
	Selection
	Cast
	FormatText
	Denoter
	Identifier
	Nihil
	Generator
	Formula
	MonadicFormula
	SerialClause
	EnquiryClause
	CollateralClause
	ConditionalClause
	IntegerCaseClause
	UnitedCaseClause
	LoopClause
	ClosedClause
	ParallelClause
	CodeClause
	IdentityDeclaration
	VariableDeclaration
	ProcedureDeclaration
	ProcedureVariableDeclaration
	OperatorDeclaration
	BriefOperatorDeclaration
	PriorityDeclaration
	ModeDeclaration
	DeclarationList
	LabeledUnit
	SpecifiedUnit
)

var attributeNames = map[Attribute]string{
	Unknown:                       "UNKNOWN",
	UnitAttr:                      "UNIT",
	Tertiary:                      "TERTIARY",
	Secondary:                     "SECONDARY",
	Primary:                       "PRIMARY",
	Assignation:                   "ASSIGNATION",
	IdentityRelation:              "IDENTITY-RELATION",
	AndFunction:                   "AND-FUNCTION",
	OrFunction:                    "OR-FUNCTION",
	RoutineText:                   "ROUTINE-TEXT",
	Skip:                          "SKIP",
	Jump:                          "JUMP",
	Assertion:                     "ASSERTION",
	Call:                          "CALL",
	Slice:                         "SLICE",
	Selection:                     "SELECTION",
	Cast:                          "CAST",
	FormatText:                    "FORMAT-TEXT",
	Denoter:                       "DENOTER",
	Identifier:                    "IDENTIFIER",
	Nihil:                         "NIHIL",
	Generator:                     "GENERATOR",
	Formula:                       "FORMULA",
	MonadicFormula:                "MONADIC-FORMULA",
	SerialClause:                  "SERIAL-CLAUSE",
	EnquiryClause:                 "ENQUIRY-CLAUSE",
	CollateralClause:              "COLLATERAL-CLAUSE",
	ConditionalClause:             "CONDITIONAL-CLAUSE",
	IntegerCaseClause:             "INTEGER-CASE-CLAUSE",
	UnitedCaseClause:              "UNITED-CASE-CLAUSE",
	LoopClause:                    "LOOP-CLAUSE",
	ClosedClause:                  "CLOSED-CLAUSE",
	ParallelClause:                "PARALLEL-CLAUSE",
	CodeClause:                    "CODE-CLAUSE",
	IdentityDeclaration:           "IDENTITY-DECLARATION",
	VariableDeclaration:           "VARIABLE-DECLARATION",
	ProcedureDeclaration:          "PROCEDURE-DECLARATION",
	ProcedureVariableDeclaration:  "PROCEDURE-VARIABLE-DECLARATION",
	OperatorDeclaration:           "OPERATOR-DECLARATION",
	BriefOperatorDeclaration:      "BRIEF-OPERATOR-DECLARATION",
	PriorityDeclaration:           "PRIORITY-DECLARATION",
	ModeDeclaration:               "MODE-DECLARATION",
	DeclarationList:               "DECLARATION-LIST",
	LabeledUnit:                   "LABELED-UNIT",
	SpecifiedUnit:                 "SPECIFIED-UNIT",
}

func (a Attribute) String() string {
	if s, ok := attributeNames[a]; ok {
		return s
	}
	return "ATTRIBUTE(?)"
}
