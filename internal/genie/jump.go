package genie

import "github.com/genie68/a68run/internal/tree"

// jumpSignal is returned as a normal Go error by execJump once
// frame.Engine.Jump has already unwound the logical frame/region
// stacks to the target frame (§4.5). It is not a "real" runtime error:
// every range handler between the jump site and the target frame
// checks for it and either resumes locally (if it owns the target
// frame) or propagates it unchanged.
type jumpSignal struct {
	label  string
	target *tree.Node
}

func (j *jumpSignal) Error() string { return "non-local jump to " + j.label }

func (j *jumpSignal) landingIn(children []*tree.Node) bool {
	return j.indexIn(children) >= 0
}

func (j *jumpSignal) indexIn(children []*tree.Node) int {
	for i, c := range children {
		if c == j.target {
			return i
		}
	}
	return -1
}

// execJump implements JUMP L: find the label's continuation, unwind the
// frame stack to it, restore the expression stack to the logical depth
// recorded when the continuation was marked, and hand back a jumpSignal
// for the enclosing range handlers to act on (§4.5).
func (e *Engine) execJump(n *tree.Node) error {
	label := n.Symbol
	cont, jerr := e.Frames.Jump(label)
	if jerr != nil {
		return fatal("INTERNAL-CONSISTENCY", n, jerr)
	}
	e.Expr.SetTop(cont.ExprTop)
	return &jumpSignal{label: label, target: cont.TargetUnit}
}
