package genie

import (
	"math"

	"github.com/genie68/a68run/internal/tree"
)

// LoopSpec is the evaluated loop header (§4.5 LOOP-CLAUSE, §8 property
// 7): FROM/BY/TO are evaluated exactly once before the first
// iteration, as the Report requires, while WHILE is re-evaluated every
// iteration and so is kept as a node rather than a value.
//
// A LOOP-CLAUSE node carries its header as up to five fixed-position
// children — From, By, To, While, Body — with nil standing in for any
// omitted part (mirroring execConditional's optional kids[2] ELSE
// branch). The loop counter, when a FOR part is present, is the first
// tag of the clause's own symbol table.
type LoopSpec struct {
	From, By, To  int64
	HasFor        bool
	OverflowGuard bool
	While         *tree.Node
	Body          *tree.Node
}

// LoopSpecOf evaluates n's FROM/BY/TO children into a LoopSpec. A bare
// "DO unit OD" or "WHILE cond DO unit OD" with no FROM/BY/TO runs
// until a jump escapes it or, for WHILE, until the condition fails;
// this is modelled as an effectively unbounded TO.
func (e *Engine) LoopSpecOf(n *tree.Node) (LoopSpec, error) {
	kids := n.Children()
	get := func(i int) *tree.Node {
		if i < len(kids) {
			return kids[i]
		}
		return nil
	}
	fromNode, byNode, toNode, whileNode, body := get(0), get(1), get(2), get(3), get(4)

	spec := LoopSpec{From: 1, By: 1, To: math.MaxInt64, While: whileNode, Body: body}

	if fromNode != nil {
		v, err := e.ExecuteUnit(fromNode)
		if err != nil {
			return LoopSpec{}, err
		}
		spec.From = v.Cell.AsInt()
	}
	if byNode != nil {
		v, err := e.ExecuteUnit(byNode)
		if err != nil {
			return LoopSpec{}, err
		}
		spec.By = v.Cell.AsInt()
	}
	if toNode != nil {
		v, err := e.ExecuteUnit(toNode)
		if err != nil {
			return LoopSpec{}, err
		}
		spec.To = v.Cell.AsInt()
		spec.OverflowGuard = true
	}
	if n.SymbolTable != nil && len(n.SymbolTable.Tags) > 0 {
		spec.HasFor = true
	}
	return spec, nil
}
