package genie

import (
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// ProcValue is the runtime representation of a user routine-text PROC
// value (§4.5): a body closed over its defining range's frame. It
// lives behind a Reference to a one-byte heap placeholder purely so it
// gets a handle identity; ProcValue itself is held in Engine.procs, not
// in heap bytes, since a *tree.Node cannot be serialised into the byte
// heap. Native standenv procedures (§4.7 "flagged STANDENV-PROCEDURE")
// are dispatched directly by name through Engine.Standenv and never
// allocate a ProcValue.
type ProcValue struct {
	Body        *tree.Node
	Params      []*tree.Tag
	StaticBase  int
	StaticLevel int
}

// execRoutineText builds a PROC value closing over the current frame
// and allocates its heap placeholder (§4.5 Routine texts).
func (e *Engine) execRoutineText(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) == 0 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("routine text has no body"))
	}
	pv := &ProcValue{Body: kids[len(kids)-1]}
	if n.SymbolTable != nil {
		pv.Params = n.SymbolTable.Tags
	}
	if cur := e.Frames.Current(); cur != nil {
		pv.StaticBase = cur.Base
		pv.StaticLevel = cur.Level
	} else {
		pv.StaticBase = -1
	}
	id, err := e.Heap.Alloc(1, n.Mode)
	if err != nil {
		return value.StackValue{}, fatal("HEAP-EXHAUSTED", n, err)
	}
	e.procs[id] = pv
	return value.RefValue(value.Reference{Segment: value.SegmentHeap, Handle: id, Level: -1}), nil
}

