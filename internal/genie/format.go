package genie

import (
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// FormatValue is the runtime representation of a FORMAT-TEXT value
// (§4.9/C10): the pattern tree plus the environ (the frame it closed
// over, for patterns that reference enclosing identifiers via dynamic
// replicators). Held in Engine.formats behind a heap placeholder for
// the same reason ProcValue is — a *tree.Node cannot live in heap
// bytes.
type FormatValue struct {
	Pattern     *tree.Node
	EnvironBase int
	EnvironLvl  int
}

// execFormatText builds a FORMAT value closing over the current frame
// (§4.9 "a FORMAT literal is itself a denotable value, carrying its
// pattern tree and an environ for $n(...)$-style dynamic replicator
// references"). Format interpretation itself (GetNextPattern, picture
// matching) lives in package formatted, driven by the unformatted/
// transput layer's standenv procedures (PRINTF, READF) rather than by
// the genie directly.
func (e *Engine) execFormatText(n *tree.Node) (value.StackValue, error) {
	fv := &FormatValue{Pattern: n}
	if cur := e.Frames.Current(); cur != nil {
		fv.EnvironBase = cur.Base
		fv.EnvironLvl = cur.Level
	} else {
		fv.EnvironBase = -1
	}
	id, err := e.Heap.Alloc(1, value.NewFormatMode())
	if err != nil {
		return value.StackValue{}, fatal("HEAP-EXHAUSTED", n, err)
	}
	e.formats[id] = fv
	return value.RefValue(value.Reference{Segment: value.SegmentHeap, Handle: id, Level: -1}), nil
}

// FormatOf resolves a FORMAT name's runtime record, for package
// formatted and the transput standenv procedures to drive pattern
// interpretation without this package depending on them.
func (e *Engine) FormatOf(ref value.Reference) (*FormatValue, bool) {
	fv, ok := e.formats[ref.Handle]
	return fv, ok
}
