package genie

import (
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// execCall implements procedure call (§4.5): arguments are evaluated
// left to right (§5 Ordering), then dispatched either to a native
// standenv procedure (looked up by the callee identifier's name,
// bypassing the heap entirely) or to a user routine-text body closed
// over its defining frame.
func (e *Engine) execCall(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) == 0 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("call has no callee"))
	}
	callee := kids[0]
	argNodes := kids[1:]

	if callee.Attribute == tree.Identifier {
		if fn, ok := e.Standenv[callee.Symbol]; ok {
			args, err := e.evalArgs(argNodes)
			if err != nil {
				return value.StackValue{}, err
			}
			return fn(e, args)
		}
	}

	calleeVal, err := e.ExecuteUnit(callee)
	if err != nil {
		return value.StackValue{}, err
	}
	if !calleeVal.IsRef || calleeVal.Ref.IsNil() {
		return value.StackValue{}, fatal("NIL-ACCESS", n, errString("call through NIL or non-name PROC value"))
	}
	pv, ok := e.procs[calleeVal.Ref.Handle]
	if !ok {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("call target is not a known procedure"))
	}
	args, err := e.evalArgs(argNodes)
	if err != nil {
		return value.StackValue{}, err
	}
	return e.callProc(n, pv, args)
}

func (e *Engine) evalArgs(argNodes []*tree.Node) ([]value.StackValue, error) {
	args := make([]value.StackValue, 0, len(argNodes))
	for _, a := range argNodes {
		v, err := e.ExecuteUnit(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// callProc opens a frame for pv's body, statically linked to pv's
// defining frame rather than the caller's (§4.5 "static link captured
// at routine-text elaboration time, not at call time" — the defining
// property of lexical, as opposed to dynamic, scoping), binds
// parameters in declaration order, and runs the body.
func (e *Engine) callProc(call *tree.Node, pv *ProcValue, args []value.StackValue) (value.StackValue, error) {
	if pv.Body == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", call, errString("procedure has no body"))
	}
	st := pv.Body.SymbolTable
	frameSize := 0
	var labels []string
	if st != nil {
		frameSize = st.FrameSize
		labels = st.Labels
	}
	f, err := e.Frames.OpenFrame(pv.Body, st, frameSize, true, pv.StaticBase, labels)
	if err != nil {
		return value.StackValue{}, fatal("STACK-OVERFLOW", call, err)
	}
	defer e.closeIfCurrent(f)

	frameBytes := e.Regions.Frame.Bytes()
	for i, param := range pv.Params {
		if i >= len(args) {
			break
		}
		at := f.Base + param.FrameOffset
		e.storeParam(frameBytes, at, param.Mode, args[i])
	}
	return e.ExecuteUnit(pv.Body)
}

func (e *Engine) storeParam(frameBytes []byte, at int, mode *value.Mode, v value.StackValue) {
	if mode != nil && (mode.Kind == value.KindRef || mode.ReferenceShaped()) {
		value.PutReference(frameBytes, at, v.Ref)
		return
	}
	c := v.Cell
	if mode != nil {
		c.Mode = mode
	}
	c.Set(value.Initialised)
	value.PutCell(frameBytes, at, c)
}

// execSlice implements subscripted access to a ROW/FLEX ROW name,
// yielding a name sharing the same underlying element block (§4.4
// Slice).
func (e *Engine) execSlice(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) == 0 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("slice has no row operand"))
	}
	rowVal, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if !rowVal.IsRef {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("slice operand is not a name"))
	}
	subs := make([]int64, 0, len(kids)-1)
	for _, s := range kids[1:] {
		v, err := e.ExecuteUnit(s)
		if err != nil {
			return value.StackValue{}, err
		}
		subs = append(subs, v.Cell.AsInt())
	}
	ref, _, err := e.sliceRow(rowVal.Ref, subs)
	if err != nil {
		return value.StackValue{}, e.fatalFromStowedErr(n, err)
	}
	return value.RefValue(ref), nil
}

// execSelection implements STRUCT field access, yielding a name for
// the selected field sharing the struct's storage (§4.4).
func (e *Engine) execSelection(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) == 0 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("selection has no struct operand"))
	}
	structVal, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if !structVal.IsRef {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("selection operand is not a name"))
	}
	field := e.fieldOf(structVal.Ref, n.Symbol)
	if field == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("no such field "+n.Symbol))
	}
	fieldRef := value.Reference{
		Segment: structVal.Ref.Segment,
		Offset:  structVal.Ref.Offset + field.Offset,
		Handle:  structVal.Ref.Handle,
		Level:   structVal.Ref.Level,
	}
	return value.RefValue(fieldRef), nil
}

func (e *Engine) fieldOf(ref value.Reference, name string) *value.FieldDescriptor {
	var mode *value.Mode
	switch ref.Segment {
	case value.SegmentHeap:
		mode = e.Heap.HandleInfo(ref.Handle).Mode
	default:
		return nil
	}
	if mode == nil {
		return nil
	}
	for i, f := range mode.Fields {
		if f.Name == name {
			return &mode.Fields[i]
		}
	}
	return nil
}

func (e *Engine) sliceRow(ref value.Reference, subs []int64) (value.Reference, *value.Mode, error) {
	return stowed.Slice(e.Heap, ref, subs)
}

func (e *Engine) fatalFromStowedErr(n *tree.Node, err error) error {
	return fatal("INDEX-OUT-OF-BOUNDS", n, err)
}
