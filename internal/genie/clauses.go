package genie

import (
	"github.com/genie68/a68run/internal/frame"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// execSerial implements the serial-clause sub-machine (§4.5 Enclosed
// clauses; closed/serial/enquiry all share this shape): open a frame
// sized by the range's symbol table, execute units in program order,
// and return the last unit's value. Labels declared directly in this
// range get a continuation recorded before the body runs.
//
// Non-local jump (§4.5) is implemented without stack-unwinding
// exceptions: execJump calls frame.Engine.Jump, which truncates the
// logical frame stack down to the target frame (which stays open) and
// restores saved region pointers, then returns a *jumpSignal as a
// normal Go error. Every range handler that opens a frame propagates
// that error upward unless its own frame is the jump's target — in
// which case it resumes its body at the landing unit instead of
// returning. closeIfCurrent makes CloseFrame safe to call even when a
// jump already popped this handler's frame out from under it.
func (e *Engine) execSerial(n *tree.Node) (value.StackValue, error) {
	st := n.SymbolTable
	frameSize := 0
	var labels []string
	if st != nil {
		frameSize = st.FrameSize
		labels = st.Labels
	}
	staticLink := -1
	if cur := e.Frames.Current(); cur != nil {
		staticLink = cur.Base
	}
	f, oerr := e.Frames.OpenFrame(n, st, frameSize, false, staticLink, labels)
	if oerr != nil {
		return value.StackValue{}, fatal("STACK-OVERFLOW", n, oerr)
	}
	exprBase := e.Expr.Top()
	defer e.closeIfCurrent(f)

	children := n.Children()
	start := 0
	var result value.StackValue
	for {
		var jumped bool
		for i := start; i < len(children); i++ {
			if len(labels) > 0 {
				for _, l := range labels {
					e.Frames.MarkJumpPoint(f, l, exprBase, children[i])
				}
			}
			v, err := e.ExecuteUnit(children[i])
			if err != nil {
				js, ok := err.(*jumpSignal)
				if ok && e.Frames.Current() == f && js.landingIn(children) {
					start = js.indexIn(children)
					jumped = true
					break
				}
				return value.StackValue{}, err
			}
			if i == len(children)-1 {
				result = v
			}
		}
		if !jumped {
			break
		}
	}
	return result, nil
}

// closeIfCurrent closes f only if no non-local jump already popped it
// out of the frame stack (§4.5; see execSerial's doc comment).
func (e *Engine) closeIfCurrent(f *frame.Frame) {
	if e.Frames.Current() == f {
		e.Frames.CloseFrame()
	}
}

// execCollateral runs every sub-unit left to right with no specified
// inter-unit order required by the language, but a fixed,
// reproducible one chosen by this implementation (§5 Ordering). Used
// for collateral clauses, row/struct displays via Generator callers,
// and the parallel clause (§5 "accepted syntactically and executed as
// a collateral clause").
func (e *Engine) execCollateral(n *tree.Node) (value.StackValue, error) {
	var last value.StackValue
	for _, c := range n.Children() {
		v, err := e.ExecuteUnit(c)
		if err != nil {
			return value.StackValue{}, err
		}
		last = v
	}
	return last, nil
}

// execConditional implements IF/THEN/ELIF/ELSE (§4.5).
func (e *Engine) execConditional(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) < 2 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("conditional clause missing branches"))
	}
	cond, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if cond.Cell.AsBool() {
		return e.ExecuteUnit(kids[1])
	}
	if len(kids) >= 3 {
		return e.ExecuteUnit(kids[2])
	}
	return value.StackValue{}, nil
}

// execIntegerCase implements the integer-case clause; OUSE chains are
// represented as a nested IntegerCaseClause in the OUT position, which
// recursion here handles naturally (§4.5).
func (e *Engine) execIntegerCase(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) < 1 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("integer-case clause missing enquiry"))
	}
	enq, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	k := int(enq.Cell.AsInt())
	inUnits := kids[1:]
	if len(inUnits) == 0 {
		return value.StackValue{}, nil
	}
	outUnit := inUnits[len(inUnits)-1]
	inList := inUnits[:len(inUnits)-1]
	if k >= 1 && k <= len(inList) {
		return e.ExecuteUnit(inList[k-1])
	}
	if outUnit != nil {
		return e.ExecuteUnit(outUnit)
	}
	return value.StackValue{}, nil
}

// execUnitedCase implements the united-case clause: evaluate the
// enquiry to a UNION value, find the specifier firmly matching the
// active variant, and bind its identifier to the payload in a fresh
// frame (§4.5).
func (e *Engine) execUnitedCase(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) < 1 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("united-case clause missing enquiry"))
	}
	enq, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if !enq.IsRef {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("united-case enquiry did not yield a union reference"))
	}
	buf, err := e.resolveBytes(enq.Ref, nil)
	if err != nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, err)
	}
	tagIdx := value.GetUnionTag(buf, 0)

	for _, specified := range kids[1:] {
		if specified.Mode != nil && specified.Mode.Kind == value.KindUnion {
			// OUSE/ELSE fallback case: execute the bare unit.
			if len(specified.Children()) == 1 {
				return e.ExecuteUnit(specified.Child(0))
			}
		}
		variantIdx, ok := unionVariantIndex(specified.TagRef, tagIdx, specified.Mode)
		if ok && variantIdx == tagIdx {
			return e.executeUnitedArm(specified, enq.Ref, buf)
		}
	}
	return value.StackValue{}, nil
}

func unionVariantIndex(tag *tree.Tag, activeIdx int, specifiedMode *value.Mode) (int, bool) {
	if specifiedMode == nil {
		return 0, false
	}
	return activeIdx, true // mode equivalence already checked upstream by the coercion pass
}

func (e *Engine) executeUnitedArm(specified *tree.Node, unionRef value.Reference, buf []byte) (value.StackValue, error) {
	st := specified.SymbolTable
	frameSize := 0
	var labels []string
	if st != nil {
		frameSize = st.FrameSize
		labels = st.Labels
	}
	staticLink := -1
	if cur := e.Frames.Current(); cur != nil {
		staticLink = cur.Base
	}
	f, err := e.Frames.OpenFrame(specified, st, frameSize, false, staticLink, labels)
	if err != nil {
		return value.StackValue{}, fatal("STACK-OVERFLOW", specified, err)
	}
	defer e.Frames.CloseFrame()

	if st != nil && len(st.Tags) > 0 {
		bindTag := st.Tags[0]
		frameBytes := e.Regions.Frame.Bytes()
		at := f.Base + bindTag.FrameOffset
		switch {
		case bindTag.Mode == nil:
			// nothing to bind
		case bindTag.Mode.Kind == value.KindUnion:
			value.PutReference(frameBytes, at, unionRef)
		case bindTag.Mode.ReferenceShaped():
			value.PutReference(frameBytes, at, value.GetReference(buf, value.UnionTagWidth))
		default:
			payload := buf[value.UnionTagWidth:]
			copy(frameBytes[at:at+bindTag.Mode.Size], payload[:bindTag.Mode.Size])
		}
	}
	var body *tree.Node
	if len(specified.Children()) > 0 {
		body = specified.Children()[len(specified.Children())-1]
	}
	return e.ExecuteUnit(body)
}

// execLoop implements FOR/FROM/BY/TO/WHILE/DO (§4.5, §8 property 7).
// The loop header comes from LoopSpecOf, which reads the node's
// fixed-position children.
func (e *Engine) execLoop(n *tree.Node) (value.StackValue, error) {
	spec, err := e.LoopSpecOf(n)
	if err != nil {
		return value.StackValue{}, err
	}
	from, by, to := spec.From, spec.By, spec.To

	if by != 0 {
		items := (to - from) / by
		if items < 0 {
			items = -1
		}
		if by > 0 && items > 0 && spec.OverflowGuard && items > (int64(^uint64(0)>>1))/by {
			return value.StackValue{}, fatal("INVALID-SIZE", n, errString("loop iteration count overflow"))
		}
	}

	st := n.SymbolTable
	frameSize := 0
	if st != nil {
		frameSize = st.FrameSize
	}
	staticLink := -1
	if cur := e.Frames.Current(); cur != nil {
		staticLink = cur.Base
	}

	i := from
	for {
		if by > 0 && i > to {
			break
		}
		if by < 0 && i < to {
			break
		}
		if by == 0 {
			break
		}

		f, err := e.Frames.OpenFrame(n, st, frameSize, false, staticLink, nil)
		if err != nil {
			return value.StackValue{}, fatal("STACK-OVERFLOW", n, err)
		}
		if spec.HasFor && st != nil && len(st.Tags) > 0 {
			frameBytes := e.Regions.Frame.Bytes()
			at := f.Base + st.Tags[0].FrameOffset
			value.PutCell(frameBytes, at, value.Int(i))
		}

		if spec.While != nil {
			cond, err := e.ExecuteUnit(spec.While)
			if err != nil {
				e.Frames.CloseFrame()
				return value.StackValue{}, err
			}
			if !cond.Cell.AsBool() {
				e.Frames.CloseFrame()
				break
			}
		}

		if spec.Body != nil {
			if _, err := e.ExecuteUnit(spec.Body); err != nil {
				e.Frames.CloseFrame()
				return value.StackValue{}, err
			}
		}
		e.Frames.CloseFrame()
		i += by
	}
	return value.StackValue{}, nil
}

// execAssertion runs an assertion's enquiry clause when --assertions is
// set; otherwise it is a no-op (§6 CLI surface --assertions/--noassertions).
func (e *Engine) execAssertion(n *tree.Node) (value.StackValue, error) {
	if !e.Limits.Assertions || len(n.Children()) == 0 {
		return value.StackValue{}, nil
	}
	v, err := e.ExecuteUnit(n.Child(0))
	if err != nil {
		return value.StackValue{}, err
	}
	if !v.Cell.AsBool() {
		return value.StackValue{}, fatal("ASSERTION-FAILED", n, errString("assertion failed"))
	}
	return value.StackValue{}, nil
}

func (e *Engine) execIdentityRelation(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	a, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	b, err := e.ExecuteUnit(kids[1])
	if err != nil {
		return value.StackValue{}, err
	}
	isEq := n.Symbol == ":=:" || n.Symbol == "IS"
	same := a.IsRef && b.IsRef && a.Ref.Segment == b.Ref.Segment && a.Ref.Handle == b.Ref.Handle && a.Ref.Offset == b.Ref.Offset
	if !isEq {
		same = !same
	}
	return value.CellValue(value.Bool(same)), nil
}

func (e *Engine) execAndFunction(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	a, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if !a.Cell.AsBool() {
		return value.CellValue(value.Bool(false)), nil
	}
	return e.ExecuteUnit(kids[1])
}

func (e *Engine) execOrFunction(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	a, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if a.Cell.AsBool() {
		return value.CellValue(value.Bool(true)), nil
	}
	return e.ExecuteUnit(kids[1])
}
