package genie

import (
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// execIdentityDeclaration implements "MODE name = value" (and, via
// exec.go's dispatch, PROCEDURE-DECLARATION's "PROC name = routine
// text" — the same binding shape): evaluate the single source unit and
// bind it into the declared tag's frame slot (§4.7 Identity
// declarations).
func (e *Engine) execIdentityDeclaration(n *tree.Node) (value.StackValue, error) {
	tag := n.TagRef
	if tag == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("identity declaration has no resolved tag"))
	}
	kids := n.Children()
	if len(kids) == 0 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("identity declaration has no source unit"))
	}
	rhs, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	cur := e.Frames.Current()
	if cur == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("identity declaration outside any frame"))
	}
	at := cur.Base + tag.FrameOffset
	frameBytes := e.Regions.Frame.Bytes()
	ref := value.Reference{Segment: value.SegmentFrame, Offset: at, Level: cur.Level}
	if err := e.bindSlot(n, frameBytes[at:], ref, tag.Mode, rhs); err != nil {
		return value.StackValue{}, err
	}
	return rhs, nil
}

// execVariableDeclaration implements "MODE name" and "MODE name :=
// value" (§4.7 Variable declarations): a LOC or HEAP name is generated
// per tag.Qualifier, its reference is written into the tag's frame
// slot (mirroring execGenerator), and an optional initialiser is
// assigned through it.
//
// For a ROW/FLEX ROW tag, n's leading 2*Dims children are the bound
// expressions in lower/upper pairs; any further child is the
// initialiser. Every other mode takes its declared size from the tag's
// mode directly and has at most one (initialiser) child.
func (e *Engine) execVariableDeclaration(n *tree.Node) (value.StackValue, error) {
	tag := n.TagRef
	if tag == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("variable declaration has no resolved tag"))
	}
	cur := e.Frames.Current()
	if cur == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("variable declaration outside any frame"))
	}
	m := tag.Mode
	if m == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("variable declaration has no resolved mode"))
	}
	heap := tag.Qualifier == tree.QualifierHeap
	kids := n.Children()

	at := cur.Base + tag.FrameOffset
	frameBytes := e.Regions.Frame.Bytes()

	var initNode *tree.Node
	nameRef := value.Reference{Segment: value.SegmentFrame, Offset: at, Level: cur.Level}

	if !m.ReferenceShaped() {
		if heap {
			ref, err := e.genHeapScalar(n, m)
			if err != nil {
				return value.StackValue{}, err
			}
			value.PutReference(frameBytes, at, ref)
			nameRef = ref
		}
		if len(kids) > 0 {
			initNode = kids[0]
		}
	} else {
		nBounds := 0
		if m.Kind == value.KindRow || m.Kind == value.KindFlexRow {
			nBounds = m.Dims * 2
		}
		if len(kids) > nBounds {
			initNode = kids[nBounds]
		}
		payload, err := e.genStowedPayloadFromChildren(n, m, kids[:nBounds])
		if err != nil {
			return value.StackValue{}, err
		}
		if heap {
			payload.Level = -1
		} else {
			payload.Level = cur.Level
		}
		value.PutReference(frameBytes, at, payload)
		nameRef = payload
	}

	if initNode != nil {
		rhs, err := e.ExecuteUnit(initNode)
		if err != nil {
			return value.StackValue{}, err
		}
		buf, err := e.resolveBytes(nameRef, m)
		if err != nil {
			return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, err)
		}
		if err := e.bindSlot(n, buf, nameRef, m, rhs); err != nil {
			return value.StackValue{}, err
		}
	}

	return value.RefValue(value.Reference{Segment: value.SegmentFrame, Offset: at, Level: cur.Level}), nil
}

// genStowedPayloadFromChildren mirrors genStowedPayload but takes
// already-selected bound children rather than reading all of n's
// children, since a VariableDeclaration node also carries an optional
// trailing initialiser that is not part of the bound list.
func (e *Engine) genStowedPayloadFromChildren(n *tree.Node, m *value.Mode, boundKids []*tree.Node) (value.Reference, error) {
	if m.Kind != value.KindRow && m.Kind != value.KindFlexRow {
		return e.genStowedPayload(n, m)
	}
	dims := m.Dims
	if len(boundKids) != dims*2 {
		return value.Nil, fatal("INTERNAL-CONSISTENCY", n, errString("variable declaration bound count does not match rank"))
	}
	bounds := make([]stowed.Bound, dims)
	for i := 0; i < dims; i++ {
		lo, err := e.ExecuteUnit(boundKids[2*i])
		if err != nil {
			return value.Nil, err
		}
		hi, err := e.ExecuteUnit(boundKids[2*i+1])
		if err != nil {
			return value.Nil, err
		}
		bounds[i] = stowed.Bound{Lower: lo.Cell.AsInt(), Upper: hi.Cell.AsInt()}
	}
	ref, err := stowed.NewRow(e.Heap, m.Elem, bounds, nil)
	if err != nil {
		return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
	}
	return ref, nil
}
