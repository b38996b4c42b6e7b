package genie

import (
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// execGenerator implements a LOC or HEAP generator unit (§4.7): n.Mode
// is the generated mode m (never REF m); n.Symbol carries "HEAP" for a
// heap generator and anything else (conventionally "LOC") for a frame
// one. For ROW/FLEX ROW modes, n's children are the bound expressions
// in lower/upper pairs, dimension by dimension, evaluated fresh every
// time the generator runs (§4.7 "dynamic-bound row generators").
//
// Every non-scalar mode is Reference-shaped (value.Mode.ReferenceShaped):
// its payload is always heap-allocated, even under LOC, since a frame's
// per-tag footprint is fixed at the offset-assignment pass and cannot
// flex to a runtime-computed row size. A LOC generator's only special
// treatment of such a payload is the Level it stamps on the resulting
// Reference, which ties its lifetime to the enclosing range exactly as
// a LOC scalar's frame slot does.
func (e *Engine) execGenerator(n *tree.Node) (value.StackValue, error) {
	m := n.Mode
	if m == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("generator has no resolved mode"))
	}
	heap := n.Symbol == "HEAP"
	cur := e.Frames.Current()
	if cur == nil && !heap {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("LOC generator outside any frame"))
	}

	if !m.ReferenceShaped() {
		if heap {
			ref, err := e.genHeapScalar(n, m)
			if err != nil {
				return value.StackValue{}, err
			}
			return value.RefValue(ref), nil
		}
		ref := value.Reference{Segment: value.SegmentFrame, Offset: cur.Base + n.FrameOffset, Level: cur.Level}
		return value.RefValue(ref), nil
	}

	payload, err := e.genStowedPayload(n, m)
	if err != nil {
		return value.StackValue{}, err
	}
	if heap {
		payload.Level = -1
		return value.RefValue(payload), nil
	}
	payload.Level = cur.Level
	frameBytes := e.Regions.Frame.Bytes()
	value.PutReference(frameBytes, cur.Base+n.FrameOffset, payload)
	return value.RefValue(payload), nil
}

func (e *Engine) genHeapScalar(n *tree.Node, m *value.Mode) (value.Reference, error) {
	id, err := e.Heap.Alloc(m.Size, m)
	if err != nil {
		return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
	}
	return value.Reference{Segment: value.SegmentHeap, Handle: id, Level: -1}, nil
}

// genStowedPayload allocates the heap-resident object a ReferenceShaped
// generator names: a row descriptor plus element block for ROW/FLEX
// ROW, or a freshly sized inline block for STRUCT/UNION, sharing the
// field layout the mode-equivalence pass already computed.
func (e *Engine) genStowedPayload(n *tree.Node, m *value.Mode) (value.Reference, error) {
	switch m.Kind {
	case value.KindRow, value.KindFlexRow:
		bounds, err := e.evalBounds(n, m.Dims)
		if err != nil {
			return value.Nil, err
		}
		ref, err := stowed.NewRow(e.Heap, m.Elem, bounds, nil)
		if err != nil {
			return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
		}
		return ref, nil
	case value.KindStruct:
		heapMode := &value.Mode{Kind: value.KindStruct, Fields: m.Fields, Name: m.Name}
		heapMode.Size = heapMode.StructSize()
		id, err := e.Heap.Alloc(heapMode.Size, heapMode)
		if err != nil {
			return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
		}
		return value.Reference{Segment: value.SegmentHeap, Handle: id}, nil
	case value.KindUnion:
		size := value.UnionTagWidth
		for _, v := range m.Variants {
			if v.Size > size-value.UnionTagWidth {
				size = value.UnionTagWidth + v.Size
			}
		}
		unionMode := &value.Mode{Kind: value.KindUnion, Variants: m.Variants, Size: size, Name: m.Name}
		id, err := e.Heap.Alloc(size, unionMode)
		if err != nil {
			return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
		}
		return value.Reference{Segment: value.SegmentHeap, Handle: id}, nil
	case value.KindProc, value.KindFormat, value.KindFile:
		id, err := e.Heap.Alloc(1, m)
		if err != nil {
			return value.Nil, fatal("HEAP-EXHAUSTED", n, err)
		}
		return value.Reference{Segment: value.SegmentHeap, Handle: id}, nil
	default:
		return value.Nil, fatal("INTERNAL-CONSISTENCY", n, errString("unsupported generator mode "+m.Name))
	}
}

func (e *Engine) evalBounds(n *tree.Node, dims int) ([]stowed.Bound, error) {
	kids := n.Children()
	if len(kids) != dims*2 {
		return nil, fatal("INTERNAL-CONSISTENCY", n, errString("generator bound count does not match rank"))
	}
	bounds := make([]stowed.Bound, dims)
	for i := 0; i < dims; i++ {
		lo, err := e.ExecuteUnit(kids[2*i])
		if err != nil {
			return nil, err
		}
		hi, err := e.ExecuteUnit(kids[2*i+1])
		if err != nil {
			return nil, err
		}
		bounds[i] = stowed.Bound{Lower: lo.Cell.AsInt(), Upper: hi.Cell.AsInt()}
	}
	return bounds, nil
}
