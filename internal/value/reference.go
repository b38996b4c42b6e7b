package value

// SegmentTag discriminates which region a Reference resolves into
// (§3.2).
type SegmentTag int

const (
	SegmentNil SegmentTag = iota
	SegmentHeap
	SegmentFrame
	SegmentStack
)

func (s SegmentTag) String() string {
	switch s {
	case SegmentHeap:
		return "heap"
	case SegmentFrame:
		return "frame"
	case SegmentStack:
		return "stack"
	default:
		return "nil"
	}
}

// HandleID identifies a live heap allocation; it is stable across
// compaction (only the handle's internal offset moves, §3.2).
type HandleID int

// NilHandle is the sentinel handle NIL references carry.
const NilHandle HandleID = -1

// Reference is the runtime shape of a REF value (§3.2): a tagged
// pointer into one of the three regions. Dereferencing resolves
// `heap[handle.offset + Offset]` for heap references, or a direct
// region-relative offset for frame/stack references.
type Reference struct {
	Segment SegmentTag
	Offset  int // byte offset within the resolved base
	Handle  HandleID
	Status  StatusBit
	Level   int // lexical level of the owning range, for scope checks (§4.4)
}

// Nil is the dedicated NIL reference (§3.2).
var Nil = Reference{Segment: SegmentNil, Handle: NilHandle}

func (r Reference) IsNil() bool { return r.Segment == SegmentNil }

// StackValue is one operand-stack entry: either a scalar Cell or a
// Reference (a name, or a stowed descriptor handle per §4.4 deref).
// Defined here (rather than in package genie) so tree.Executor and
// package stowed can share the same shape without an import cycle.
type StackValue struct {
	IsRef bool
	Ref   Reference
	Cell  Cell
}

func CellValue(c Cell) StackValue     { return StackValue{Cell: c} }
func RefValue(r Reference) StackValue { return StackValue{IsRef: true, Ref: r} }
