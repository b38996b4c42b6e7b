package decl

import (
	"github.com/genie68/a68run/internal/frame"
	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/value"
)

// GenerateLoc reserves size-of-m bytes at an already-known frame offset
// (§4.7 "LOC m"). The name cannot outlive the enclosing range; nothing
// here enforces that beyond returning a Reference tagged with the
// current frame's Level, which package stowed's CheckScope compares
// against on any later assignment.
func GenerateLoc(f *frame.Frame, offset int) value.Reference {
	return value.Reference{Segment: value.SegmentFrame, Offset: f.Base + offset, Level: f.Level}
}

// GenerateHeap allocates a heap block of size-of-m via the GC, zeroed
// and marked UNINITIALISED until first assign (§4.7 "HEAP m"). A HEAP
// name's Level is unbounded (it is never scope-checked against the
// range that created it), modelled here as Level -1 so CheckScope never
// rejects it as a target.
func GenerateHeap(h *gc.Heap, m *value.Mode) (value.Reference, error) {
	id, err := h.Alloc(m.Size, m)
	if err != nil {
		return value.Nil, err
	}
	return value.Reference{Segment: value.SegmentHeap, Handle: id, Level: -1}, nil
}
