package gc

import "github.com/genie68/a68run/internal/value"

// Collect runs one stop-the-world mark-sweep-compact pass (§4.2). It is
// a no-op while the garbage semaphore is held (§4.2.5): the caller is
// expected to have protected anything that must survive via Protect
// instead of relying on an in-flight collection being skipped, but a
// skipped collection is itself the documented behaviour during a
// critical section.
func (h *Heap) Collect() {
	if h.collectionsDisabled() {
		return
	}
	h.collections++
	h.mark()
	h.sweep()
	h.compact()
}

func (h *Heap) mark() {
	for i := range h.handles {
		h.handles[i].marked = false
	}
	var roots []value.Reference
	if h.Roots != nil {
		roots = h.Roots()
	}
	for _, id := range h.protected {
		if int(id) >= 0 && int(id) < len(h.handles) {
			h.markHandle(id)
		}
	}
	for _, r := range roots {
		h.markReference(r)
	}
}

func (h *Heap) markReference(r value.Reference) {
	if r.Segment != value.SegmentHeap || r.Handle == value.NilHandle {
		return
	}
	h.markHandle(r.Handle)
}

func (h *Heap) markHandle(id value.HandleID) {
	if int(id) < 0 || int(id) >= len(h.handles) {
		return
	}
	hd := &h.handles[id]
	if !hd.Live || hd.marked {
		return
	}
	hd.marked = true
	if hd.Mode == nil {
		return
	}
	buf := h.bytes[hd.Offset : hd.Offset+hd.Size]
	value.WalkReferences(hd.Mode, buf, func(_ int, ref value.Reference) {
		h.markReference(ref)
	})
}

// sweep returns unmarked live handles to the free list (§4.2.3).
func (h *Heap) sweep() {
	for i := range h.handles {
		hd := &h.handles[i]
		if hd.Live && !hd.marked {
			hd.Live = false
			hd.Size = 0
			h.free = append(h.free, value.HandleID(i))
		}
	}
}

// compact moves every still-live block down to contiguous low
// addresses and rewrites each handle's Offset in place (§4.2.4); it is
// the only code anywhere permitted to move heap bytes, and it runs
// immediately after sweep so no raw offset computed before this call
// survives past it.
func (h *Heap) compact() {
	// Stable order by current offset keeps relative layout predictable,
	// which matters for deterministic test output across repeated runs.
	order := make([]value.HandleID, 0, len(h.handles))
	for i, hd := range h.handles {
		if hd.Live {
			order = append(order, value.HandleID(i))
		}
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if h.handles[order[j]].Offset < h.handles[order[i]].Offset {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	dst := 0
	for _, id := range order {
		hd := &h.handles[id]
		if hd.Offset != dst {
			copy(h.bytes[dst:dst+hd.Size], h.bytes[hd.Offset:hd.Offset+hd.Size])
			hd.Offset = dst
		}
		dst += hd.Size
	}
	h.heapPtr = dst // invariant: heap_pointer == sum of live handle sizes
}
