// Package gc implements C2: a stop-the-world mark-sweep-compact
// collector over the heap region, addressed through a handle table so
// that compaction only ever rewrites one integer per live object
// (§3.2, §4.2, Design Notes "Pointer graphs and cycles").
//
// The free-list/bump-fallback allocation shape is grounded on the
// teacher's slab allocator (std/compiler/backend_vm.go:
// slabAllocSmall/slabAllocLarge/slabFreeSmall); the mark/sweep/compact
// walk itself has no pack analogue and is built directly from spec §4.2.
package gc

import (
	"fmt"

	"github.com/genie68/a68run/internal/value"
)

// Handle is the descriptor every heap allocation is addressed through
// (§3.2). Offset/Size are rewritten in place by Collect; nothing
// outside this package may cache a raw heap address across a
// collection (§4.2 invariant).
type Handle struct {
	Offset int
	Size   int
	Mode   *value.Mode
	Live   bool
	marked bool
}

// Heap owns the flat byte array and the handle table addressing it.
type Heap struct {
	bytes    []byte
	heapPtr  int // one past the last live byte (post-compaction invariant, §4.2.4)
	handles  []Handle
	free     []value.HandleID // free handle-table slots, reused
	protected []value.HandleID
	semaDepth int

	// Roots supplies the scan set for Mark; wired by internal/engine
	// once the frame/expression stacks exist, avoiding an import cycle
	// back into package mem.
	Roots func() []value.Reference

	collections int
}

// NewHeap wraps a pre-sized byte buffer (normally mem.Regions.Heap).
func NewHeap(backing []byte) *Heap {
	return &Heap{bytes: backing}
}

func (h *Heap) Bytes() []byte { return h.bytes }

// Stats mirrors the kind of counters a --trace run reports.
type Stats struct {
	TotalBytes   int
	UsedBytes    int
	LiveHandles  int
	FreeHandles  int
	Collections  int
}

func (h *Heap) Stats() Stats {
	live, free := 0, 0
	for _, hd := range h.handles {
		if hd.Live {
			live++
		}
	}
	free = len(h.free)
	return Stats{TotalBytes: len(h.bytes), UsedBytes: h.heapPtr, LiveHandles: live, FreeHandles: free, Collections: h.collections}
}

// AllocationError is fatal: the driver treats heap exhaustion after a
// forced collection as a runtime error (§4.2 trigger policy "Generators
// may also request collection on allocation failure").
type AllocationError struct {
	Need int
	Have int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("heap exhausted: need %d bytes, %d available after collection", e.Need, e.Have)
}

// ShouldCollect implements the §4.2 trigger policy.
func (h *Heap) ShouldCollect() bool {
	total := len(h.bytes)
	if total == 0 {
		return false
	}
	usedFrac := float64(h.heapPtr) / float64(total)
	totalHandles := len(h.handles)
	freeHandles := len(h.free)
	var freeFrac float64 = 1
	if totalHandles > 0 {
		freeFrac = float64(freeHandles) / float64(totalHandles)
	}
	return usedFrac > 0.9 || freeFrac < 0.01
}

// Alloc reserves size bytes for a new value of mode m and returns its
// handle. It collects only when the request does not fit, then retries
// once, matching "Generators may also request collection on allocation
// failure." The ShouldCollect trigger policy is not evaluated here.
func (h *Heap) Alloc(size int, m *value.Mode) (value.HandleID, error) {
	id, ok := h.tryAlloc(size, m)
	if ok {
		return id, nil
	}
	h.Collect()
	id, ok = h.tryAlloc(size, m)
	if !ok {
		return 0, &AllocationError{Need: size, Have: len(h.bytes) - h.heapPtr}
	}
	return id, nil
}

func (h *Heap) tryAlloc(size int, m *value.Mode) (value.HandleID, bool) {
	if h.heapPtr+size > len(h.bytes) {
		return 0, false
	}
	offset := h.heapPtr
	h.heapPtr += size
	handle := Handle{Offset: offset, Size: size, Mode: m, Live: true}
	if len(h.free) > 0 {
		id := h.free[len(h.free)-1]
		h.free = h.free[:len(h.free)-1]
		h.handles[id] = handle
		return id, true
	}
	h.handles = append(h.handles, handle)
	return value.HandleID(len(h.handles) - 1), true
}

// Resolve returns the byte slice backing a live handle's current
// storage, re-derived fresh every call so that it is always correct
// immediately after a collection (§4.2 invariant).
func (h *Heap) Resolve(id value.HandleID) []byte {
	hd := h.handles[id]
	return h.bytes[hd.Offset : hd.Offset+hd.Size]
}

func (h *Heap) HandleInfo(id value.HandleID) Handle { return h.handles[id] }

// Protect pins a handle as a GC root across a multi-step construction
// (§4.2.6). Unprotect pops the most recently protected handle matching
// id; protection nests like the garbage semaphore.
func (h *Heap) Protect(id value.HandleID) { h.protected = append(h.protected, id) }

func (h *Heap) Unprotect(id value.HandleID) {
	for i := len(h.protected) - 1; i >= 0; i-- {
		if h.protected[i] == id {
			h.protected = append(h.protected[:i], h.protected[i+1:]...)
			return
		}
	}
}

// UpGarbageSema / DownGarbageSema implement the §4.2.5 nesting
// semaphore that disables collection during critical sections.
func (h *Heap) UpGarbageSema()   { h.semaDepth++ }
func (h *Heap) DownGarbageSema() {
	if h.semaDepth > 0 {
		h.semaDepth--
	}
}

func (h *Heap) collectionsDisabled() bool { return h.semaDepth > 0 }
