package gc

import (
	"testing"

	"github.com/genie68/a68run/internal/value"
)

func allocInt(t *testing.T, h *Heap, v int64) value.HandleID {
	t.Helper()
	id, err := h.Alloc(value.NewScalarMode(value.KindInt).Size, value.NewScalarMode(value.KindInt))
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	value.PutCell(h.Resolve(id), 0, value.Int(v))
	return id
}

// TestCollectPreservesRootsAndReclaimsGarbage is property 5 (garbage
// collection preserves program semantics): a handle reachable from
// Roots survives Collect with its value intact; an unreachable one is
// swept and its handle slot reused.
func TestCollectPreservesRootsAndReclaimsGarbage(t *testing.T) {
	h := NewHeap(make([]byte, 4096))
	kept := allocInt(t, h, 7)
	garbage := allocInt(t, h, 99)

	h.Roots = func() []value.Reference {
		return []value.Reference{{Segment: value.SegmentHeap, Handle: kept}}
	}

	h.Collect()

	if !h.HandleInfo(kept).Live {
		t.Fatalf("rooted handle was collected")
	}
	got := value.GetCell(h.Resolve(kept), 0, value.NewScalarMode(value.KindInt)).AsInt()
	if got != 7 {
		t.Errorf("rooted handle value = %d, want 7", got)
	}
	if h.HandleInfo(garbage).Live {
		t.Errorf("unrooted handle survived collection")
	}

	stats := h.Stats()
	if stats.LiveHandles != 1 {
		t.Errorf("LiveHandles = %d, want 1", stats.LiveHandles)
	}
	if stats.FreeHandles != 1 {
		t.Errorf("FreeHandles = %d, want 1", stats.FreeHandles)
	}
}

// TestCollectCompactsOffsets confirms compaction relocates surviving
// handles to contiguous low addresses and Resolve always reflects the
// post-collection offset, never a cached pre-collection one.
func TestCollectCompactsOffsets(t *testing.T) {
	h := NewHeap(make([]byte, 4096))
	_ = allocInt(t, h, 1) // becomes garbage, opening a gap before b
	b := allocInt(t, h, 2)

	h.Roots = func() []value.Reference {
		return []value.Reference{{Segment: value.SegmentHeap, Handle: b}}
	}
	h.Collect()

	if got := h.HandleInfo(b).Offset; got != 0 {
		t.Errorf("surviving handle offset = %d, want 0 after compaction", got)
	}
	if got := value.GetCell(h.Resolve(b), 0, value.NewScalarMode(value.KindInt)).AsInt(); got != 2 {
		t.Errorf("compacted handle value = %d, want 2", got)
	}
}

func TestGarbageSemaDisablesCollect(t *testing.T) {
	h := NewHeap(make([]byte, 4096))
	garbage := allocInt(t, h, 1)
	h.Roots = func() []value.Reference { return nil }

	h.UpGarbageSema()
	h.Collect()
	if !h.HandleInfo(garbage).Live {
		t.Fatalf("Collect ran while the garbage semaphore was held")
	}
	h.DownGarbageSema()

	h.Collect()
	if h.HandleInfo(garbage).Live {
		t.Fatalf("garbage survived a collection once the semaphore was released")
	}
}
