package stowed

import (
	"testing"

	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/value"
)

func newIntRow(t *testing.T, h *gc.Heap, lower, upper int64) value.Reference {
	t.Helper()
	elemMode := value.NewScalarMode(value.KindInt)
	elems := make([][]byte, upper-lower+1)
	for i := range elems {
		buf := make([]byte, elemMode.Size)
		value.PutCell(buf, 0, value.Int(lower+int64(i)))
		elems[i] = buf
	}
	ref, err := NewRow(h, elemMode, []Bound{{Lower: lower, Upper: upper}}, elems)
	if err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	return ref
}

// TestTrimOmittedAtRenormalizesLower is the reviewer's worked
// counterexample: trimming [5:14] with a[8:10] (no AT) must yield
// [1:3], per §4.4's D = L - 1 default.
func TestTrimOmittedAtRenormalizesLower(t *testing.T) {
	h := gc.NewHeap(make([]byte, 64*1024))
	row := newIntRow(t, h, 5, 14)

	trimmed, err := Trim(h, row, []Trimmer{{HasRange: true, Low: 8, High: 10}})
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}

	d, _, err := readDescriptor(h, trimmed)
	if err != nil {
		t.Fatalf("readDescriptor: %v", err)
	}
	if len(d.Tuples) != 1 {
		t.Fatalf("Tuples = %d, want 1", len(d.Tuples))
	}
	if got, want := d.Tuples[0].Lower, int64(1); got != want {
		t.Errorf("Lower = %d, want %d", got, want)
	}
	if got, want := d.Tuples[0].Upper, int64(3); got != want {
		t.Errorf("Upper = %d, want %d", got, want)
	}

	// The trimmed window must still address the original elements 8,9,10.
	for i, want := range []int64{8, 9, 10} {
		handle, addr, elemMode, err := ElementAddress(h, trimmed, []int64{int64(1 + i)})
		if err != nil {
			t.Fatalf("ElementAddress: %v", err)
		}
		got := value.GetCell(h.Resolve(handle)[addr:], 0, elemMode).AsInt()
		if got != want {
			t.Errorf("element %d = %d, want %d", i, got, want)
		}
	}
}

// TestTrimExplicitAt checks AT still relocates the new lower bound
// when present, independent of the omitted-AT default.
func TestTrimExplicitAt(t *testing.T) {
	h := gc.NewHeap(make([]byte, 64*1024))
	row := newIntRow(t, h, 5, 14)

	trimmed, err := Trim(h, row, []Trimmer{{HasAt: true, At: 100, HasRange: true, Low: 8, High: 10}})
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	d, _, err := readDescriptor(h, trimmed)
	if err != nil {
		t.Fatalf("readDescriptor: %v", err)
	}
	if got, want := d.Tuples[0].Lower, int64(100); got != want {
		t.Errorf("Lower = %d, want %d", got, want)
	}
	if got, want := d.Tuples[0].Upper, int64(102); got != want {
		t.Errorf("Upper = %d, want %d", got, want)
	}
}

// TestTrimDropReducesRank checks a bare "@" drop omits the dimension
// from the result without altering the shared backing block.
func TestTrimDropReducesRank(t *testing.T) {
	h := gc.NewHeap(make([]byte, 64*1024))
	row := newIntRow(t, h, 1, 3)

	trimmed, err := Trim(h, row, []Trimmer{{Drop: true}})
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	d, _, err := readDescriptor(h, trimmed)
	if err != nil {
		t.Fatalf("readDescriptor: %v", err)
	}
	if len(d.Tuples) != 0 {
		t.Fatalf("Tuples = %d, want 0 after drop", len(d.Tuples))
	}
}

func TestSliceAndElementAddress(t *testing.T) {
	h := gc.NewHeap(make([]byte, 64*1024))
	row := newIntRow(t, h, 1, 3)

	ref, elemMode, err := Slice(h, row, []int64{2})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	got := value.GetCell(h.Resolve(ref.Handle)[ref.Offset:], 0, elemMode).AsInt()
	if got != 2 {
		t.Errorf("sliced element = %d, want 2", got)
	}

	if _, _, err := Slice(h, row, []int64{9}); err == nil {
		t.Fatalf("Slice: want out-of-bounds error for index 9")
	}
}
