// Package stowed implements C4: row construction, slice, trim,
// dereference and assignment for composite (stowed) values — ROW,
// FLEX ROW, STRUCT and UNION — per §4.4.
//
// The slice/trim arithmetic is grounded on the teacher's
// SliceMake/SliceReslice/SliceCopy (std/runtime/runtime.go): a
// descriptor-plus-shared-backing-block design, generalised here from
// the teacher's single-dimension byte slices to Algol 68's
// n-dimensional row descriptors with lower/upper/shift/span tuples.
package stowed

import (
	"fmt"

	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/value"
)

// IndexOutOfBoundsError is fatal (§7).
type IndexOutOfBoundsError struct {
	Index, Lower, Upper int64
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds [%d:%d]", e.Index, e.Lower, e.Upper)
}

// DifferentBoundsError is fatal (§7, §4.4 "shapes match").
type DifferentBoundsError struct{ Target, Source []value.Tuple }

func (e *DifferentBoundsError) Error() string { return "different bounds in stowed assign" }

// NilAccessError is fatal (§3.2, §7).
type NilAccessError struct{}

func (e *NilAccessError) Error() string { return "access to NIL" }

// Bound is one dimension's declared bounds for a row display.
type Bound struct{ Lower, Upper int64 }

// NewRow allocates a descriptor plus element block and fills it
// element-by-element from elems in display order (§4.4 "Row
// construction"). Guarded by the caller with UpGarbageSema/
// DownGarbageSema across the whole multi-step build (§4.7).
func NewRow(h *gc.Heap, elemMode *value.Mode, bounds []Bound, elems [][]byte) (value.Reference, error) {
	dims := len(bounds)
	rowMode := &value.Mode{Kind: value.KindRow, Elem: elemMode, Dims: dims}
	rowMode.Size = rowMode.DescriptorSize()

	tuples := make([]value.Tuple, dims)
	span := int64(1)
	for i := dims - 1; i >= 0; i-- {
		b := bounds[i]
		n := b.Upper - b.Lower + 1
		if n < 0 {
			n = 0
		}
		tuples[i] = value.Tuple{Lower: b.Lower, Upper: b.Upper, Shift: b.Lower, Span: span}
		span *= n
	}
	total := span // total element count
	elemSize := elemMode.Size

	h.UpGarbageSema()
	defer h.DownGarbageSema()

	arrayID, err := h.Alloc(int(total)*elemSize, elemMode)
	if err != nil {
		return value.Nil, err
	}
	arrayBuf := h.Resolve(arrayID)
	for i := 0; i < len(elems) && i < int(total); i++ {
		copy(arrayBuf[i*elemSize:(i+1)*elemSize], elems[i])
	}

	descID, err := h.Alloc(rowMode.Size, rowMode)
	if err != nil {
		return value.Nil, err
	}
	descBuf := h.Resolve(descID)
	value.PutRowDescriptor(descBuf, value.RowDescriptor{
		Dims:     dims,
		SliceOff: 0,
		FieldOff: 0,
		ArrayRef: value.Reference{Segment: value.SegmentHeap, Handle: arrayID},
		Tuples:   tuples,
	})
	return value.Reference{Segment: value.SegmentHeap, Handle: descID}, nil
}

func readDescriptor(h *gc.Heap, ref value.Reference) (value.RowDescriptor, *value.Mode, error) {
	if ref.IsNil() {
		return value.RowDescriptor{}, nil, &NilAccessError{}
	}
	info := h.HandleInfo(ref.Handle)
	buf := h.Resolve(ref.Handle)
	d := value.GetRowDescriptor(buf, info.Mode.Dims)
	return d, info.Mode, nil
}

// ElementAddress resolves the (handle, byte-offset) of the k-th
// subscripted element, checking bounds dimension by dimension in
// declaration order (§4.4 Slice).
func ElementAddress(h *gc.Heap, ref value.Reference, subscripts []int64) (value.HandleID, int, *value.Mode, error) {
	d, mode, err := readDescriptor(h, ref)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(subscripts) != d.Dims {
		return 0, 0, nil, fmt.Errorf("subscript count %d does not match rank %d", len(subscripts), d.Dims)
	}
	var linear int64
	for i, k := range subscripts {
		t := d.Tuples[i]
		if k < t.Lower || k > t.Upper {
			return 0, 0, nil, &IndexOutOfBoundsError{Index: k, Lower: t.Lower, Upper: t.Upper}
		}
		linear += t.Span * (k - t.Shift)
	}
	elemSize := mode.Elem.Size
	addr := int(d.SliceOff) + int(linear)*elemSize + int(d.FieldOff)
	return d.ArrayRef.Handle, addr, mode.Elem, nil
}

// Slice resolves one element and returns a name sharing the same
// underlying handle with adjusted offset (§4.4 "Slice of a name yields
// a name sharing the same underlying handle").
func Slice(h *gc.Heap, ref value.Reference, subscripts []int64) (value.Reference, *value.Mode, error) {
	handle, addr, elemMode, err := ElementAddress(h, ref, subscripts)
	if err != nil {
		return value.Nil, nil, err
	}
	return value.Reference{Segment: value.SegmentHeap, Handle: handle, Offset: addr}, elemMode, nil
}

// Trimmer is one dimension of a trim: AT (optional) and a sub-range.
type Trimmer struct {
	HasAt     bool
	At        int64
	HasRange  bool
	Low, High int64
	Drop      bool // true if this dimension is a bare "@" drop, reducing rank
}

// Trim builds a new descriptor sharing ArrayRef, recomputing each
// trimmed dimension per §4.4's D/L/U/shift formulas.
func Trim(h *gc.Heap, ref value.Reference, trimmers []Trimmer) (value.Reference, error) {
	d, mode, err := readDescriptor(h, ref)
	if err != nil {
		return value.Nil, err
	}
	if len(trimmers) != d.Dims {
		return value.Nil, fmt.Errorf("trimmer count %d does not match rank %d", len(trimmers), d.Dims)
	}

	var newTuples []value.Tuple
	fieldOff := d.FieldOff
	for i, tr := range trimmers {
		t := d.Tuples[i]
		low, high := t.Lower, t.Upper
		if tr.HasRange {
			low, high = tr.Low, tr.High
		}
		empty := low > high
		if !empty && (low < t.Lower || high > t.Upper) {
			return value.Nil, &IndexOutOfBoundsError{Index: low, Lower: t.Lower, Upper: t.Upper}
		}
		var at int64
		if tr.HasAt {
			at = tr.At
		} else if !empty {
			at = 1 // D = L - 1
		} else {
			at = 0
		}
		dShift := low - at
		newLower := low - dShift
		newUpper := (low - dShift) + (high - low)
		newShiftVal := t.Shift - dShift
		if tr.Drop {
			fieldOff += t.Span * (low - t.Shift)
			continue
		}
		newTuples = append(newTuples, value.Tuple{Lower: newLower, Upper: newUpper, Shift: newShiftVal, Span: t.Span})
	}

	newMode := &value.Mode{Kind: value.KindRow, Elem: mode.Elem, Dims: len(newTuples)}
	newMode.Size = newMode.DescriptorSize()
	descID, err := h.Alloc(newMode.Size, newMode)
	if err != nil {
		return value.Nil, err
	}
	buf := h.Resolve(descID)
	value.PutRowDescriptor(buf, value.RowDescriptor{
		Dims:     len(newTuples),
		SliceOff: d.SliceOff,
		FieldOff: fieldOff,
		ArrayRef: d.ArrayRef,
		Tuples:   newTuples,
	})
	return value.Reference{Segment: value.SegmentHeap, Handle: descID}, nil
}

// Deref pointer-copies a stowed descriptor to the expression stack;
// the sharing of the underlying element block is intentional (§4.4
// "Dereference a stowed REF").
func Deref(h *gc.Heap, ref value.Reference) (value.RowDescriptor, *value.Mode, error) {
	return readDescriptor(h, ref)
}
