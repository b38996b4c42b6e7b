package unformatted

import (
	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/value"
)

// ScalarOp is the shape of a per-element operation on one element's
// bytes. WriteRow and ReadRow do not use it; they pass their own
// closures to walkRow (§4.9 "Rows are written in row-major order after
// running initialise_internal_index -> increment_internal_index").
type ScalarOp func(elemMode *value.Mode, buf []byte) error

// walkRow walks a row descriptor's tuples in row-major order, invoking
// visit once per element address. A dimension with zero elements is skipped
// without error, matching the original's index-increment loop.
func walkRow(h *gc.Heap, ref value.Reference, visit func(elemBuf []byte, elemMode *value.Mode) error) error {
	d, mode, err := stowed.Deref(h, ref)
	if err != nil {
		return err
	}
	total := int64(1)
	counts := make([]int64, d.Dims)
	for i, t := range d.Tuples {
		n := t.Upper - t.Lower + 1
		if n < 0 {
			n = 0
		}
		counts[i] = n
		total *= n
	}
	if total == 0 {
		return nil
	}
	idx := make([]int64, d.Dims)
	for i := range idx {
		idx[i] = d.Tuples[i].Lower
	}
	arrayBuf := h.Resolve(d.ArrayRef.Handle)
	elemSize := mode.Elem.Size
	for count := total; count > 0; count-- {
		var linear int64
		for i, t := range d.Tuples {
			linear += t.Span * (idx[i] - t.Shift)
		}
		addr := int(d.SliceOff) + int(linear)*elemSize + int(d.FieldOff)
		if err := visit(arrayBuf[addr:addr+elemSize], mode.Elem); err != nil {
			return err
		}
		for i := d.Dims - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] <= d.Tuples[i].Upper {
				break
			}
			idx[i] = d.Tuples[i].Lower
		}
	}
	return nil
}

// WriteRow writes every element of ref in row-major order through the
// plain scalar writer.
func WriteRow(h *gc.Heap, f *transput.File, ref value.Reference) error {
	return walkRow(h, ref, func(elemBuf []byte, elemMode *value.Mode) error {
		c := value.GetCell(elemBuf, 0, elemMode)
		return WriteScalar(f, elemMode, c)
	})
}

// ReadRow reads one scalar per element of ref, in row-major order,
// storing each back into the element's own bytes.
func ReadRow(h *gc.Heap, f *transput.File, ref value.Reference) error {
	return walkRow(h, ref, func(elemBuf []byte, elemMode *value.Mode) error {
		c, err := ReadScalar(f, elemMode)
		if err != nil {
			return err
		}
		value.PutCell(elemBuf, 0, c)
		return nil
	})
}
