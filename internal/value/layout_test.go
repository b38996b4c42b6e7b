package value

import "testing"

func TestPutGetCellRoundTrip(t *testing.T) {
	buf := make([]byte, statusPrefixSize+8)
	mode := NewScalarMode(KindInt)
	PutCell(buf, 0, Int(-12345))
	got := GetCell(buf, 0, mode)
	if got.AsInt() != -12345 {
		t.Errorf("AsInt() = %d, want -12345", got.AsInt())
	}
	if !got.Has(Initialised) {
		t.Errorf("round-tripped cell lost the Initialised status bit")
	}
}

func TestPutGetReferenceRoundTrip(t *testing.T) {
	buf := make([]byte, referenceWidth)
	ref := Reference{Status: Initialised, Segment: SegmentHeap, Offset: 7, Handle: 99, Level: 3}
	PutReference(buf, 0, ref)
	got := GetReference(buf, 0)
	if got != ref {
		t.Errorf("GetReference() = %+v, want %+v", got, ref)
	}
}

func TestPutGetRowDescriptorRoundTrip(t *testing.T) {
	d := RowDescriptor{
		Dims:     2,
		SliceOff: 4,
		FieldOff: 8,
		ArrayRef: Reference{Segment: SegmentHeap, Handle: 5},
		Tuples: []Tuple{
			{Lower: 1, Upper: 3, Shift: 1, Span: 1},
			{Lower: 1, Upper: 2, Shift: 1, Span: 3},
		},
	}
	buf := make([]byte, RowDescriptorSize(d.Dims))
	PutRowDescriptor(buf, d)
	got := GetRowDescriptor(buf, d.Dims)
	if got.SliceOff != d.SliceOff || got.FieldOff != d.FieldOff || got.ArrayRef != d.ArrayRef {
		t.Errorf("GetRowDescriptor header = %+v, want %+v", got, d)
	}
	for i, tup := range d.Tuples {
		if got.Tuples[i] != tup {
			t.Errorf("Tuples[%d] = %+v, want %+v", i, got.Tuples[i], tup)
		}
	}
}
