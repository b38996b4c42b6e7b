package value

import "encoding/binary"

// Byte layout helpers shared by package gc (mode-directed GC tracing,
// §4.2) and package stowed (deep-copy machinery, §4.4), so the two
// concerns agree on where references live inside a stowed value's
// bytes without importing each other.

// referenceWidth is the encoded size of a Reference on the wire inside
// frames, the heap and the expression stack: a 1-byte status prefix
// (mirroring scalarSizes) followed by segment(4) + offset(8) +
// handle(8) + level(4).
const referenceWidth = statusPrefixSize + 24

func ReferenceWidth() int { return referenceWidth }

// PutReference encodes ref into buf at byte offset at.
func PutReference(buf []byte, at int, ref Reference) {
	buf[at] = byte(ref.Status)
	binary.LittleEndian.PutUint32(buf[at+1:], uint32(ref.Segment))
	binary.LittleEndian.PutUint64(buf[at+5:], uint64(ref.Offset))
	binary.LittleEndian.PutUint64(buf[at+13:], uint64(ref.Handle))
	binary.LittleEndian.PutUint32(buf[at+21:], uint32(ref.Level))
}

// GetReference decodes a Reference from buf at byte offset at.
func GetReference(buf []byte, at int) Reference {
	return Reference{
		Status:  StatusBit(buf[at]),
		Segment: SegmentTag(binary.LittleEndian.Uint32(buf[at+1:])),
		Offset:  int(binary.LittleEndian.Uint64(buf[at+5:])),
		Handle:  HandleID(binary.LittleEndian.Uint64(buf[at+13:])),
		Level:   int(binary.LittleEndian.Uint32(buf[at+21:])),
	}
}

// PutCell encodes a scalar Cell (status byte + payload) into buf at
// offset at. The payload occupies the bytes the cell mode's Size leaves
// after the status byte (see payloadWidth). Used for INT/REAL/BOOL/CHAR/
// BITS; LONG modes reuse the same status-prefix convention but carry a
// wider payload not modelled here (package mplong owns their
// digit-sequence codec).
func PutCell(buf []byte, at int, c Cell) {
	buf[at] = byte(c.Status)
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], c.Payload)
	n := payloadWidth(c.Mode)
	copy(buf[at+1:at+1+n], p[:n])
}

// GetCell decodes a scalar Cell from buf at offset at.
func GetCell(buf []byte, at int, m *Mode) Cell {
	var p [8]byte
	n := payloadWidth(m)
	copy(p[:n], buf[at+1:at+1+n])
	return Cell{
		Status:  StatusBit(buf[at]),
		Payload: binary.LittleEndian.Uint64(p[:]),
		Mode:    m,
	}
}

// payloadWidth is m.Size minus the status byte, capped at 8; a nil or
// unsized mode gets the full 8 bytes.
func payloadWidth(m *Mode) int {
	if m == nil || m.Size <= statusPrefixSize || m.Size-statusPrefixSize > 8 {
		return 8
	}
	return m.Size - statusPrefixSize
}

// RowDescriptor is the decoded form of a ROW/FLEX ROW header (§3.3).
// ArrayRefOffset is where the heap Reference to the element block is
// encoded within the descriptor's own bytes.
const (
	rowHeaderDims       = 0
	rowHeaderSliceOff   = 8
	rowHeaderFieldOff   = 16
	rowHeaderArrayRef   = 24 // Reference, referenceWidth bytes
	rowHeaderTuplesBase = rowHeaderArrayRef + referenceWidth
	tupleSize           = 32 // lower, upper, shift, span as int64
)

type Tuple struct {
	Lower, Upper, Shift, Span int64
}

type RowDescriptor struct {
	Dims       int
	SliceOff   int64
	FieldOff   int64
	ArrayRef   Reference
	Tuples     []Tuple
}

// DescriptorSize returns the byte footprint of a row descriptor header
// with the given rank.
func (m *Mode) DescriptorSize() int {
	return rowHeaderTuplesBase + m.Dims*tupleSize
}

func PutRowDescriptor(buf []byte, d RowDescriptor) {
	binary.LittleEndian.PutUint64(buf[rowHeaderDims:], uint64(d.Dims))
	binary.LittleEndian.PutUint64(buf[rowHeaderSliceOff:], uint64(d.SliceOff))
	binary.LittleEndian.PutUint64(buf[rowHeaderFieldOff:], uint64(d.FieldOff))
	PutReference(buf, rowHeaderArrayRef, d.ArrayRef)
	for i, t := range d.Tuples {
		base := rowHeaderTuplesBase + i*tupleSize
		binary.LittleEndian.PutUint64(buf[base:], uint64(t.Lower))
		binary.LittleEndian.PutUint64(buf[base+8:], uint64(t.Upper))
		binary.LittleEndian.PutUint64(buf[base+16:], uint64(t.Shift))
		binary.LittleEndian.PutUint64(buf[base+24:], uint64(t.Span))
	}
}

func GetRowDescriptor(buf []byte, dims int) RowDescriptor {
	d := RowDescriptor{
		Dims:     int(binary.LittleEndian.Uint64(buf[rowHeaderDims:])),
		SliceOff: int64(binary.LittleEndian.Uint64(buf[rowHeaderSliceOff:])),
		FieldOff: int64(binary.LittleEndian.Uint64(buf[rowHeaderFieldOff:])),
		ArrayRef: GetReference(buf, rowHeaderArrayRef),
	}
	d.Tuples = make([]Tuple, dims)
	for i := range d.Tuples {
		base := rowHeaderTuplesBase + i*tupleSize
		d.Tuples[i] = Tuple{
			Lower: int64(binary.LittleEndian.Uint64(buf[base:])),
			Upper: int64(binary.LittleEndian.Uint64(buf[base+8:])),
			Shift: int64(binary.LittleEndian.Uint64(buf[base+16:])),
			Span:  int64(binary.LittleEndian.Uint64(buf[base+24:])),
		}
	}
	return d
}

// UnionTagWidth is the encoded size of a UNION's active-variant tag
// (an index into Mode.Variants), stored ahead of the payload bytes.
const UnionTagWidth = 8

func PutUnionTag(buf []byte, at int, variant int) {
	binary.LittleEndian.PutUint64(buf[at:], uint64(variant))
}

func GetUnionTag(buf []byte, at int) int {
	return int(binary.LittleEndian.Uint64(buf[at:]))
}

// WalkReferences invokes fn once per embedded Reference found inside a
// stowed value of mode m laid out at buf[0:m.Size-ish]. This is the
// mode-directed tracing §4.2 describes ("Traversal uses the mode to
// locate embedded references") and is shared verbatim by gc's marker
// and stowed's deep-copy walker.
//
// Every STRUCT/UNION field of a non-scalar mode is itself stored as a
// Reference to a separately heap-allocated payload (Mode.ReferenceShaped),
// never inline — so a field walk never recurses into the field's own
// kind-specific layout here. The referenced payload gets its own
// WalkReferences pass once the mark phase follows the Reference to its
// handle (gc.Heap.markHandle), which is what makes transitive marking
// correct without this function needing caller context.
func WalkReferences(m *Mode, buf []byte, fn func(at int, ref Reference)) {
	switch m.Kind {
	case KindRow, KindFlexRow:
		fn(rowHeaderArrayRef, GetReference(buf, rowHeaderArrayRef))
	case KindStruct:
		for _, f := range m.Fields {
			if f.Mode.ReferenceShaped() || isRefMode(f.Mode) {
				fn(f.Offset, GetReference(buf, f.Offset))
			}
		}
	case KindUnion:
		tag := GetUnionTag(buf, 0)
		if tag >= 0 && tag < len(m.Variants) {
			variant := m.Variants[tag]
			if variant.ReferenceShaped() || isRefMode(variant) {
				fn(UnionTagWidth, GetReference(buf, UnionTagWidth))
			}
		}
	default:
		if isRefMode(m) || m.ReferenceShaped() {
			fn(0, GetReference(buf, 0))
		}
	}
}

// refMode is a sentinel Kind used by names (REF values) stored inline
// in a frame/struct, distinguishing them from scalar payloads of the
// same byte width. Package stowed sets Mode.Kind to KindRow etc. for
// stowed names; plain REF-to-scalar names use this marker kind so
// WalkReferences (and the GC tracer) can find them too.
const KindRef Kind = 1000

func isRefMode(m *Mode) bool { return m.Kind == KindRef }

// NewRefMode builds the Mode for a REF m name stored inline.
func NewRefMode(target *Mode) *Mode {
	return &Mode{Kind: KindRef, Size: referenceWidth, Elem: target, Name: "REF " + target.Name}
}
