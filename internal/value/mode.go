// Package value implements C3: tagged primitive cells, mode descriptors,
// size tables, and the pure producer helpers for widening coercions.
package value

// Kind discriminates the primitive shape a Mode describes. STRUCT, ROW,
// FLEX ROW and UNION are the stowed kinds (see package stowed).
type Kind int

const (
	KindInt Kind = iota
	KindReal
	KindBool
	KindChar
	KindBits
	KindBytes
	KindLongInt
	KindLongLongInt
	KindLongReal
	KindLongLongReal
	KindLongBytes
	KindFormat
	KindProc
	KindFile
	KindUnion
	KindStruct
	KindRow
	KindFlexRow
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindReal:
		return "REAL"
	case KindBool:
		return "BOOL"
	case KindChar:
		return "CHAR"
	case KindBits:
		return "BITS"
	case KindBytes:
		return "BYTES"
	case KindLongInt:
		return "LONG INT"
	case KindLongLongInt:
		return "LONG LONG INT"
	case KindLongReal:
		return "LONG REAL"
	case KindLongLongReal:
		return "LONG LONG REAL"
	case KindLongBytes:
		return "LONG BYTES"
	case KindFormat:
		return "FORMAT"
	case KindProc:
		return "PROC"
	case KindFile:
		return "FILE"
	case KindUnion:
		return "UNION"
	case KindStruct:
		return "STRUCT"
	case KindRow:
		return "ROW"
	case KindFlexRow:
		return "FLEX ROW"
	case KindVoid:
		return "VOID"
	default:
		return "MODE(?)"
	}
}

// FieldDescriptor locates one STRUCT field within its pack.
type FieldDescriptor struct {
	Name   string
	Mode   *Mode
	Offset int
}

// Mode is the runtime type descriptor every cell, name and row
// descriptor carries a pointer to. Modes are built once by the
// mode-equivalence pass (external collaborator) and never mutated
// after elaboration.
type Mode struct {
	Kind     Kind
	Size     int              // payload size in bytes for scalar kinds
	Elem     *Mode            // element mode for ROW/FLEX ROW
	Dims     int              // rank for ROW/FLEX ROW
	Fields   []FieldDescriptor // STRUCT pack, in declaration order
	Variants []*Mode           // UNION member modes
	Flex     bool              // true for FLEX ROW
	Name     string            // diagnostic name, e.g. "[1:3] INT"
}

// StructSize returns the total packed size of a STRUCT's fields.
func (m *Mode) StructSize() int {
	if m.Kind != KindStruct {
		return m.Size
	}
	total := 0
	for _, f := range m.Fields {
		total += f.Mode.Size
	}
	return total
}

// Stowed reports whether m requires deep-copy semantics under
// assignment (§3.3 Ownership, §4.4).
func (m *Mode) Stowed() bool {
	switch m.Kind {
	case KindRow, KindFlexRow, KindStruct, KindUnion:
		return true
	default:
		return false
	}
}

// ReferenceShaped reports whether a name or struct/union field of this
// mode is stored as a Reference to a separately heap-allocated payload
// rather than as an inline scalar payload. Every stowed kind qualifies,
// plus PROC, FORMAT and FILE, whose runtime records this implementation
// always heap-allocates (§4.5 routine texts, §4.8 files, C10 format
// texts) so that a single Reference-shaped storage convention covers
// every non-scalar mode.
func (m *Mode) ReferenceShaped() bool {
	switch m.Kind {
	case KindRow, KindFlexRow, KindStruct, KindUnion, KindProc, KindFormat, KindFile:
		return true
	default:
		return false
	}
}

// NewProcMode, NewFormatMode and NewFileMode build singleton Modes for
// PROC, FORMAT and FILE values. Their frame/field footprint is a single
// Reference, since this implementation always stores their runtime
// record on the heap (see ReferenceShaped).
func NewProcMode() *Mode   { return &Mode{Kind: KindProc, Size: ReferenceWidth(), Name: "PROC"} }
func NewFormatMode() *Mode { return &Mode{Kind: KindFormat, Size: ReferenceWidth(), Name: "FORMAT"} }
func NewFileMode() *Mode   { return &Mode{Kind: KindFile, Size: ReferenceWidth(), Name: "FILE"} }

// standard scalar sizes, computed once (§4.3 "size tables per mode").
// Each includes a 1-byte status prefix (INITIALISED/ASSIGNED/CONSTANT/
// STANDENV-PROCEDURE, §3.3) ahead of the payload, so a storage location
// never needs a side table to know whether it holds a value yet.
const statusPrefixSize = 1

var scalarSizes = map[Kind]int{
	KindInt:          statusPrefixSize + 8,
	KindReal:         statusPrefixSize + 8,
	KindBool:         statusPrefixSize + 1,
	KindChar:         statusPrefixSize + 4,
	KindBits:         statusPrefixSize + 8,
	KindLongInt:      statusPrefixSize + 16,
	KindLongLongInt:  statusPrefixSize + 32,
	KindLongReal:     statusPrefixSize + 16,
	KindLongLongReal: statusPrefixSize + 32,
}

// NewScalarMode returns a singleton-shaped Mode for a primitive kind.
func NewScalarMode(k Kind) *Mode {
	return &Mode{Kind: k, Size: scalarSizes[k], Name: k.String()}
}

// RowDescriptorSize is the in-memory footprint of a ROW's own
// descriptor header, independent of the element block it references
// (§3.3 "descriptor {dimensions, elem-mode, elem-size, slice-offset,
// field-offset, array-ref} followed by per-dimension tuples").
func RowDescriptorSize(dims int) int {
	return rowHeaderTuplesBase + dims*tupleSize
}
