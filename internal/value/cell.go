package value

import "math"

// StatusBit records per-cell metadata independent of payload (§3.3).
type StatusBit uint8

const (
	Initialised StatusBit = 1 << iota
	Assigned              // names only: has this name ever been assigned?
	Constant
	StandenvProcedure
)

// Cell is a tagged primitive value: status bits plus an 8-byte payload
// big enough for INT/REAL/BITS/CHAR and used as the building block for
// LONG modes (a slice of Cells forms a multiprecision digit sequence,
// see Mode.Kind LongInt/LongReal and friends).
type Cell struct {
	Status  StatusBit
	Payload uint64 // bit pattern: int64, float64 bits, rune, or bits mask
	Mode    *Mode
}

func (c Cell) Has(bit StatusBit) bool { return c.Status&bit != 0 }

func (c *Cell) Set(bit StatusBit)   { c.Status |= bit }
func (c *Cell) Clear(bit StatusBit) { c.Status &^= bit }

// Int constructs an initialised INT cell.
func Int(v int64) Cell {
	return Cell{Status: Initialised, Payload: uint64(v), Mode: NewScalarMode(KindInt)}
}

// Real constructs an initialised REAL cell.
func Real(v float64) Cell {
	return Cell{Status: Initialised, Payload: math.Float64bits(v), Mode: NewScalarMode(KindReal)}
}

// Bool constructs an initialised BOOL cell.
func Bool(v bool) Cell {
	var p uint64
	if v {
		p = 1
	}
	return Cell{Status: Initialised, Payload: p, Mode: NewScalarMode(KindBool)}
}

// Char constructs an initialised CHAR cell.
func Char(r rune) Cell {
	return Cell{Status: Initialised, Payload: uint64(r), Mode: NewScalarMode(KindChar)}
}

func (c Cell) AsInt() int64    { return int64(c.Payload) }
func (c Cell) AsReal() float64 { return math.Float64frombits(c.Payload) }
func (c Cell) AsBool() bool    { return c.Payload != 0 }
func (c Cell) AsChar() rune    { return rune(c.Payload) }

// EmptyValueError is raised by a read of an un-INITIALISED scalar cell
// (§4.3). Two shapes exist in the original: a bare EMPTY-VALUE and an
// EMPTY-VALUE-FROM carrying the offending mode (original_source
// atoms.c: genie_check_initialisation).
type EmptyValueError struct {
	Mode *Mode // nil => bare EMPTY-VALUE
}

func (e *EmptyValueError) Error() string {
	if e.Mode == nil {
		return "empty value"
	}
	return "empty value from mode " + e.Mode.Name
}

// CheckInitialisation mirrors genie_check_initialisation: it returns an
// error if the cell has not been assigned a value, naming the mode when
// one is known.
func CheckInitialisation(c Cell, m *Mode) error {
	if !c.Has(Initialised) {
		if m != nil {
			return &EmptyValueError{Mode: m}
		}
		return &EmptyValueError{}
	}
	return nil
}

// Widen produces a new Cell for standard Algol 68 widenings (§4.3).
// Widening is a pure producer: it never mutates src. If src is
// CONSTANT, the caller may constant-cache the result (see
// internal/genie's constant caching, §4.6).
func Widen(src Cell, to Kind) (Cell, bool) {
	switch {
	case src.Mode.Kind == KindInt && to == KindReal:
		out := Real(float64(src.AsInt()))
		if src.Has(Constant) {
			out.Set(Constant)
		}
		return out, true
	case src.Mode.Kind == KindBits && to == KindRow:
		// BITS -> ROW BOOL widening is handled by stowed.WidenBitsToRow,
		// which needs heap access this package does not have.
		return Cell{}, false
	default:
		return Cell{}, false
	}
}
