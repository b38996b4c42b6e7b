package unformatted

import (
	"strconv"
	"strings"

	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/value"
)

// ReadScalar implements the unformatted scalar-read side of C9: skip
// leading separators, scan one token, then parse it per mode's grammar
// (§4.9 "parse digits / sign / point / exponent / radix per grammar").
func ReadScalar(f *transput.File, mode *value.Mode) (value.Cell, error) {
	if err := skipSeparators(f); err != nil {
		return value.Cell{}, err
	}
	tok, err := scanToken(f)
	if err != nil {
		return value.Cell{}, err
	}
	return parseToken(f, mode, tok)
}

func parseToken(f *transput.File, mode *value.Mode, tok string) (value.Cell, error) {
	switch mode.Kind {
	case value.KindInt, value.KindLongInt, value.KindLongLongInt:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return fireValueError(f, mode, tok)
		}
		return value.Int(v), nil
	case value.KindReal, value.KindLongReal, value.KindLongLongReal:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fireValueError(f, mode, tok)
		}
		return value.Real(v), nil
	case value.KindBool:
		switch tok {
		case "T", "TRUE":
			return value.Bool(true), nil
		case "F", "FALSE":
			return value.Bool(false), nil
		default:
			return fireValueError(f, mode, tok)
		}
	case value.KindChar:
		r := []rune(tok)
		if len(r) == 0 {
			return fireValueError(f, mode, tok)
		}
		return value.Char(r[0]), nil
	case value.KindBits:
		v, err := strconv.ParseUint(tok, 2, 64)
		if err != nil {
			return fireValueError(f, mode, tok)
		}
		return value.Cell{Status: value.Initialised, Payload: v, Mode: mode}, nil
	default:
		return value.Cell{}, &ValueError{Mode: mode.Name, Text: tok}
	}
}

func fireValueError(f *transput.File, mode *value.Mode, tok string) (value.Cell, error) {
	if f.OnValueError != nil && f.OnValueError(f) {
		return value.Cell{}, nil
	}
	return value.Cell{}, &ValueError{Mode: mode.Name, Text: tok}
}

// defaultWidth returns the field width the plain (non-formatted)
// writer uses for mode, derived from the mode's numeric width (§4.9
// "using per-mode default widths derived from the mode's numeric
// width").
func defaultWidth(mode *value.Mode) int {
	switch mode.Kind {
	case value.KindInt:
		return 11
	case value.KindLongInt:
		return 22
	case value.KindLongLongInt:
		return 44
	case value.KindReal:
		return 20
	case value.KindLongReal:
		return 32
	case value.KindLongLongReal:
		return 64
	case value.KindBits:
		return 32
	default:
		return 16
	}
}

// WriteScalar implements the unformatted scalar-write side of C9. INT
// modes are written with an explicit sign, right-aligned to the mode's
// default width; REAL, BOOL, CHAR and BITS are written in their
// shortest form with no padding. Package formatted's whole/fixed/float
// are not used here.
func WriteScalar(f *transput.File, mode *value.Mode, c value.Cell) error {
	s, err := renderScalar(mode, c)
	if err != nil {
		return err
	}
	return f.WriteString(s)
}

func renderScalar(mode *value.Mode, c value.Cell) (string, error) {
	width := defaultWidth(mode)
	switch mode.Kind {
	case value.KindInt, value.KindLongInt, value.KindLongLongInt:
		v := c.AsInt()
		abs := v
		if abs < 0 {
			abs = -abs
		}
		sign := "+"
		if v < 0 {
			sign = "-"
		}
		digits := strconv.FormatInt(abs, 10)
		pad := width - len(digits) - 1
		if pad < 0 {
			pad = 0
		}
		return strings.Repeat(" ", pad) + sign + digits, nil
	case value.KindReal, value.KindLongReal, value.KindLongLongReal:
		return strconv.FormatFloat(c.AsReal(), 'g', -1, 64), nil
	case value.KindBool:
		if c.AsBool() {
			return "T", nil
		}
		return "F", nil
	case value.KindChar:
		return string(c.AsChar()), nil
	case value.KindBits:
		return strconv.FormatUint(c.Payload, 2), nil
	default:
		return "", &ValueError{Mode: mode.Name, Text: "<unsupported write>"}
	}
}

