package formatted

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/genie68/a68run/internal/value"
)

// PatternError is fatal (§4.10 "pattern_error on mode-pattern
// mismatch").
type PatternError struct{ Kind Kind; Mode string }

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern kind %d does not accept mode %s", e.Kind, e.Mode)
}

// FormatError is raised for a picture without a matching argument, or
// an argument without a matching picture (§4.10).
type FormatError struct{ Reason string }

func (e *FormatError) Error() string { return "format error: " + e.Reason }

// WritePicture renders one value through one picture into buf (the
// caller's FORMATTED_BUFFER), sharing Whole/Fixed/Float with the
// unformatted writers (§ Supplemented feature 5).
func WritePicture(buf *strings.Builder, p Picture, c value.Cell) error {
	switch p.Kind {
	case KindGeneral:
		return writeGeneral(buf, c)
	case KindIntegral:
		widths := ParseInts(p.Spec)
		width := 0
		if len(widths) > 0 {
			width = widths[0]
		}
		v := c.AsInt()
		s, ok := Whole(abs64(v), width+signWidth(v), false)
		if !ok {
			return &PatternError{Kind: p.Kind, Mode: "INT"}
		}
		buf.WriteString(applySign(s, v < 0, width+signWidth(v)))
		return nil
	case KindReal:
		parts := ParseInts(p.Spec)
		length, frac := 0, 0
		if len(parts) > 0 {
			length = parts[0]
		}
		if len(parts) > 1 {
			frac = parts[1]
		}
		s, ok := Fixed(c.AsReal(), length, frac)
		if !ok {
			return &PatternError{Kind: p.Kind, Mode: "REAL"}
		}
		buf.WriteString(s)
		return nil
	case KindBits:
		parts := ParseInts(p.Spec)
		width, radix := 0, 2
		if len(parts) > 0 {
			width = parts[0]
		}
		if len(parts) > 1 {
			radix = parts[1]
		}
		s, ok := Bits(uint64(c.Payload), radix, width)
		if !ok {
			return &PatternError{Kind: p.Kind, Mode: "BITS"}
		}
		buf.WriteString(s)
		return nil
	case KindString:
		buf.WriteString(string(rune(c.AsChar())))
		return nil
	case KindBoolean:
		if c.AsBool() {
			buf.WriteByte('T')
		} else {
			buf.WriteByte('F')
		}
		return nil
	default:
		return &PatternError{Kind: p.Kind, Mode: "?"}
	}
}

func writeGeneral(buf *strings.Builder, c value.Cell) error {
	switch c.Mode.Kind {
	case value.KindInt:
		buf.WriteString(strconv.FormatInt(c.AsInt(), 10))
	case value.KindReal:
		buf.WriteString(strconv.FormatFloat(c.AsReal(), 'g', -1, 64))
	case value.KindBool:
		if c.AsBool() {
			buf.WriteByte('T')
		} else {
			buf.WriteByte('F')
		}
	case value.KindChar:
		buf.WriteRune(c.AsChar())
	default:
		return &PatternError{Kind: KindGeneral, Mode: c.Mode.Name}
	}
	return nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// signWidth is always 0: an INTEGRAL picture's stated width already
// reserves a column for the sign (format.c moulds count the sign frame
// into the digit count itself), so applySign overwrites one of Whole's
// own padding spaces rather than needing extra width added here.
func signWidth(v int64) int { return 0 }

func applySign(digits string, neg bool, width int) string {
	if !neg {
		return digits
	}
	trimmed := strings.TrimLeft(digits, " ")
	pad := len(digits) - len(trimmed) - 1
	if pad < 0 {
		return "-" + trimmed
	}
	return strings.Repeat(" ", pad) + "-" + trimmed
}

// ReadPicture parses one value for a picture out of tok, the already
// lexed token text for that field (§4.10 "value_error on unreadable
// input").
func ReadPicture(p Picture, mode *value.Mode, tok string) (value.Cell, error) {
	switch p.Kind {
	case KindIntegral, KindGeneral:
		if mode.Kind == value.KindReal {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
			}
			return value.Real(v), nil
		}
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
		}
		return value.Int(v), nil
	case KindReal:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
		}
		return value.Real(v), nil
	case KindBits:
		parts := ParseInts(p.Spec)
		radix := 2
		if len(parts) > 1 {
			radix = parts[1]
		}
		v, err := strconv.ParseUint(tok, radix, 64)
		if err != nil {
			return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
		}
		return value.Cell{Status: value.Initialised, Payload: v, Mode: mode}, nil
	case KindString:
		r := []rune(tok)
		if len(r) == 0 {
			return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
		}
		return value.Char(r[0]), nil
	case KindBoolean:
		switch tok {
		case "T", "TRUE":
			return value.Bool(true), nil
		case "F", "FALSE":
			return value.Bool(false), nil
		default:
			return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
		}
	default:
		return value.Cell{}, &PatternError{Kind: p.Kind, Mode: mode.Name}
	}
}
