package genie

import (
	"math"
	"strconv"
	"strings"

	"github.com/genie68/a68run/internal/formatted"
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/unformatted"
	"github.com/genie68/a68run/internal/value"
)

// InstallTransputEnvironment registers the C9/C10-backed standenv
// procedures (§4.8/§4.9/§4.10): the plain print/read family operates
// on standout/standin directly; the put/get family takes an explicit
// FILE name first argument, matching a68g's genie_write_standard vs.
// genie_write split.
func InstallTransputEnvironment(e *Engine) {
	e.Standenv["print"] = e.nativeWrite(func() value.Reference { return e.StandOut })
	e.Standenv["write"] = e.Standenv["print"]
	e.Standenv["read"] = e.nativeRead(func() value.Reference { return e.StandIn })
	e.Standenv["put"] = e.nativeWriteOnFile()
	e.Standenv["get"] = e.nativeReadOnFile()
	e.Standenv["new line"] = e.nativeEmitControl("\n")
	e.Standenv["new page"] = e.nativeEmitControl("\f")
	e.Standenv["putf"] = e.nativePutf()
	e.Standenv["getf"] = e.nativeGetf()
	e.Standenv["printf"] = e.nativePrintf()
	e.Standenv["readf"] = e.nativeReadf()

	e.Standenv["whole"] = e.nativeWhole()
	e.Standenv["fixed"] = e.nativeFixed()
	e.Standenv["float"] = e.nativeFloat()

	e.Standenv["open"] = e.nativeOpen(transput.Open)
	e.Standenv["establish"] = e.nativeOpen(transput.Establish)
	e.Standenv["create"] = e.nativeCreate()
	e.Standenv["close"] = e.nativeLifecycle((*transput.File).Close)
	e.Standenv["lock"] = e.nativeLifecycle((*transput.File).Lock)
	e.Standenv["erase"] = e.nativeLifecycle((*transput.File).Erase)
}

// fileOfArg resolves a FILE-valued argument's runtime record; a FILE
// is reference-shaped (value.Mode.ReferenceShaped), so the argument's
// own Ref already is the handle Engine.files is keyed by (§4.8).
func (e *Engine) fileOfArg(v value.StackValue) (*transput.File, error) {
	if !v.IsRef {
		return nil, errString("expected a FILE argument")
	}
	f, ok := e.FileOf(v.Ref)
	if !ok {
		return nil, errString("argument does not name a live FILE")
	}
	return f, nil
}

// writeArg sends one argument to f, using the row-of-char fast path
// for STRING/[]CHAR operands (§4.9 plain write) and the scalar writer
// otherwise.
func (e *Engine) writeArg(f *transput.File, v value.StackValue) error {
	if v.IsRef {
		if mode := e.modeAt(v.Ref); mode != nil && (mode.Kind == value.KindRow || mode.Kind == value.KindFlexRow) && mode.Elem != nil && mode.Elem.Kind == value.KindChar {
			s, err := e.stringFromRow(v.Ref)
			if err != nil {
				return err
			}
			return f.WriteString(s)
		}
		return unformatted.WriteRow(e.Heap, f, v.Ref)
	}
	return unformatted.WriteScalar(f, v.Cell.Mode, v.Cell)
}

// modeAt recovers the mode a Reference's heap handle was allocated
// with, used to tell a row name's element kind apart without the
// caller threading a static mode through (print/write accept mixed
// argument lists with no single declared mode).
func (e *Engine) modeAt(ref value.Reference) *value.Mode {
	if ref.Segment != value.SegmentHeap {
		return nil
	}
	return e.Heap.HandleInfo(ref.Handle).Mode
}

func (e *Engine) stringFromRow(ref value.Reference) (string, error) {
	d, mode, err := stowed.Deref(e.Heap, ref)
	if err != nil {
		return "", err
	}
	if d.Dims != 1 {
		return "", errString("string transput expects a one-dimensional row")
	}
	arrayBuf := e.Heap.Resolve(d.ArrayRef.Handle)
	t := d.Tuples[0]
	n := t.Upper - t.Lower + 1
	if n <= 0 {
		return "", nil
	}
	var sb strings.Builder
	for i := int64(0); i < n; i++ {
		addr := int(d.SliceOff) + int(t.Span*(t.Lower+i-t.Shift))*mode.Elem.Size + int(d.FieldOff)
		c := value.GetCell(arrayBuf, addr, mode.Elem)
		sb.WriteRune(c.AsChar())
	}
	return sb.String(), nil
}

func (e *Engine) nativeWrite(file func() value.Reference) NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		f, ok := eng.FileOf(file())
		if !ok {
			return value.StackValue{}, errString("standard output is not open")
		}
		for _, a := range args {
			if err := eng.writeArg(f, a); err != nil {
				return value.StackValue{}, err
			}
		}
		return value.StackValue{}, nil
	}
}

func (e *Engine) nativeWriteOnFile() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) == 0 {
			return value.StackValue{}, errString("put expects a FILE argument")
		}
		f, err := eng.fileOfArg(args[0])
		if err != nil {
			return value.StackValue{}, err
		}
		for _, a := range args[1:] {
			if err := eng.writeArg(f, a); err != nil {
				return value.StackValue{}, err
			}
		}
		return value.StackValue{}, nil
	}
}

// readArg reads one scalar (or row) value from f into the name arg
// points at (§4.9 plain read), storing the result without going
// through stowed.Assign since every unformatted read target is either
// a scalar cell or a ROW of scalars addressed element by element.
func (e *Engine) readArg(f *transput.File, v value.StackValue) error {
	if !v.IsRef {
		return errString("read expects a name argument")
	}
	mode := e.modeAt(v.Ref)
	if mode != nil && (mode.Kind == value.KindRow || mode.Kind == value.KindFlexRow) {
		return unformatted.ReadRow(e.Heap, f, v.Ref)
	}
	buf, err := e.resolveBytes(v.Ref, mode)
	if err != nil {
		return err
	}
	c, err := unformatted.ReadScalar(f, mode)
	if err != nil {
		return err
	}
	value.PutCell(buf, 0, c)
	return nil
}

func (e *Engine) nativeRead(file func() value.Reference) NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		f, ok := eng.FileOf(file())
		if !ok {
			return value.StackValue{}, errString("standard input is not open")
		}
		for _, a := range args {
			if err := eng.readArg(f, a); err != nil {
				return value.StackValue{}, err
			}
		}
		return value.StackValue{}, nil
	}
}

func (e *Engine) nativeReadOnFile() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) == 0 {
			return value.StackValue{}, errString("get expects a FILE argument")
		}
		f, err := eng.fileOfArg(args[0])
		if err != nil {
			return value.StackValue{}, err
		}
		for _, a := range args[1:] {
			if err := eng.readArg(f, a); err != nil {
				return value.StackValue{}, err
			}
		}
		return value.StackValue{}, nil
	}
}

func (e *Engine) nativeEmitControl(s string) NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		target := eng.StandOut
		if len(args) > 0 {
			if !args[0].IsRef {
				return value.StackValue{}, errString("expects a FILE argument")
			}
			target = args[0].Ref
		}
		f, ok := eng.FileOf(target)
		if !ok {
			return value.StackValue{}, errString("argument does not name a live FILE")
		}
		return value.StackValue{}, f.WriteString(s)
	}
}

// nativePutf implements formatted write (§4.10): args are (file,
// format, v1, v2, ...). Insertions are emitted as encountered; each
// non-insertion picture consumes the next value argument.
func (e *Engine) nativePutf() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) < 2 {
			return value.StackValue{}, errString("putf expects (file, format, values...)")
		}
		f, err := eng.fileOfArg(args[0])
		if err != nil {
			return value.StackValue{}, err
		}
		fv, ok := eng.FormatOf(args[1].Ref)
		if !ok {
			return value.StackValue{}, errString("second argument to putf does not name a FORMAT")
		}
		fr := formatted.NewFrame(fv.Pattern, nil)
		act := formatted.InsertionAction(func(kind formatted.Kind, literal string) error {
			return f.WriteString(literal)
		})
		onEnd := formatEndHandler(f)
		for _, v := range args[2:] {
			for {
				p, err := formatted.GetNextPattern(eng, fr, act)
				if err == formatted.ErrEndOfFormat {
					fr = formatted.EndOfFormat(fr, onEnd)
					continue
				}
				if err != nil {
					return value.StackValue{}, err
				}
				var sb strings.Builder
				if err := formatted.WritePicture(&sb, p, v.Cell); err != nil {
					return value.StackValue{}, err
				}
				if err := f.WriteString(sb.String()); err != nil {
					return value.StackValue{}, err
				}
				break
			}
		}
		return value.StackValue{}, nil
	}
}

// nativeGetf implements formatted read: args are (file, format,
// name1, name2, ...); each name is filled from the next non-insertion
// picture's matching token.
func (e *Engine) nativeGetf() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) < 2 {
			return value.StackValue{}, errString("getf expects (file, format, names...)")
		}
		f, err := eng.fileOfArg(args[0])
		if err != nil {
			return value.StackValue{}, err
		}
		fv, ok := eng.FormatOf(args[1].Ref)
		if !ok {
			return value.StackValue{}, errString("second argument to getf does not name a FORMAT")
		}
		fr := formatted.NewFrame(fv.Pattern, nil)
		act := formatted.InsertionAction(func(kind formatted.Kind, literal string) error {
			return nil
		})
		onEnd := formatEndHandler(f)
		for _, v := range args[2:] {
			if !v.IsRef {
				return value.StackValue{}, errString("getf expects name arguments")
			}
			mode := eng.modeAt(v.Ref)
			for {
				p, err := formatted.GetNextPattern(eng, fr, act)
				if err == formatted.ErrEndOfFormat {
					fr = formatted.EndOfFormat(fr, onEnd)
					continue
				}
				if err != nil {
					return value.StackValue{}, err
				}
				tok, err := unformatted.ScanValueToken(f)
				if err != nil {
					return value.StackValue{}, err
				}
				c, err := formatted.ReadPicture(p, mode, tok)
				if err != nil {
					return value.StackValue{}, err
				}
				buf, err := eng.resolveBytes(v.Ref, mode)
				if err != nil {
					return value.StackValue{}, err
				}
				value.PutCell(buf, 0, c)
				break
			}
		}
		return value.StackValue{}, nil
	}
}

// nativePrintf is the standout shorthand for putf: (format, values...)
// with the FILE argument filled in as e.StandOut (§4.10, mirroring
// print's relationship to put).
func (e *Engine) nativePrintf() NativeProc {
	putf := e.nativePutf()
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		return putf(eng, append([]value.StackValue{value.RefValue(eng.StandOut)}, args...))
	}
}

// nativeReadf is the standin shorthand for getf.
func (e *Engine) nativeReadf() NativeProc {
	getf := e.nativeGetf()
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		return getf(eng, append([]value.StackValue{value.RefValue(eng.StandIn)}, args...))
	}
}

// stringToRow heap-allocates a STRING (row of CHAR, 1-origin) holding
// s, the reverse of stringFromRow, so whole/fixed/float can hand their
// formatted text back as an ordinary Algol 68 STRING result.
func (e *Engine) stringToRow(s string) (value.Reference, error) {
	elemMode := value.NewScalarMode(value.KindChar)
	runes := []rune(s)
	bounds := []stowed.Bound{{Lower: 1, Upper: int64(len(runes))}}
	elems := make([][]byte, len(runes))
	for i, r := range runes {
		buf := make([]byte, elemMode.Size)
		value.PutCell(buf, 0, value.Char(r))
		elems[i] = buf
	}
	return stowed.NewRow(e.Heap, elemMode, bounds, elems)
}

// cellAsInt/cellAsReal let whole/fixed/float accept either an INT or a
// REAL operand without the caller threading a static NUMBER union
// through, the same mode-dispatch trick modeAt enables elsewhere.
func cellAsInt(c value.Cell) int64 {
	if c.Mode != nil && c.Mode.Kind == value.KindReal {
		return int64(c.AsReal())
	}
	return c.AsInt()
}

func cellAsReal(c value.Cell) float64 {
	if c.Mode != nil && c.Mode.Kind == value.KindInt {
		return float64(c.AsInt())
	}
	return c.AsReal()
}

// wholeString implements the standenv whole(n, width) formatter (§8
// S1): width 0 asks for the natural field width (digits plus a
// mandatory sign); a negative width, like the real environment's, only
// ever means "right-justify, same as positive" since formatted.Whole
// is already right-justifying.
func wholeString(n, width int64) (string, error) {
	neg := n < 0
	abs := n
	if neg {
		abs = -abs
	}
	digits := strconv.FormatInt(abs, 10)
	target := width
	if target == 0 {
		target = int64(len(digits)) + 1
	}
	if target < 0 {
		target = -target
	}
	digitWidth := int(target) - 1
	if digitWidth < len(digits) {
		digitWidth = len(digits)
	}
	body, ok := formatted.Whole(abs, digitWidth, false)
	if !ok {
		return "", errString("whole: value does not fit width")
	}
	sign := "+"
	if neg {
		sign = "-"
	}
	return sign + body, nil
}

// fixedString implements standenv fixed(x, width, after) (§8 S2): the
// sign convention is formatted.Fixed's own (a leading "-" for negative,
// nothing for non-negative), only the width's sign is normalised away.
func fixedString(x float64, width, after int64) (string, error) {
	if width < 0 {
		width = -width
	}
	s, ok := formatted.Fixed(x, int(width), int(after))
	if !ok {
		return "", errString("fixed: value does not fit width")
	}
	return s, nil
}

// floatString implements standenv float(x, width, after, expWidth) (§8
// S3), which unlike fixed always shows a sign. formatted.Float is
// asked for a generously long, unpadded rendering of the magnitude so
// the sign can be inserted before applying this function's own
// right-justification to width.
func floatString(x float64, width, after, expWidth int64) (string, error) {
	neg := x < 0 || math.Signbit(x)
	abs := math.Abs(x)
	raw, ok := formatted.Float(abs, 64, int(after), int(expWidth))
	if !ok {
		return "", errString("float: value does not fit width")
	}
	core := strings.TrimLeft(raw, " ")
	sign := "+"
	if neg {
		sign = "-"
	}
	body := sign + core
	if width < 0 {
		width = -width
	}
	if int64(len(body)) > width {
		return "", errString("float: value does not fit width")
	}
	return strings.Repeat(" ", int(width)-len(body)) + body, nil
}

func (e *Engine) nativeWhole() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) != 2 || args[0].IsRef || args[1].IsRef {
			return value.StackValue{}, errString("whole expects (NUMBER, INT)")
		}
		s, err := wholeString(cellAsInt(args[0].Cell), args[1].Cell.AsInt())
		if err != nil {
			return value.StackValue{}, err
		}
		ref, err := eng.stringToRow(s)
		if err != nil {
			return value.StackValue{}, err
		}
		return value.RefValue(ref), nil
	}
}

func (e *Engine) nativeFixed() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) != 3 || args[0].IsRef || args[1].IsRef || args[2].IsRef {
			return value.StackValue{}, errString("fixed expects (NUMBER, INT, INT)")
		}
		s, err := fixedString(cellAsReal(args[0].Cell), args[1].Cell.AsInt(), args[2].Cell.AsInt())
		if err != nil {
			return value.StackValue{}, err
		}
		ref, err := eng.stringToRow(s)
		if err != nil {
			return value.StackValue{}, err
		}
		return value.RefValue(ref), nil
	}
}

func (e *Engine) nativeFloat() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) != 4 || args[0].IsRef || args[1].IsRef || args[2].IsRef || args[3].IsRef {
			return value.StackValue{}, errString("float expects (NUMBER, INT, INT, INT)")
		}
		s, err := floatString(cellAsReal(args[0].Cell), args[1].Cell.AsInt(), args[2].Cell.AsInt(), args[3].Cell.AsInt())
		if err != nil {
			return value.StackValue{}, err
		}
		ref, err := eng.stringToRow(s)
		if err != nil {
			return value.StackValue{}, err
		}
		return value.RefValue(ref), nil
	}
}

// nativeOpen backs both open (non-exclusive) and establish (exclusive
// creation) standenv procedures: args are (file, identification-row,
// channel). The FILE argument names a REF FILE slot that receives a
// freshly registered placeholder Reference (§4.8 "deferred OS open
// until the first read or write chooses a direction").
func (e *Engine) nativeOpen(build func(transput.Channel, string) *transput.File) NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) < 2 {
			return value.StackValue{}, errString("open expects (file, identification, channel?)")
		}
		if !args[0].IsRef {
			return value.StackValue{}, errString("open expects a REF FILE first argument")
		}
		ident, err := eng.identificationOf(args[1])
		if err != nil {
			return value.StackValue{}, err
		}
		ch := transput.StandardChannel
		if len(args) > 2 {
			ch = eng.channelFromTag(args[2])
		}
		f := build(ch, ident)
		ref := eng.registerFile(f)
		buf, err := eng.resolveBytes(args[0].Ref, value.NewFileMode())
		if err != nil {
			return value.StackValue{}, err
		}
		value.PutReference(buf, 0, ref)
		return value.RefValue(ref), nil
	}
}

func (e *Engine) nativeCreate() NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) < 1 || !args[0].IsRef {
			return value.StackValue{}, errString("create expects a REF FILE argument")
		}
		ch := transput.StandardChannel
		if len(args) > 1 {
			ch = eng.channelFromTag(args[1])
		}
		f := transput.Create(ch)
		ref := eng.registerFile(f)
		buf, err := eng.resolveBytes(args[0].Ref, value.NewFileMode())
		if err != nil {
			return value.StackValue{}, err
		}
		value.PutReference(buf, 0, ref)
		return value.RefValue(ref), nil
	}
}

func (e *Engine) nativeLifecycle(op func(*transput.File) error) NativeProc {
	return func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) < 1 {
			return value.StackValue{}, errString("expects a FILE argument")
		}
		f, err := eng.fileOfArg(args[0])
		if err != nil {
			return value.StackValue{}, err
		}
		return value.StackValue{}, op(f)
	}
}

func (e *Engine) identificationOf(v value.StackValue) (string, error) {
	if v.IsRef {
		return e.stringFromRow(v.Ref)
	}
	return "", errString("identification must be a row of CHAR")
}

func (e *Engine) channelFromTag(v value.StackValue) transput.Channel {
	if !v.IsRef && v.Cell.Mode != nil && v.Cell.Mode.Kind == value.KindBool && v.Cell.AsBool() {
		return transput.BinaryChannel
	}
	return transput.StandardChannel
}

// formatEndHandler adapts a FILE's on-format-end Handler (which takes
// the file itself) to the func() bool formatted.EndOfFormat expects,
// keeping package formatted free of a transput dependency.
func formatEndHandler(f *transput.File) func() bool {
	return func() bool {
		if f.OnFormatEnd == nil {
			return false
		}
		return f.OnFormatEnd(f)
	}
}
