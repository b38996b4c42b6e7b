package genie

import (
	"math"

	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// InstallStandardEnvironment registers every native (standenv) operator
// and procedure this implementation ships, keyed by source symbol
// (§4.7 "Native (standenv) procedures are invoked directly"). User
// programs never see a difference between these and a routine-text
// PROC beyond the STANDENV-PROCEDURE status bit the original sets on
// denotation; here the distinction is structural: execCall/execFormula
// look the symbol up in Engine.Standenv before falling back to a
// user-defined operator tag.
func InstallStandardEnvironment(e *Engine) {
	bin := func(name string, fn func(a, b value.Cell) (value.Cell, error)) {
		e.Standenv[name] = func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
			if len(args) != 2 {
				return value.StackValue{}, errString("operator " + name + " expects two operands")
			}
			c, err := fn(args[0].Cell, args[1].Cell)
			if err != nil {
				return value.StackValue{}, err
			}
			return value.CellValue(c), nil
		}
	}
	mon := func(name string, fn func(a value.Cell) (value.Cell, error)) {
		e.Standenv[name] = func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
			if len(args) != 1 {
				return value.StackValue{}, errString("operator " + name + " expects one operand")
			}
			c, err := fn(args[0].Cell)
			if err != nil {
				return value.StackValue{}, err
			}
			return value.CellValue(c), nil
		}
	}

	bin("+", arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	bin("-", arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	bin("*", arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	bin("/", func(a, b value.Cell) (value.Cell, error) {
		if a.Mode != nil && a.Mode.Kind == value.KindInt && b.Mode != nil && b.Mode.Kind == value.KindInt {
			if b.AsInt() == 0 {
				return value.Cell{}, errString("division by zero")
			}
			return value.Real(float64(a.AsInt()) / float64(b.AsInt())), nil
		}
		if b.AsReal() == 0 {
			return value.Cell{}, errString("division by zero")
		}
		return value.Real(asReal(a) / asReal(b)), nil
	})
	e.Standenv["OVER"] = intBinOp(func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errString("division by zero")
		}
		return a / b, nil
	})
	e.Standenv["%"] = e.Standenv["OVER"]
	e.Standenv["MOD"] = intBinOp(func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errString("division by zero")
		}
		m := a % b
		if m < 0 {
			m += iabs(b)
		}
		return m, nil
	})
	e.Standenv["%*"] = e.Standenv["MOD"]

	bin("**", func(a, b value.Cell) (value.Cell, error) {
		if a.Mode != nil && a.Mode.Kind == value.KindInt && b.Mode != nil && b.Mode.Kind == value.KindInt && b.AsInt() >= 0 {
			return value.Int(ipow(a.AsInt(), b.AsInt())), nil
		}
		return value.Real(math.Pow(asReal(a), asReal(b))), nil
	})

	cmp := func(name string, ok func(int) bool) {
		bin(name, func(a, b value.Cell) (value.Cell, error) {
			return value.Bool(ok(compareCells(a, b))), nil
		})
	}
	cmp("=", func(c int) bool { return c == 0 })
	cmp("/=", func(c int) bool { return c != 0 })
	cmp("<", func(c int) bool { return c < 0 })
	cmp("<=", func(c int) bool { return c <= 0 })
	cmp(">", func(c int) bool { return c > 0 })
	cmp(">=", func(c int) bool { return c >= 0 })

	dyadicMinus := e.Standenv["-"]
	mon("-", func(a value.Cell) (value.Cell, error) {
		if a.Mode != nil && a.Mode.Kind == value.KindInt {
			return value.Int(-a.AsInt()), nil
		}
		return value.Real(-a.AsReal()), nil
	})
	monadicMinus := e.Standenv["-"]
	e.Standenv["-"] = func(eng *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) == 2 {
			return dyadicMinus(eng, args)
		}
		return monadicMinus(eng, args)
	}
	mon("ABS", func(a value.Cell) (value.Cell, error) {
		if a.Mode != nil && a.Mode.Kind == value.KindInt {
			return value.Int(iabs(a.AsInt())), nil
		}
		return value.Real(math.Abs(a.AsReal())), nil
	})
	mon("SIGN", func(a value.Cell) (value.Cell, error) {
		var v int64
		switch {
		case a.Mode != nil && a.Mode.Kind == value.KindInt:
			if a.AsInt() > 0 {
				v = 1
			} else if a.AsInt() < 0 {
				v = -1
			}
		default:
			if a.AsReal() > 0 {
				v = 1
			} else if a.AsReal() < 0 {
				v = -1
			}
		}
		return value.Int(v), nil
	})
	mon("ODD", func(a value.Cell) (value.Cell, error) { return value.Bool(a.AsInt()%2 != 0), nil })
	mon("NOT", func(a value.Cell) (value.Cell, error) { return value.Bool(!a.AsBool()), nil })
	mon("ENTIER", func(a value.Cell) (value.Cell, error) { return value.Int(int64(math.Floor(a.AsReal()))), nil })
	mon("ROUND", func(a value.Cell) (value.Cell, error) { return value.Int(int64(math.Round(a.AsReal()))), nil })
	mon("SQRT", func(a value.Cell) (value.Cell, error) { return value.Real(math.Sqrt(asReal(a))), nil })
	mon("SIN", func(a value.Cell) (value.Cell, error) { return value.Real(math.Sin(asReal(a))), nil })
	mon("COS", func(a value.Cell) (value.Cell, error) { return value.Real(math.Cos(asReal(a))), nil })
	mon("EXP", func(a value.Cell) (value.Cell, error) { return value.Real(math.Exp(asReal(a))), nil })
	mon("LN", func(a value.Cell) (value.Cell, error) { return value.Real(math.Log(asReal(a))), nil })
}

func arith(iop func(a, b int64) int64, rop func(a, b float64) float64) func(a, b value.Cell) (value.Cell, error) {
	return func(a, b value.Cell) (value.Cell, error) {
		if a.Mode != nil && a.Mode.Kind == value.KindInt && b.Mode != nil && b.Mode.Kind == value.KindInt {
			return value.Int(iop(a.AsInt(), b.AsInt())), nil
		}
		return value.Real(rop(asReal(a), asReal(b))), nil
	}
}

func intBinOp(fn func(a, b int64) (int64, error)) NativeProc {
	return func(e *Engine, args []value.StackValue) (value.StackValue, error) {
		if len(args) != 2 {
			return value.StackValue{}, errString("operator expects two operands")
		}
		v, err := fn(args[0].Cell.AsInt(), args[1].Cell.AsInt())
		if err != nil {
			return value.StackValue{}, err
		}
		return value.CellValue(value.Int(v)), nil
	}
}

func asReal(c value.Cell) float64 {
	if c.Mode != nil && c.Mode.Kind == value.KindInt {
		return float64(c.AsInt())
	}
	return c.AsReal()
}

func iabs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func ipow(base, exp int64) int64 {
	r := int64(1)
	for i := int64(0); i < exp; i++ {
		r *= base
	}
	return r
}

func compareCells(a, b value.Cell) int {
	if a.Mode != nil && a.Mode.Kind == value.KindInt && b.Mode != nil && b.Mode.Kind == value.KindInt {
		switch {
		case a.AsInt() < b.AsInt():
			return -1
		case a.AsInt() > b.AsInt():
			return 1
		default:
			return 0
		}
	}
	if a.Mode != nil && a.Mode.Kind == value.KindChar {
		switch {
		case a.AsChar() < b.AsChar():
			return -1
		case a.AsChar() > b.AsChar():
			return 1
		default:
			return 0
		}
	}
	x, y := asReal(a), asReal(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// execFormula dispatches a dyadic or monadic operator application
// (§4.5): a native standenv operator by symbol, falling back to a
// user-declared operator's routine-text body (§4.7).
func (e *Engine) execFormula(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	args, err := e.evalArgs(kids)
	if err != nil {
		return value.StackValue{}, err
	}
	if fn, ok := e.Standenv[n.Symbol]; ok {
		return fn(e, args)
	}
	tag := n.TagRef
	if tag == nil || tag.Defining == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("no operator bound for "+n.Symbol))
	}
	pv, err := e.userOperatorValue(tag)
	if err != nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, err)
	}
	return e.callProc(n, pv, args)
}

// userOperatorValue builds a transient ProcValue for a user-declared
// operator's routine-text body, without going through the heap
// placeholder allocation execRoutineText uses — operators are looked
// up by tag each call, never stored as first-class PROC values.
func (e *Engine) userOperatorValue(tag *tree.Tag) (*ProcValue, error) {
	body := tag.Defining
	if body == nil {
		return nil, errString("operator tag has no defining routine text")
	}
	var params []*tree.Tag
	if body.SymbolTable != nil {
		params = body.SymbolTable.Tags
	}
	return &ProcValue{Body: body.Child(len(body.Children()) - 1), Params: params, StaticBase: -1, StaticLevel: -1}, nil
}
