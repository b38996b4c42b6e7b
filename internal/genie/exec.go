package genie

import (
	"strconv"

	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// ExecuteUnit is the generic entry point every node dispatches through
// (§4.6): it installs a propagator on first execution if a fast path
// applies, then always calls through the installed fn so observable
// behaviour never depends on whether a specialisation fired.
func (e *Engine) ExecuteUnit(n *tree.Node) (value.StackValue, error) {
	if n == nil {
		return value.StackValue{}, nil
	}
	e.unitsExecuted++
	if e.unitsExecuted%e.sampleEvery() == 0 {
		if err := e.checkTimeLimit(n); err != nil {
			return value.StackValue{}, err
		}
	}
	if e.interrupted {
		e.enterMonitor(n)
	}
	if e.trace != nil {
		e.trace.Printf("unit %s %q", n.Attribute, n.Symbol)
	}

	if n.Propagator.Fn == nil {
		n.Propagator = e.installPropagator(n)
	}
	return n.Propagator.Fn(e, n)
}

func (e *Engine) sampleEvery() int {
	if e.Limits.SampleEvery > 0 {
		return e.Limits.SampleEvery
	}
	return 25000
}

// installPropagator chooses the generic handler for n's attribute, and
// upgrades to a named specialisation when one of the §4.6 fast paths
// applies. The generic fn is always correct; specialisations only
// cache work the generic path would otherwise redo (§4.6 Ordering
// guarantee).
func (e *Engine) installPropagator(n *tree.Node) tree.Propagator {
	if p, ok := e.trySpecialise(n); ok {
		return p
	}
	return tree.Propagator{Fn: genericDispatch, Source: n}
}

func genericDispatch(ex tree.Executor, n *tree.Node) (value.StackValue, error) {
	e := ex.(*Engine)
	switch n.Attribute {
	case tree.Denoter:
		return e.execDenoter(n)
	case tree.Identifier:
		return e.execIdentifier(n)
	case tree.Skip:
		return value.StackValue{}, nil
	case tree.Nihil:
		return value.RefValue(value.Nil), nil
	case tree.Generator:
		return e.execGenerator(n)
	case tree.Assignation:
		return e.execAssignation(n)
	case tree.IdentityRelation:
		return e.execIdentityRelation(n)
	case tree.AndFunction:
		return e.execAndFunction(n)
	case tree.OrFunction:
		return e.execOrFunction(n)
	case tree.CollateralClause, tree.ParallelClause:
		return e.execCollateral(n)
	case tree.ConditionalClause:
		return e.execConditional(n)
	case tree.IntegerCaseClause:
		return e.execIntegerCase(n)
	case tree.UnitedCaseClause:
		return e.execUnitedCase(n)
	case tree.LoopClause:
		return e.execLoop(n)
	case tree.ClosedClause, tree.SerialClause, tree.EnquiryClause:
		return e.execSerial(n)
	case tree.Call:
		return e.execCall(n)
	case tree.Slice:
		return e.execSlice(n)
	case tree.Selection:
		return e.execSelection(n)
	case tree.Cast:
		return e.ExecuteUnit(n.Child(0))
	case tree.Jump:
		return value.StackValue{}, e.execJump(n)
	case tree.Formula, tree.MonadicFormula:
		return e.execFormula(n)
	case tree.RoutineText:
		return e.execRoutineText(n)
	case tree.FormatText:
		return e.execFormatText(n)
	case tree.IdentityDeclaration:
		return e.execIdentityDeclaration(n)
	case tree.VariableDeclaration:
		return e.execVariableDeclaration(n)
	case tree.ProcedureDeclaration, tree.ProcedureVariableDeclaration:
		return e.execIdentityDeclaration(n)
	case tree.OperatorDeclaration, tree.BriefOperatorDeclaration, tree.PriorityDeclaration, tree.ModeDeclaration:
		return value.StackValue{}, nil // recorded by the parser's symbol-table pass already
	case tree.DeclarationList:
		var last value.StackValue
		for _, c := range n.Children() {
			v, err := e.ExecuteUnit(c)
			if err != nil {
				return value.StackValue{}, err
			}
			last = v
		}
		return last, nil
	case tree.LabeledUnit:
		return e.ExecuteUnit(n.Child(0))
	case tree.SpecifiedUnit:
		return e.ExecuteUnit(n.Child(0))
	case tree.Assertion:
		return e.execAssertion(n)
	case tree.CodeClause:
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errUnsupportedCode)
	case tree.UnitAttr, tree.Tertiary, tree.Secondary, tree.Primary:
		// wrapper attributes the parser may leave in place; the real
		// work is the single child.
		if len(n.Children()) == 1 {
			return e.ExecuteUnit(n.Child(0))
		}
		return value.StackValue{}, nil
	default:
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errNoHandler(n.Attribute))
	}
}

var errUnsupportedCode = errString("CODE clause has no native-code backend in this interpreter")

type errString string

func (e errString) Error() string { return string(e) }

func errNoHandler(a tree.Attribute) error { return errString("no genie handler for attribute " + a.String()) }

// execDenoter parses a literal denoter per its mode (§4.6 Constant
// caching, §8 property 6: the caching itself is installed by
// specialiseConstantDenoter; this is the one-shot parse it calls).
func (e *Engine) execDenoter(n *tree.Node) (value.StackValue, error) {
	return e.parseDenoter(n)
}

func (e *Engine) parseDenoter(n *tree.Node) (value.StackValue, error) {
	var cell value.Cell
	switch n.Mode.Kind {
	case value.KindInt:
		v, err := strconv.ParseInt(n.Symbol, 10, 64)
		if err != nil {
			return value.StackValue{}, fatal("SYNTAX", n, err)
		}
		cell = value.Int(v)
	case value.KindReal:
		v, err := strconv.ParseFloat(n.Symbol, 64)
		if err != nil {
			return value.StackValue{}, fatal("SYNTAX", n, err)
		}
		cell = value.Real(v)
	case value.KindBool:
		cell = value.Bool(n.Symbol == "TRUE" || n.Symbol == "true")
	case value.KindChar:
		r := []rune(n.Symbol)
		if len(r) == 0 {
			return value.StackValue{}, fatal("SYNTAX", n, errString("empty CHAR denoter"))
		}
		cell = value.Char(r[0])
	case value.KindBits:
		v, err := strconv.ParseUint(n.Symbol, 2, 64)
		if err != nil {
			return value.StackValue{}, fatal("SYNTAX", n, err)
		}
		cell = value.Cell{Status: value.Initialised, Payload: v, Mode: n.Mode}
	default:
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("unsupported denoter mode"))
	}
	cell.Set(value.Constant)
	return value.CellValue(cell), nil
}

// execIdentifier resolves n's Tag to a runtime storage location by
// walking static links the tag's owning scope's level away from the
// current frame, then reads through (for a VALUE-mode identifier) or
// returns the name itself (for a REF-mode identifier the coercion pass
// left undereferenced; Coercion==Deref triggers the read here too).
func (e *Engine) execIdentifier(n *tree.Node) (value.StackValue, error) {
	tag := n.TagRef
	if tag == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("identifier has no resolved tag"))
	}
	cur := e.Frames.Current()
	if cur == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("identifier read outside any frame"))
	}
	steps := 0
	if n.SymbolTable != nil && tag.Owner != nil {
		steps = n.SymbolTable.Level - tag.Owner.Level
	}
	target := e.Frames.StaticAncestor(cur, steps)
	if target == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("static link chain broken"))
	}
	at := target.Base + tag.FrameOffset
	frameBytes := e.Regions.Frame.Bytes()

	if tag.Mode != nil && tag.Mode.Kind == value.KindRef {
		ref := value.GetReference(frameBytes, at)
		if n.Coercion == tree.Deref {
			return e.derefReference(n, ref, tag.Mode.Elem)
		}
		return value.RefValue(ref), nil
	}
	if tag.Mode != nil && tag.Mode.ReferenceShaped() {
		ref := value.GetReference(frameBytes, at)
		return value.RefValue(ref), nil
	}
	c := value.GetCell(frameBytes, at, tag.Mode)
	if err := value.CheckInitialisation(c, tag.Mode); err != nil {
		return value.StackValue{}, fatal("EMPTY-VALUE", n, err)
	}
	return value.CellValue(c), nil
}

// derefReference reads through a REF to its target mode, applying
// §8 property 2's round-trip contract.
func (e *Engine) derefReference(n *tree.Node, ref value.Reference, target *value.Mode) (value.StackValue, error) {
	if ref.IsNil() {
		return value.StackValue{}, fatal("NIL-ACCESS", n, errString("dereference of NIL"))
	}
	buf, err := e.resolveBytes(ref, target)
	if err != nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, err)
	}
	if target.ReferenceShaped() {
		return value.RefValue(value.GetReference(buf, 0)), nil
	}
	c := value.GetCell(buf, 0, target)
	if err := value.CheckInitialisation(c, target); err != nil {
		return value.StackValue{}, fatal("EMPTY-VALUE", n, err)
	}
	return value.CellValue(c), nil
}

// resolveBytes locates the byte window a Reference addresses,
// regardless of which region it names (§3.2 "the only thing that
// survives compaction").
func (e *Engine) resolveBytes(ref value.Reference, mode *value.Mode) ([]byte, error) {
	switch ref.Segment {
	case value.SegmentHeap:
		return e.Heap.Resolve(ref.Handle)[ref.Offset:], nil
	case value.SegmentFrame:
		return e.Regions.Frame.Bytes()[ref.Offset:], nil
	case value.SegmentStack:
		return e.Regions.Expr.Bytes()[ref.Offset:], nil
	default:
		return nil, errString("NIL reference has no storage")
	}
}
