package genie

import (
	"github.com/genie68/a68run/internal/stowed"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// execAssignation implements x := e (§4.4 Assign): the destination is
// evaluated to a name without dereferencing it, the source is
// evaluated to its value, and the result is written through the name
// either as a scalar cell or, for stowed modes, via stowed.Assign's
// copy semantics. The assignation's own value is the destination name
// (§6 ASSIGNATION yields the assigned-to name, not the assigned value).
func (e *Engine) execAssignation(n *tree.Node) (value.StackValue, error) {
	kids := n.Children()
	if len(kids) < 2 {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("assignation missing operands"))
	}
	destVal, err := e.ExecuteUnit(kids[0])
	if err != nil {
		return value.StackValue{}, err
	}
	if !destVal.IsRef || destVal.Ref.IsNil() {
		return value.StackValue{}, fatal("NIL-ACCESS", n, errString("assignation through NIL or non-name target"))
	}
	srcVal, err := e.ExecuteUnit(kids[1])
	if err != nil {
		return value.StackValue{}, err
	}

	mode := n.Mode
	if mode == nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, errString("assignation has no resolved mode"))
	}
	buf, err := e.resolveBytes(destVal.Ref, mode)
	if err != nil {
		return value.StackValue{}, fatal("INTERNAL-CONSISTENCY", n, err)
	}
	if err := e.bindSlot(n, buf, destVal.Ref, mode, srcVal); err != nil {
		return value.StackValue{}, err
	}
	return value.RefValue(destVal.Ref), nil
}

// bindSlot writes v into buf (already positioned at the target slot)
// under mode's rules (§4.3/§4.4): REF and PROC/FORMAT/FILE names are
// reference-copied (sharing, not copying, their referent); ROW/FLEX
// ROW/STRUCT/UNION go through stowed.Assign's deep-copy semantics;
// everything else is a plain scalar cell write. Shared by
// execAssignation, execIdentityDeclaration and execVariableDeclaration
// so every binding site agrees on mode dispatch.
func (e *Engine) bindSlot(n *tree.Node, buf []byte, ref value.Reference, mode *value.Mode, v value.StackValue) error {
	if mode == nil {
		return fatal("INTERNAL-CONSISTENCY", n, errString("binding has no resolved mode"))
	}
	switch {
	case mode.Kind == value.KindRef, mode.ReferenceShaped() && !mode.Stowed():
		if !v.IsRef {
			return fatal("INTERNAL-CONSISTENCY", n, errString("expected a name"))
		}
		value.PutReference(buf, 0, v.Ref)
		return nil
	case mode.Stowed():
		if !v.IsRef {
			return fatal("INTERNAL-CONSISTENCY", n, errString("expected a stowed name"))
		}
		target := stowed.AssignTarget{Buf: buf, Ref: ref, Level: ref.Level}
		if err := stowed.Assign(e.Heap, mode, target, v.Ref, false); err != nil {
			return e.fatalFromStowedCopyErr(n, err)
		}
		return nil
	default:
		c := v.Cell
		c.Mode = mode
		c.Set(value.Initialised)
		c.Set(value.Assigned)
		value.PutCell(buf, 0, c)
		return nil
	}
}

func (e *Engine) fatalFromStowedCopyErr(n *tree.Node, err error) error {
	switch err.(type) {
	case *stowed.ScopeError:
		return fatal("SCOPE-DYNAMIC", n, err)
	case *stowed.DifferentBoundsError:
		return fatal("INVALID-SIZE", n, err)
	case *stowed.NilAccessError:
		return fatal("NIL-ACCESS", n, err)
	case *stowed.IndexOutOfBoundsError:
		return fatal("INDEX-OUT-OF-BOUNDS", n, err)
	default:
		return fatal("INTERNAL-CONSISTENCY", n, err)
	}
}
