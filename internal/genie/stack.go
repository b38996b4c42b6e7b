package genie

import (
	"github.com/genie68/a68run/internal/mem"
	"github.com/genie68/a68run/internal/value"
)

// slotSize is the fixed per-operand reservation charged against the
// expression stack's raw byte region for overflow accounting (§3.1);
// the logical operand itself lives in the parallel Go slice below, the
// same split package frame uses for frame headers.
const slotSize = 32

// StackValue is re-exported from package value so call sites in this
// package can keep writing genie.StackValue.
type StackValue = value.StackValue

func CellValue(c value.Cell) StackValue     { return value.CellValue(c) }
func RefValue(r value.Reference) StackValue { return value.RefValue(r) }

// ExprStack is the C1 expression stack (§3.1), holding operands,
// arguments and intermediate row/struct/union descriptors transiently.
type ExprStack struct {
	region *mem.Stack
	values []StackValue
}

func NewExprStack(region *mem.Stack) *ExprStack {
	return &ExprStack{region: region}
}

func (s *ExprStack) Push(v StackValue) error {
	if _, err := s.region.Push(slotSize); err != nil {
		return err
	}
	s.values = append(s.values, v)
	return nil
}

func (s *ExprStack) Pop() StackValue {
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	s.region.Pop(slotSize)
	return v
}

func (s *ExprStack) Len() int { return len(s.values) }

// Top returns the logical stack pointer, used to save/restore around
// non-local jumps and loop bodies (§4.5).
func (s *ExprStack) Top() int { return len(s.values) }

func (s *ExprStack) SetTop(n int) {
	s.values = s.values[:n]
	s.region.SetTop(n * slotSize)
}

// References returns every Reference-shaped operand currently on the
// stack, a GC root set per §4.2.2(a).
func (s *ExprStack) References() []value.Reference {
	var out []value.Reference
	for _, v := range s.values {
		if v.IsRef {
			out = append(out, v.Ref)
		}
	}
	return out
}
