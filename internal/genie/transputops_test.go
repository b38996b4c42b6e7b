package genie

import (
	"io"
	"testing"

	"github.com/genie68/a68run/internal/mem"
	"github.com/genie68/a68run/internal/value"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(mem.Sizes{}, Limits{}, io.Discard)
}

func callNative(t *testing.T, e *Engine, name string, args []value.StackValue) string {
	t.Helper()
	proc, ok := e.Standenv[name]
	if !ok {
		t.Fatalf("Standenv[%q] is not registered", name)
	}
	result, err := proc(e, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if !result.IsRef {
		t.Fatalf("%s: result is not a STRING reference", name)
	}
	s, err := e.stringFromRow(result.Ref)
	if err != nil {
		t.Fatalf("%s: stringFromRow: %v", name, err)
	}
	return s
}

// TestNativeWhole is spec.md scenario S1: whole(12345, 0) -> "+12345".
func TestNativeWhole(t *testing.T) {
	e := newTestEngine(t)
	got := callNative(t, e, "whole", []value.StackValue{
		value.CellValue(value.Int(12345)),
		value.CellValue(value.Int(0)),
	})
	if want := "+12345"; got != want {
		t.Errorf("whole(12345, 0) = %q, want %q", got, want)
	}
}

// TestNativeFixed is spec.md scenario S2: fixed(3.14159, -8, 3) -> "   3.142".
func TestNativeFixed(t *testing.T) {
	e := newTestEngine(t)
	got := callNative(t, e, "fixed", []value.StackValue{
		value.CellValue(value.Real(3.14159)),
		value.CellValue(value.Int(-8)),
		value.CellValue(value.Int(3)),
	})
	if want := "   3.142"; got != want {
		t.Errorf("fixed(3.14159, -8, 3) = %q, want %q", got, want)
	}
}

// TestNativeFloat is spec.md scenario S3: float(6.022e23, -12, 4, 2).
func TestNativeFloat(t *testing.T) {
	e := newTestEngine(t)
	got := callNative(t, e, "float", []value.StackValue{
		value.CellValue(value.Real(6.022e23)),
		value.CellValue(value.Int(-12)),
		value.CellValue(value.Int(4)),
		value.CellValue(value.Int(2)),
	})
	if want := " +6.0220e+23"; got != want {
		t.Errorf("float(6.022e23, -12, 4, 2) = %q, want %q", got, want)
	}
}

func TestNativeWholeRejectsRefArgs(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Standenv["whole"](e, []value.StackValue{
		value.RefValue(value.Nil),
		value.CellValue(value.Int(0)),
	})
	if err == nil {
		t.Fatalf("whole: want an error for a REF first argument")
	}
}

// TestPrintfRegistered is part of S5: printf/readf must be reachable as
// standout/standin shorthand for putf/getf.
func TestPrintfRegistered(t *testing.T) {
	e := newTestEngine(t)
	if _, ok := e.Standenv["printf"]; !ok {
		t.Fatalf("Standenv[\"printf\"] is not registered")
	}
	if _, ok := e.Standenv["readf"]; !ok {
		t.Fatalf("Standenv[\"readf\"] is not registered")
	}
}
