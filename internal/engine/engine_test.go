package engine

import (
	"bytes"
	"testing"

	"github.com/genie68/a68run/internal/config"
	"github.com/genie68/a68run/internal/diag"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

func intDenoter(text string) *tree.Node {
	return &tree.Node{
		Attribute: tree.Denoter,
		Symbol:    text,
		Mode:      value.NewScalarMode(value.KindInt),
		Line:      1,
		Col:       1,
	}
}

func TestNewRejectsUndersizedFrame(t *testing.T) {
	opts := config.Default()
	opts.Frame = 1
	if _, err := New(opts, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("New: want an error for a frame size below the minimum, got nil")
	}
}

func TestNewSucceedsWithDefaults(t *testing.T) {
	var stderr bytes.Buffer
	eng, err := New(config.Default(), nil, &stderr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if eng.Genie == nil {
		t.Fatalf("New: Genie field is nil")
	}
}

func TestRunExecutesSimpleDenoter(t *testing.T) {
	var stderr bytes.Buffer
	eng, err := New(config.Default(), nil, &stderr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Run(intDenoter("42")); err != nil {
		t.Fatalf("Run: unexpected error %v", err)
	}
}

func TestRunReportsRuntimeError(t *testing.T) {
	var stderr bytes.Buffer
	var reported []diag.Diagnostic
	reporter := reporterFunc(func(d diag.Diagnostic) { reported = append(reported, d) })

	eng, err := New(config.Default(), reporter, &stderr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.Run(intDenoter("not-a-number")); err == nil {
		t.Fatalf("Run: want an error for a malformed INT denoter, got nil")
	}
	if len(reported) != 1 {
		t.Fatalf("Run: reported %d diagnostics, want 1", len(reported))
	}
	if reported[0].Kind.Name != "SYNTAX" {
		t.Errorf("reported kind = %q, want SYNTAX", reported[0].Kind.Name)
	}
}

type reporterFunc func(diag.Diagnostic)

func (f reporterFunc) Report(d diag.Diagnostic) { f(d) }
