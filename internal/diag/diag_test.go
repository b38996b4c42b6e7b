package diag

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		kindName string
		want     Kind
	}{
		{"nil access", "NIL-ACCESS", NilAccess},
		{"division by zero", "DIVISION-BY-ZERO", DivisionByZero},
		{"end of file", "END-OF-FILE", EndOfFile},
		{"syntax", "SYNTAX", Syntax},
		{"unused tag warning", "UNUSED-TAG", UnusedTag},
		{"unknown name defaults to runtime fatal", "SOME-NEW-KIND", Kind{Name: "SOME-NEW-KIND", Severity: RuntimeFatal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup(tt.kindName); got != tt.want {
				t.Errorf("Lookup(%q) = %+v, want %+v", tt.kindName, got, tt.want)
			}
		})
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Warning, "warning"},
		{CompileError, "error"},
		{RuntimeFatal, "runtime error"},
		{RuntimeRecoverable, "transput condition"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{Kind: DivisionByZero, Line: 3, Col: 7, Message: "divisor was 0"}
	want := "DIVISION-BY-ZERO: divisor was 0"
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSourceReporterReport(t *testing.T) {
	source := "begin\n  print (1 / 0)\nend"
	var buf strings.Builder
	r := NewSourceReporter(&buf, source)
	r.Report(Diagnostic{Kind: DivisionByZero, Line: 2, Col: 10, Message: "divisor was 0"})

	out := buf.String()
	if !strings.Contains(out, "DIVISION-BY-ZERO") {
		t.Errorf("report missing kind name: %q", out)
	}
	if !strings.Contains(out, "print (1 / 0)") {
		t.Errorf("report missing offending source line: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("report missing caret: %q", out)
	}
}

func TestSourceReporterOutOfRangeLine(t *testing.T) {
	var buf strings.Builder
	r := NewSourceReporter(&buf, "one line only")
	r.Report(Diagnostic{Kind: Syntax, Line: 99, Col: 1, Message: "oops"})
	if !strings.Contains(buf.String(), "SYNTAX") {
		t.Errorf("expected kind header even without a matching source line, got %q", buf.String())
	}
}

func TestAllCatalogueEntriesRoundTripThroughLookup(t *testing.T) {
	for name, k := range byName {
		if got := Lookup(name); got != k {
			t.Errorf("Lookup(%q) = %+v, want %+v", name, got, k)
		}
	}
}
