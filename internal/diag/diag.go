// Package diag implements the §7 error-handling design: a fixed
// taxonomy of error kinds, independent of exact wording, plus a
// Reporter that the driver installs to print diagnostics with source
// line and caret. Kind *names* mirror the strings internal/genie's
// RuntimeError already carries (e.g. "NIL-ACCESS"); this package adds
// the severity bucket and the one place that turns a kind name plus a
// source position into user-facing text.
//
// Grounded on the teacher's single `fmt.Fprintf(os.Stderr, ...)` +
// `os.Exit(1)` idiom in std/compiler/main.go — one concrete
// presentation path rather than a wrapped sentinel-error chain.
package diag

import (
	"fmt"
	"io"
	"strings"
)

// Severity buckets the §7 taxonomy's four categories.
type Severity int

const (
	Warning Severity = iota
	CompileError
	RuntimeFatal
	RuntimeRecoverable
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case CompileError:
		return "error"
	case RuntimeFatal:
		return "runtime error"
	case RuntimeRecoverable:
		return "transput condition"
	default:
		return "diagnostic"
	}
}

// Kind names one entry of the §7 taxonomy.
type Kind struct {
	Name     string
	Severity Severity
}

// Runtime — fatal (§7).
var (
	NilAccess           = Kind{"NIL-ACCESS", RuntimeFatal}
	DivisionByZero      = Kind{"DIVISION-BY-ZERO", RuntimeFatal}
	IndexOutOfBounds    = Kind{"INDEX-OUT-OF-BOUNDS", RuntimeFatal}
	InvalidSize         = Kind{"INVALID-SIZE", RuntimeFatal}
	EmptyValue          = Kind{"EMPTY-VALUE", RuntimeFatal}
	InvalidArgument     = Kind{"INVALID-ARGUMENT", RuntimeFatal}
	MathOverflow        = Kind{"MATH-OVERFLOW", RuntimeFatal}
	StackOverflow       = Kind{"STACK-OVERFLOW", RuntimeFatal}
	HeapExhausted       = Kind{"HEAP-EXHAUSTED", RuntimeFatal}
	ScopeDynamic        = Kind{"SCOPE-DYNAMIC", RuntimeFatal}
	ScopeTransient      = Kind{"SCOPE-TRANSIENT", RuntimeFatal}
	TimeLimitExceeded   = Kind{"TIME-LIMIT-EXCEEDED", RuntimeFatal}
	InternalConsistency = Kind{"INTERNAL-CONSISTENCY", RuntimeFatal}
	AssertionFailed     = Kind{"ASSERTION-FAILED", RuntimeFatal}
)

// Runtime — recoverable via handler (§7); only reach the reporter when
// the offending FILE has no handler installed or the handler itself
// returned FALSE, at which point they are re-raised as fatal.
var (
	EndOfFile     = Kind{"END-OF-FILE", RuntimeRecoverable}
	EndOfPage     = Kind{"END-OF-PAGE", RuntimeRecoverable}
	EndOfLine     = Kind{"END-OF-LINE", RuntimeRecoverable}
	ValueError    = Kind{"VALUE-ERROR", RuntimeRecoverable}
	OpenError     = Kind{"OPEN-ERROR", RuntimeRecoverable}
	TransputError = Kind{"TRANSPUT-ERROR", RuntimeRecoverable}
	FormatEnd     = Kind{"FORMAT-END", RuntimeRecoverable}
	FormatError   = Kind{"FORMAT-ERROR", RuntimeRecoverable}
)

// Compile-time (§7).
var (
	Syntax            = Kind{"SYNTAX", CompileError}
	ModeCheck         = Kind{"MODE-CHECK", CompileError}
	UndeclaredTag     = Kind{"UNDECLARED-TAG", CompileError}
	MultipleDeclared  = Kind{"MULTIPLE-DECLARATION", CompileError}
	InvalidPriority   = Kind{"INVALID-PRIORITY", CompileError}
	InvalidDeclarer   = Kind{"INVALID-DECLARER", CompileError}
)

// Warnings (§7).
var (
	UnusedTag           = Kind{"UNUSED-TAG", Warning}
	NonPortableWidening = Kind{"NONPORTABLE-WIDENING", Warning}
	UnintendedWidening  = Kind{"UNINTENDED-WIDENING", Warning}
	VoidingNonVoid      = Kind{"VOIDING-NONVOID", Warning}
	MayReadUninitialised = Kind{"MAY-READ-UNINITIALISED", Warning}
)

var byName = buildIndex()

func buildIndex() map[string]Kind {
	all := []Kind{
		NilAccess, DivisionByZero, IndexOutOfBounds, InvalidSize, EmptyValue,
		InvalidArgument, MathOverflow, StackOverflow, HeapExhausted,
		ScopeDynamic, ScopeTransient, TimeLimitExceeded, InternalConsistency,
		AssertionFailed, EndOfFile, EndOfPage, EndOfLine, ValueError,
		OpenError, TransputError, FormatEnd, FormatError, Syntax, ModeCheck,
		UndeclaredTag, MultipleDeclared, InvalidPriority, InvalidDeclarer,
		UnusedTag, NonPortableWidening, UnintendedWidening, VoidingNonVoid,
		MayReadUninitialised,
	}
	m := make(map[string]Kind, len(all))
	for _, k := range all {
		m[k.Name] = k
	}
	return m
}

// Lookup resolves a bare kind name (as internal/genie's RuntimeError.Kind
// carries it) back to its taxonomy entry, defaulting to RuntimeFatal
// for any name this package has not catalogued — new INTERNAL-CONSISTENCY
// kinds added to the genie without a matching entry here still report,
// just without a refined severity.
func Lookup(name string) Kind {
	if k, ok := byName[name]; ok {
		return k
	}
	return Kind{Name: name, Severity: RuntimeFatal}
}

// Diagnostic is one reportable condition: a kind, the source position
// it occurred at, and a human-readable message. Per the "Diagnostic
// text" decision, only Kind.Name is preserved from the original;
// Message is chosen independently.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Col     int
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind.Name, d.Message)
}

// Reporter is the presentation collaborator: package genie and the
// driver only build Diagnostics, never format them directly.
type Reporter interface {
	Report(d Diagnostic)
}

// SourceReporter prints a diagnostic with its offending source line
// and a caret under the column (§7 "the driver emits the diagnostic
// with source line and caret").
type SourceReporter struct {
	W     io.Writer
	Lines []string
}

// NewSourceReporter splits source into 1-indexed lines for later
// caret rendering.
func NewSourceReporter(w io.Writer, source string) *SourceReporter {
	return &SourceReporter{W: w, Lines: strings.Split(source, "\n")}
}

func (r *SourceReporter) Report(d Diagnostic) {
	fmt.Fprintf(r.W, "%s (%s): %s\n", d.Kind.Severity, d.Kind.Name, d.Message)
	if d.Line < 1 || d.Line > len(r.Lines) {
		return
	}
	line := r.Lines[d.Line-1]
	fmt.Fprintf(r.W, "  %s\n", line)
	if d.Col >= 1 {
		pad := d.Col - 1
		if pad > len(line) {
			pad = len(line)
		}
		fmt.Fprintf(r.W, "  %s^\n", strings.Repeat(" ", pad))
	}
}
