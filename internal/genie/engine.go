// Package genie implements C6: the propagator interpreter. Engine is
// the tree-walking executor ("genie"); ExecuteUnit is the generic entry
// point every node dispatches through (§4.6).
//
// Grounded on the teacher's execFunc dispatch loop
// (std/compiler/backend_vm.go): a single method holding a switch over a
// node's discriminant, calling back into itself for sub-expressions,
// with a per-callsite fast path once the shape of a call is known
// (mirrored here by buildDispatchTable/findDispatch's "resolve once,
// reuse" idea, reused as propagator specialisation).
package genie

import (
	"fmt"
	"io"
	"log"

	"github.com/genie68/a68run/internal/frame"
	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/mem"
	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/tree"
	"github.com/genie68/a68run/internal/value"
)

// Limits bundles the configurable knobs from the §6 CLI surface that
// the genie itself consults (region sizes live in mem/gc; these are
// the ones the executor checks during dispatch).
type Limits struct {
	SampleEvery  int // check CPU time every N executed units (§5, reference 25000)
	TimeLimitSec int // 0 = no limit
	Trace        bool
	Assertions   bool
}

// Engine is the single context struct Design Notes calls for: every
// module-wide global the original C implementation kept (frame_pointer,
// stack_pointer, heap pointers, jump buffer, option flags, diagnostic
// counters) lives here instead, threaded by receiver.
type Engine struct {
	Regions *mem.Regions
	Heap    *gc.Heap
	Frames  *frame.Engine
	Expr    *ExprStack
	Limits  Limits

	Standenv map[string]NativeProc // operator/procedure tag name -> native implementation

	unitsExecuted int
	interrupted   bool
	timeLimiter   TimeLimiter
	monitor       MonitorHook

	procs   map[value.HandleID]*ProcValue
	formats map[value.HandleID]*FormatValue
	files   map[value.HandleID]*transput.File

	StandIn   value.Reference
	StandOut  value.Reference
	StandBack value.Reference

	trace  *log.Logger
	Stderr io.Writer
}

// TimeLimiter samples CPU time; the default implementation
// (internal/engine) is backed by golang.org/x/sys/unix.Getrusage, kept
// behind an interface here so this package stays free of a direct
// x/sys dependency (§5 Cancellation/timeouts).
type TimeLimiter interface {
	CPUSeconds() float64
}

// NativeProc is a standenv procedure implemented natively in Go rather
// than as a PROC body in the tree (§4.5 "Native (standenv) procedures
// are invoked directly; their body pointer is flagged
// STANDENV-PROCEDURE").
type NativeProc func(e *Engine, args []value.StackValue) (value.StackValue, error)

func NewEngine(sizes mem.Sizes, limits Limits, stderr io.Writer) *Engine {
	regions := mem.NewRegions(sizes)
	heap := gc.NewHeap(regions.Heap)
	frames := frame.NewEngine(regions.Frame)
	expr := NewExprStack(regions.Expr)
	e := &Engine{
		Regions:  regions,
		Heap:     heap,
		Frames:   frames,
		Expr:     expr,
		Limits:   limits,
		Standenv: map[string]NativeProc{},
		procs:    map[value.HandleID]*ProcValue{},
		formats:  map[value.HandleID]*FormatValue{},
		files:    map[value.HandleID]*transput.File{},
		Stderr:   stderr,
	}
	heap.Roots = e.gcRoots
	if limits.Trace && stderr != nil {
		e.trace = log.New(stderr, "", 0)
	}
	e.StandIn = e.registerFile(transput.NewStandIn())
	e.StandOut = e.registerFile(transput.NewStandOut())
	e.StandBack = e.registerFile(transput.NewStandBack())
	InstallStandardEnvironment(e)
	InstallTransputEnvironment(e)
	return e
}

// registerFile heap-allocates a one-byte placeholder for f, the same
// handle-identity trick ProcValue and FormatValue use, and returns the
// Reference by which standenv procedures address it (§4.8).
func (e *Engine) registerFile(f *transput.File) value.Reference {
	id, err := e.Heap.Alloc(1, value.NewFileMode())
	if err != nil {
		panic("genie: failed to register standard file: " + err.Error())
	}
	e.files[id] = f
	return value.Reference{Segment: value.SegmentHeap, Handle: id, Level: -1}
}

// FileOf resolves a FILE name's runtime record.
func (e *Engine) FileOf(ref value.Reference) (*transput.File, bool) {
	f, ok := e.files[ref.Handle]
	return f, ok
}

// gcRoots implements §4.2.2: every initialised reference on the
// expression stack (a) and every frame on the frame stack (b). A frame
// slot's own bytes hold a Reference directly for every non-scalar mode
// (value.Mode.ReferenceShaped) or explicit REF mode — never an inline
// nested layout, so this reads each tag's slot as a Reference rather
// than delegating to value.WalkReferences (which instead walks the
// inline layout *inside* a single heap handle's own bytes, used by
// package gc's mark phase once it has followed a Reference to its
// handle).
func (e *Engine) gcRoots() []value.Reference {
	roots := append([]value.Reference{}, e.Expr.References()...)
	frameBytes := e.Regions.Frame.Bytes()
	for _, f := range e.Frames.Frames() {
		if f.SymbolTable == nil {
			continue
		}
		for _, tag := range f.SymbolTable.Tags {
			if tag.Mode == nil {
				continue
			}
			if tag.Mode.Kind != value.KindRef && !tag.Mode.ReferenceShaped() {
				continue
			}
			at := f.Base + tag.FrameOffset
			if at < 0 || at+tag.Mode.Size > len(frameBytes) {
				continue
			}
			roots = append(roots, value.GetReference(frameBytes, at))
		}
	}
	return roots
}

// RuntimeError is any §7 "Runtime — fatal" condition; the driver emits
// it with source position and exits non-zero (§7 Propagation).
type RuntimeError struct {
	Kind string
	Node *tree.Node
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s at line %d: %v", e.Kind, e.Node.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func fatal(kind string, n *tree.Node, err error) error {
	return &RuntimeError{Kind: kind, Node: n, Err: err}
}
