// Package engine assembles the Design Notes' single engine context:
// it owns the genie.Engine, the diagnostic reporter, the CPU-time
// limiter and the optional monitor hook, and is the one place
// cmd/a68g talks to.
//
// Grounded on std/compiler/backend_vm.go's VM struct: one struct holds
// every piece of mutable global state the original kept as C module
// globals, threaded by receiver rather than package-level variables.
package engine

import (
	"fmt"
	"io"

	"github.com/genie68/a68run/internal/config"
	"github.com/genie68/a68run/internal/diag"
	"github.com/genie68/a68run/internal/genie"
	"github.com/genie68/a68run/internal/mem"
	"github.com/genie68/a68run/internal/tree"
)

// Engine bundles the propagator interpreter with the ambient concerns
// cmd/a68g needs around it: diagnostics, CPU-time limiting, and the
// monitor hook.
type Engine struct {
	Genie    *genie.Engine
	Reporter diag.Reporter
	Stderr   io.Writer
}

// New builds an Engine from resolved Options, wiring region sizes, the
// §5 CPU-time sampler and the §7 diagnostic reporter in one place.
func New(opts config.Options, reporter diag.Reporter, stderr io.Writer) (*Engine, error) {
	sizes := mem.Sizes{
		FrameBytes: int(opts.Frame),
		ExprBytes:  int(opts.Stack),
		HeapBytes:  int(opts.Heap),
	}
	if sizes.FrameBytes < mem.MinimumSizes.FrameBytes {
		return nil, fmt.Errorf("engine: --frame below minimum %d bytes", mem.MinimumSizes.FrameBytes)
	}
	limits := genie.Limits{
		SampleEvery:  opts.SampleEvery,
		TimeLimitSec: opts.TimeLimit,
		Trace:        opts.Trace,
		Assertions:   opts.Assertions,
	}
	g := genie.NewEngine(sizes, limits, stderr)
	g.SetTimeLimiter(NewCPUTimeLimiter())
	return &Engine{Genie: g, Reporter: reporter, Stderr: stderr}, nil
}

// SetMonitorHook installs the interactive breakpoint collaborator
// (§5 "an external interrupt sets a flag that causes the next unit
// execution to enter the monitor"); the driver only calls this when
// --trace asked for one, keeping the readline dependency optional.
func (e *Engine) SetMonitorHook(h genie.MonitorHook) { e.Genie.SetMonitorHook(h) }

// Run executes root to completion, converting a genie.RuntimeError
// into a diag.Diagnostic through Reporter and returning a non-nil
// error so the driver can choose its own exit code (§7 Propagation:
// "the driver emits the diagnostic ... and exits with failure").
func (e *Engine) Run(root *tree.Node) error {
	_, err := e.Genie.ExecuteUnit(root)
	if err == nil {
		return nil
	}
	rtErr, ok := err.(*genie.RuntimeError)
	if !ok {
		if e.Reporter != nil {
			e.Reporter.Report(diag.Diagnostic{Kind: diag.InternalConsistency, Message: err.Error()})
		}
		return err
	}
	if e.Reporter != nil {
		line, col := 0, 0
		if rtErr.Node != nil {
			line, col = rtErr.Node.Line, rtErr.Node.Col
		}
		e.Reporter.Report(diag.Diagnostic{
			Kind:    diag.Lookup(rtErr.Kind),
			Line:    line,
			Col:     col,
			Message: rtErr.Err.Error(),
		})
	}
	return rtErr
}
