// Package monitorhook implements the default genie.MonitorHook: a
// single line-editing prompt shown when an interrupt (SIGINT) has set
// the engine's breakpoint flag. The actual step-debugger command
// language is out of scope (spec.md §1 Non-goals: the monitor is an
// external collaborator); this only has to present the one prompt §5
// "Cancellation/timeouts" requires before execution resumes.
package monitorhook

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"github.com/genie68/a68run/internal/genie"
	"github.com/genie68/a68run/internal/tree"
)

// Hook is the default MonitorHook, backed by a readline.Instance kept
// open for the process lifetime rather than reopened per interrupt.
type Hook struct {
	rl *readline.Instance
}

// New opens a readline instance writing its prompt to stdout/stderr as
// the terminal dictates; out is used for the informational banner line
// printed before the prompt.
func New(out io.Writer) (*Hook, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "a68g> "})
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "a68g: interrupted")
	return &Hook{rl: rl}, nil
}

// Close releases the underlying terminal handle.
func (h *Hook) Close() error { return h.rl.Close() }

// Enter implements genie.MonitorHook: it shows the stopping line in the
// prompt and reads lines until one is empty, "c" or "continue", or the
// read fails, then returns control to the engine. Any other line only
// prints a hint (there is no further command language here).
func (h *Hook) Enter(e *genie.Engine, n *tree.Node) {
	line := 0
	if n != nil {
		line = n.Line
	}
	h.rl.SetPrompt(fmt.Sprintf("a68g (line %d)> ", line))
	for {
		in, err := h.rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF || err != nil {
			return
		}
		switch in {
		case "", "c", "continue":
			return
		default:
			fmt.Fprintln(h.rl.Stdout(), "unrecognised monitor command; type 'c' to continue")
		}
	}
}

var _ genie.MonitorHook = (*Hook)(nil)
