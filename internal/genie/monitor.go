package genie

import "github.com/genie68/a68run/internal/tree"

// MonitorHook is the breakpoint-on-interrupt collaborator (§6
// monitor.c's behaviour: on SIGINT, set a flag; the next unit execution
// checks it before dispatch and hands control to an interactive
// prompt). The default implementation (internal/monitorhook) is backed
// by github.com/chzyer/readline; kept behind an interface here so this
// package never imports a terminal library directly.
type MonitorHook interface {
	Enter(e *Engine, n *tree.Node)
}

// SetMonitorHook installs the interactive collaborator. A nil hook
// (the default) makes Interrupt a no-op trigger: the flag is still
// cleared but nothing is entered.
func (e *Engine) SetMonitorHook(h MonitorHook) { e.monitor = h }

// Interrupt requests that the next executed unit drop into the monitor
// instead of continuing silently. No signal handler in this module
// calls it.
func (e *Engine) Interrupt() { e.interrupted = true }

// enterMonitor clears the flag and, if a hook is installed, hands
// control to it (§6 "calls into the monitor").
func (e *Engine) enterMonitor(n *tree.Node) {
	e.interrupted = false
	if e.monitor != nil {
		e.monitor.Enter(e, n)
	}
}
