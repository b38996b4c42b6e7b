// Package frame implements C5: frame open/close, static/dynamic links,
// and non-local jump via stored continuations.
//
// Frame bookkeeping is kept as a Go struct stack parallel to the raw
// byte region in package mem (which still holds every local
// identifier's and anonymous temporary's storage at the offsets the
// offset-assignment pass computed, §3.1) — the same split the teacher
// VM uses between its operand stack (structured) and its flat memory
// (raw bytes addressed by integer offset), std/compiler/backend_vm.go.
package frame

import (
	"fmt"

	"github.com/genie68/a68run/internal/mem"
	"github.com/genie68/a68run/internal/tree"
)

// State is a frame's lifecycle stage (§3.5, §4.5).
type State int

const (
	Open State = iota
	Returning
	JumpedOut
)

// Continuation is a stored non-local-jump target: the frame pointer and
// stack pointers to restore, and the unit to resume at (§4.5).
type Continuation struct {
	Valid      bool
	FramePtr   int
	ExprTop    int
	FrameTop   int
	TargetUnit *tree.Node
}

// Frame is one activation record's bookkeeping (§3.1 "fixed header").
type Frame struct {
	Base            int // byte offset into the frame stack region
	Size            int
	DynamicLink     int // base of the calling frame, -1 if none
	StaticLink      int // base of the lexically enclosing frame, -1 if none
	ParentNode      *tree.Node
	ProcedureParam  bool
	State           State
	Continuations   map[string]*Continuation // label name -> jump point, set on entry if the range declares labels
	Level           int                      // lexical nesting depth, for scope checks (§4.4)
	SymbolTable     *tree.SymbolTable        // this range's declared tags, for GC root scanning (§4.2.2b)
}

// Engine is the frame/scope sub-machine, holding the live frame stack.
type Engine struct {
	Region *mem.Stack
	frames []*Frame
}

func NewEngine(region *mem.Stack) *Engine {
	return &Engine{Region: region}
}

// Current returns the innermost open frame, or nil if none is open.
func (e *Engine) Current() *Frame {
	if len(e.frames) == 0 {
		return nil
	}
	return e.frames[len(e.frames)-1]
}

// OpenFrame reserves header + locals bytes, writes the header fields,
// and pushes the new frame as current (§4.1 open_frame, §4.5 transitions).
func (e *Engine) OpenFrame(entry *tree.Node, st *tree.SymbolTable, localsSize int, isProcParam bool, staticLink int, labels []string) (*Frame, error) {
	dynamicLink := -1
	if cur := e.Current(); cur != nil {
		dynamicLink = cur.Base
	}
	base, err := e.Region.Push(localsSize)
	if err != nil {
		return nil, err
	}
	level := 0
	if cur := e.Current(); cur != nil {
		level = cur.Level + 1
	}
	f := &Frame{
		Base:           base,
		Size:           localsSize,
		DynamicLink:    dynamicLink,
		StaticLink:     staticLink,
		ParentNode:     entry,
		ProcedureParam: isProcParam,
		State:          Open,
		Level:          level,
		SymbolTable:    st,
	}
	if len(labels) > 0 {
		f.Continuations = make(map[string]*Continuation, len(labels))
		for _, l := range labels {
			f.Continuations[l] = &Continuation{Valid: true}
		}
	}
	e.frames = append(e.frames, f)
	return f, nil
}

// CloseFrame restores the previous frame pointer and pops the region.
// Per §4.1, nothing may walk into the popped frame afterwards; the
// frame struct itself is dropped so a stray reference cannot do so.
func (e *Engine) CloseFrame() {
	if len(e.frames) == 0 {
		return
	}
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	e.Region.SetTop(f.Base)
	f.State = Returning
}

// LabelInParClauseError is raised when a jump target resolves to a
// label declared inside a parallel clause (§4.5).
type LabelInParClauseError struct{ Label string }

func (e *LabelInParClauseError) Error() string {
	return fmt.Sprintf("label %q declared in parallel clause", e.Label)
}

// JumpError wraps a failed non-local jump (label never found walking
// dynamic links — an internal-consistency failure, §7).
type JumpError struct{ Label string }

func (e *JumpError) Error() string { return fmt.Sprintf("jump target %q not found", e.Label) }

// FindContinuation walks dynamic links from the current frame looking
// for one whose symbol table declared label l (§4.5 "jump L walks
// dynamic links until it finds the frame whose symbol table declared
// L").
func (e *Engine) FindContinuation(label string) (*Frame, *Continuation, error) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		if f.Continuations == nil {
			continue
		}
		if c, ok := f.Continuations[label]; ok {
			if !c.Valid {
				return nil, nil, &JumpError{Label: label}
			}
			return f, c, nil
		}
	}
	return nil, nil, &JumpError{Label: label}
}

// Jump unwinds every frame above the target frame, leaving the target
// open, and restores its frame region pointer. It returns the
// target's saved continuation so the caller (package genie owns the
// expression stack's logical values alongside its raw byte region) can
// restore its own side of the cut (§4.5 "stores the target unit pointer
// ... restores the saved stack/frame pointers, and invokes the
// continuation").
func (e *Engine) Jump(label string) (*Continuation, error) {
	target, cont, err := e.FindContinuation(label)
	if err != nil {
		return nil, err
	}
	// unwind frames above target, marking them jumped-out
	for len(e.frames) > 0 && e.frames[len(e.frames)-1] != target {
		e.frames[len(e.frames)-1].State = JumpedOut
		e.frames = e.frames[:len(e.frames)-1]
	}
	e.Region.SetTop(cont.FrameTop)
	return cont, nil
}

// MarkJumpPoint records the current stack/frame pointers against a
// label, done once per frame on entry when the frame's symbol table
// declares labels (§4.5 "records a continuation (set-jump point) in
// its frame header on entry").
func (e *Engine) MarkJumpPoint(f *Frame, label string, exprTop int, target *tree.Node) {
	if f.Continuations == nil {
		return
	}
	c, ok := f.Continuations[label]
	if !ok {
		return
	}
	c.FrameTop = f.Base + f.Size
	c.ExprTop = exprTop
	c.TargetUnit = target
}

// Frames returns the currently open frames, innermost last.
func (e *Engine) Frames() []*Frame { return e.frames }

// FrameByBase finds the still-open frame whose region base matches,
// used to walk static links by base offset (§3.1, §4.5).
func (e *Engine) FrameByBase(base int) *Frame {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].Base == base {
			return e.frames[i]
		}
	}
	return nil
}

// StaticAncestor walks n static links up from f.
func (e *Engine) StaticAncestor(f *Frame, n int) *Frame {
	cur := f
	for i := 0; i < n && cur != nil; i++ {
		if cur.StaticLink < 0 {
			return nil
		}
		cur = e.FrameByBase(cur.StaticLink)
	}
	return cur
}
