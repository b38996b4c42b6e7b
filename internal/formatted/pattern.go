package formatted

import (
	"errors"
	"strconv"
	"strings"

	"github.com/genie68/a68run/internal/tree"
)

// ErrEndOfFormat signals that GetNextPattern walked off the end of the
// active frame's picture list (§4.10 "when the picture list is
// exhausted, end_of_format fires").
var ErrEndOfFormat = errors.New("end of format")

// Kind discriminates a picture's pattern family (§4.10).
type Kind int

const (
	KindInsertion Kind = iota
	KindGeneral
	KindIntegral
	KindReal
	KindComplex
	KindBits
	KindString
	KindBoolean
	KindChoice
	KindCStyle
)

// Picture is one parsed picture or insertion from a FORMAT-TEXT's
// picture list. Each FORMAT-TEXT child node's Symbol carries a
// "KIND:SPEC" tag the external front end encodes the mould into — this
// package's own node-shape convention, there being no external grammar
// fixture to follow for the internals of a format text (only the
// surrounding tree vocabulary, §6, is fixed).
//
// SPEC layout per kind:
//   INSERT  - the literal text to emit/match verbatim
//   L P X Q Y K - no spec (control insertions)
//   GENERAL INTEGRAL BITS - "<width>" or "<width>,<radix>" for BITS
//   REAL    - "<length>,<fracDigits>[,<expDigits>]"
//   STRING  - "<width>" (0 = unbounded)
//   BOOLEAN CHOICE - no spec; sub-pictures are this node's own children
//   CSTYLE  - the raw %-directive, e.g. "%5.2f"
type Picture struct {
	Kind  Kind
	Spec  string
	Node  *tree.Node
}

func classify(symbol string) (Kind, string) {
	parts := strings.SplitN(symbol, ":", 2)
	tag := parts[0]
	spec := ""
	if len(parts) == 2 {
		spec = parts[1]
	}
	switch tag {
	case "INSERT":
		return KindInsertion, spec
	case "L", "P", "X", "Q", "Y", "K":
		return KindInsertion, tag
	case "GENERAL":
		return KindGeneral, spec
	case "INTEGRAL":
		return KindIntegral, spec
	case "REAL":
		return KindReal, spec
	case "COMPLEX":
		return KindComplex, spec
	case "BITS":
		return KindBits, spec
	case "STRING":
		return KindString, spec
	case "BOOLEAN":
		return KindBoolean, spec
	case "CHOICE":
		return KindChoice, spec
	case "CSTYLE":
		return KindCStyle, spec
	default:
		return KindInsertion, symbol
	}
}

// parsePicture reads a FORMAT-TEXT picture-list child into a Picture.
func parsePicture(n *tree.Node) Picture {
	k, spec := classify(n.Symbol)
	return Picture{Kind: k, Spec: spec, Node: n}
}

// ParseInts splits a comma-separated integer spec, e.g. "6,2" -> [6 2].
func ParseInts(spec string) []int {
	if spec == "" {
		return nil
	}
	fields := strings.Split(spec, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			v = 0
		}
		out = append(out, v)
	}
	return out
}

// Frame tracks one open format's walk through its picture list (§4.10
// "the executor opens a format frame that stores a saved/embedded
// FORMAT value; nested FORMAT-ITEM-F patterns push/pop these frames").
type Frame struct {
	Pattern   *tree.Node
	index     int
	collItems []int // remaining uses per picture, COLLITEM; 0 = not yet counted, -1 = used up
	Outer     *Frame
}

// NewFrame opens a frame over pattern's picture list, resetting every
// picture's use counter (format.c's initialise_collitems).
func NewFrame(pattern *tree.Node, outer *Frame) *Frame {
	return &Frame{Pattern: pattern, collItems: make([]int, len(pattern.Children())), Outer: outer}
}

// replicatorCount evaluates a picture's first child as its replicator
// unit via the tree executor, defaulting to 1 when the picture has no
// children or the value is not positive (§4.10 "initialised to the
// replicator value or 1"). The picture's Spec text is not searched for
// a replicator.
func replicatorCount(ex tree.Executor, p Picture) (int, error) {
	if len(p.Node.Children()) == 0 {
		return 1, nil
	}
	rep := p.Node.Child(0)
	if rep == nil {
		return 1, nil
	}
	v, err := ex.ExecuteUnit(rep)
	if err != nil {
		return 0, err
	}
	n := int(v.Cell.AsInt())
	if n <= 0 {
		return 1, nil
	}
	return n, nil
}

// InsertionAction performs the side effect of one insertion picture as
// it is consumed in passing (§4.10): write-mode emits it, read-mode
// matches/skips it. Supplied by the caller (package unformatted or the
// genie standenv wiring), since only they know the direction and the
// FILE to act on.
type InsertionAction func(kind Kind, literal string) error

// GetNextPattern implements format.c's get_next_format_pattern: walk
// the active frame's picture list from its current position, running
// act for every insertion encountered, and returning the next
// non-insertion picture that still has uses. Returns ErrEndOfFormat
// when the list is exhausted without producing one.
func GetNextPattern(ex tree.Executor, fr *Frame, act InsertionAction) (Picture, error) {
	kids := fr.Pattern.Children()
	for fr.index < len(kids) {
		n := kids[fr.index]
		p := parsePicture(n)
		if p.Kind == KindInsertion {
			if act != nil {
				if err := act(p.Kind, p.Spec); err != nil {
					return Picture{}, err
				}
			}
			fr.index++
			continue
		}
		if fr.collItems[fr.index] == 0 {
			count, err := replicatorCount(ex, p)
			if err != nil {
				return Picture{}, err
			}
			fr.collItems[fr.index] = count
		}
		if fr.collItems[fr.index] > 0 {
			fr.collItems[fr.index]--
			if fr.collItems[fr.index] == 0 {
				fr.collItems[fr.index] = -1
			}
			return p, nil
		}
		fr.index++
	}
	return Picture{}, ErrEndOfFormat
}

// Rewind resets a frame back to its first picture with every counter
// cleared, the default action end_of_format takes on an outermost
// frame when no "format end" handler overrides it (§4.10 "default
// action restarts the same format").
func (fr *Frame) Rewind() {
	fr.index = 0
	for i := range fr.collItems {
		fr.collItems[i] = 0
	}
}
