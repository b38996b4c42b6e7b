package tree

import "github.com/genie68/a68run/internal/value"

// TagKind discriminates what a Tag names (§3.4).
type TagKind int

const (
	TagIdentifier TagKind = iota
	TagOperator
	TagIndicant
	TagPriority
	TagLabel
	TagAnonymous
)

// ScopeQualifier is LOC or HEAP, recorded on variable tags (§3.4, §4.7).
type ScopeQualifier int

const (
	QualifierLoc ScopeQualifier = iota
	QualifierHeap
)

// Tag is one entry in a SymbolTable (§3.4).
type Tag struct {
	Name          string
	Kind          TagKind
	Mode          *value.Mode
	Defining      *Node
	FrameOffset   int
	Qualifier     ScopeQualifier
	Exported      bool // "access flag"
	GeneratorBody *Node
	Priority      int // for TagPriority/TagOperator
	Owner         *SymbolTable
}

// SymbolTable is one nested scope (§3.4). Offsets become stable after
// the offset-assignment pass (internal/decl.AssignOffsets); the
// executor trusts FrameSize and every Tag.FrameOffset without
// recomputing them.
type SymbolTable struct {
	Parent    *SymbolTable
	Level     int
	Tags      []*Tag
	Labels    []string // label tags declared directly in this range, for §4.5
	FrameSize int       // ap_increment: sum of tag sizes, aligned (§4.1)
}

func NewSymbolTable(parent *SymbolTable) *SymbolTable {
	level := 0
	if parent != nil {
		level = parent.Level + 1
	}
	return &SymbolTable{Parent: parent, Level: level}
}

func (s *SymbolTable) Declare(t *Tag) {
	t.Owner = s
	s.Tags = append(s.Tags, t)
	if t.Kind == TagLabel {
		s.Labels = append(s.Labels, t.Name)
	}
}

// Lookup searches this table and enclosing tables outward, the
// standard block-structured name resolution.
func (s *SymbolTable) Lookup(name string) *Tag {
	for t := s; t != nil; t = t.Parent {
		for _, tag := range t.Tags {
			if tag.Name == name {
				return tag
			}
		}
	}
	return nil
}
