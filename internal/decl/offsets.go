// Package decl implements C7: declaration elaboration and the
// generators (LOC/HEAP) that create names, plus the pre-execution
// offset-assignment pass original_source/source/taxes.c performs before
// any frame is ever opened (§4.1 assumes these offsets pre-exist; this
// package is what produces them, since nothing upstream of the genie
// does in this repo).
package decl

import "github.com/genie68/a68run/internal/tree"

// AssignOffsets walks a symbol table's declared tags in order and
// assigns each one a byte offset within its range's frame, aligning to
// 8 bytes (a conservative alignment matched to the widest scalar cell,
// §4.1's ap_increment). It also assigns SymbolTable.FrameSize as the
// frame-header-relative total.
//
// Grounded on original_source/source/taxes.c's bottom-up offset
// assignment; restyled as an explicit, idempotent pass rather than
// interleaved with parsing.
func AssignOffsets(st *tree.SymbolTable) {
	const align = 8
	offset := 0
	for _, tag := range st.Tags {
		size := 8
		if tag.Mode != nil {
			size = tag.Mode.Size
			if size <= 0 {
				size = 8
			}
		}
		if rem := offset % align; rem != 0 {
			offset += align - rem
		}
		tag.FrameOffset = offset
		offset += size
	}
	if rem := offset % align; rem != 0 {
		offset += align - rem
	}
	st.FrameSize = offset
}
