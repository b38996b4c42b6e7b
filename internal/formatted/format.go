package formatted

// EndOfFormat implements format.c's end_of_format (§4.10): a nested
// frame simply pops back to its embedding frame; the outermost frame
// invokes the file's "on format end" handler, whose default action (a
// false return, or no handler at all) restarts the same format rather
// than raising an error.
func EndOfFormat(fr *Frame, onFormatEnd func() bool) *Frame {
	if fr.Outer != nil {
		return fr.Outer
	}
	if onFormatEnd != nil && onFormatEnd() {
		return fr
	}
	fr.Rewind()
	return fr
}
