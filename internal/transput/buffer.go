package transput

// Buffer is a heap-resident (in the Algol 68 sense; here, an ordinary
// Go byte slice the garbage collector tracks by normal reachability
// rather than through gc.Heap) char buffer that grows as characters
// are appended (§4.8 "a heap-resident {size, index, char[]} record that
// auto-grows in chunks"). Go's append already amortises growth, so no
// explicit chunk-size bookkeeping is needed to get the same behaviour.
type Buffer struct {
	chars []byte
	index int
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Add appends a string's bytes.
func (b *Buffer) Add(s string) { b.chars = append(b.chars, s...) }

// AddChar appends one byte.
func (b *Buffer) AddChar(c byte) { b.chars = append(b.chars, c) }

// Reset empties the buffer and rewinds its read index, reused between
// transput operations rather than reallocated (§4.8).
func (b *Buffer) Reset() {
	b.chars = b.chars[:0]
	b.index = 0
}

// String returns the buffer's current contents.
func (b *Buffer) String() string { return string(b.chars) }

// Len reports the number of bytes currently buffered.
func (b *Buffer) Len() int { return len(b.chars) }

// Index reports the current read position (get_transput_buffer_index).
func (b *Buffer) Index() int { return b.index }

// PopChar shifts the first character off the buffer, used for
// lookahead push-back during unformatted scanning (§4.8
// "pop_char_transput_buffer shifts the first char").
func (b *Buffer) PopChar() (byte, bool) {
	if len(b.chars) == 0 {
		return 0, false
	}
	c := b.chars[0]
	b.chars = b.chars[1:]
	return c, true
}

// Unget pushes a character back onto the front of the buffer, used to
// return a byte read during lookahead that turned out not to belong to
// the current scan (§4.8, the converse of PopChar).
func (b *Buffer) Unget(c byte) {
	b.chars = append([]byte{c}, b.chars...)
}

// Peek returns the first buffered character without consuming it.
func (b *Buffer) Peek() (byte, bool) {
	if len(b.chars) == 0 {
		return 0, false
	}
	return b.chars[0], true
}

// Empty reports whether the buffer currently holds no characters.
func (b *Buffer) Empty() bool { return len(b.chars) == 0 }

// BufferID names one of the five fixed buffers every engine keeps
// alongside the per-FILE buffer pool (§4.8 "a fixed set of named
// buffers (INPUT, OUTPUT, UNFORMATTED, FORMATTED, EDIT)").
type BufferID int

const (
	InputBuffer BufferID = iota
	OutputBuffer
	UnformattedBuffer
	FormattedBuffer
	EditBuffer
	numFixedBuffers
)

// FixedBuffers holds the five named buffers shared across all open
// files, exactly as the original keeps a handful of process-wide
// scratch buffers rather than one per file for formatting work.
type FixedBuffers struct {
	buffers [numFixedBuffers]*Buffer
}

// NewFixedBuffers allocates the five named buffers.
func NewFixedBuffers() *FixedBuffers {
	fb := &FixedBuffers{}
	for i := range fb.buffers {
		fb.buffers[i] = NewBuffer()
	}
	return fb
}

// Get returns the named buffer.
func (fb *FixedBuffers) Get(id BufferID) *Buffer { return fb.buffers[id] }
