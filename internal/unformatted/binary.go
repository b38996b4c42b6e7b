package unformatted

import (
	"fmt"

	"github.com/genie68/a68run/internal/transput"
	"github.com/genie68/a68run/internal/value"
)

// ErrNotBinaryChannel is fatal (§4.9 "Binary transput ... requires the
// file be in bin channel and non-char mood").
var ErrNotBinaryChannel = fmt.Errorf("binary transput requires a bin channel, non-char file")

// ReadBin reads the raw in-memory payload of a scalar mode directly
// from the file, with no conversion (§4.9 "pre-converting nothing").
func ReadBin(f *transput.File, mode *value.Mode) (value.Cell, error) {
	if !f.Channel.Bin || f.HasMood(transput.CharMood) {
		return value.Cell{}, ErrNotBinaryChannel
	}
	buf := make([]byte, mode.Size)
	if err := f.ReadBytes(buf); err != nil {
		return value.Cell{}, err
	}
	c := value.GetCell(buf, 0, mode)
	return c, nil
}

// WriteBin writes a scalar cell's raw payload bytes directly, with no
// conversion.
func WriteBin(f *transput.File, mode *value.Mode, c value.Cell) error {
	if !f.Channel.Bin || f.HasMood(transput.CharMood) {
		return ErrNotBinaryChannel
	}
	buf := make([]byte, mode.Size)
	value.PutCell(buf, 0, c)
	return f.WriteBytes(buf)
}

// ReadBinRaw and WriteBinRaw move len(p) bytes verbatim, used for
// BYTES/LONG BYTES fixed-width payloads that carry no status prefix.
func ReadBinRaw(f *transput.File, p []byte) error  { return f.ReadBytes(p) }
func WriteBinRaw(f *transput.File, p []byte) error { return f.WriteBytes(p) }
