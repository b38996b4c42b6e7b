// Package unformatted implements C9: plain (unformatted) scalar and
// binary transput, and the row read/write loops that drive a single
// scalar operation over every element of a ROW/FLEX ROW name.
//
// Grounded on original_source/source/unformat.c (the separator-skip
// loop and digit/sign/point/exponent scan grammar) and format.c (the
// whole/fixed/float writers shared with package formatted).
package unformatted

import (
	"errors"
	"io"
	"strings"

	"github.com/genie68/a68run/internal/transput"
)

// ValueError is fatal (§7); raised when a scalar or row read's token
// does not match its mode's grammar and the file's on-value-error
// handler does not suppress it.
type ValueError struct {
	Mode, Text string
}

func (e *ValueError) Error() string { return "cannot read " + e.Mode + " from " + strictQuote(e.Text) }

func strictQuote(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "\"" + s + "\""
}

// nextByte returns the next input byte, preferring anything pushed
// back into the file's own buffer (lookahead) over a fresh read, and
// firing the file-end handler once the underlying descriptor is
// exhausted (§4.8 "pop_char_transput_buffer shifts the first char").
func nextByte(f *transput.File) (byte, bool, error) {
	if c, ok := f.Buffer.PopChar(); ok {
		return c, true, nil
	}
	c, err := f.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			f.SetEOF()
			if f.OnFileEnd != nil {
				f.OnFileEnd(f)
			}
			return 0, false, nil
		}
		return 0, false, err
	}
	return c, true, nil
}

func pushBack(f *transput.File, c byte) { f.Buffer.Unget(c) }

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', ',':
		return true
	}
	return false
}

// skipSeparators implements unformat.c's leading-whitespace/line-end
// skip loop run before every scalar read (§ Supplemented feature 6):
// spaces are consumed silently; newlines and form-feeds fire the
// file's line-end/page-end handlers before scanning continues.
func skipSeparators(f *transput.File) error {
	for {
		c, ok, err := nextByte(f)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch {
		case c == ' ' || c == '\t' || c == ',':
			continue
		case c == '\n':
			if f.OnLineEnd != nil {
				f.OnLineEnd(f)
			}
			continue
		case c == '\f':
			if f.OnPageEnd != nil {
				f.OnPageEnd(f)
			}
			continue
		default:
			pushBack(f, c)
			return nil
		}
	}
}

// ScanValueToken skips leading separators and returns the next maximal
// run of non-separator bytes, exported for package formatted's getf
// side, which needs the raw token text before applying a picture's own
// parse rules rather than a mode's (§4.10).
func ScanValueToken(f *transput.File) (string, error) {
	if err := skipSeparators(f); err != nil {
		return "", err
	}
	return scanToken(f)
}

// scanToken reads one maximal run of non-separator bytes, the token a
// scalar denoter is then parsed from.
func scanToken(f *transput.File) (string, error) {
	var sb strings.Builder
	for {
		c, ok, err := nextByte(f)
		if err != nil {
			return sb.String(), err
		}
		if !ok {
			break
		}
		if isSeparator(c) || c == '\n' || c == '\f' {
			pushBack(f, c)
			break
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}
