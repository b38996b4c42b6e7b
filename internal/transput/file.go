package transput

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Mood is the set of runtime flags a FILE carries once opened (§4.8
// "moods {read, write, char (text vs binary), draw, open-exclusive,
// temp-file, eof}").
type Mood uint16

const (
	ReadMood Mood = 1 << iota
	WriteMood
	CharMood
	DrawMood
	OpenExclusiveMood
	TempFileMood
	EOFMood
)

// Handler is one of a FILE's event-handler procedures (§4.8): if it
// returns false, the caller takes the default action, usually a
// runtime error.
type Handler func(f *File) bool

// File is the runtime FILE value (§4.8): identification, channel
// permissions, moods, the file's own buffer, saved frame/stack
// pointers for nested formatted transput, the attached FORMAT value,
// the seven-plus event handlers, and the OS descriptor underneath —
// opened lazily on the first read or write.
//
// CurrentFormat is left untyped (interface{}) so this package never
// imports package genie: package genie's FormatValue is stored here
// verbatim by the standenv wiring that drives formatted transput, and
// read back the same way.
type File struct {
	Identification string
	Terminator     string
	Channel        Channel
	Buffer         *Buffer

	SavedFrameBase  int
	SavedFrameLevel int
	CurrentFormat   interface{}

	OnFileEnd       Handler
	OnPageEnd       Handler
	OnLineEnd       Handler
	OnValueError    Handler
	OnOpenError     Handler
	OnTransputError Handler
	OnFormatEnd     Handler
	OnFormatError   Handler

	mood Mood
	fd   *os.File
}

// HasMood reports whether every bit in m is set.
func (f *File) HasMood(m Mood) bool { return f.mood&m == m }

func (f *File) setMood(m Mood)   { f.mood |= m }
func (f *File) clearMood(m Mood) { f.mood &^= m }

var tempCounter int64

// tempName generates a unique temporary filename, the "CREATE" form's
// identification (§4.8 "CREATE (temp name)").
func tempName() string {
	n := atomic.AddInt64(&tempCounter, 1)
	return fmt.Sprintf("%s/a68g%d.%d", os.TempDir(), os.Getpid(), n)
}

// Open implements OPEN: attach to an existing identification. The
// moods/permissions are recorded now; the OS file is not opened until
// the first read or write chooses a direction (§4.8 "defers actual OS
// open until the first reading/writing operation").
func Open(ch Channel, identification string) *File {
	return &File{Identification: identification, Channel: ch, Buffer: NewBuffer()}
}

// Establish implements ESTABLISH: create a new file exclusively, by a
// caller-given identification.
func Establish(ch Channel, identification string) *File {
	f := Open(ch, identification)
	f.setMood(OpenExclusiveMood)
	return f
}

// Create implements CREATE: a generated temporary identification,
// always unlinked at close.
func Create(ch Channel) *File {
	f := Open(ch, tempName())
	f.setMood(TempFileMood | OpenExclusiveMood)
	return f
}

// ensureOpen performs the deferred OS open the first time a read or
// write actually needs the descriptor, choosing O_RDONLY or
// O_WRONLY|O_CREATE per wantWrite and the channel/mood flags already
// recorded (§4.8).
func (f *File) ensureOpen(wantWrite bool) error {
	if f.fd != nil {
		return nil
	}
	flag := os.O_RDONLY
	perm := os.FileMode(0o644)
	if wantWrite {
		flag = os.O_WRONLY | os.O_CREATE
		if f.HasMood(OpenExclusiveMood) {
			flag |= os.O_EXCL
		} else {
			flag |= os.O_TRUNC
		}
	}
	fd, err := os.OpenFile(f.Identification, flag, perm)
	if err != nil {
		if f.OnOpenError != nil && f.OnOpenError(f) {
			return nil
		}
		return err
	}
	f.fd = fd
	if wantWrite {
		f.setMood(WriteMood)
	} else {
		f.setMood(ReadMood)
	}
	if !f.Channel.Bin {
		f.setMood(CharMood)
	}
	return nil
}

// ReadByte reads one raw byte from the underlying descriptor, opening
// it for reading on first use.
func (f *File) ReadByte() (byte, error) {
	if err := f.ensureOpen(false); err != nil {
		return 0, err
	}
	var buf [1]byte
	n, err := f.fd.Read(buf[:])
	if n == 1 {
		return buf[0], nil
	}
	return 0, err
}

// WriteString writes a string to the underlying descriptor, opening it
// for writing on first use.
func (f *File) WriteString(s string) error {
	if err := f.ensureOpen(true); err != nil {
		return err
	}
	_, err := f.fd.WriteString(s)
	return err
}

// WriteBytes writes raw bytes, used by binary transput (§4.9).
func (f *File) WriteBytes(p []byte) error {
	if err := f.ensureOpen(true); err != nil {
		return err
	}
	_, err := f.fd.Write(p)
	return err
}

// ReadBytes reads exactly len(p) raw bytes, used by binary transput.
func (f *File) ReadBytes(p []byte) error {
	if err := f.ensureOpen(false); err != nil {
		return err
	}
	_, err := readFull(f.fd, p)
	return err
}

func readFull(r *os.File, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := r.Read(p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// SetEOF marks the file's end-of-file mood, fired by the unformatted
// scanner once its underlying descriptor is exhausted.
func (f *File) SetEOF() { f.setMood(EOFMood) }

// AtEOF reports whether SetEOF has fired.
func (f *File) AtEOF() bool { return f.HasMood(EOFMood) }

// Close implements CLOSE: flush buffered state and release the
// descriptor; temp files are always unlinked (§4.8).
func (f *File) Close() error {
	var err error
	if f.fd != nil {
		err = f.fd.Close()
		f.fd = nil
	}
	if f.HasMood(TempFileMood) {
		_ = os.Remove(f.Identification)
	}
	return err
}

// Lock implements LOCK: close, then attempt to chmod the file to mode
// 0 on platforms that support it (§4.8). This is a permission change,
// not an advisory file lock, so stdlib os.Chmod is the correct call —
// not golang.org/x/sys/unix.Flock, which implements a different
// primitive (see DESIGN.md).
func (f *File) Lock() error {
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(f.Identification, 0)
}

// Erase implements ERASE: close, then unconditionally unlink the path,
// even for a non-temp file (§4.8).
func (f *File) Erase() error {
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(f.Identification)
}
