package transput

import "os"

// NewStandIn and NewStandOut wrap the process's stdin/stdout as
// already-open FILE values (§4.8's stand in/stand out channel), so
// program startup never has to go through the deferred-open path for
// them.
func NewStandIn() *File {
	f := &File{Identification: "stand in", Channel: StandardChannel, Buffer: NewBuffer()}
	f.fd = os.Stdin
	f.setMood(ReadMood | CharMood)
	return f
}

func NewStandOut() *File {
	f := &File{Identification: "stand out", Channel: StandardChannel, Buffer: NewBuffer()}
	f.fd = os.Stdout
	f.setMood(WriteMood | CharMood)
	return f
}

func NewStandBack() *File {
	f := &File{Identification: "stand back", Channel: StandardChannel, Buffer: NewBuffer()}
	f.fd = os.Stderr
	f.setMood(WriteMood | CharMood)
	return f
}
