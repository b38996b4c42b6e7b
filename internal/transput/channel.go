// Package transput implements C8: the FILE value, named channels, the
// fixed and per-file transput buffers, and the OPEN/ESTABLISH/CREATE/
// CLOSE/LOCK/ERASE file lifecycle (§4.8).
//
// This package knows nothing about the tree or the propagator
// interpreter; it is a plain, genie-independent I/O layer that package
// unformatted and package formatted drive, and that package genie's
// standenv wiring calls into from native PRINT/READ-style procedures.
package transput

// Channel describes which transput operations a FILE opened on it may
// perform (§4.8 "channel-permissions {get, put, bin, reset, set,
// draw}"). The Algol 68 standard environment exposes a small fixed set
// of channels; this implementation provides the three every program
// actually opens a FILE against.
type Channel struct {
	Name              string
	Get, Put          bool
	Bin               bool
	Reset, Set        bool
	Draw              bool
}

// StandardChannel backs stand in/stand out: text read/write, no
// repositioning, no binary transput.
var StandardChannel = Channel{Name: "stand channel", Get: true, Put: true}

// TextChannel backs general text files opened by identification:
// read/write plus RESET/SET repositioning.
var TextChannel = Channel{Name: "text channel", Get: true, Put: true, Reset: true, Set: true}

// BinaryChannel backs files opened for raw binary transput (§4.9
// "Binary transput ... requires the file be in bin channel").
var BinaryChannel = Channel{Name: "binary channel", Get: true, Put: true, Bin: true, Reset: true, Set: true}
