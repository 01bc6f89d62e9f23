// Package note decodes the byte transcript produced by a successful M210
// download (notetaker.Device.DownloadAllPackets) into a sequence of notes.
//
// This package performs no I/O of its own beyond reading from the
// io.Reader it is given: it is a pure decoder, the counterpart of the
// stateful, I/O-bound notetaker package.
package note

import "fmt"

// State is the on-device lifecycle state of one note, encoded by the
// single byte following a head's next_pos field.
type State byte

// Known note states (§3). Any other byte value is a malformed head.
const (
	Empty              State = 0x9f
	Unfinished         State = 0x5f
	FinishedByUser     State = 0x3f
	FinishedBySoftware State = 0x1f
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Unfinished:
		return "unfinished"
	case FinishedByUser:
		return "finished by user"
	case FinishedBySoftware:
		return "finished by software"
	default:
		return fmt.Sprintf("state(0x%02x)", byte(s))
	}
}

// Coord is one pen-down sample.
type Coord struct {
	X, Y int16
}

// Path is a contiguous pen-down stroke: an ordered run of coordinate
// samples between two pen-up sentinels (or a head and a pen-up).
type Path []Coord

// Note is one user-authored drawing: a number, a lifecycle state, and the
// ordered strokes recorded for it. Empty paths (two consecutive pen-ups,
// or a trailing pen-up) are never included in Paths.
type Note struct {
	Number uint8
	State  State
	Paths  []Path
}
