package note

import (
	"encoding/binary"
	"io"

	"github.com/nasa-jpl/m210/notetaker"
)

const (
	headSize = 14
	bodySize = 4
)

// penUp is the sentinel body that terminates the current path (§3, §4.7).
var penUp = [bodySize]byte{0x00, 0x00, 0x00, 0x80}

// Decoder turns a downloaded transcript into a sequence of Note values,
// one at a time, on demand. It performs no I/O beyond reading from r.
type Decoder struct {
	r    io.Reader
	pos  int64
	done bool
}

// NewDecoder wraps r, the concatenation of all payloads from a successful
// download (notetaker.Device.DownloadAllPackets), with no inter-packet
// framing.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next decodes and returns the following note, or io.EOF once the sentinel
// zero-head has been seen (any bytes after it are pad and are never read).
func (d *Decoder) Next() (*Note, error) {
	if d.done {
		return nil, io.EOF
	}

	atStart := d.pos == 0

	head := make([]byte, headSize)
	n, err := io.ReadFull(d.r, head)
	d.pos += int64(n)
	if err != nil {
		if err == io.EOF {
			if atStart {
				// Nothing was ever downloaded: an empty
				// transcript is a device with zero notes, not
				// a truncated one.
				d.done = true
				return nil, io.EOF
			}
			// The stream ended exactly where the next head was
			// expected: the sentinel zero-head was never seen.
			return nil, &notetaker.Err{Code: notetaker.UnexpectedEOF}
		}
		// Partial head: truncated mid-record.
		return nil, &notetaker.Err{Code: notetaker.BadNoteHead}
	}

	if isZero(head) {
		d.done = true
		return nil, io.EOF
	}

	nextPos := le24(head[0:3])
	state := State(head[3])
	number := head[4]

	switch state {
	case Empty, Unfinished, FinishedByUser, FinishedBySoftware:
	default:
		return nil, &notetaker.Err{Code: notetaker.BadNoteHead}
	}

	span := int64(nextPos) - d.pos
	if span < 0 || span%bodySize != 0 {
		return nil, &notetaker.Err{Code: notetaker.BadNoteHead}
	}
	bodyCount := span / bodySize

	nt := &Note{Number: number, State: state}
	var current Path

	for i := int64(0); i < bodyCount; i++ {
		raw := make([]byte, bodySize)
		n, err := io.ReadFull(d.r, raw)
		d.pos += int64(n)
		if err != nil {
			return nil, &notetaker.Err{Code: notetaker.BadNoteBody}
		}

		if raw[0] == penUp[0] && raw[1] == penUp[1] && raw[2] == penUp[2] && raw[3] == penUp[3] {
			if len(current) > 0 {
				nt.Paths = append(nt.Paths, current)
			}
			current = nil
			continue
		}

		current = append(current, Coord{
			X: int16(binary.LittleEndian.Uint16(raw[0:2])),
			Y: int16(binary.LittleEndian.Uint16(raw[2:4])),
		})
	}
	if len(current) > 0 {
		nt.Paths = append(nt.Paths, current)
	}

	return nt, nil
}

// All drains the decoder into a slice, stopping at the first error (io.EOF
// is not itself returned as an error; it terminates the loop cleanly).
func All(r io.Reader) ([]*Note, error) {
	d := NewDecoder(r)
	var notes []*Note
	for {
		n, err := d.Next()
		if err == io.EOF {
			return notes, nil
		}
		if err != nil {
			return notes, err
		}
		notes = append(notes, n)
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func le24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
