package main

import (
	"io"

	"github.com/snksoft/crc"
)

// transcriptChecker tees writes to an underlying sink while accumulating a
// running CRC-16/XMODEM over everything written, so "dump" can report a
// host-side integrity check without the notetaker package itself doing any
// file I/O or hashing (it only ever writes to the io.Writer it is given).
//
// Grounded on nkt/telegram.go's use of github.com/snksoft/crc for framing
// telegrams to NKT sources: crc.NewTable(crc.XMODEM) plus the
// InitCrc/UpdateCrc/CRC16 incremental API.
type transcriptChecker struct {
	w     io.Writer
	table *crc.Table
	state uint64
}

func newTranscriptChecker(w io.Writer) *transcriptChecker {
	table := crc.NewTable(crc.XMODEM)
	return &transcriptChecker{w: w, table: table, state: table.InitCrc()}
}

func (t *transcriptChecker) Write(p []byte) (int, error) {
	t.state = t.table.UpdateCrc(t.state, p)
	return t.w.Write(p)
}

// Sum16 returns the CRC-16/XMODEM of everything written so far.
func (t *transcriptChecker) Sum16() uint16 {
	return t.table.CRC16(t.state)
}
