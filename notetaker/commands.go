package notetaker

import "encoding/binary"

// Command bytes recognized by the M210's control interface. See §4.2: note
// the overload of 0xb7 — a single byte is an abort (Reject), three bytes are
// a resend request (Resend). They must never be collapsed into one builder.
const (
	cmdInfo          byte = 0x95
	cmdErase         byte = 0xb0
	cmdBeginDownload byte = 0xb5
	cmdAccept        byte = 0xb6
	cmdRejectResend  byte = 0xb7
)

// cmdInfoBytes requests the device identify itself.
func cmdInfoBytes() []byte { return []byte{cmdInfo} }

// cmdEraseBytes instructs the device to wipe its note storage.
func cmdEraseBytes() []byte { return []byte{cmdErase} }

// cmdBeginDownloadBytes asks for the packet count ahead of a bulk transfer.
func cmdBeginDownloadBytes() []byte { return []byte{cmdBeginDownload} }

// cmdAcceptBytes acknowledges and starts, or finishes, a bulk transfer.
func cmdAcceptBytes() []byte { return []byte{cmdAccept} }

// cmdRejectBytes aborts a pending bulk transfer.
func cmdRejectBytes() []byte { return []byte{cmdRejectResend} }

// cmdResendBytes asks the device to retransmit packet number n.
func cmdResendBytes(n uint16) []byte {
	b := make([]byte, 3)
	b[0] = cmdRejectResend
	binary.BigEndian.PutUint16(b[1:], n)
	return b
}
