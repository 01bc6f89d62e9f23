package notetaker

import "fmt"

// Code identifies the class of failure surfaced by any layer of the
// package: framing, commands, session or the note stream decoder.
//
// One flat taxonomy spans every layer, matching the convention set by the
// original m210 userspace driver (libm210/err.h), which defines a single
// enum m210_err rather than one error type per subsystem.
type Code int

const (
	// System indicates an underlying OS call (read, write, open, ioctl,
	// alloc) failed. Cause holds the OS error.
	System Code = iota

	// BadDevice indicates the opened endpoints do not identify as the
	// expected vendor/product pair.
	BadDevice

	// NoDevice indicates discovery found no matching device.
	NoDevice

	// BadMessage indicates a response on the wire did not match the
	// expected signature bytes or length.
	BadMessage

	// Timeout indicates a bounded read elapsed with no data. Not always
	// an error: GetPacketCount treats it as "zero notes", and the
	// recovery loop in DownloadAllPackets treats it as "try again".
	Timeout

	// BadNoteHead indicates the decoder found a malformed head record.
	BadNoteHead

	// BadNoteBody indicates the decoder found a malformed body record.
	BadNoteBody

	// UnexpectedEOF indicates the decoder hit end-of-input exactly at a
	// head boundary, where another head (or the sentinel zero-head) was
	// expected. Input that ends mid-record is BadNoteHead or BadNoteBody.
	UnexpectedEOF
)

func (c Code) String() string {
	switch c {
	case System:
		return "system error"
	case BadDevice:
		return "unexpected device identity"
	case NoDevice:
		return "no matching device found"
	case BadMessage:
		return "malformed device response"
	case Timeout:
		return "device did not respond in time"
	case BadNoteHead:
		return "malformed note head"
	case BadNoteBody:
		return "malformed note body"
	case UnexpectedEOF:
		return "unexpected end of stream"
	default:
		return "unknown error"
	}
}

// Err is the single error type returned by every layer of this package.
type Err struct {
	Code Code

	// Context, when non-empty, names the operation that failed, e.g.
	// "get_info" or "download_all_packets".
	Context string

	// Cause is the underlying error, if any (an os/gousb error for
	// Code == System, or nil for a pure protocol-level failure).
	Cause error
}

func newErr(code Code, context string, cause error) *Err {
	return &Err{Code: code, Context: context, Cause: cause}
}

func (e *Err) Error() string {
	if e.Cause != nil {
		if e.Context != "" {
			return fmt.Sprintf("%s: %s: %v", e.Context, e.Code, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Context, e.Code)
	}
	return e.Code.String()
}

func (e *Err) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, notetaker.ErrTimeout) compare by Code alone,
// ignoring Context and Cause, so callers can test "was this a timeout"
// without caring which operation produced it.
func (e *Err) Is(target error) bool {
	t, ok := target.(*Err)
	return ok && t.Cause == nil && t.Context == "" && e.Code == t.Code
}

// Sentinel errors for errors.Is comparisons, one per Code.
var (
	ErrSystem        = &Err{Code: System}
	ErrBadDevice     = &Err{Code: BadDevice}
	ErrNoDevice      = &Err{Code: NoDevice}
	ErrBadMessage    = &Err{Code: BadMessage}
	ErrTimeout       = &Err{Code: Timeout}
	ErrBadNoteHead   = &Err{Code: BadNoteHead}
	ErrBadNoteBody   = &Err{Code: BadNoteBody}
	ErrUnexpectedEOF = &Err{Code: UnexpectedEOF}
)
