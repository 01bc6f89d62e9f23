package notetaker

import (
	"context"
	"errors"
	"time"
)

// writeCommand wraps payload in the 3-byte HID report prefix (§4.1, §6) and
// writes the whole frame in a single call. The leading 0x00 is mandatory —
// omitting it silently suppresses the device's response.
func writeCommand(ep Endpoint, payload []byte) *Err {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, 0x00, 0x02, byte(len(payload)))
	frame = append(frame, payload...)

	n, err := ep.Write(frame)
	if err != nil {
		return newErr(System, "write", err)
	}
	if n != len(frame) {
		return newErr(System, "write", errors.New("short write"))
	}
	return nil
}

// readFrame waits up to timeout for a report on ep and returns it truncated
// or zero-padded to size. The device always emits a full MAX_FRAME report
// regardless of what the response actually needs (§4.1, §6); reading into a
// buffer shorter than that overflows the underlying USB transfer, so the
// read itself is always sized to the interface's MAX_FRAME and only the
// returned slice is narrowed to size. A read beginning with a mode-button
// event (0x80 0xb5) on interface 0 is silently discarded and the read
// retried, since it can arrive at any time and would otherwise
// desynchronize the command conversation. onIface0 selects both that
// suppression and which interface's MAX_FRAME the read buffer is sized to.
func readFrame(ctx context.Context, ep Endpoint, size int, timeout time.Duration, onIface0 bool) ([]byte, *Err) {
	maxFrame := maxFrameIface1
	if onIface0 {
		maxFrame = maxFrameIface0
	}
	buf := make([]byte, maxFrame)
	for {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		n, err := ep.ReadContext(rctx, buf)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, newErr(Timeout, "read", nil)
			}
			return nil, newErr(System, "read", err)
		}

		if onIface0 && n >= 2 && buf[0] == modeButtonPrefix[0] && buf[1] == modeButtonPrefix[1] {
			continue
		}

		out := make([]byte, size)
		copy(out, buf[:n])
		return out, nil
	}
}
