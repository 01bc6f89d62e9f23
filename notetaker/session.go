package notetaker

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/cenkalti/backoff"
)

// resendBackoff is the retry schedule used while waiting for a requested
// packet to be resent (§4.5 step 4: "retries are unbounded"). Unlike
// comm.RemoteDevice.Open, which gives up after a bounded elapsed time, the
// recovery loop here never stops retrying — the device has promised
// delivery — so MaxElapsedTime is left at zero (no cap).
func resendBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// GetInfo transmits Info and polls interface 0 until a response arrives,
// which must be a valid 11-byte reply (§4.3); any other reply is
// BadMessage. It does not query UsedMemory; see Info and Status.
func (d *Device) GetInfo(ctx context.Context) (Info, *Err) {
	var info Info

	if err := writeCommand(d.h.Iface0, cmdInfoBytes()); err != nil {
		return info, err
	}

	for {
		resp, err := readFrame(ctx, d.h.Iface0, 11, pollWait, true)
		if err != nil {
			if err.Code == Timeout {
				continue
			}
			return info, err
		}
		if resp[0] != 0x80 || resp[1] != 0xa9 || resp[2] != 0x28 || resp[9] != 0x0e {
			return info, newErr(BadMessage, "get_info", nil)
		}
		info.FirmwareVersion = binary.BigEndian.Uint16(resp[3:5])
		info.AnalogVersion = binary.BigEndian.Uint16(resp[5:7])
		info.PadVersion = binary.BigEndian.Uint16(resp[7:9])
		info.Mode = resp[10]
		return info, nil
	}
}

// GetPacketCount transmits BeginDownload and attempts a single bounded read
// of the 9-byte response (§4.4).
//
// A timeout is interpreted as "device has no notes": this is an inference,
// not an explicit signal, and the session returns success with count 0
// without sending any follow-up command. Because misclassifying a slow-to-
// answer device as empty silently drops a real download, the read uses
// bulkWait, not pollWait, matching the original driver's single read
// interval for begin_download. A corrupted signature is BadMessage and
// triggers a compensating Reject before the error is returned, so the
// device is left ready.
//
// GetPacketCount never sends Reject on success — a caller that only wants
// the count (e.g. to compute UsedMemory) must send it themselves; a caller
// proceeding to DownloadAllPackets sends Accept instead.
func (d *Device) GetPacketCount(ctx context.Context) (uint16, *Err) {
	if err := writeCommand(d.h.Iface0, cmdBeginDownloadBytes()); err != nil {
		return 0, err
	}

	resp, err := readFrame(ctx, d.h.Iface0, 9, bulkWait, true)
	if err != nil {
		if err.Code == Timeout {
			return 0, nil
		}
		return 0, err
	}

	if resp[0] != 0xaa || resp[1] != 0xaa || resp[2] != 0xaa || resp[3] != 0xaa ||
		resp[4] != 0xaa || resp[7] != 0x55 || resp[8] != 0x55 {
		d.reject()
		return 0, newErr(BadMessage, "get_packet_count", nil)
	}

	return binary.BigEndian.Uint16(resp[5:7]), nil
}

// Status composes GetInfo and GetPacketCount into a fully populated Info,
// deriving UsedMemory = packet_count * PacketPayloadSize (§3). When the
// count is non-zero it follows the packet-count request with Reject, since
// it only wants the count; a timeout (count 0) gets no follow-up command.
func (d *Device) Status(ctx context.Context) (Info, *Err) {
	info, err := d.GetInfo(ctx)
	if err != nil {
		return info, err
	}

	count, err := d.GetPacketCount(ctx)
	if err != nil {
		return info, err
	}
	if count > 0 {
		if rerr := d.reject(); rerr != nil {
			return info, rerr
		}
	}

	info.UsedMemory = uint32(count) * PacketPayloadSize
	return info, nil
}

// Erase transmits Erase (§4.6). The firmware's post-erase acknowledgement
// is version-dependent (§9 open question): some revisions reply with an
// Info frame, others are silent. This implementation is fire-and-forget,
// matching the original m210_dev_delete_notes, which does not poll for a
// response either; the contract is only that the next session call
// observes an empty note store.
func (d *Device) Erase(ctx context.Context) *Err {
	return writeCommand(d.h.Iface0, cmdEraseBytes())
}

// reject sends a Reject command, used to compensate a handled error or to
// decline a bulk transfer after learning only the packet count.
func (d *Device) reject() *Err {
	return writeCommand(d.h.Iface0, cmdRejectBytes())
}

// accept sends an Accept command, starting or concluding a bulk transfer.
func (d *Device) accept() *Err {
	return writeCommand(d.h.Iface0, cmdAcceptBytes())
}

// resend asks the device to retransmit packet number n.
func (d *Device) resend(n uint16) *Err {
	return writeCommand(d.h.Iface0, cmdResendBytes(n))
}

// maxPacketCount bounds the reorder buffer DownloadAllPackets allocates.
// The count is a uint16 (§9), so it never exceeds this value, not even
// for a corrupted 9-byte response: the check against it never fires and
// the buffer is at most maxPacketCount*PacketPayloadSize bytes.
const maxPacketCount = 65535

// DownloadAllPackets runs the retransmission loop described in §4.5.
// Precondition: count is the value GetPacketCount returned, and count > 0.
//
// Packets are reordered into an internal count*PacketPayloadSize scratch
// buffer indexed by packetNumber-1 and flushed to sink only once the
// transfer completes successfully (§4.5 "sink ordering guarantee" and the
// recommended implementation in §9): the sink never observes out-of-order
// bytes even though the wire may deliver them out of order.
func (d *Device) DownloadAllPackets(ctx context.Context, count uint16, sink io.Writer) *Err {
	if count == 0 {
		return nil
	}
	if int(count) > maxPacketCount {
		return newErr(BadMessage, "download_all_packets", nil)
	}

	buf := make([]byte, int(count)*PacketPayloadSize)
	filled := make([]bool, count+1) // 1-indexed by packet number

	if err := d.accept(); err != nil {
		d.reject()
		return err
	}

	// The device streams count frames; order is not guaranteed, and a
	// frame can arrive late (e.g. the reply to a future Resend showing
	// up here instead). Each is stored at its own slot by packet number,
	// so nothing delivered is ever thrown away.
	for i := 0; i < int(count); i++ {
		resp, rerr := readFrame(ctx, d.h.Iface0, 64, bulkWait, true)
		if rerr != nil {
			if rerr.Code == Timeout {
				// Whatever hasn't arrived by now is lost; the
				// recovery loop below will Resend each.
				break
			}
			d.reject()
			return rerr
		}

		k := binary.BigEndian.Uint16(resp[0:2])
		if k >= 1 && k <= count && !filled[k] {
			copy(buf[int(k-1)*PacketPayloadSize:], resp[2:])
			filled[k] = true
		}
	}

	lost := make([]uint16, 0, count)
	for k := uint16(1); k <= count; k++ {
		if !filled[k] {
			lost = append(lost, k)
		}
	}

	rb := resendBackoff()
	for len(lost) > 0 {
		if err := d.resend(lost[0]); err != nil {
			d.reject()
			return err
		}

		resp, rerr := readFrame(ctx, d.h.Iface0, 64, bulkWait, true)
		if rerr != nil {
			if rerr.Code == Timeout {
				// The device promised this packet; retry
				// unboundedly with a capped backoff between
				// attempts.
				time.Sleep(rb.NextBackOff())
				continue
			}
			d.reject()
			return rerr
		}

		k := binary.BigEndian.Uint16(resp[0:2])
		if k < 1 || k > count || filled[k] {
			continue
		}

		copy(buf[int(k-1)*PacketPayloadSize:], resp[2:])
		filled[k] = true
		for i, v := range lost {
			if v == k {
				last := len(lost) - 1
				lost[i] = lost[last]
				lost = lost[:last]
				break
			}
		}
		rb.Reset()
	}

	if err := d.accept(); err != nil {
		return err
	}

	if _, werr := sink.Write(buf); werr != nil {
		return newErr(System, "download_all_packets", werr)
	}
	return nil
}

// Download is the composed, whole-transfer convenience: it requests the
// packet count and, if the device has no notes, rejects the download and
// returns a zero count rather than calling DownloadAllPackets with N == 0
// (matching the original driver's single merged download routine, which
// never begins a bulk transfer for an empty device). Otherwise it proceeds
// exactly as DownloadAllPackets.
func (d *Device) Download(ctx context.Context, sink io.Writer) (uint16, *Err) {
	count, err := d.GetPacketCount(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		if rerr := d.reject(); rerr != nil {
			return 0, rerr
		}
		return 0, nil
	}
	return count, d.DownloadAllPackets(ctx, count, sink)
}
