package notetaker

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// shrinkTimeouts speeds up the bounded waits for the duration of a test,
// restoring them afterward.
func shrinkTimeouts(t *testing.T) {
	t.Helper()
	oldPoll, oldBulk := pollWait, bulkWait
	pollWait = 5 * time.Millisecond
	bulkWait = 5 * time.Millisecond
	t.Cleanup(func() {
		pollWait = oldPoll
		bulkWait = oldBulk
	})
}

func newTestDevice(ep *fakeEndpoint) *Device {
	return New(Handle{Iface0: ep})
}

func TestGetInfo_Success(t *testing.T) {
	shrinkTimeouts(t)
	ep := &fakeEndpoint{responses: []fakeResponse{{data: infoResponse(0x0102, 0x0304, 0x0506, 7)}}}
	d := newTestDevice(ep)

	info, err := d.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.FirmwareVersion != 0x0102 || info.AnalogVersion != 0x0304 || info.PadVersion != 0x0506 || info.Mode != 7 {
		t.Fatalf("unexpected info: %+v", info)
	}

	if len(ep.writes) != 1 || ep.writes[0][0] != 0x00 || ep.writes[0][1] != 0x02 || ep.writes[0][2] != 1 || ep.writes[0][3] != cmdInfo {
		t.Fatalf("unexpected outbound frame: %x", ep.writes)
	}
}

func TestGetInfo_DropsModeButtonEvent(t *testing.T) {
	shrinkTimeouts(t)
	modeButton := append([]byte{0x80, 0xb5}, make([]byte, 9)...)
	ep := &fakeEndpoint{responses: []fakeResponse{
		{data: modeButton},
		{data: infoResponse(1, 2, 3, 0)},
	}}
	d := newTestDevice(ep)

	info, err := d.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.FirmwareVersion != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestGetInfo_BadSignature(t *testing.T) {
	shrinkTimeouts(t)
	bad := infoResponse(1, 2, 3, 0)
	bad[0] = 0x00
	ep := &fakeEndpoint{responses: []fakeResponse{{data: bad}}}
	d := newTestDevice(ep)

	_, err := d.GetInfo(context.Background())
	if err == nil || err.Code != BadMessage {
		t.Fatalf("expected BadMessage, got %v", err)
	}
}

func TestGetPacketCount_Success(t *testing.T) {
	shrinkTimeouts(t)
	ep := &fakeEndpoint{responses: []fakeResponse{{data: packetCountResponse(42)}}}
	d := newTestDevice(ep)

	n, err := d.GetPacketCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
	if len(ep.writes) != 1 {
		t.Fatalf("get_packet_count must not send a follow-up on success, got %d writes", len(ep.writes))
	}
}

func TestGetPacketCount_TimeoutMeansEmpty(t *testing.T) {
	shrinkTimeouts(t)
	ep := &fakeEndpoint{responses: []fakeResponse{{timeout: true}}}
	d := newTestDevice(ep)

	n, err := d.GetPacketCount(context.Background())
	if err != nil {
		t.Fatalf("timeout must be treated as success with count 0, got error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected count 0, got %d", n)
	}
	if len(ep.writes) != 1 {
		t.Fatalf("no follow-up command should be sent after a get_packet_count timeout, got %d writes", len(ep.writes))
	}
}

func TestGetPacketCount_BadSignatureSendsReject(t *testing.T) {
	shrinkTimeouts(t)
	bad := packetCountResponse(1)
	bad[0] = 0x00
	ep := &fakeEndpoint{responses: []fakeResponse{{data: bad}}}
	d := newTestDevice(ep)

	_, err := d.GetPacketCount(context.Background())
	if err == nil || err.Code != BadMessage {
		t.Fatalf("expected BadMessage, got %v", err)
	}
	if len(ep.writes) != 2 {
		t.Fatalf("expected begin_download + compensating reject, got %d writes", len(ep.writes))
	}
	if ep.writes[1][3] != cmdRejectResend || len(ep.writes[1]) != 4 {
		t.Fatalf("second write should be a single-byte Reject, got %x", ep.writes[1])
	}
}

func TestDownloadAllPackets_InOrder(t *testing.T) {
	shrinkTimeouts(t)
	const n = 5
	responses := make([]fakeResponse, n)
	for i := 0; i < n; i++ {
		responses[i] = fakeResponse{data: dataPacket(uint16(i+1), byte(i+1))}
	}
	ep := &fakeEndpoint{responses: responses}
	d := newTestDevice(ep)

	var out bytes.Buffer
	if err := d.DownloadAllPackets(context.Background(), n, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != n*PacketPayloadSize {
		t.Fatalf("expected %d bytes, got %d", n*PacketPayloadSize, out.Len())
	}
	for i := 0; i < n; i++ {
		want := byte(i + 1)
		got := out.Bytes()[i*PacketPayloadSize]
		if got != want {
			t.Fatalf("packet %d: expected fill byte %d, got %d", i+1, want, got)
		}
	}
}

func TestDownloadAllPackets_SingleDrop(t *testing.T) {
	shrinkTimeouts(t)
	// Device delivers 1, 2, 4, 5 (skipping 3), then honours Resend(3).
	ep := &fakeEndpoint{responses: []fakeResponse{
		{data: dataPacket(1, 1)},
		{data: dataPacket(2, 2)},
		{data: dataPacket(4, 4)},
		{data: dataPacket(5, 5)},
		{timeout: true},          // packet 3 never arrives in the main batch
		{data: dataPacket(3, 3)}, // reply to Resend(3)
	}}
	d := newTestDevice(ep)

	var out bytes.Buffer
	if err := d.DownloadAllPackets(context.Background(), 5, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5}
	got := out.Bytes()
	for i, w := range want {
		if got[i*PacketPayloadSize] != w {
			t.Fatalf("packet %d: expected fill byte %d, got %d", i+1, w, got[i*PacketPayloadSize])
		}
	}
}

func TestDownloadAllPackets_ResendTimeoutThenDelivers(t *testing.T) {
	shrinkTimeouts(t)
	ep := &fakeEndpoint{responses: []fakeResponse{
		{data: dataPacket(1, 1)},
		{timeout: true}, // packet 2 never arrives in the main batch
		{timeout: true}, // first Resend(2) times out
		{data: dataPacket(2, 2)}, // second Resend(2) succeeds
	}}
	d := newTestDevice(ep)

	var out bytes.Buffer
	if err := d.DownloadAllPackets(context.Background(), 2, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bytes()[0] != 1 || out.Bytes()[PacketPayloadSize] != 2 {
		t.Fatalf("unexpected transcript contents")
	}
}

func TestDownload_EmptyDeviceSendsReject(t *testing.T) {
	shrinkTimeouts(t)
	ep := &fakeEndpoint{responses: []fakeResponse{{timeout: true}}}
	d := newTestDevice(ep)

	var out bytes.Buffer
	n, err := d.Download(context.Background(), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected count 0, got %d", n)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", out.Len())
	}
	if len(ep.writes) != 2 || ep.writes[1][3] != cmdRejectResend {
		t.Fatalf("expected begin_download then Reject, got %x", ep.writes)
	}
}

func TestErase(t *testing.T) {
	ep := &fakeEndpoint{}
	d := newTestDevice(ep)
	if err := d.Erase(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ep.writes) != 1 || ep.writes[0][3] != cmdErase {
		t.Fatalf("unexpected writes: %x", ep.writes)
	}
}
