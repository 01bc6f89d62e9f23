package notetaker

import (
	"context"
	"encoding/binary"
)

// fakeEndpoint is an in-memory stand-in for a gousb in/out endpoint pair,
// scripted with a queue of responses, mirroring the tcpEchoServer fake used
// by comm/comm_test.go but synchronous and purely in-process.
type fakeEndpoint struct {
	responses []fakeResponse
	idx       int
	writes    [][]byte
}

type fakeResponse struct {
	data    []byte
	timeout bool
}

func (f *fakeEndpoint) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	return len(p), nil
}

func (f *fakeEndpoint) ReadContext(ctx context.Context, p []byte) (int, error) {
	if f.idx >= len(f.responses) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	r := f.responses[f.idx]
	f.idx++
	if r.timeout {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(p, r.data)
	return n, nil
}

// infoResponse builds a valid 11-byte get_info reply.
func infoResponse(fw, av, pv uint16, mode byte) []byte {
	b := make([]byte, 11)
	b[0], b[1], b[2] = 0x80, 0xa9, 0x28
	binary.BigEndian.PutUint16(b[3:5], fw)
	binary.BigEndian.PutUint16(b[5:7], av)
	binary.BigEndian.PutUint16(b[7:9], pv)
	b[9] = 0x0e
	b[10] = mode
	return b
}

// packetCountResponse builds a valid 9-byte get_packet_count reply.
func packetCountResponse(count uint16) []byte {
	b := make([]byte, 9)
	for i := 0; i < 5; i++ {
		b[i] = 0xaa
	}
	binary.BigEndian.PutUint16(b[5:7], count)
	b[7], b[8] = 0x55, 0x55
	return b
}

// dataPacket builds a 64-byte data packet frame: 2-byte big-endian seq
// number followed by 62 payload bytes.
func dataPacket(num uint16, fill byte) []byte {
	b := make([]byte, 64)
	binary.BigEndian.PutUint16(b[0:2], num)
	for i := 2; i < 64; i++ {
		b[i] = fill
	}
	return b
}
