// Package notetaker implements the device protocol engine for the Pegasus
// Mobile NoteTaker M210: HID framing, the typed command set, and the
// request/response session state machine (including windowed packet
// retrieval with gap detection and retransmission). The pure stream
// decoder that turns a downloaded byte transcript into notes is in the
// subpackage note.
//
// Device discovery and platform HID transport are external collaborators;
// this package accepts an already-opened two-endpoint Handle and never
// enumerates USB devices itself except through Open and OpenVIDPID, thin
// convenience wrappers around gousb for the common case.
package notetaker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// Vendor and Product identify the M210 on the USB bus.
const (
	Vendor  gousb.ID = 0x0e20
	Product gousb.ID = 0x0101
)

const (
	// maxFrameIface0 is the largest inbound frame on the control/data
	// interface: a full data packet (2-byte seq + 62 payload bytes).
	maxFrameIface0 = 64

	// maxFrameIface1 is the largest inbound frame on the event
	// interface. Sizes readFrame's buffer for onIface0 == false; the
	// download core itself never reads interface 1.
	maxFrameIface1 = 9
)

// pollWait is the bounded wait used when polling for a short control
// response (get_info). bulkWait is the bounded wait used for the
// get_packet_count reply and while streaming data packets. Both are vars,
// not consts, so tests can
// shrink them; production code never reassigns them.
var (
	pollWait = 100 * time.Millisecond
	bulkWait = 1 * time.Second
)

// modeButtonPrefix marks a spontaneous mode-button event on interface 0.
// It can arrive at any time and must be silently discarded, or it would
// desynchronize the command/response conversation (§4.1).
var modeButtonPrefix = [2]byte{0x80, 0xb5}

// Endpoint is a duplex byte channel to one HID interface: Write sends a
// frame, ReadContext waits for one bounded by the context's deadline.
//
// *gousb.InEndpoint implements ReadContext and *gousb.OutEndpoint
// implements Write; ifaceEndpoint below adapts a gousb interface's pair of
// endpoints to this single type, mirroring the control/data duality of a
// Linux hidraw device node.
type Endpoint interface {
	Write(p []byte) (int, error)
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// Handle is an opaque value holding the two opened HID endpoint handles:
// Iface0 for control/data, Iface1 for realtime pen events. Iface1 is held
// for completeness but unused by the download core. A Handle is created by
// a discovery collaborator (Open, or the caller's own gousb plumbing) and
// is exclusively owned by a Device for the duration of a call.
type Handle struct {
	Iface0 Endpoint
	Iface1 Endpoint
}

// Device is the session-layer owner of a Handle. It is safe to reuse
// across calls, but never concurrently: every public method blocks the
// caller until the device conversation completes.
type Device struct {
	h Handle
}

// New wraps an already-opened Handle. The core never discovers devices on
// its own; the caller (or Open, below) is responsible for finding the
// endpoints belonging to a device with Vendor/Product on bus USB.
func New(h Handle) *Device {
	return &Device{h: h}
}

// Open discovers and opens the first M210 found on the USB bus and returns
// a ready Device. This is the thin convenience path; callers that already
// have endpoints (e.g. from their own enumeration, or from a test fake)
// should use New directly. Grounded on usbtmc.NewUSBDevice's use of gousb.
func Open() (*Device, func(), error) {
	return OpenVIDPID(Vendor, Product)
}

// OpenVIDPID is Open parameterized over the vendor/product IDs, for bench
// rigs running a modified or emulated device under a different identity.
func OpenVIDPID(vendor, product gousb.ID) (*Device, func(), error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(vendor, product)
	if err != nil {
		ctx.Close()
		return nil, nil, newErr(System, "open", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, nil, newErr(NoDevice, "open", nil)
	}
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, nil, newErr(System, "open: set auto detach", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, nil, newErr(System, "open: select config", err)
	}

	iface0, ep0, err := openGousbInterface(cfg, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, nil, err
	}
	iface1, ep1, err := openGousbInterface(cfg, 1)
	if err != nil {
		iface0.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, nil, err
	}

	d := New(Handle{Iface0: ep0, Iface1: ep1})
	closer := func() {
		iface1.Close()
		iface0.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
	}
	return d, closer, nil
}

// ifaceEndpoint adapts a gousb interface's single in/out endpoint pair
// (both numbered 1, matching hidraw's single duplex device node) to the
// Endpoint interface used throughout this package.
type ifaceEndpoint struct {
	in  *gousb.InEndpoint
	out *gousb.OutEndpoint
}

func (e *ifaceEndpoint) Write(p []byte) (int, error) {
	return e.out.Write(p)
}

func (e *ifaceEndpoint) ReadContext(ctx context.Context, p []byte) (int, error) {
	return e.in.ReadContext(ctx, p)
}

// openGousbInterface claims interface number on cfg and returns both the
// claimed *gousb.Interface, which the caller must Close once it and its
// sibling interface are no longer needed, and the Endpoint adapting its
// in/out endpoint pair.
func openGousbInterface(cfg *gousb.Config, number int) (*gousb.Interface, Endpoint, error) {
	iface, err := cfg.Interface(number, 0)
	if err != nil {
		return nil, nil, newErr(System, fmt.Sprintf("open: claim interface %d", number), err)
	}
	in, err := iface.InEndpoint(1)
	if err != nil {
		iface.Close()
		return nil, nil, newErr(System, fmt.Sprintf("open: in endpoint %d", number), err)
	}
	out, err := iface.OutEndpoint(1)
	if err != nil {
		iface.Close()
		return nil, nil, newErr(System, fmt.Sprintf("open: out endpoint %d", number), err)
	}
	return iface, &ifaceEndpoint{in: in, out: out}, nil
}
