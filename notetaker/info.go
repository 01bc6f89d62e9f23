package notetaker

// Info describes a device's firmware versions and current operating mode
// (§3).
//
// UsedMemory is not populated by GetInfo: per the session contract (§4.3)
// it is derived by composing GetInfo with GetPacketCount at a higher level
// (Device.Status does this), rather than GetInfo silently issuing a second
// device conversation on the caller's behalf.
type Info struct {
	FirmwareVersion uint16
	AnalogVersion   uint16
	PadVersion      uint16
	Mode            byte
	UsedMemory      uint32
}

// PacketPayloadSize is the number of payload bytes carried by one data
// packet (§3): a 64-byte frame minus its 2-byte sequence number.
const PacketPayloadSize = 62
