package hci

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/radio-control/blehci/packet"
)

// AddrType selects which device address an operation uses.
type AddrType uint8

const (
	AddrPublic AddrType = 0x00
	AddrRandom AddrType = 0x01
)

// PhyOption selects a PHY for test and data-rate operations.
type PhyOption uint8

const (
	Phy1M      PhyOption = 0x01
	Phy2M      PhyOption = 0x02
	PhyCoded   PhyOption = 0x03
	PhyCodedS2 PhyOption = 0x04
)

// PayloadOption selects the bit pattern a transmitter test sends.
type PayloadOption uint8

const (
	PayloadPRBS9    PayloadOption = 0x00
	Payload11110000 PayloadOption = 0x01
	Payload10101010 PayloadOption = 0x02
	PayloadPRBS15   PayloadOption = 0x03
	PayloadAll1     PayloadOption = 0x04
	PayloadAll0     PayloadOption = 0x05
	Payload00001111 PayloadOption = 0x06
	Payload01010101 PayloadOption = 0x07
)

// BDAddr is a 6-byte Bluetooth device address, stored most significant
// byte first as it reads in colon notation.
type BDAddr [6]byte

// ParseAddr parses a colon-separated address like 00:11:22:33:44:55.
func ParseAddr(s string) (BDAddr, error) {
	var addr BDAddr
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("%w: address %q needs 6 octets", packet.ErrInvalidParam, s)
	}
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("%w: address octet %q: %v", packet.ErrInvalidParam, part, err)
		}
		addr[i] = byte(v)
	}
	return addr, nil
}

func (a BDAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// leParams returns the address as single-byte command parameters,
// least significant octet first as the wire wants it.
func (a BDAddr) leParams() []int {
	out := make([]int, 6)
	for i := 0; i < 6; i++ {
		out[i] = int(a[5-i])
	}
	return out
}

// AdvParams configures undirected advertising.
type AdvParams struct {
	IntervalMin  uint16
	IntervalMax  uint16
	AdvType      uint8
	OwnAddrType  AddrType
	PeerAddrType AddrType
	PeerAddr     BDAddr
	ChannelMap   uint8
	FilterPolicy uint8
}

// DefaultAdvParams returns general advertising on all three channels
// at the controller default interval.
func DefaultAdvParams() AdvParams {
	return AdvParams{
		IntervalMin: 0x60,
		IntervalMax: 0x60,
		ChannelMap:  0x07,
	}
}

func (p AdvParams) payload() []int {
	out := packet.LEParams(uint64(p.IntervalMin), 2)
	out = append(out, packet.LEParams(uint64(p.IntervalMax), 2)...)
	out = append(out, int(p.AdvType), int(p.OwnAddrType), int(p.PeerAddrType))
	out = append(out, p.PeerAddr.leParams()...)
	out = append(out, int(p.ChannelMap), int(p.FilterPolicy))
	return out
}

// ScanParams configures scanning.
type ScanParams struct {
	ScanType     uint8 // 0 passive, 1 active
	Interval     uint16
	Window       uint16
	OwnAddrType  AddrType
	FilterPolicy uint8
}

// DefaultScanParams returns active scanning with a fully open window.
func DefaultScanParams() ScanParams {
	return ScanParams{
		ScanType: 0x01,
		Interval: 0x10,
		Window:   0x10,
	}
}

func (p ScanParams) payload() []int {
	out := []int{int(p.ScanType)}
	out = append(out, packet.LEParams(uint64(p.Interval), 2)...)
	out = append(out, packet.LEParams(uint64(p.Window), 2)...)
	out = append(out, int(p.OwnAddrType), int(p.FilterPolicy))
	return out
}

// ConnParams configures connection establishment.
type ConnParams struct {
	ScanInterval     uint16
	ScanWindow       uint16
	InitFilterPolicy uint8
	PeerAddrType     AddrType
	PeerAddr         BDAddr
	OwnAddrType      AddrType
	IntervalMin      uint16
	IntervalMax      uint16
	MaxLatency       uint16
	SupTimeout       uint16
	MinCELength      uint16
	MaxCELength      uint16
}

// DefaultConnParams returns a connection to peer with a 100 ms
// interval and a 1 s supervision timeout.
func DefaultConnParams(peer BDAddr) ConnParams {
	return ConnParams{
		ScanInterval: 0x10,
		ScanWindow:   0x10,
		PeerAddr:     peer,
		IntervalMin:  0x50,
		IntervalMax:  0x50,
		SupTimeout:   0x64,
	}
}

func (p ConnParams) payload() []int {
	out := packet.LEParams(uint64(p.ScanInterval), 2)
	out = append(out, packet.LEParams(uint64(p.ScanWindow), 2)...)
	out = append(out, int(p.InitFilterPolicy), int(p.PeerAddrType))
	out = append(out, p.PeerAddr.leParams()...)
	out = append(out, int(p.OwnAddrType))
	out = append(out, packet.LEParams(uint64(p.IntervalMin), 2)...)
	out = append(out, packet.LEParams(uint64(p.IntervalMax), 2)...)
	out = append(out, packet.LEParams(uint64(p.MaxLatency), 2)...)
	out = append(out, packet.LEParams(uint64(p.SupTimeout), 2)...)
	out = append(out, packet.LEParams(uint64(p.MinCELength), 2)...)
	out = append(out, packet.LEParams(uint64(p.MaxCELength), 2)...)
	return out
}
