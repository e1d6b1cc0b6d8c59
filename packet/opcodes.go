package packet

import "fmt"

// PacketType is the frame type tag carried in the first byte of every frame.
type PacketType byte

// HCI frame type tags.
const (
	TypeCommand  PacketType = 0x01
	TypeAsync    PacketType = 0x02
	TypeSync     PacketType = 0x03
	TypeEvent    PacketType = 0x04
	TypeExtended PacketType = 0x09
)

func (t PacketType) String() string {
	switch t {
	case TypeCommand:
		return "CMD"
	case TypeAsync:
		return "ACL"
	case TypeSync:
		return "SCO"
	case TypeEvent:
		return "EVT"
	case TypeExtended:
		return "EXT"
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// OGF is the opcode group field. Valid values fit in 6 bits.
type OGF uint16

// Opcode group fields.
const (
	OGFNop           OGF = 0x00
	OGFLinkControl   OGF = 0x01
	OGFLinkPolicy    OGF = 0x02
	OGFController    OGF = 0x03
	OGFInformational OGF = 0x04
	OGFStatus        OGF = 0x05
	OGFTesting       OGF = 0x06
	OGFLEController  OGF = 0x08
	OGFVendorSpec    OGF = 0x3F
)

// OCF is the opcode command field. Valid values fit in 10 bits.
type OCF uint16

// Link Control group commands.
const (
	OCFDisconnect        OCF = 0x06
	OCFReadRemoteVerInfo OCF = 0x1D
)

// Controller group commands.
const (
	OCFSetEventMask      OCF = 0x01
	OCFReset             OCF = 0x03
	OCFReadTxPowerLevel  OCF = 0x2D
	OCFSetEventMaskPage2 OCF = 0x63
)

// Informational group commands.
const (
	OCFReadLocalVerInfo OCF = 0x01
	OCFReadBDAddr       OCF = 0x09
)

// Status group commands.
const (
	OCFReadRSSI OCF = 0x05
)

// LE Controller group commands.
const (
	OCFLESetEventMask    OCF = 0x01
	OCFLESetAdvParam     OCF = 0x06
	OCFLESetAdvData      OCF = 0x08
	OCFLESetAdvEnable    OCF = 0x0A
	OCFLESetScanParam    OCF = 0x0B
	OCFLESetScanEnable   OCF = 0x0C
	OCFLECreateConn      OCF = 0x0D
	OCFLEReceiverTest    OCF = 0x1D
	OCFLETransmitterTest OCF = 0x1E
	OCFLETestEnd         OCF = 0x1F
	OCFLESetDataLen      OCF = 0x22
	OCFLESetDefPhy       OCF = 0x31
	OCFLESetPhy          OCF = 0x32
	OCFLEEnhancedRxTest  OCF = 0x33
	OCFLEEnhancedTxTest  OCF = 0x34
)

// Vendor-specific group commands (ADI controllers).
const (
	OCFVSResetConnStats OCF = 0x302
	OCFVSTxTest         OCF = 0x303
	OCFVSResetTestStats OCF = 0x304
	OCFVSRxTest         OCF = 0x305
	OCFVSSetScanChMap   OCF = 0x3E0
	OCFVSSetEventMask   OCF = 0x3E1
	OCFVSSetBDAddr      OCF = 0x3F0
	OCFVSGetRandAddr    OCF = 0x3F1
	OCFVSSetAdvTxPower  OCF = 0x3F5
	OCFVSSetConnTxPower OCF = 0x3F6
)

// MakeOpcode combines an opcode group field and an opcode command field
// into a 16-bit command opcode.
func MakeOpcode(ogf OGF, ocf OCF) uint16 {
	return uint16(ogf)<<10 | uint16(ocf)&0x3FF
}

// SplitOpcode decomposes a 16-bit command opcode into its group and
// command fields.
func SplitOpcode(opcode uint16) (OGF, OCF) {
	return OGF(opcode >> 10), OCF(opcode & 0x3FF)
}
