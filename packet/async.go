package packet

import "fmt"

// AsyncPacket is a decoded asynchronous (ACL) data frame.
type AsyncPacket struct {
	Handle uint16 // 12-bit connection handle
	PBFlag uint8  // 2-bit packet boundary flag
	BCFlag uint8  // 2-bit broadcast flag
	Length uint16
	Data   []byte
}

// DecodeAsync decodes an async frame body (handle/flags through payload,
// excluding the leading type tag).
func DecodeAsync(raw []byte) (*AsyncPacket, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: async header carries %d byte(s), need 4", ErrFraming, len(raw))
	}
	return &AsyncPacket{
		Handle: uint16(raw[0]&0xF0) + uint16(raw[1])<<8,
		PBFlag: (raw[0] & 0x0C) >> 2,
		BCFlag: raw[0] & 0x03,
		Length: uint16(raw[2]) | uint16(raw[3])<<8,
		Data:   raw[4:],
	}, nil
}
