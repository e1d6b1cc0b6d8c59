package packet

import (
	"errors"
	"fmt"
)

// ErrFraming reports a header/length inconsistency in a received frame.
// Framing failures are contained by the reader: the frame is dropped and
// capture continues.
var ErrFraming = errors.New("FRAMING")

// EventPacket is a decoded HCI event frame. Which fields are populated
// depends on the event code; Raw always retains the undecoded payload so
// unrecognized events stay inspectable.
type EventPacket struct {
	Code      EventCode
	Length    uint8
	Status    StatusCode
	HasStatus bool
	Subcode   EventSubcode
	Params    []byte
	Raw       []byte
}

// DecodeEvent decodes an event frame body (event code through payload,
// excluding the leading type tag). Event codes outside the known set do
// not fail: they produce a packet with only Code, Length and Raw set.
func DecodeEvent(raw []byte) (*EventPacket, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: event truncated at %d byte(s)", ErrFraming, len(raw))
	}

	pkt := &EventPacket{
		Code:   EventCode(raw[0]),
		Length: raw[1],
		Raw:    raw,
	}

	switch pkt.Code {
	case EvtCommandComplete:
		// [num_pkts][opcode LE 2B][status][return params...]
		if len(raw) < 6 {
			return nil, fmt.Errorf("%w: command complete carries %d byte(s), need 4", ErrFraming, len(raw)-2)
		}
		pkt.Status = StatusCode(raw[5])
		pkt.HasStatus = true
		pkt.Params = raw[2:]

	case EvtHardwareError:
		pkt.Status = StatusHardwareFailure
		pkt.HasStatus = true
		pkt.Params = raw[2:]

	case EvtNumCompletedPackets:
		pkt.Status = StatusSuccess
		pkt.HasStatus = true
		pkt.Params = raw[2:]

	case EvtDataBufferOverflow, EvtAuthPayloadTimeout:
		pkt.Params = raw[2:]

	case EvtLEMeta:
		// [subcode][subcode payload]
		if len(raw) < 3 {
			return nil, fmt.Errorf("%w: LE meta event missing subcode", ErrFraming)
		}
		pkt.Subcode = EventSubcode(raw[2])
		pkt.Params = raw[3:]

	case EvtCommandStatus, EvtVendorSpec, EvtDisconnectComplete,
		EvtEncryptionChange, EvtReadRemoteVersionComplete, EvtEncryptionKeyRefresh:
		// [status][event params...]
		if len(raw) < 3 {
			return nil, fmt.Errorf("%w: %s event missing status byte", ErrFraming, pkt.Code)
		}
		pkt.Status = StatusCode(raw[2])
		pkt.HasStatus = true
		pkt.Params = raw[3:]

	default:
		// Unknown event code: keep the raw bytes for diagnostics.
	}

	return pkt, nil
}

// CommandOpcode returns the opcode echoed in a command-completion event,
// or zero when the event carries none.
func (e *EventPacket) CommandOpcode() uint16 {
	if e.Code == EvtCommandComplete && len(e.Params) >= 3 {
		return uint16(e.Params[1]) | uint16(e.Params[2])<<8
	}
	return 0
}

// returnBlock is the trailing return-parameter block of the event.
func (e *EventPacket) returnBlock() []byte {
	if e.Code == EvtCommandComplete && len(e.Params) >= 4 {
		return e.Params[4:]
	}
	return e.Params
}

// ReturnParams interprets the full trailing parameter block as a single
// little-endian unsigned integer.
func (e *EventPacket) ReturnParams() uint64 {
	return LEToUint(e.returnBlock())
}

// ReturnParamsSized slices the trailing parameter block into consecutive
// little-endian integers of the given byte widths.
func (e *EventPacket) ReturnParamsSized(widths ...int) ([]uint64, error) {
	block := e.returnBlock()
	total := 0
	for _, w := range widths {
		total += w
	}
	if total > len(block) {
		return nil, fmt.Errorf("%w: expected %d return byte(s), have %d", ErrInvalidParam, total, len(block))
	}

	out := make([]uint64, 0, len(widths))
	idx := 0
	for _, w := range widths {
		out = append(out, LEToUint(block[idx:idx+w]))
		idx += w
	}
	return out, nil
}
