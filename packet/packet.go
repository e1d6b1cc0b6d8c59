package packet

// Packet is any decoded inbound frame.
type Packet interface {
	Type() PacketType
}

// Type reports the frame type tag the packet arrived under.
func (e *EventPacket) Type() PacketType { return TypeEvent }

// Type reports the frame type tag the packet arrived under.
func (a *AsyncPacket) Type() PacketType { return TypeAsync }
