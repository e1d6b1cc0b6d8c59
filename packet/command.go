package packet

// CommandPacket is an HCI command: an opcode plus its ordered parameter
// list. Instances are immutable after construction and discarded once
// serialized.
type CommandPacket struct {
	OGF    OGF
	OCF    OCF
	Params []int
}

// NewCommand builds a command packet for the given opcode fields.
func NewCommand(ogf OGF, ocf OCF, params ...int) *CommandPacket {
	return &CommandPacket{OGF: ogf, OCF: ocf, Params: params}
}

// Opcode returns the combined 16-bit command opcode.
func (c *CommandPacket) Opcode() uint16 {
	return MakeOpcode(c.OGF, c.OCF)
}

// ParamLen returns the total serialized length of the parameter block.
func (c *CommandPacket) ParamLen() int {
	n := 0
	for _, p := range c.Params {
		n += byteLen(p)
	}
	return n
}

// Encode serializes the command into its wire form:
// [type][opcode LE 2B][param length 1B][params...].
func (c *CommandPacket) Encode() ([]byte, error) {
	opcode := c.Opcode()
	out := make([]byte, 0, 4+c.ParamLen())
	out = append(out, byte(TypeCommand), byte(opcode), byte(opcode>>8), byte(c.ParamLen()))

	var err error
	for _, p := range c.Params {
		if out, err = appendMinimal(out, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExtendedPacket is a vendor extended command. It differs from
// CommandPacket only in its type tag and its 16-bit payload length field.
type ExtendedPacket struct {
	OGF     OGF
	OCF     OCF
	Payload []int
}

// Opcode returns the combined 16-bit command opcode.
func (e *ExtendedPacket) Opcode() uint16 {
	return MakeOpcode(e.OGF, e.OCF)
}

// PayloadLen returns the total serialized length of the payload block.
func (e *ExtendedPacket) PayloadLen() int {
	n := 0
	for _, p := range e.Payload {
		n += byteLen(p)
	}
	return n
}

// Encode serializes the extended command:
// [type][opcode LE 2B][payload length LE 2B][payload...].
func (e *ExtendedPacket) Encode() ([]byte, error) {
	opcode := e.Opcode()
	length := e.PayloadLen()
	out := make([]byte, 0, 5+length)
	out = append(out, byte(TypeExtended),
		byte(opcode), byte(opcode>>8),
		byte(length), byte(length>>8))

	var err error
	for _, p := range e.Payload {
		if out, err = appendMinimal(out, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}
