// Package packet implements the HCI wire codec: serialization of command
// packets and deserialization of event and asynchronous data packets.
//
// Frame layouts (all multi-byte fields little endian):
//
//	command:  [0x01][opcode 2B][param length 1B][params...]
//	async:    [0x02][handle+flags 2B][length 2B][payload]
//	event:    [0x04][event code 1B][param length 1B][payload]
//	extended: [0x09][opcode 2B][payload length 2B][payload]
//
// Command parameters are packed into the minimum number of bytes required
// to represent their magnitude (minimum one byte). Negative values are
// packed as two's complement of the same minimal width.
package packet
