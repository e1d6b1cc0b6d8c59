package hci

import (
	"fmt"

	"github.com/radio-control/blehci/packet"
)

// Vendor-specific commands for ADI BLE controllers. They follow the
// same command/completion discipline as the standard set but live in
// the vendor opcode group.

// SetAddress writes the controller's public device address.
func (h *Hci) SetAddress(addr BDAddr) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSSetBDAddr,
		addr.leParams()...))
}

// GetRandAddr asks the controller to generate a random device address.
func (h *Hci) GetRandAddr() (BDAddr, packet.StatusCode, error) {
	var addr BDAddr
	evt, err := h.send(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSGetRandAddr))
	if err != nil {
		return addr, packet.StatusDecodeFailure, err
	}

	vals, err := evt.ReturnParamsSized(1, 1, 1, 1, 1, 1)
	if err != nil {
		return addr, evt.Status, err
	}
	for i, v := range vals {
		addr[5-i] = byte(v)
	}
	return addr, evt.Status, nil
}

// TxTestVS starts a vendor transmitter test that stops by itself after
// numPackets transmissions. Zero means transmit until EndTest.
func (h *Hci) TxTestVS(channel uint8, payloadLen uint8, payload PayloadOption, phy PhyOption, numPackets uint16) (packet.StatusCode, error) {
	if err := checkChannel(channel); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPayload(payload); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPhy(phy, true); err != nil {
		return packet.StatusDecodeFailure, err
	}
	params := []int{int(channel), int(payloadLen), int(payload), int(phy)}
	params = append(params, packet.LEParams(uint64(numPackets), 2)...)
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSTxTest, params...))
}

// RxTestVS starts a vendor receiver test that stops by itself after
// numPackets receptions. Zero means receive until EndTest.
func (h *Hci) RxTestVS(channel uint8, phy PhyOption, modulationIdx uint8, numPackets uint16) (packet.StatusCode, error) {
	if err := checkChannel(channel); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPhy(phy, false); err != nil {
		return packet.StatusDecodeFailure, err
	}
	params := []int{int(channel), int(phy), int(modulationIdx)}
	params = append(params, packet.LEParams(uint64(numPackets), 2)...)
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSRxTest, params...))
}

// ResetConnectionStats zeroes the controller's per-connection counters.
func (h *Hci) ResetConnectionStats() (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSResetConnStats))
}

// ResetTestStats zeroes the controller's DTM counters.
func (h *Hci) ResetTestStats() (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSResetTestStats))
}

// SetAdvTxPower sets the advertising transmit power in dBm.
func (h *Hci) SetAdvTxPower(power int8) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSSetAdvTxPower,
		int(power)))
}

// SetConnTxPower sets the transmit power of one connection in dBm.
func (h *Hci) SetConnTxPower(handle uint16, power int8) (packet.StatusCode, error) {
	params := packet.LEParams(uint64(handle), 2)
	params = append(params, int(power))
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSSetConnTxPower, params...))
}

// SetScanChannelMap restricts scanning to the channels set in chMap.
func (h *Hci) SetScanChannelMap(chMap uint8) (packet.StatusCode, error) {
	if chMap == 0 || chMap > 0x07 {
		return packet.StatusDecodeFailure,
			fmt.Errorf("%w: scan channel map 0x%02X outside 0x01-0x07", packet.ErrInvalidParam, chMap)
	}
	return h.status(packet.NewCommand(packet.OGFVendorSpec, packet.OCFVSSetScanChMap,
		int(chMap)))
}
