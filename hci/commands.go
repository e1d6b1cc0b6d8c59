package hci

import (
	"fmt"

	"github.com/radio-control/blehci/packet"
)

// LocalVersion is the controller's version report.
type LocalVersion struct {
	HCIVersion     uint8
	HCIRevision    uint16
	LMPVersion     uint8
	ManufacturerID uint16
	LMPSubversion  uint16
}

// Reset resets the controller's link layer state.
func (h *Hci) Reset() (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFController, packet.OCFReset))
}

// SetEventMask sets which standard events the controller reports. The
// mask is always serialized at its full eight-byte width.
func (h *Hci) SetEventMask(mask uint64) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFController, packet.OCFSetEventMask,
		packet.LEParams(mask, 8)...))
}

// SetEventMaskPage2 sets the second page of the standard event mask.
func (h *Hci) SetEventMaskPage2(mask uint64) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFController, packet.OCFSetEventMaskPage2,
		packet.LEParams(mask, 8)...))
}

// SetEventMaskLE sets which LE meta events the controller reports.
func (h *Hci) SetEventMaskLE(mask uint64) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetEventMask,
		packet.LEParams(mask, 8)...))
}

// ReadBDAddr reads the controller's public device address.
func (h *Hci) ReadBDAddr() (BDAddr, packet.StatusCode, error) {
	var addr BDAddr
	evt, err := h.send(packet.NewCommand(packet.OGFInformational, packet.OCFReadBDAddr))
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

// ReadRSSI reads the received signal strength on a connection.
func (h *Hci) ReadRSSI(handle uint16) (int8, packet.StatusCode, error) {
	evt, err := h.send(packet.NewCommand(packet.OGFStatus, packet.OCFReadRSSI,
		packet.LEParams(uint64(handle), 2)...))
	if err != nil {
		return 0, packet.StatusDecodeFailure, err
	}

	vals, err := evt.ReturnParamsSized(2, 1)
	if err != nil {
		return 0, evt.Status, err
	}
	return int8(vals[1]), evt.Status, nil
}

// ReadLocalVersion reads the controller's version information.
func (h *Hci) ReadLocalVersion() (*LocalVersion, packet.StatusCode, error) {
	evt, err := h.send(packet.NewCommand(packet.OGFInformational, packet.OCFReadLocalVerInfo))
	if err != nil {
		return nil, packet.StatusDecodeFailure, err
	}

	vals, err := evt.ReturnParamsSized(1, 2, 1, 2, 2)
	if err != nil {
		return nil, evt.Status, err
	}
	return &LocalVersion{
		HCIVersion:     uint8(vals[0]),
		HCIRevision:    uint16(vals[1]),
		LMPVersion:     uint8(vals[2]),
		ManufacturerID: uint16(vals[3]),
		LMPSubversion:  uint16(vals[4]),
	}, evt.Status, nil
}

// SetAdvParams configures advertising.
func (h *Hci) SetAdvParams(p AdvParams) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetAdvParam,
		p.payload()...))
}

// EnableAdv turns advertising on or off.
func (h *Hci) EnableAdv(enable bool) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetAdvEnable,
		boolByte(enable)))
}

// SetScanParams configures scanning.
func (h *Hci) SetScanParams(p ScanParams) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetScanParam,
		p.payload()...))
}

// EnableScanning turns scanning on or off, optionally filtering
// duplicate advertising reports.
func (h *Hci) EnableScanning(enable, filterDuplicates bool) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetScanEnable,
		boolByte(enable), boolByte(filterDuplicates)))
}

// CreateConnection starts connection establishment with the peer named
// in p. Completion arrives later as an LE meta event.
func (h *Hci) CreateConnection(p ConnParams) (packet.StatusCode, error) {
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLECreateConn,
		p.payload()...))
}

// Disconnect terminates a connection with the given reason code.
func (h *Hci) Disconnect(handle uint16, reason packet.StatusCode) (packet.StatusCode, error) {
	params := packet.LEParams(uint64(handle), 2)
	params = append(params, int(reason))
	return h.status(packet.NewCommand(packet.OGFLinkControl, packet.OCFDisconnect, params...))
}

// SetDefaultPhy sets the PHY preference for new connections. Zero
// tx/rx masks leave the respective direction to the controller.
func (h *Hci) SetDefaultPhy(txPhys, rxPhys uint8) (packet.StatusCode, error) {
	allPhys := 0
	if txPhys == 0 {
		allPhys |= 0x01
	}
	if rxPhys == 0 {
		allPhys |= 0x02
	}
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetDefPhy,
		allPhys, int(txPhys), int(rxPhys)))
}

// SetPhy changes the PHY on an existing connection.
func (h *Hci) SetPhy(handle uint16, txPhys, rxPhys uint8, phyOpts uint16) (packet.StatusCode, error) {
	allPhys := 0
	if txPhys == 0 {
		allPhys |= 0x01
	}
	if rxPhys == 0 {
		allPhys |= 0x02
	}
	params := packet.LEParams(uint64(handle), 2)
	params = append(params, allPhys, int(txPhys), int(rxPhys))
	params = append(params, packet.LEParams(uint64(phyOpts), 2)...)
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetPhy, params...))
}

// SetDataLen raises the connection's data length parameters to the
// controller maximum.
func (h *Hci) SetDataLen(handle uint16) (packet.StatusCode, error) {
	params := packet.LEParams(uint64(handle), 2)
	params = append(params, packet.LEParams(0x00FB, 2)...)
	params = append(params, packet.LEParams(0x4290, 2)...)
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLESetDataLen, params...))
}

// TxTest starts an enhanced transmitter test: constant transmission of
// the given payload pattern on one channel.
func (h *Hci) TxTest(channel uint8, payloadLen uint8, payload PayloadOption, phy PhyOption) (packet.StatusCode, error) {
	if err := checkChannel(channel); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPayload(payload); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPhy(phy, true); err != nil {
		return packet.StatusDecodeFailure, err
	}
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLEEnhancedTxTest,
		int(channel), int(payloadLen), int(payload), int(phy)))
}

// RxTest starts an enhanced receiver test on one channel.
func (h *Hci) RxTest(channel uint8, phy PhyOption, modulationIdx uint8) (packet.StatusCode, error) {
	if err := checkChannel(channel); err != nil {
		return packet.StatusDecodeFailure, err
	}
	if err := checkPhy(phy, false); err != nil {
		return packet.StatusDecodeFailure, err
	}
	return h.status(packet.NewCommand(packet.OGFLEController, packet.OCFLEEnhancedRxTest,
		int(channel), int(phy), int(modulationIdx)))
}

// EndTest ends a transmitter or receiver test and returns the number
// of packets received (zero for a transmitter test).
func (h *Hci) EndTest() (uint16, packet.StatusCode, error) {
	evt, err := h.send(packet.NewCommand(packet.OGFLEController, packet.OCFLETestEnd))
	if err != nil {
		return 0, packet.StatusDecodeFailure, err
	}

	vals, err := evt.ReturnParamsSized(2)
	if err != nil {
		return 0, evt.Status, err
	}
	return uint16(vals[0]), evt.Status, nil
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkChannel(channel uint8) error {
	if channel > 39 {
		return fmt.Errorf("%w: channel %d outside 0-39", packet.ErrInvalidParam, channel)
	}
	return nil
}

func checkPayload(p PayloadOption) error {
	if p > Payload01010101 {
		return fmt.Errorf("%w: payload option 0x%02X outside 0-7", packet.ErrInvalidParam, uint8(p))
	}
	return nil
}

func checkPhy(p PhyOption, allowCodedS2 bool) error {
	max := PhyCoded
	if allowCodedS2 {
		max = PhyCodedS2
	}
	if p < Phy1M || p > max {
		return fmt.Errorf("%w: phy option 0x%02X", packet.ErrInvalidParam, uint8(p))
	}
	return nil
}
