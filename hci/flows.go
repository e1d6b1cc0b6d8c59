package hci

import (
	"github.com/radio-control/blehci/packet"
)

// Composite flows. Each one is the short command sequence a lab script
// would otherwise spell out by hand; they stop at the first command
// the controller does not accept.

// allEvents unmasks every event so automation never misses a report.
const allEvents uint64 = 0xFFFFFFFFFFFFFFFF

// StartAdvertising unmasks events, configures advertising and enables it.
func (h *Hci) StartAdvertising(p AdvParams) (packet.StatusCode, error) {
	if status, err := h.unmaskAll(); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	if status, err := h.SetAdvParams(p); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	return h.EnableAdv(true)
}

// StartScanning unmasks events, configures scanning and enables it.
func (h *Hci) StartScanning(p ScanParams, filterDuplicates bool) (packet.StatusCode, error) {
	if status, err := h.unmaskAll(); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	if status, err := h.SetScanParams(p); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	return h.EnableScanning(true, filterDuplicates)
}

// InitConnection unmasks events and starts connection establishment.
// The connection-complete LE meta event arrives later via ReadEvent.
func (h *Hci) InitConnection(p ConnParams) (packet.StatusCode, error) {
	if status, err := h.unmaskAll(); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	return h.CreateConnection(p)
}

func (h *Hci) unmaskAll() (packet.StatusCode, error) {
	if status, err := h.SetEventMask(allEvents); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	if status, err := h.SetEventMaskPage2(allEvents); err != nil || status != packet.StatusSuccess {
		return status, err
	}
	return h.SetEventMaskLE(allEvents)
}
