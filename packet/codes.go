package packet

import "fmt"

// EventCode identifies the event carried by an HCI event frame.
type EventCode byte

// Supported HCI event codes.
const (
	EvtDisconnectComplete        EventCode = 0x05
	EvtEncryptionChange          EventCode = 0x08
	EvtReadRemoteVersionComplete EventCode = 0x0C
	EvtCommandComplete           EventCode = 0x0E
	EvtCommandStatus             EventCode = 0x0F
	EvtHardwareError             EventCode = 0x10
	EvtNumCompletedPackets       EventCode = 0x13
	EvtDataBufferOverflow        EventCode = 0x1A
	EvtEncryptionKeyRefresh      EventCode = 0x30
	EvtLEMeta                    EventCode = 0x3E
	EvtAuthPayloadTimeout        EventCode = 0x57
	EvtVendorSpec                EventCode = 0xFF
)

// Known reports whether the event code is one this codec understands.
// Unknown codes are still decoded, into a raw-bytes variant.
func (c EventCode) Known() bool {
	switch c {
	case EvtDisconnectComplete, EvtEncryptionChange, EvtReadRemoteVersionComplete,
		EvtCommandComplete, EvtCommandStatus, EvtHardwareError,
		EvtNumCompletedPackets, EvtDataBufferOverflow, EvtEncryptionKeyRefresh,
		EvtLEMeta, EvtAuthPayloadTimeout, EvtVendorSpec:
		return true
	}
	return false
}

func (c EventCode) String() string {
	switch c {
	case EvtDisconnectComplete:
		return "DISCONNECT_COMPLETE"
	case EvtEncryptionChange:
		return "ENCRYPTION_CHANGE"
	case EvtReadRemoteVersionComplete:
		return "READ_REMOTE_VERSION_COMPLETE"
	case EvtCommandComplete:
		return "COMMAND_COMPLETE"
	case EvtCommandStatus:
		return "COMMAND_STATUS"
	case EvtHardwareError:
		return "HARDWARE_ERROR"
	case EvtNumCompletedPackets:
		return "NUM_COMPLETED_PACKETS"
	case EvtDataBufferOverflow:
		return "DATA_BUFFER_OVERFLOW"
	case EvtEncryptionKeyRefresh:
		return "ENCRYPTION_KEY_REFRESH"
	case EvtLEMeta:
		return "LE_META"
	case EvtAuthPayloadTimeout:
		return "AUTH_PAYLOAD_TIMEOUT_EXPIRED"
	case EvtVendorSpec:
		return "VENDOR_SPEC"
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(c))
}

// EventSubcode identifies the wrapped event inside an LE Meta event.
type EventSubcode byte

// LE Meta event subcodes.
const (
	SubConnectionComplete         EventSubcode = 0x01
	SubAdvertisingReport          EventSubcode = 0x02
	SubConnectionUpdate           EventSubcode = 0x03
	SubReadRemoteFeaturesComplete EventSubcode = 0x04
	SubLTKRequest                 EventSubcode = 0x05
	SubDataLengthChange           EventSubcode = 0x07
	SubEnhancedConnectionComplete EventSubcode = 0x0A
	SubPhyUpdateComplete          EventSubcode = 0x0C
	SubExtendedAdvertisingReport  EventSubcode = 0x0D
	SubScanTimeout                EventSubcode = 0x11
	SubChannelSelectionAlgorithm  EventSubcode = 0x14
)

// StatusCode is the BLE-defined status byte returned in command
// completion events.
type StatusCode byte

// BLE status codes.
const (
	StatusSuccess                    StatusCode = 0x00
	StatusUnknownHCICommand          StatusCode = 0x01
	StatusUnknownConnID              StatusCode = 0x02
	StatusHardwareFailure            StatusCode = 0x03
	StatusPageTimeout                StatusCode = 0x04
	StatusAuthFailure                StatusCode = 0x05
	StatusPinKeyMissing              StatusCode = 0x06
	StatusMemCapExceeded             StatusCode = 0x07
	StatusConnTimeout                StatusCode = 0x08
	StatusConnLimitExceeded          StatusCode = 0x09
	StatusSyncConnLimitExceeded      StatusCode = 0x0A
	StatusACLConnAlreadyExists       StatusCode = 0x0B
	StatusCommandDisallowed          StatusCode = 0x0C
	StatusConnRejLimitedResources    StatusCode = 0x0D
	StatusConnRejSecurity            StatusCode = 0x0E
	StatusConnRejUnacceptableBDAddr  StatusCode = 0x0F
	StatusConnAcceptTimeout          StatusCode = 0x10
	StatusUnsupportedFeatureParam    StatusCode = 0x11
	StatusInvalidHCICommandParams    StatusCode = 0x12
	StatusRemoteUserTermConn         StatusCode = 0x13
	StatusRemoteTermLowResources     StatusCode = 0x14
	StatusRemoteTermPowerOff         StatusCode = 0x15
	StatusConnTermByLocalHost        StatusCode = 0x16
	StatusRepeatedAttempts           StatusCode = 0x17
	StatusPairingNotAllowed          StatusCode = 0x18
	StatusUnknownLMPPDU              StatusCode = 0x19
	StatusUnsupportedRemoteFeature   StatusCode = 0x1A
	StatusInvalidLMPParams           StatusCode = 0x1E
	StatusUnspecifiedError           StatusCode = 0x1F
	StatusLMPLLResponseTimeout       StatusCode = 0x22
	StatusLMPErrTransactionCollision StatusCode = 0x23
	StatusInstantPassed              StatusCode = 0x28
	StatusDifferentTransactionColl   StatusCode = 0x2A
	StatusParamOutOfMandatoryRange   StatusCode = 0x30
	StatusInsufficientSecurity       StatusCode = 0x2F
	StatusConnRejNoSuitableChannel   StatusCode = 0x39
	StatusControllerBusy             StatusCode = 0x3A
	StatusUnacceptableConnInterval   StatusCode = 0x3B
	StatusAdvTimeout                 StatusCode = 0x3C
	StatusConnTermMICFailure         StatusCode = 0x3D
	StatusConnFailedToEstablish      StatusCode = 0x3E
	StatusMACConnFailed              StatusCode = 0x3F
	StatusCoarseClkAdjRejected       StatusCode = 0x40
	StatusType0SubmapNotDefined      StatusCode = 0x41
	StatusUnknownAdvID               StatusCode = 0x42
	StatusLimitReached               StatusCode = 0x43
	StatusOpCancelledByHost          StatusCode = 0x44
	StatusPacketTooLong              StatusCode = 0x45
	StatusDecodeFailure              StatusCode = 0xFF
)

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(0x%02X)", byte(s))
}

var statusNames = map[StatusCode]string{
	StatusSuccess:                    "SUCCESS",
	StatusUnknownHCICommand:          "UNKNOWN_HCI_COMMAND",
	StatusUnknownConnID:              "UNKNOWN_CONN_ID",
	StatusHardwareFailure:            "HARDWARE_FAILURE",
	StatusPageTimeout:                "PAGE_TIMEOUT",
	StatusAuthFailure:                "AUTH_FAILURE",
	StatusPinKeyMissing:              "PIN_KEY_MISSING",
	StatusMemCapExceeded:             "MEM_CAP_EXCEEDED",
	StatusConnTimeout:                "CONN_TIMEOUT",
	StatusConnLimitExceeded:          "CONN_LIMIT_EXCEEDED",
	StatusSyncConnLimitExceeded:      "SYNC_CONN_LIMIT_EXCEEDED",
	StatusACLConnAlreadyExists:       "ACL_CONN_ALREADY_EXISTS",
	StatusCommandDisallowed:          "COMMAND_DISALLOWED",
	StatusConnRejLimitedResources:    "CONN_REJ_LIMITED_RESOURCES",
	StatusConnRejSecurity:            "CONN_REJ_SECURITY",
	StatusConnRejUnacceptableBDAddr:  "CONN_REJ_UNACCEPTABLE_BDADDR",
	StatusConnAcceptTimeout:          "CONN_ACCEPT_TIMEOUT",
	StatusUnsupportedFeatureParam:    "UNSUPPORTED_FEATURE_PARAM",
	StatusInvalidHCICommandParams:    "INVALID_HCI_COMMAND_PARAMS",
	StatusRemoteUserTermConn:         "REMOTE_USER_TERM_CONN",
	StatusRemoteTermLowResources:     "REMOTE_TERM_LOW_RESOURCES",
	StatusRemoteTermPowerOff:         "REMOTE_TERM_POWER_OFF",
	StatusConnTermByLocalHost:        "CONN_TERM_BY_LOCAL_HOST",
	StatusRepeatedAttempts:           "REPEATED_ATTEMPTS",
	StatusPairingNotAllowed:          "PAIRING_NOT_ALLOWED",
	StatusUnknownLMPPDU:              "UNKNOWN_LMP_PDU",
	StatusUnsupportedRemoteFeature:   "UNSUPPORTED_REMOTE_FEATURE",
	StatusInvalidLMPParams:           "INVALID_LMP_PARAMS",
	StatusUnspecifiedError:           "UNSPECIFIED_ERROR",
	StatusLMPLLResponseTimeout:       "LMP_LL_RESPONSE_TIMEOUT",
	StatusLMPErrTransactionCollision: "LMP_ERR_TRANSACTION_COLLISION",
	StatusInstantPassed:              "INSTANT_PASSED",
	StatusDifferentTransactionColl:   "DIFFERENT_TRANSACTION_COLLISION",
	StatusParamOutOfMandatoryRange:   "PARAM_OUT_OF_MANDATORY_RANGE",
	StatusInsufficientSecurity:       "INSUFFICIENT_SECURITY",
	StatusConnRejNoSuitableChannel:   "CONN_REJ_NO_SUITABLE_CHANNEL",
	StatusControllerBusy:             "CONTROLLER_BUSY",
	StatusUnacceptableConnInterval:   "UNACCEPTABLE_CONN_INTERVAL",
	StatusAdvTimeout:                 "ADV_TIMEOUT",
	StatusConnTermMICFailure:         "CONN_TERM_MIC_FAILURE",
	StatusConnFailedToEstablish:      "CONN_FAILED_TO_ESTABLISH",
	StatusMACConnFailed:              "MAC_CONN_FAILED",
	StatusCoarseClkAdjRejected:       "COARSE_CLK_ADJ_REJECTED",
	StatusType0SubmapNotDefined:      "TYPE0_SUBMAP_NOT_DEFINED",
	StatusUnknownAdvID:               "UNKNOWN_ADV_ID",
	StatusLimitReached:               "LIMIT_REACHED",
	StatusOpCancelledByHost:          "OP_CANCELLED_BY_HOST",
	StatusPacketTooLong:              "PACKET_TOO_LONG",
	StatusDecodeFailure:              "DECODE_FAILURE",
}
