package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeOpcodeRoundTrip(t *testing.T) {
	for ogf := OGF(0); ogf <= 0x3F; ogf++ {
		for ocf := OCF(0); ocf <= 0x3FF; ocf++ {
			gotOGF, gotOCF := SplitOpcode(MakeOpcode(ogf, ocf))
			if gotOGF != ogf || gotOCF != ocf {
				t.Fatalf("opcode round trip failed: ogf=0x%02X ocf=0x%03X got (0x%02X, 0x%03X)",
					ogf, ocf, gotOGF, gotOCF)
			}
		}
	}
}

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  *CommandPacket
		want []byte
	}{
		{
			name: "reset without params",
			cmd:  NewCommand(OGFController, OCFReset),
			want: []byte{0x01, 0x03, 0x0C, 0x00},
		},
		{
			name: "single byte param",
			cmd:  NewCommand(OGFLEController, OCFLESetAdvEnable, 1),
			want: []byte{0x01, 0x0A, 0x20, 0x01, 0x01},
		},
		{
			name: "zero occupies one byte",
			cmd:  NewCommand(OGFLEController, OCFLESetAdvEnable, 0),
			want: []byte{0x01, 0x0A, 0x20, 0x01, 0x00},
		},
		{
			name: "multi byte param little endian",
			cmd:  NewCommand(OGFLEController, OCFLESetDataLen, 0x1234),
			want: []byte{0x01, 0x22, 0x20, 0x02, 0x34, 0x12},
		},
		{
			name: "negative param two's complement",
			cmd:  NewCommand(OGFVendorSpec, OCFVSSetAdvTxPower, -2),
			want: []byte{0x01, 0xF5, 0xFF, 0x01, 0xFE},
		},
		{
			name: "params concatenate in declaration order",
			cmd:  NewCommand(OGFLEController, OCFLEEnhancedTxTest, 39, 255, 0, 1),
			want: []byte{0x01, 0x34, 0x20, 0x04, 0x27, 0xFF, 0x00, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandEncodeRejectsOutOfRangeNegative(t *testing.T) {
	// -129 needs two bytes signed but has a one-byte magnitude.
	_, err := NewCommand(OGFController, OCFReset, -129).Encode()
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestExtendedEncode(t *testing.T) {
	ext := &ExtendedPacket{OGF: OGFVendorSpec, OCF: OCFVSSetBDAddr, Payload: []int{0xAB, 0xCD}}
	got, err := ext.Encode()
	require.NoError(t, err)

	// 16-bit payload length, little endian.
	assert.Equal(t, []byte{0x09, 0xF0, 0xFF, 0x02, 0x00, 0xAB, 0xCD}, got)
}

func TestMinimalWidthRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0x7F, 0x80, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFF, 0xFFFFFFFF, 1 << 47}
	for _, v := range values {
		cmd := NewCommand(OGFController, OCFReset, int(v))
		raw, err := cmd.Encode()
		require.NoError(t, err)
		assert.Equal(t, v, LEToUint(raw[4:]), "value 0x%X", v)
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name       string
		raw        []byte
		wantCode   EventCode
		wantStatus StatusCode
		hasStatus  bool
	}{
		{
			name:       "command complete success",
			raw:        []byte{0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00},
			wantCode:   EvtCommandComplete,
			wantStatus: StatusSuccess,
			hasStatus:  true,
		},
		{
			name:       "command complete failure status",
			raw:        []byte{0x0E, 0x04, 0x01, 0x03, 0x0C, 0x0C},
			wantCode:   EvtCommandComplete,
			wantStatus: StatusCommandDisallowed,
			hasStatus:  true,
		},
		{
			name:       "command status",
			raw:        []byte{0x0F, 0x04, 0x00, 0x01, 0x0D, 0x20},
			wantCode:   EvtCommandStatus,
			wantStatus: StatusSuccess,
			hasStatus:  true,
		},
		{
			name:       "hardware error implies hw failure status",
			raw:        []byte{0x10, 0x01, 0x07},
			wantCode:   EvtHardwareError,
			wantStatus: StatusHardwareFailure,
			hasStatus:  true,
		},
		{
			name:       "vendor specific",
			raw:        []byte{0xFF, 0x03, 0x00, 0xAA, 0xBB},
			wantCode:   EvtVendorSpec,
			wantStatus: StatusSuccess,
			hasStatus:  true,
		},
		{
			name:     "data buffer overflow carries no status",
			raw:      []byte{0x1A, 0x01, 0x01},
			wantCode: EvtDataBufferOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := DecodeEvent(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, pkt.Code)
			assert.Equal(t, tt.hasStatus, pkt.HasStatus)
			if tt.hasStatus {
				assert.Equal(t, tt.wantStatus, pkt.Status)
			}
		})
	}
}

func TestDecodeEventLEMeta(t *testing.T) {
	pkt, err := DecodeEvent([]byte{0x3E, 0x04, 0x07, 0x00, 0x00, 0xFB})
	require.NoError(t, err)
	assert.Equal(t, EvtLEMeta, pkt.Code)
	assert.Equal(t, SubDataLengthChange, pkt.Subcode)
	assert.Equal(t, []byte{0x00, 0x00, 0xFB}, pkt.Params)
	assert.False(t, pkt.HasStatus)
}

func TestDecodeEventUnknownCodeIsNotAFailure(t *testing.T) {
	raw := []byte{0x6B, 0x02, 0xDE, 0xAD}
	pkt, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.False(t, pkt.Code.Known())
	assert.Nil(t, pkt.Params)
	assert.Equal(t, raw, pkt.Raw)
}

func TestDecodeEventTruncated(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"header only", []byte{0x0E}},
		{"command complete short", []byte{0x0E, 0x04, 0x01}},
		{"le meta missing subcode", []byte{0x3E, 0x00}},
		{"status byte missing", []byte{0xFF, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent(tt.raw)
			require.ErrorIs(t, err, ErrFraming)
		})
	}
}

func TestDecodeAsync(t *testing.T) {
	pkt, err := DecodeAsync([]byte{0xD5, 0x0E, 0x02, 0x00, 0xCA, 0xFE})
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0E)<<8+uint16(0xD0), pkt.Handle)
	assert.Equal(t, uint8(0x01), pkt.PBFlag)
	assert.Equal(t, uint8(0x01), pkt.BCFlag)
	assert.Equal(t, uint16(2), pkt.Length)
	assert.Equal(t, []byte{0xCA, 0xFE}, pkt.Data)
}

func TestDecodeAsyncTruncated(t *testing.T) {
	_, err := DecodeAsync([]byte{0xD5, 0x0E, 0x02})
	require.ErrorIs(t, err, ErrFraming)
}

func TestReturnParams(t *testing.T) {
	// Command complete with two return bytes 0x34 0x12 after the status.
	pkt, err := DecodeEvent([]byte{0x0E, 0x06, 0x01, 0x03, 0x0C, 0x00, 0x34, 0x12})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), pkt.ReturnParams())
}

func TestReturnParamsSized(t *testing.T) {
	pkt, err := DecodeEvent([]byte{0x0E, 0x07, 0x01, 0x03, 0x0C, 0x00, 0x05, 0x34, 0x12})
	require.NoError(t, err)

	vals, err := pkt.ReturnParamsSized(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x05, 0x1234}, vals)

	_, err = pkt.ReturnParamsSized(2, 2)
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestCommandOpcodeEcho(t *testing.T) {
	pkt, err := DecodeEvent([]byte{0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00})
	require.NoError(t, err)
	assert.Equal(t, MakeOpcode(OGFController, OCFReset), pkt.CommandOpcode())
}
