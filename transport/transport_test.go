package transport

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/blehci/config"
	"github.com/radio-control/blehci/packet"
)

// fakePort is a scriptable serial endpoint. Reads drain an in-memory
// buffer and emulate the OS poll timeout by returning zero bytes when
// the buffer stays empty; writes are recorded and can trigger a
// scripted response.
type fakePort struct {
	mu        sync.Mutex
	buf       []byte
	closed    bool
	writes    [][]byte
	onWrite   func(p *fakePort, frame []byte)
	pollDelay time.Duration // empty-line read park, 50ms unless set
}

func (p *fakePort) inject(frame ...byte) {
	p.mu.Lock()
	p.buf = append(p.buf, frame...)
	p.mu.Unlock()
}

func (p *fakePort) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *fakePort) Read(b []byte) (int, error) {
	delay := p.pollDelay
	if delay == 0 {
		delay = 50 * time.Millisecond
	}
	deadline := time.Now().Add(delay)
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return 0, io.ErrClosedPipe
		}
		if len(p.buf) > 0 {
			n := copy(b, p.buf)
			p.buf = p.buf[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()
		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	frame := append([]byte(nil), b...)
	p.mu.Lock()
	p.writes = append(p.writes, frame)
	cb := p.onWrite
	p.mu.Unlock()
	if cb != nil {
		cb(p, frame)
	}
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func testConfig(portID string) *config.Config {
	cfg := config.Default()
	cfg.PortID = portID
	cfg.CommandTimeout = 250 * time.Millisecond
	return cfg
}

func openTest(t *testing.T, cfg *config.Config, port *fakePort) *Transport {
	t.Helper()
	tr, err := Open(cfg, WithPort(port))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Stop() })
	return tr
}

// resetComplete is the completion event for HCI Reset with the given
// status, as it appears on the wire.
func resetComplete(status byte) []byte {
	return []byte{0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, status}
}

func TestSendCommandCompletes(t *testing.T) {
	port := &fakePort{
		onWrite: func(p *fakePort, _ []byte) { p.inject(resetComplete(0x00)...) },
	}
	tr := openTest(t, testConfig("fake0"), port)

	evt, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.NoError(t, err)

	assert.Equal(t, packet.EvtCommandComplete, evt.Code)
	assert.Equal(t, packet.StatusSuccess, evt.Status)
	assert.Equal(t, packet.MakeOpcode(packet.OGFController, packet.OCFReset), evt.CommandOpcode())

	port.mu.Lock()
	defer port.mu.Unlock()
	require.Len(t, port.writes, 1)
	assert.Equal(t, []byte{0x01, 0x03, 0x0C, 0x00}, port.writes[0])
}

func TestSendCommandRetriesIdenticalBytes(t *testing.T) {
	port := &fakePort{} // never answers
	cfg := testConfig("fake-retry")
	cfg.CommandTimeout = 30 * time.Millisecond
	cfg.Retries = 2
	tr := openTest(t, cfg, port)

	_, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.ErrorIs(t, err, ErrTimeout)

	port.mu.Lock()
	defer port.mu.Unlock()
	require.Len(t, port.writes, 3) // one attempt plus two retries
	assert.Equal(t, port.writes[0], port.writes[1])
	assert.Equal(t, port.writes[1], port.writes[2])
}

func TestSendCommandDiscardsStaleEvents(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-stale"), port)

	// A completion from earlier traffic sits in the queue.
	port.inject(resetComplete(0x0C)...)
	require.Eventually(t, func() bool { return len(tr.completions) == 1 },
		time.Second, time.Millisecond)

	port.mu.Lock()
	port.onWrite = func(p *fakePort, _ []byte) { p.inject(resetComplete(0x00)...) }
	port.mu.Unlock()

	evt, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.NoError(t, err)
	assert.Equal(t, packet.StatusSuccess, evt.Status)
}

func TestSendCommandIgnoresUnsolicitedEvents(t *testing.T) {
	port := &fakePort{
		onWrite: func(p *fakePort, _ []byte) {
			// An advertising report lands before the completion does.
			p.inject(0x04, 0x3E, 0x04, 0x02, 0x01, 0x00, 0x00)
			p.inject(resetComplete(0x00)...)
		},
	}
	tr := openTest(t, testConfig("fake-unsolicited"), port)

	evt, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.NoError(t, err)
	assert.Equal(t, packet.EvtCommandComplete, evt.Code)
	assert.Equal(t, packet.StatusSuccess, evt.Status)

	// The report stays available for passive retrieval.
	report, err := tr.RetrieveEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, packet.EvtLEMeta, report.Code)
	assert.Equal(t, packet.SubAdvertisingReport, report.Subcode)
}

func TestWriterNotBlockedByIdleReader(t *testing.T) {
	port := &fakePort{
		pollDelay: 500 * time.Millisecond,
		onWrite:   func(p *fakePort, _ []byte) { p.inject(resetComplete(0x00)...) },
	}
	tr := openTest(t, testConfig("fake-idle"), port)

	// Let the reader park in its idle tag read.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	_, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond,
		"command must not wait out the reader's idle poll window")
}

func TestEventsAreFIFO(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-fifo"), port)

	port.inject(0x04, 0xFF, 0x02, 0x00, 0x01)
	port.inject(0x04, 0xFF, 0x02, 0x00, 0x02)
	port.inject(0x04, 0xFF, 0x02, 0x00, 0x03)

	for i, want := range [][]byte{{0x01}, {0x02}, {0x03}} {
		evt, err := tr.RetrieveEvent(time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, evt.Params, "event %d", i)
	}
}

func TestAsyncFramesGoToDataQueue(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-acl"), port)

	port.inject(0x02, 0xD5, 0x0E, 0x02, 0x00, 0xCA, 0xFE)

	pkt, err := tr.RetrieveData(time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0ED0), pkt.Handle)
	assert.Equal(t, []byte{0xCA, 0xFE}, pkt.Data)

	// Nothing leaked into the event queue.
	_, err = tr.RetrieveEvent(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestRetrievePacketSelectsEitherQueue(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-either"), port)

	port.inject(0x02, 0xD5, 0x0E, 0x01, 0x00, 0xAB)
	pkt, err := tr.RetrievePacket(time.Second)
	require.NoError(t, err)
	require.IsType(t, &packet.AsyncPacket{}, pkt)
	assert.Equal(t, packet.TypeAsync, pkt.Type())

	port.inject(0x04, 0xFF, 0x02, 0x00, 0x01)
	pkt, err = tr.RetrievePacket(time.Second)
	require.NoError(t, err)
	require.IsType(t, &packet.EventPacket{}, pkt)
	assert.Equal(t, packet.TypeEvent, pkt.Type())

	_, err = tr.RetrievePacket(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestMalformedFrameIsContained(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-framing"), port)

	// Claims four payload bytes but the line goes quiet after one.
	port.inject(0x04, 0xFF, 0x04, 0x00, 0xAA)

	// Wait for the reader to drain the partial frame and run its poll
	// window dry, so capture has already dropped the frame before the
	// next well-formed one arrives.
	require.Eventually(t, func() bool {
		port.mu.Lock()
		defer port.mu.Unlock()
		return len(port.buf) == 0
	}, time.Second, time.Millisecond)
	time.Sleep(120 * time.Millisecond)

	port.inject(0x04, 0xFF, 0x02, 0x00, 0x01)

	evt, err := tr.RetrieveEvent(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, packet.EvtVendorSpec, evt.Code)
}

func TestReaderDeathFailsWaitersFast(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-death"), port)

	port.Close() // underlying device disappears

	select {
	case <-tr.Dead():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not exit after port failure")
	}

	start := time.Now()
	_, err := tr.SendCommand(packet.NewCommand(packet.OGFController, packet.OCFReset))
	require.ErrorIs(t, err, ErrClosed)
	assert.Less(t, time.Since(start), tr.timeout, "waiter should fail before the full timeout")

	_, err = tr.RetrieveEvent(time.Second)
	require.ErrorIs(t, err, ErrClosed)
}

func TestQueuedFramesSurviveReaderDeath(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-drain"), port)

	port.inject(0x04, 0xFF, 0x02, 0x00, 0x01)
	port.inject(0x02, 0xD5, 0x0E, 0x01, 0x00, 0xAB)
	require.Eventually(t, func() bool {
		return len(tr.events) == 1 && len(tr.data) == 1
	}, time.Second, time.Millisecond)

	port.Close()
	select {
	case <-tr.Dead():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not exit after port failure")
	}

	// Frames captured before the reader died are still delivered.
	evt, err := tr.RetrieveEvent(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, evt.Params)

	pkt, err := tr.RetrieveData(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB}, pkt.Data)

	// Only once the queues are empty does closure surface.
	_, err = tr.RetrieveEvent(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrClosed)
	_, err = tr.RetrievePacket(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrClosed)
}

func TestStopIsIdempotent(t *testing.T) {
	port := &fakePort{}
	tr := openTest(t, testConfig("fake-stop"), port)

	require.NoError(t, tr.Stop())
	require.NoError(t, tr.Stop())

	select {
	case <-tr.Dead():
	default:
		t.Fatal("reader still running after Stop")
	}
}

func TestRegistryTakeover(t *testing.T) {
	first := openTest(t, testConfig("fake-shared"), &fakePort{})

	owner, ok := Owner("fake-shared")
	require.True(t, ok)
	assert.Same(t, first, owner)

	second := openTest(t, testConfig("fake-shared"), &fakePort{})

	select {
	case <-first.Dead():
	case <-time.After(2 * time.Second):
		t.Fatal("prior owner was not stopped on takeover")
	}

	owner, ok = Owner("fake-shared")
	require.True(t, ok)
	assert.Same(t, second, owner)

	require.NoError(t, second.Stop())
	_, ok = Owner("fake-shared")
	assert.False(t, ok)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig("")
	_, err := Open(cfg, WithPort(&fakePort{}))
	require.ErrorIs(t, err, config.ErrConfig)

	cfg = testConfig("fake-bad")
	cfg.QueueDepth = 0
	_, err = Open(cfg, WithPort(&fakePort{}))
	require.ErrorIs(t, err, config.ErrConfig)
}
