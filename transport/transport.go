// Package transport owns the serial line to a BLE controller: it
// frames raw bytes into HCI packets, fans events and data into bounded
// queues, and correlates commands with their completion events.
package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/radio-control/blehci/config"
	"github.com/radio-control/blehci/packet"
	"github.com/radio-control/blehci/trace"
)

// Encoder is any packet that serializes to a complete command frame.
type Encoder interface {
	Encode() ([]byte, error)
	Opcode() uint16
}

// Transport drives one serial port. A background reader captures
// frames continuously; commands are serialized so at most one is
// outstanding at a time.
type Transport struct {
	id     string
	port   Port
	log    zerolog.Logger
	tracer trace.Tracer

	timeout time.Duration
	retries int

	ioMu  sync.Mutex // held for the duration of one frame transfer
	cmdMu sync.Mutex // at most one outstanding command

	completions chan *packet.EventPacket // command completion/status only
	events      chan *packet.EventPacket // unsolicited events
	data        chan *packet.AsyncPacket

	quit chan struct{}
	dead chan struct{} // closed when the reader exits

	wg         sync.WaitGroup
	stopOnce   sync.Once
	ownsTracer bool
}

// Option adjusts how Open builds the transport.
type Option func(*Transport)

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Transport) { t.log = log }
}

// WithTracer installs a frame tracer. The caller keeps ownership and
// closes it.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Transport) { t.tracer = tr }
}

// WithPort injects an already-open port, bypassing the serial layer.
func WithPort(p Port) Option {
	return func(t *Transport) { t.port = p }
}

// Open validates cfg, claims the port (stopping a prior owner if one
// exists), and starts the reader. On error nothing is left running.
func Open(cfg *config.Config, opts ...Option) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PortID == "" {
		return nil, fmt.Errorf("%w: no port configured", config.ErrConfig)
	}

	t := &Transport{
		id:      cfg.PortID,
		log:     zerolog.Nop(),
		tracer:  trace.Nop{},
		timeout:     cfg.CommandTimeout,
		retries:     cfg.Retries,
		completions: make(chan *packet.EventPacket, cfg.QueueDepth),
		events:      make(chan *packet.EventPacket, cfg.QueueDepth),
		data:        make(chan *packet.AsyncPacket, cfg.QueueDepth),
		quit:        make(chan struct{}),
		dead:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	takeover(t.id)

	if t.port == nil {
		port, err := openSerial(cfg.PortID, cfg.Baud, cfg.ReadTimeout)
		if err != nil {
			return nil, err
		}
		t.port = port
	}

	if _, ok := t.tracer.(trace.Nop); ok && cfg.TraceDir != "" {
		tr, err := trace.NewWriter(cfg.TraceDir)
		if err != nil {
			t.port.Close()
			return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
		}
		t.tracer = tr
		t.ownsTracer = true
	}

	register(t)

	t.wg.Add(1)
	go t.readLoop()

	t.log.Info().Str("port", t.id).Msg("transport started")
	return t, nil
}

// ID returns the port identifier this transport owns.
func (t *Transport) ID() string { return t.id }

// Dead is closed when the reader goroutine has exited. Waiters use it
// to fail fast instead of running out their full timeout.
func (t *Transport) Dead() <-chan struct{} { return t.dead }

// readLoop captures frames until the port is stopped or fails. Framing
// inconsistencies drop the frame and continue; port errors end capture.
func (t *Transport) readLoop() {
	defer t.wg.Done()
	defer close(t.dead)

	for {
		select {
		case <-t.quit:
			return
		default:
		}

		typ, frame, err := t.readFrame()
		if err != nil {
			if errors.Is(err, packet.ErrFraming) {
				t.log.Warn().Err(err).Msg("dropping malformed frame")
				continue
			}
			select {
			case <-t.quit:
			default:
				t.log.Error().Err(err).Msg("serial read failed, capture ending")
			}
			return
		}
		if frame == nil {
			continue // poll window elapsed with no traffic
		}

		t.tracer.Frame(t.id, "rx", append([]byte{byte(typ)}, frame...))
		t.dispatch(typ, frame)
	}
}

// readFrame reads exactly one frame, or nothing if the poll window
// elapses before a type tag arrives. The idle tag wait runs without the
// I/O lock so writers are never stalled behind an empty line; the lock
// is taken only while a frame is actually in transit.
func (t *Transport) readFrame() (packet.PacketType, []byte, error) {
	var tag [1]byte
	n, err := t.port.Read(tag[:])
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}

	t.ioMu.Lock()
	defer t.ioMu.Unlock()

	typ := packet.PacketType(tag[0])

	// Async frames carry a 16-bit length in a 4-byte header; event and
	// other frames a single length byte in a 2-byte header.
	headerLen := 2
	if typ == packet.TypeAsync {
		headerLen = 4
	}
	header := make([]byte, headerLen)
	if err := t.readFull(header); err != nil {
		return 0, nil, err
	}

	var bodyLen int
	if typ == packet.TypeAsync {
		bodyLen = int(header[2]) | int(header[3])<<8
	} else {
		bodyLen = int(header[1])
	}

	frame := make([]byte, headerLen+bodyLen)
	copy(frame, header)
	if err := t.readFull(frame[headerLen:]); err != nil {
		return 0, nil, err
	}
	return typ, frame, nil
}

// readFull fills buf completely. A zero-byte read mid-frame means the
// line went quiet inside a frame, which is a framing failure.
func (t *Transport) readFull(buf []byte) error {
	for off := 0; off < len(buf); {
		n, err := t.port.Read(buf[off:])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: short read, got %d of %d byte(s)", packet.ErrFraming, off, len(buf))
		}
		off += n
	}
	return nil
}

// dispatch decodes a captured frame and enqueues it. Full queues drop
// the newest frame rather than stall capture.
func (t *Transport) dispatch(typ packet.PacketType, frame []byte) {
	if typ == packet.TypeAsync {
		pkt, err := packet.DecodeAsync(frame)
		if err != nil {
			t.log.Warn().Err(err).Msg("dropping malformed data frame")
			return
		}
		select {
		case t.data <- pkt:
		default:
			t.log.Warn().Uint16("handle", pkt.Handle).Msg("data queue full, dropping frame")
		}
		return
	}

	pkt, err := packet.DecodeEvent(frame)
	if err != nil {
		t.log.Warn().Err(err).Msg("dropping malformed event frame")
		return
	}
	if !pkt.Code.Known() {
		t.log.Debug().Uint8("code", uint8(pkt.Code)).Msg("unrecognized event code")
	}

	// Command completions answer the outstanding command; everything
	// else is unsolicited traffic for the passive retrieval queue.
	queue := t.events
	if pkt.Code == packet.EvtCommandComplete || pkt.Code == packet.EvtCommandStatus {
		queue = t.completions
	}
	select {
	case queue <- pkt:
	default:
		t.log.Warn().Str("event", pkt.Code.String()).Msg("event queue full, dropping frame")
	}
}

// SendCommand writes cmd and waits for its completion event using the
// configured timeout and retry budget.
func (t *Transport) SendCommand(cmd Encoder) (*packet.EventPacket, error) {
	return t.SendCommandTimeout(cmd, t.timeout)
}

// SendCommandTimeout is SendCommand with an explicit per-wait timeout.
// On timeout the identical bytes are re-sent until the retry budget is
// spent; the terminal error wraps every prior cause.
func (t *Transport) SendCommandTimeout(cmd Encoder, timeout time.Duration) (*packet.EventPacket, error) {
	raw, err := cmd.Encode()
	if err != nil {
		return nil, err
	}

	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	var causes error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			t.log.Warn().
				Str("opcode", fmt.Sprintf("0x%04X", cmd.Opcode())).
				Int("attempt", attempt+1).
				Msg("no completion, resending command")
		}

		if err := t.writeFrame(raw); err != nil {
			return nil, err
		}

		evt, err := t.waitCompletion(timeout)
		if err == nil {
			return evt, nil
		}
		if !errors.Is(err, ErrTimeout) {
			return nil, err
		}
		causes = errors.Join(causes, err)
	}

	return nil, fmt.Errorf("command 0x%04X unanswered after %d attempt(s): %w",
		cmd.Opcode(), t.retries+1, causes)
}

// writeFrame sends one frame down the line. Stale queued completions
// from earlier traffic are discarded first so the next completion
// observed belongs to this command.
func (t *Transport) writeFrame(raw []byte) error {
drain:
	for {
		select {
		case evt := <-t.completions:
			t.log.Debug().Str("event", evt.Code.String()).Msg("discarding stale completion")
		default:
			break drain
		}
	}

	t.ioMu.Lock()
	defer t.ioMu.Unlock()

	select {
	case <-t.dead:
		return fmt.Errorf("%w: port %s is not capturing", ErrClosed, t.id)
	default:
	}

	if _, err := t.port.Write(raw); err != nil {
		return fmt.Errorf("serial write on %s: %w", t.id, err)
	}
	t.tracer.Frame(t.id, "tx", raw)
	return nil
}

// waitCompletion blocks for the next command completion, the reader
// dying, or the deadline, whichever comes first. A completion already
// queued when the reader dies is still delivered.
func (t *Transport) waitCompletion(timeout time.Duration) (*packet.EventPacket, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case evt := <-t.completions:
		return evt, nil
	case <-t.dead:
		select {
		case evt := <-t.completions:
			return evt, nil
		default:
		}
		return nil, fmt.Errorf("%w: reader exited while awaiting completion", ErrClosed)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no completion within %v", ErrTimeout, timeout)
	}
}

// RetrieveEvent returns the next captured event frame, waiting up to
// timeout for one to arrive.
func (t *Transport) RetrieveEvent(timeout time.Duration) (*packet.EventPacket, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case evt := <-t.events:
		return evt, nil
	case <-t.dead:
		select {
		case evt := <-t.events:
			return evt, nil
		default:
		}
		return nil, fmt.Errorf("%w: port %s is not capturing", ErrClosed, t.id)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no event within %v", ErrTimeout, timeout)
	}
}

// RetrievePacket returns the next captured frame from either queue,
// whichever has one first. Frames captured before reader death remain
// retrievable after it.
func (t *Transport) RetrievePacket(timeout time.Duration) (packet.Packet, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case evt := <-t.events:
		return evt, nil
	case pkt := <-t.data:
		return pkt, nil
	case <-t.dead:
		select {
		case evt := <-t.events:
			return evt, nil
		case pkt := <-t.data:
			return pkt, nil
		default:
		}
		return nil, fmt.Errorf("%w: port %s is not capturing", ErrClosed, t.id)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no traffic within %v", ErrTimeout, timeout)
	}
}

// RetrieveData returns the next captured async data frame, waiting up
// to timeout for one to arrive.
func (t *Transport) RetrieveData(timeout time.Duration) (*packet.AsyncPacket, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pkt := <-t.data:
		return pkt, nil
	case <-t.dead:
		select {
		case pkt := <-t.data:
			return pkt, nil
		default:
		}
		return nil, fmt.Errorf("%w: port %s is not capturing", ErrClosed, t.id)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no data within %v", ErrTimeout, timeout)
	}
}

// Stop ends capture, closes the port and releases its registry slot.
// It is safe to call any number of times and after reader death.
func (t *Transport) Stop() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.quit)
		err = t.port.Close() // unblocks a reader parked in Read
		t.wg.Wait()
		unregister(t)
		if t.ownsTracer {
			t.tracer.Close()
		}
		t.log.Info().Str("port", t.id).Msg("transport stopped")
	})
	return err
}
