// Package hci exposes BLE controller operations as typed methods over
// a transport: standard commands, vendor test commands, and the
// composite flows lab automation scripts reach for first.
package hci

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/radio-control/blehci/config"
	"github.com/radio-control/blehci/packet"
	"github.com/radio-control/blehci/transport"
)

// Hci is a handle to one BLE controller.
type Hci struct {
	t   *transport.Transport
	log zerolog.Logger
}

// Option adjusts how New builds the handle.
type Option func(*Hci)

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Hci) { h.log = log }
}

// New wraps an already-open transport.
func New(t *transport.Transport, opts ...Option) *Hci {
	h := &Hci{t: t, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open opens the configured port and wraps it.
func Open(cfg *config.Config, opts ...Option) (*Hci, error) {
	h := &Hci{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}

	t, err := transport.Open(cfg, transport.WithLogger(h.log))
	if err != nil {
		return nil, err
	}
	h.t = t
	return h, nil
}

// Transport returns the underlying transport, for raw frame access.
func (h *Hci) Transport() *transport.Transport { return h.t }

// Close stops the underlying transport.
func (h *Hci) Close() error { return h.t.Stop() }

// send issues a command and returns its completion event.
func (h *Hci) send(cmd transport.Encoder) (*packet.EventPacket, error) {
	evt, err := h.t.SendCommand(cmd)
	if err != nil {
		h.log.Error().Err(err).
			Uint16("opcode", cmd.Opcode()).
			Msg("command failed")
		return nil, err
	}
	return evt, nil
}

// status issues a command and reduces its completion to a status code.
// On a transport failure the status is StatusDecodeFailure.
func (h *Hci) status(cmd transport.Encoder) (packet.StatusCode, error) {
	evt, err := h.send(cmd)
	if err != nil {
		return packet.StatusDecodeFailure, err
	}
	return evt.Status, nil
}

// ReadEvent returns the next captured event frame, waiting up to
// timeout. Lab flows use it to observe asynchronous controller events
// such as connection completion.
func (h *Hci) ReadEvent(timeout time.Duration) (*packet.EventPacket, error) {
	return h.t.RetrieveEvent(timeout)
}
