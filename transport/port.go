package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/radio-control/blehci/config"
)

// Port is the serial endpoint the transport drives. go.bug.st/serial
// ports satisfy it; tests substitute scripted implementations.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// openSerial opens the OS device 8-N-1 with no flow control and a
// bounded read timeout so the reader can poll for shutdown.
func openSerial(portID string, baud int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portID, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", config.ErrConfig, portID, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %v", config.ErrConfig, portID, err)
	}
	return p, nil
}

// ListPorts returns the serial devices present on the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
