package device

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is an open serial port. Read returns 0, nil when the read timeout
// elapses without data.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Opener enumerates and opens ports.
type Opener interface {
	List() ([]string, error)
	Open(name string, baud int) (Port, error)
}

// SerialOpener opens real serial ports.
type SerialOpener struct{}

// List returns the serial ports present on the system.
func (SerialOpener) List() ([]string, error) {
	return serial.GetPortsList()
}

// Open opens name at baud, 8N1.
func (SerialOpener) Open(name string, baud int) (Port, error) {
	return serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}
