// Package link carries frames over the ground-control serial line.
package link

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.bug.st/serial"

	"github.com/sweeney/station-controller/internal/protocol"
)

// Port is a byte channel to the ground station.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// Config describes the serial line.
type Config struct {
	Name        string
	BaudRate    int
	ReadTimeout time.Duration
}

// OpenSerial opens the serial port 8-N-1. Reads return (0, nil) after
// ReadTimeout with no data, so a reader never blocks indefinitely.
func OpenSerial(cfg Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Name, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}

	return port, nil
}

// Pump reads from r and forwards each non-empty chunk on out until done is
// closed or r fails. It never touches station state. A closed port ends
// the pump with a nil error.
func Pump(r io.Reader, out chan<- []byte, done <-chan struct{}) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-done:
			return nil
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-done:
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isPortClosed(err) {
				return nil
			}
			return fmt.Errorf("link: read: %w", err)
		}
	}
}

func isPortClosed(err error) bool {
	var pe *serial.PortError
	return errors.As(err, &pe) && pe.Code() == serial.PortClosed
}

// Sender writes frames to the port.
type Sender struct {
	w     io.Writer
	sent  int
	fails int
}

// NewSender creates a Sender over w.
func NewSender(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Send writes one frame. Short writes are retried until the frame is out.
func (s *Sender) Send(f protocol.Frame) error {
	b := f.Bytes()
	for len(b) > 0 {
		n, err := s.w.Write(b)
		if err != nil {
			s.fails++
			log.Printf("link: write %s: %v", protocol.FormatFrame(f), err)
			return fmt.Errorf("link: write: %w", err)
		}
		if n == 0 {
			s.fails++
			return errors.New("link: write: no progress")
		}
		b = b[n:]
	}
	s.sent++
	return nil
}

// Stats returns frames sent and failed writes.
func (s *Sender) Stats() (sent, failed int) {
	return s.sent, s.fails
}
