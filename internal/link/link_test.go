package link

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sweeney/station-controller/internal/protocol"
)

func TestPumpForwardsChunks(t *testing.T) {
	frame := protocol.Encode(protocol.OpReqCO2, nil).Bytes()
	port := NewFakePort(frame[:3], frame[3:])

	out := make(chan []byte, 4)
	done := make(chan struct{})

	if err := Pump(port, out, done); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(out)

	var got []byte
	for chunk := range out {
		got = append(got, chunk...)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("got % X, want % X", got, frame)
	}
}

func TestPumpStopsOnDone(t *testing.T) {
	port := NewFakePort([]byte{1}, []byte{2})
	out := make(chan []byte) // unbuffered, nobody reading
	done := make(chan struct{})
	close(done)

	if err := Pump(port, out, done); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestPumpReturnsReadError(t *testing.T) {
	want := errors.New("usb unplugged")
	err := Pump(failingReader{want}, make(chan []byte), make(chan struct{}))
	if !errors.Is(err, want) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestSenderWritesFrame(t *testing.T) {
	port := NewFakePort()
	s := NewSender(port)

	f := protocol.Encode(protocol.OpInitComplete, nil)
	if err := s.Send(f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(port.Written(), f.Bytes()) {
		t.Errorf("written: got % X", port.Written())
	}
	if sent, failed := s.Stats(); sent != 1 || failed != 0 {
		t.Errorf("stats: sent=%d failed=%d", sent, failed)
	}
}

func TestSenderShortWrites(t *testing.T) {
	port := NewFakePort()
	port.MaxWrite = 3
	s := NewSender(port)

	f := protocol.Encode(protocol.OpStartup, nil)
	if err := s.Send(f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(port.Written(), f.Bytes()) {
		t.Errorf("written: got % X", port.Written())
	}
}

func TestSenderWriteError(t *testing.T) {
	port := NewFakePort()
	port.WriteError = errors.New("tx fault")
	s := NewSender(port)

	if err := s.Send(protocol.Encode(protocol.OpStartup, nil)); !errors.Is(err, port.WriteError) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
	if _, failed := s.Stats(); failed != 1 {
		t.Errorf("failed: got %d", failed)
	}
}
