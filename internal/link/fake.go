package link

import (
	"bytes"
	"io"
	"sync"
)

// FakePort is a test double. Reads return scripted chunks in order, then
// io.EOF. Writes are captured.
type FakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	written bytes.Buffer

	// WriteError, if set, will be returned by Write.
	WriteError error

	// MaxWrite, if > 0, caps the bytes accepted per Write call.
	MaxWrite int

	Closed bool
}

// NewFakePort creates a FakePort that will deliver chunks.
func NewFakePort(chunks ...[]byte) *FakePort {
	return &FakePort{chunks: chunks}
}

// Read returns the next scripted chunk.
func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

// Write captures b.
func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.WriteError != nil {
		return 0, p.WriteError
	}
	if p.MaxWrite > 0 && len(b) > p.MaxWrite {
		b = b[:p.MaxWrite]
	}
	return p.written.Write(b)
}

// Written returns everything written so far.
func (p *FakePort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

// Close marks the port closed.
func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}
