package nvm

// Mem is an in-memory Storage. New regions read as 0xFF, like erased EEPROM.
type Mem struct {
	Data []byte

	// Writes counts WriteBytes calls.
	Writes int

	// WriteError, if set, will be returned by WriteBytes.
	WriteError error
}

// NewMem creates an erased region of size bytes.
func NewMem(size int) *Mem {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Mem{Data: data}
}

// ReadBytes returns a copy of length bytes at offset.
func (m *Mem) ReadBytes(offset, length int) ([]byte, error) {
	if err := checkRange(offset, length, len(m.Data)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.Data[offset:offset+length])
	return out, nil
}

// WriteBytes stores data at offset.
func (m *Mem) WriteBytes(offset int, data []byte) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	if err := checkRange(offset, len(data), len(m.Data)); err != nil {
		return err
	}
	copy(m.Data[offset:], data)
	m.Writes++
	return nil
}
