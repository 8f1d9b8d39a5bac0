package gpio

// FakeLines is a test double holding line levels in memory.
type FakeLines struct {
	// Levels holds the current level of every line (true = high).
	// Tests set input levels here directly.
	Levels map[int]bool

	// Writes counts Assert and Deassert calls.
	Writes int

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Assert and Deassert.
	WriteError error

	// ReadError, if set, will be returned by Read.
	ReadError error
}

// NewFakeLines creates a FakeLines with every line low.
func NewFakeLines() *FakeLines {
	return &FakeLines{Levels: make(map[int]bool)}
}

// Assert sets line high.
func (f *FakeLines) Assert(line int) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels[line] = true
	f.Writes++
	return nil
}

// Deassert sets line low.
func (f *FakeLines) Deassert(line int) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels[line] = false
	f.Writes++
	return nil
}

// Read returns the stored level of line. Unset lines read low.
func (f *FakeLines) Read(line int) (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Levels[line], nil
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.Closed = true
	return nil
}
