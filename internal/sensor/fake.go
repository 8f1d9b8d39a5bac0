package sensor

// Fake is a Reader returning fixed values. Missing kinds are not ready.
type Fake struct {
	Values map[Kind]float64

	// Reads counts Read calls per kind.
	Reads map[Kind]int
}

// NewFake creates a Fake with no readings.
func NewFake() *Fake {
	return &Fake{
		Values: make(map[Kind]float64),
		Reads:  make(map[Kind]int),
	}
}

// Read returns the stored value for k.
func (f *Fake) Read(k Kind) float64 {
	f.Reads[k]++
	v, ok := f.Values[k]
	if !ok {
		return NotReady
	}
	return v
}
