package mqtt

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/station-controller/internal/sensor"
)

// SensorFeed caches readings published on <prefix>/sensors/<kind> and serves
// them as a sensor.Reader. Readings older than MaxAge are not ready.
// Safe for concurrent use: paho writes, the station loop reads.
type SensorFeed struct {
	mu     sync.RWMutex
	values map[sensor.Kind]reading
	maxAge time.Duration
	now    func() time.Time
}

type reading struct {
	value float64
	at    time.Time
}

// NewSensorFeed creates an empty feed. maxAge <= 0 keeps readings forever.
// A nil now uses time.Now.
func NewSensorFeed(maxAge time.Duration, now func() time.Time) *SensorFeed {
	if now == nil {
		now = time.Now
	}
	return &SensorFeed{
		values: make(map[sensor.Kind]reading),
		maxAge: maxAge,
		now:    now,
	}
}

// HandleMessage stores a reading. The kind is the last topic segment and
// the payload a plain decimal number.
func (f *SensorFeed) HandleMessage(topic string, payload []byte) {
	name := topic[strings.LastIndex(topic, "/")+1:]
	kind, ok := sensor.ParseKind(name)
	if !ok {
		log.Printf("mqtt: ignoring reading for unknown sensor %q", name)
		return
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		log.Printf("mqtt: bad reading on %s: %q", topic, payload)
		return
	}

	f.mu.Lock()
	f.values[kind] = reading{value: v, at: f.now()}
	f.mu.Unlock()
}

// Read returns the latest reading of k, or sensor.NotReady.
func (f *SensorFeed) Read(k sensor.Kind) float64 {
	f.mu.RLock()
	r, ok := f.values[k]
	f.mu.RUnlock()

	if !ok {
		return sensor.NotReady
	}
	if f.maxAge > 0 && f.now().Sub(r.at) > f.maxAge {
		return sensor.NotReady
	}
	return r.value
}
