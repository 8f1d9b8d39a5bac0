// Package store keeps the station's persisted schedule: an initialization
// sentinel followed by the day-start and night-start times.
package store

import (
	"fmt"
	"log"

	"github.com/sweeney/station-controller/internal/nvm"
	"github.com/sweeney/station-controller/internal/protocol"
)

// Region layout. All values are uint32 little-endian.
const (
	OffsetSentinel  = 0x00
	OffsetDayTime   = OffsetSentinel + 4
	OffsetNightTime = OffsetDayTime + 4
	RegionSize      = OffsetNightTime + 4

	Sentinel uint32 = 0xAABBCCDD
)

// Default schedule, in seconds since local midnight.
const (
	DefaultDayTime   uint32 = 8 * 3600  // 08:00
	DefaultNightTime uint32 = 20 * 3600 // 20:00
)

// ConfigStore reads and writes the persisted schedule through an nvm.Storage.
type ConfigStore struct {
	nvm nvm.Storage
}

// New creates a store over the given region.
func New(s nvm.Storage) *ConfigStore {
	return &ConfigStore{nvm: s}
}

// EnsureInitialized checks the sentinel and, if it is missing or wrong,
// rewrites the defaults. It reports whether a reset happened.
// The sentinel is written last so an interrupted reset is retried next boot.
func (c *ConfigStore) EnsureInitialized() (bool, error) {
	v, err := c.read(OffsetSentinel)
	if err != nil {
		return false, err
	}
	if v == Sentinel {
		return false, nil
	}

	log.Printf("store: sentinel 0x%08X does not match, writing defaults", v)

	if err := c.write(OffsetDayTime, DefaultDayTime); err != nil {
		return false, err
	}
	if err := c.write(OffsetNightTime, DefaultNightTime); err != nil {
		return false, err
	}
	if err := c.write(OffsetSentinel, Sentinel); err != nil {
		return false, err
	}
	return true, nil
}

// DayTime returns the stored day-start time.
func (c *ConfigStore) DayTime() (uint32, error) {
	return c.read(OffsetDayTime)
}

// NightTime returns the stored night-start time.
func (c *ConfigStore) NightTime() (uint32, error) {
	return c.read(OffsetNightTime)
}

// SetDayTime stores the day-start time. The value is not range checked.
func (c *ConfigStore) SetDayTime(v uint32) error {
	return c.write(OffsetDayTime, v)
}

// SetNightTime stores the night-start time. The value is not range checked.
func (c *ConfigStore) SetNightTime(v uint32) error {
	return c.write(OffsetNightTime, v)
}

func (c *ConfigStore) read(offset int) (uint32, error) {
	b, err := c.nvm.ReadBytes(offset, 4)
	if err != nil {
		return 0, fmt.Errorf("store: read 0x%02X: %w", offset, err)
	}
	return protocol.Uint32(b), nil
}

func (c *ConfigStore) write(offset int, v uint32) error {
	b := make([]byte, 4)
	protocol.PutUint32(b, v)
	if err := c.nvm.WriteBytes(offset, b); err != nil {
		return fmt.Errorf("store: write 0x%02X: %w", offset, err)
	}
	return nil
}
