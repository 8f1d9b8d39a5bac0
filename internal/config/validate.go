// internal/config/validate.go
package config

import (
	"fmt"
	"time"
)

// Validate performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be > 0")
	}
	if cfg.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial.read_timeout_ms must be >= 0")
	}

	if cfg.GPIO.Chip == "" {
		return fmt.Errorf("gpio.chip is required")
	}
	if err := validatePins(cfg.GPIO.Pins); err != nil {
		return err
	}

	if cfg.Thresholds.LowVoltage < 0 {
		return fmt.Errorf("thresholds.low_voltage must be >= 0")
	}
	if cfg.Thresholds.LowPressure < 0 {
		return fmt.Errorf("thresholds.low_pressure must be >= 0")
	}
	if cfg.Thresholds.DebounceMs < 0 {
		return fmt.Errorf("thresholds.debounce_ms must be >= 0")
	}

	if cfg.Ticks.SensorMs <= 0 {
		return fmt.Errorf("ticks.sensor_ms must be > 0")
	}
	if cfg.Ticks.ScheduleMs <= 0 {
		return fmt.Errorf("ticks.schedule_ms must be > 0")
	}
	if cfg.Ticks.HeartbeatMs < 0 {
		return fmt.Errorf("ticks.heartbeat_ms must be >= 0")
	}

	if cfg.NVM.Path == "" {
		return fmt.Errorf("nvm.path is required")
	}

	if cfg.Clock.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Clock.Timezone); err != nil {
			return fmt.Errorf("clock.timezone %q: %w", cfg.Clock.Timezone, err)
		}
	}

	if cfg.MQTT.BufferSize < 0 {
		return fmt.Errorf("mqtt.buffer_size must be >= 0")
	}
	if cfg.MQTT.SensorMaxAgeMs < 0 {
		return fmt.Errorf("mqtt.sensor_max_age_ms must be >= 0")
	}

	return nil
}

func validatePins(p PinsConfig) error {
	named := []struct {
		name string
		pin  int
	}{
		{"pump_valve", p.PumpValve},
		{"pres_relief_valve", p.PressureReliefValve},
		{"prod_co2", p.CO2Production},
		{"co2_neutralization", p.CO2Neutralization},
		{"heat_module", p.Heater},
		{"fan", p.Fan},
		{"cameras", p.Cameras},
		{"light", p.Light},
		{"interlock", p.Interlock},
		{"hatch", p.Hatch},
	}

	seen := make(map[int]string, len(named))
	for _, n := range named {
		if n.pin < 0 {
			return fmt.Errorf("gpio.pins.%s must be >= 0", n.name)
		}
		if other, ok := seen[n.pin]; ok {
			return fmt.Errorf("gpio.pins.%s: line %d already used by %s", n.name, n.pin, other)
		}
		seen[n.pin] = n.name
	}
	return nil
}
