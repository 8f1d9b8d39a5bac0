// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/station-controller/internal/gpio"
)

type Config struct {
	Serial     SerialConfig     `yaml:"serial"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Ticks      TicksConfig      `yaml:"ticks"`
	Light      LightConfig      `yaml:"light"`
	NVM        NVMConfig        `yaml:"nvm"`
	Clock      ClockConfig      `yaml:"clock"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// ---- GROUND LINK ----

type SerialConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ---- CONTROL LINES ----

type GPIOConfig struct {
	Chip string     `yaml:"chip"`
	Pins PinsConfig `yaml:"pins"`
}

type PinsConfig struct {
	PumpValve           int `yaml:"pump_valve"`
	PressureReliefValve int `yaml:"pres_relief_valve"`
	CO2Production       int `yaml:"prod_co2"`
	CO2Neutralization   int `yaml:"co2_neutralization"`
	Heater              int `yaml:"heat_module"`
	Fan                 int `yaml:"fan"`
	Cameras             int `yaml:"cameras"`
	Light               int `yaml:"light"`
	Interlock           int `yaml:"interlock"`
	Hatch               int `yaml:"hatch"`
}

// ---- MONITOR ----

type ThresholdsConfig struct {
	LowVoltage  float64 `yaml:"low_voltage"`  // V
	LowPressure float64 `yaml:"low_pressure"` // mbar
	DebounceMs  int     `yaml:"debounce_ms"`
}

type TicksConfig struct {
	SensorMs    int `yaml:"sensor_ms"`
	ScheduleMs  int `yaml:"schedule_ms"`
	HeartbeatMs int `yaml:"heartbeat_ms"` // 0 disables
}

type LightConfig struct {
	DayLevel   uint8 `yaml:"day_level"`
	NightLevel uint8 `yaml:"night_level"`
}

// ---- PERSISTENCE ----

type NVMConfig struct {
	Path string `yaml:"path"`
}

type ClockConfig struct {
	Timezone string `yaml:"timezone"` // IANA name, "Local" or "UTC"
}

// ---- TELEMETRY ----

type MQTTConfig struct {
	Broker         string `yaml:"broker"` // empty disables MQTT
	ClientID       string `yaml:"client_id"`
	Prefix         string `yaml:"prefix"`
	BufferSize     int    `yaml:"buffer_size"`
	SensorMaxAgeMs int    `yaml:"sensor_max_age_ms"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Port:          "/dev/ttyUSB0",
			Baud:          9600,
			ReadTimeoutMs: 100,
		},
		GPIO: GPIOConfig{
			Chip: "gpiochip0",
			Pins: PinsConfig{
				PumpValve:           gpio.PinPumpValve,
				PressureReliefValve: gpio.PinPresReliefValve,
				CO2Production:       gpio.PinProdCO2,
				CO2Neutralization:   gpio.PinCO2Neutralization,
				Heater:              gpio.PinHeatModule,
				Fan:                 gpio.PinFan,
				Cameras:             gpio.PinCameras,
				Light:               gpio.PinLightControl,
				Interlock:           gpio.PinRelayBlock,
				Hatch:               gpio.PinHatch,
			},
		},
		Thresholds: ThresholdsConfig{
			LowVoltage:  5.0,
			LowPressure: 950,
		},
		Ticks: TicksConfig{
			SensorMs:    1000,
			ScheduleMs:  10000,
			HeartbeatMs: 900000,
		},
		Light: LightConfig{
			DayLevel:   255,
			NightLevel: 0,
		},
		NVM: NVMConfig{
			Path: "/var/lib/station-controller/nvm.bin",
		},
		Clock: ClockConfig{
			Timezone: "Local",
		},
		MQTT: MQTTConfig{
			ClientID:       "station-controller",
			Prefix:         "station",
			BufferSize:     100,
			SensorMaxAgeMs: 30000,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone.
func (c ClockConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Outputs lists the actuator lines.
func (p PinsConfig) Outputs() []int {
	return []int{
		p.PumpValve, p.PressureReliefValve, p.CO2Production, p.CO2Neutralization,
		p.Heater, p.Fan, p.Cameras, p.Light,
	}
}

// Inputs lists the sensed lines.
func (p PinsConfig) Inputs() []int {
	return []int{p.Interlock, p.Hatch}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// SensorInterval returns the sensor tick as a duration.
func (t TicksConfig) SensorInterval() time.Duration { return ms(t.SensorMs) }

// ScheduleInterval returns the schedule tick as a duration.
func (t TicksConfig) ScheduleInterval() time.Duration { return ms(t.ScheduleMs) }

// HeartbeatInterval returns the heartbeat interval; zero disables.
func (t TicksConfig) HeartbeatInterval() time.Duration { return ms(t.HeartbeatMs) }
