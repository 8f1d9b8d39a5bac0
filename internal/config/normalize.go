// internal/config/normalize.go
package config

import "strings"

// Normalize applies runtime defaults.
// It is allowed to mutate the configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg.Serial.ReadTimeoutMs == 0 {
		cfg.Serial.ReadTimeoutMs = 100
	}
	if cfg.Clock.Timezone == "" {
		cfg.Clock.Timezone = "Local"
	}

	cfg.MQTT.Prefix = strings.Trim(cfg.MQTT.Prefix, "/")
	if cfg.MQTT.Prefix == "" {
		cfg.MQTT.Prefix = "station"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "station-controller"
	}
	if cfg.MQTT.BufferSize == 0 {
		cfg.MQTT.BufferSize = 100
	}
}
