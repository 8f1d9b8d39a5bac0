package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"github.com/sweeney/station-controller/internal/config"
	"github.com/sweeney/station-controller/internal/switchboard"
)

const defaultConfigPath = "/etc/station-controller/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "station-controller",
	Short: "Environmental station controller",
	Long: `station-controller drives a sealed environmental station.

It answers framed binary commands from ground control over a serial line,
switches actuators behind the relay-block interlock, raises low-voltage,
low-pressure and hatch-open alerts and keeps the lights on the persisted
day/night schedule. Telemetry goes to MQTT and a status page is served
over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "YAML configuration file")
}

// loadConfig reads the configuration file. A missing file at the default
// path means stock settings; a missing file given explicitly is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			log.Printf("config: %s not found, using defaults", configPath)
			d := config.Default()
			return &d, nil
		}
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

// prepareConfig validates, then normalizes.
func prepareConfig(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return nil
}

func switchboardPins(p config.PinsConfig) switchboard.Pins {
	return switchboard.Pins{
		PumpValve:           p.PumpValve,
		PressureReliefValve: p.PressureReliefValve,
		CO2Production:       p.CO2Production,
		CO2Neutralization:   p.CO2Neutralization,
		Heater:              p.Heater,
		Fan:                 p.Fan,
		Cameras:             p.Cameras,
		Light:               p.Light,
		Interlock:           p.Interlock,
	}
}
