package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/station-controller/internal/gpio"
	"github.com/sweeney/station-controller/internal/mqtt"
	"github.com/sweeney/station-controller/internal/sensor"
	"github.com/sweeney/station-controller/internal/status"
	"github.com/sweeney/station-controller/internal/switchboard"
)

var sensorWait time.Duration

var printStateCmd = &cobra.Command{
	Use:   "print-state",
	Short: "Print control lines and sensor readings once and exit",
	Long: `Read the interlock, the hatch and every actuator line once and print them.

With a broker configured and --sensor-wait > 0 the command also listens on
the sensor topics for that long and prints the latest readings.`,
	Args: cobra.NoArgs,
	RunE: runPrintState,
}

func init() {
	rootCmd.AddCommand(printStateCmd)
	printStateCmd.Flags().DurationVar(&sensorWait, "sensor-wait", 0, "How long to collect MQTT sensor readings (0 skips sensors)")
}

func runPrintState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := prepareConfig(cfg); err != nil {
		return err
	}

	pins := cfg.GPIO.Pins
	lines, err := gpio.NewReadOnlyLines(cfg.GPIO.Chip, append(pins.Outputs(), pins.Inputs()...))
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	var sensors sensor.Reader
	if cfg.MQTT.Broker != "" && sensorWait > 0 {
		feed := mqtt.NewSensorFeed(0, time.Now)
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID + "-print-state",
			Prefix:   cfg.MQTT.Prefix,
			Feed:     feed,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		time.Sleep(sensorWait)
		p.Close()
		sensors = feed
	}

	return printState(cmd.OutOrStdout(), lines, switchboardPins(pins), pins.Hatch, sensors)
}

// printState writes one line per control line, then the sensor readings
// when sensors is non-nil. Actuator lines are active-low.
func printState(w io.Writer, lines gpio.Lines, pins switchboard.Pins, hatch int, sensors sensor.Reader) error {
	interlock, err := lines.Read(pins.Interlock)
	if err != nil {
		return fmt.Errorf("read interlock: %w", err)
	}
	open, err := lines.Read(hatch)
	if err != nil {
		return fmt.Errorf("read hatch: %w", err)
	}

	fmt.Fprintf(w, "interlock: %s\n", engaged(interlock))
	fmt.Fprintf(w, "hatch: %s\n", hatchState(open))

	for _, o := range []struct {
		name string
		line int
	}{
		{"pump_valve", pins.PumpValve},
		{"pres_relief_valve", pins.PressureReliefValve},
		{"prod_co2", pins.CO2Production},
		{"co2_neutralization", pins.CO2Neutralization},
		{"heat_module", pins.Heater},
		{"fan", pins.Fan},
		{"cameras", pins.Cameras},
		{"light", pins.Light},
	} {
		high, err := lines.Read(o.line)
		if err != nil {
			return fmt.Errorf("read %s: %w", o.name, err)
		}
		fmt.Fprintf(w, "%s (line %d): %s\n", o.name, o.line, status.StateName(!high))
	}

	if sensors == nil {
		return nil
	}
	for _, k := range sensor.Kinds() {
		v := sensors.Read(k)
		if !sensor.Ready(v) {
			fmt.Fprintf(w, "%s: not ready\n", k)
			continue
		}
		fmt.Fprintf(w, "%s: %g\n", k, v)
	}
	return nil
}

func engaged(v bool) string {
	if v {
		return "ENGAGED"
	}
	return "DISENGAGED"
}

func hatchState(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}
