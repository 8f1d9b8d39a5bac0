package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"github.com/sweeney/station-controller/internal/config"
	"github.com/sweeney/station-controller/internal/gpio"
	"github.com/sweeney/station-controller/internal/sensor"
	"github.com/sweeney/station-controller/internal/switchboard"
)

func TestFramePayload(t *testing.T) {
	tests := []struct {
		name string
		args []string
		u32  string
		want []byte
	}{
		{"empty", nil, "", []byte{}},
		{"bytes", []string{"0x00", "255", "7"}, "", []byte{0x00, 0xFF, 0x07}},
		{"u32", nil, "28800", []byte{0x80, 0x70, 0x00, 0x00}},
		{"u32 hex", nil, "0xAABBCCDD", []byte{0xDD, 0xCC, 0xBB, 0xAA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := framePayload(tt.args, tt.u32)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % X, want % X", got, tt.want)
			}
		})
	}
}

func TestFramePayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		u32  string
	}{
		{"byte too large", []string{"256"}, ""},
		{"not a number", []string{"on"}, ""},
		{"too many bytes", []string{"1", "2", "3", "4", "5", "6", "7"}, ""},
		{"u32 overflow", nil, "0x100000000"},
		{"u32 with bytes", []string{"1"}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := framePayload(tt.args, tt.u32); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFrameCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"frame", "SWITCH_FAN", "0x00"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 output lines, got %q", out.String())
	}
	if lines[0] != "F4 BA 00 00 00 00 00 00 0A 0D" {
		t.Errorf("hex: got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "SWITCH_FAN (0xBA)") {
		t.Errorf("decoded: got %q", lines[1])
	}
}

func TestFrameCommandUnknownOpcode(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"frame", "LAUNCH"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown opcode")
	}
}

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&runPort, "port", "p", "", "")
	cmd.Flags().StringVar(&runBroker, "broker", "", "")
	cmd.Flags().StringVar(&runHTTP, "http", "", "")
	if err := cmd.Flags().Parse([]string{"--port", "/dev/ttyAMA0", "--http", "off"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.MQTT.Broker = "tcp://broker:1883"
	applyRunFlags(cmd, &cfg)

	if cfg.Serial.Port != "/dev/ttyAMA0" {
		t.Errorf("port: got %q", cfg.Serial.Port)
	}
	if cfg.HTTP.Addr != "" {
		t.Errorf("http should be disabled, got %q", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("broker should keep the file value, got %q", cfg.MQTT.Broker)
	}
}

func TestSwitchboardPins(t *testing.T) {
	got := switchboardPins(config.Default().GPIO.Pins)
	if got != switchboard.DefaultPins() {
		t.Errorf("default config pins %+v differ from switchboard defaults %+v", got, switchboard.DefaultPins())
	}
}

func TestPrintState(t *testing.T) {
	lines := gpio.NewFakeLines()
	pins := switchboard.DefaultPins()
	for _, l := range pins.Outputs() {
		lines.Levels[l] = true
	}
	lines.Levels[pins.Interlock] = true
	lines.Levels[pins.Fan] = false
	lines.Levels[gpio.PinHatch] = true

	sensors := sensor.NewFake()
	sensors.Values[sensor.Temperature] = 21.5

	var out bytes.Buffer
	if err := printState(&out, lines, pins, gpio.PinHatch, sensors); err != nil {
		t.Fatalf("printState: %v", err)
	}

	s := out.String()
	for _, want := range []string{
		"interlock: ENGAGED\n",
		"hatch: OPEN\n",
		"fan (line 3): ON\n",
		"heat_module (line 5): OFF\n",
		"temperature: 21.5\n",
		"co2: not ready\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestPrintStateWithoutSensors(t *testing.T) {
	lines := gpio.NewFakeLines()
	var out bytes.Buffer
	if err := printState(&out, lines, switchboard.DefaultPins(), gpio.PinHatch, nil); err != nil {
		t.Fatalf("printState: %v", err)
	}
	s := out.String()
	for _, k := range sensor.Kinds() {
		if strings.Contains(s, "\n"+k.String()+": ") {
			t.Errorf("sensor %s should be skipped:\n%s", k, s)
		}
	}
	if strings.Contains(s, "not ready") {
		t.Errorf("sensors should be skipped:\n%s", s)
	}
	if !strings.Contains(s, "prod_co2 (line 2): ON") {
		t.Errorf("actuator lines missing:\n%s", s)
	}
}

func TestPrintStateReadError(t *testing.T) {
	lines := gpio.NewFakeLines()
	lines.ReadError = errors.New("chip gone")
	if err := printState(&bytes.Buffer{}, lines, switchboard.DefaultPins(), gpio.PinHatch, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestPrintPorts(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "A50285BI"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
	}

	var buf bytes.Buffer
	printPorts(&buf, ports, false)
	want := "/dev/ttyS0\n" +
		"/dev/ttyUSB0  usb 0403:6001  serial A50285BI\n" +
		"/dev/ttyACM0  usb 2341:0043\n"
	if buf.String() != want {
		t.Errorf("all ports:\ngot  %q\nwant %q", buf.String(), want)
	}

	buf.Reset()
	printPorts(&buf, ports[:1], true)
	if buf.String() != "no serial ports found\n" {
		t.Errorf("usb only: got %q", buf.String())
	}
}
