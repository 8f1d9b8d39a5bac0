package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/station-controller/internal/clock"
	"github.com/sweeney/station-controller/internal/config"
	"github.com/sweeney/station-controller/internal/gpio"
	"github.com/sweeney/station-controller/internal/link"
	"github.com/sweeney/station-controller/internal/logic"
	"github.com/sweeney/station-controller/internal/mqtt"
	"github.com/sweeney/station-controller/internal/nvm"
	"github.com/sweeney/station-controller/internal/station"
	"github.com/sweeney/station-controller/internal/status"
	"github.com/sweeney/station-controller/internal/store"
	"github.com/sweeney/station-controller/internal/switchboard"
	"github.com/sweeney/station-controller/internal/web"
)

var (
	runPort   string
	runBroker string
	runHTTP   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the station daemon",
	Long: `Run the station daemon until SIGINT or SIGTERM.

On start the station sends STARTUP, stops every actuator, initializes the
persisted schedule if needed and sends INIT_COMPLETE. Flags override the
configuration file.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runPort, "port", "p", "", "Serial port device (overrides serial.port)")
	runCmd.Flags().StringVar(&runBroker, "broker", "", `MQTT broker address (overrides mqtt.broker, "off" disables)`)
	runCmd.Flags().StringVar(&runHTTP, "http", "", `HTTP status address (overrides http.addr, "off" disables)`)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := prepareConfig(cfg); err != nil {
		return err
	}
	return run(cfg)
}

// applyRunFlags copies explicitly set flags over the file values.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Serial.Port = runPort
	}
	if cmd.Flags().Changed("broker") {
		cfg.MQTT.Broker = offToEmpty(runBroker)
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTP.Addr = offToEmpty(runHTTP)
	}
}

func offToEmpty(s string) string {
	if s == "off" {
		return ""
	}
	return s
}

func run(cfg *config.Config) error {
	loc, err := cfg.Clock.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	pins := cfg.GPIO.Pins
	lines, err := gpio.NewRealLines(cfg.GPIO.Chip, pins.Outputs(), pins.Inputs())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	region, err := nvm.OpenFile(cfg.NVM.Path, store.RegionSize)
	if err != nil {
		return fmt.Errorf("open nvm: %w", err)
	}
	defer region.Close()

	port, err := link.OpenSerial(link.Config{
		Name:        cfg.Serial.Port,
		BaudRate:    cfg.Serial.Baud,
		ReadTimeout: time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("init link: %w", err)
	}
	defer port.Close()

	// Sensor readings arrive over MQTT; without a broker every query
	// answers NOT_READY.
	feed := mqtt.NewSensorFeed(time.Duration(cfg.MQTT.SensorMaxAgeMs)*time.Millisecond, time.Now)

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			Prefix:     cfg.MQTT.Prefix,
			BufferSize: cfg.MQTT.BufferSize,
			Feed:       feed,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	} else {
		log.Printf("mqtt disabled: sensor queries will answer NOT_READY")
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		SerialPort:  cfg.Serial.Port,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		SensorMs:    int64(cfg.Ticks.SensorMs),
		ScheduleMs:  int64(cfg.Ticks.ScheduleMs),
		HeartbeatMs: int64(cfg.Ticks.HeartbeatMs),
		LowVoltage:  cfg.Thresholds.LowVoltage,
		LowPressure: cfg.Thresholds.LowPressure,
	})

	ctl, err := station.New(station.Deps{
		Switchboard: switchboard.New(lines, switchboardPins(pins)),
		Store:       store.New(region),
		Clock:       clock.New(time.Now, loc),
		Sensors:     feed,
		Lines:       lines,
		HatchPin:    pins.Hatch,
		Link:        link.NewSender(port),
		Publisher:   publisher,
		MQTTStatus:  mqttStatus,
		Tracker:     tracker,
	}, station.Options{
		Thresholds: logic.Thresholds{
			LowVoltage:  cfg.Thresholds.LowVoltage,
			LowPressure: cfg.Thresholds.LowPressure,
			Debounce:    time.Duration(cfg.Thresholds.DebounceMs) * time.Millisecond,
		},
		DayLevel:   cfg.Light.DayLevel,
		NightLevel: cfg.Light.NightLevel,
		Heartbeat:  cfg.Ticks.HeartbeatInterval(),
	}, time.Now)
	if err != nil {
		return err
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	if err := ctl.Boot(); err != nil {
		return err
	}

	rx := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		if err := link.Pump(port, rx, done); err != nil {
			log.Printf("link: %v", err)
		}
		close(rx)
	}()
	defer close(done)

	sensorTicker := time.NewTicker(cfg.Ticks.SensorInterval())
	defer sensorTicker.Stop()
	scheduleTicker := time.NewTicker(cfg.Ticks.ScheduleInterval())
	defer scheduleTicker.Stop()

	var heartbeat <-chan time.Time
	if iv := cfg.Ticks.HeartbeatInterval(); iv > 0 {
		hb := time.NewTicker(iv)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("started: port=%s baud=%d broker=%s sensor=%v schedule=%v heartbeat=%v",
		cfg.Serial.Port, cfg.Serial.Baud, cfg.MQTT.Broker,
		cfg.Ticks.SensorInterval(), cfg.Ticks.ScheduleInterval(), cfg.Ticks.HeartbeatInterval())

	return ctl.Run(rx, sensorTicker.C, scheduleTicker.C, heartbeat, sigCh)
}
