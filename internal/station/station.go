// Package station runs the control loop: it owns every piece of station
// state and ties the ground link, the tick timers and telemetry together.
package station

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/station-controller/internal/clock"
	"github.com/sweeney/station-controller/internal/dispatch"
	"github.com/sweeney/station-controller/internal/gpio"
	"github.com/sweeney/station-controller/internal/logic"
	"github.com/sweeney/station-controller/internal/mqtt"
	"github.com/sweeney/station-controller/internal/protocol"
	"github.com/sweeney/station-controller/internal/sensor"
	"github.com/sweeney/station-controller/internal/status"
	"github.com/sweeney/station-controller/internal/store"
	"github.com/sweeney/station-controller/internal/switchboard"
)

// ErrLinkClosed is returned by Run when the receive channel closes.
var ErrLinkClosed = errors.New("station: ground link closed")

// FrameSender writes frames to the ground link.
type FrameSender interface {
	Send(f protocol.Frame) error
	Stats() (sent, failed int)
}

// Deps are the collaborators a Controller needs. Publisher, MQTTStatus and
// Tracker may be nil.
type Deps struct {
	Switchboard *switchboard.Switchboard
	Store       *store.ConfigStore
	Clock       *clock.Clock
	Sensors     sensor.Reader
	Lines       gpio.Lines // hatch input, reads high while open
	HatchPin    int
	Link        FrameSender
	Publisher   mqtt.Publisher
	MQTTStatus  mqtt.ConnectionStatus
	Tracker     *status.Tracker
}

// Options tune the loop.
type Options struct {
	Thresholds logic.Thresholds
	DayLevel   uint8
	NightLevel uint8
	Heartbeat  time.Duration // 0 disables
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Thresholds: logic.DefaultThresholds(),
		DayLevel:   255,
		NightLevel: 0,
	}
}

var alertOpcodes = map[logic.AlertKind]protocol.Opcode{
	logic.AlertLowVoltage:  protocol.OpLowVoltage,
	logic.AlertLowPressure: protocol.OpLowPressure,
	logic.AlertStationOpen: protocol.OpStationIsOpen,
}

// Controller is the station. Not safe for concurrent use: Run is the only
// caller once it starts.
type Controller struct {
	deps       Deps
	opts       Options
	now        func() time.Time
	dispatcher *dispatch.Dispatcher
	monitor    *logic.Monitor
	scheduler  *logic.Scheduler
	asm        protocol.Assembler

	// last persisted schedule, kept for status when the store fails
	dayTime, nightTime uint32
}

// New wires a Controller. now supplies host time for debounce and events.
func New(deps Deps, opts Options, now func() time.Time) (*Controller, error) {
	if deps.Switchboard == nil || deps.Store == nil || deps.Clock == nil {
		return nil, errors.New("station: switchboard, store and clock are required")
	}
	if deps.Sensors == nil || deps.Lines == nil || deps.Link == nil {
		return nil, errors.New("station: sensors, lines and link are required")
	}
	if now == nil {
		now = time.Now
	}

	d, err := dispatch.New(dispatch.Deps{
		Actuators: deps.Switchboard,
		Store:     deps.Store,
		Sensors:   deps.Sensors,
		Clock:     deps.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("station: %w", err)
	}

	return &Controller{
		deps:       deps,
		opts:       opts,
		now:        now,
		dispatcher: d,
		monitor:    logic.NewMonitor(opts.Thresholds, now()),
		scheduler:  logic.NewScheduler(opts.DayLevel, opts.NightLevel),
		dayTime:    store.DefaultDayTime,
		nightTime:  store.DefaultNightTime,
	}, nil
}

// Boot announces the station, brings every actuator to a stop, makes sure
// the config store holds a valid schedule and reports INIT_COMPLETE.
// Only a store failure is fatal.
func (c *Controller) Boot() error {
	c.asm.Reset()
	c.send(protocol.Encode(protocol.OpStartup, nil))

	if err := c.deps.Switchboard.StopAll(); err != nil {
		log.Printf("station: stop all: %v", err)
	}

	reset, err := c.deps.Store.EnsureInitialized()
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	if reset {
		log.Printf("station: config store initialized with defaults")
	}

	c.send(protocol.Encode(protocol.OpInitComplete, nil))
	log.Printf("station: init complete")

	c.update()
	c.publishSystem(c.now(), "STARTUP", "", true)
	return nil
}

// HandleBytes feeds received bytes through the assembler and answers every
// complete window. A window that fails to decode is answered with its
// exception, then the assembler hunts for the next start marker so a
// dropped or stray byte cannot shift every later window.
func (c *Controller) HandleBytes(chunk []byte) {
	for _, b := range chunk {
		f, ok := c.asm.Push(b)
		if !ok {
			continue
		}
		if reply, send := c.dispatcher.Handle(f); send {
			c.send(reply)
		}
		if _, err := protocol.Decode(f); err != nil {
			log.Printf("station: resyncing on next start marker")
			c.asm.Resync()
		}
	}
	c.update()
}

// SensorTick samples the monitored readings and reports alert edges.
// Raised alerts go to the ground link; every edge goes to telemetry.
func (c *Controller) SensorTick(now time.Time) {
	s := logic.Sample{
		SolarLeft:  c.deps.Sensors.Read(sensor.SolarLeft),
		SolarRight: c.deps.Sensors.Read(sensor.SolarRight),
		Pressure:   c.deps.Sensors.Read(sensor.Pressure),
		Time:       now,
	}
	open, err := c.deps.Lines.Read(c.deps.HatchPin)
	if err != nil {
		log.Printf("station: read hatch: %v", err)
		s.HatchUnknown = true
	}
	s.HatchOpen = open

	for _, a := range c.monitor.Process(s) {
		state := "CLEARED"
		if a.Raised {
			state = "RAISED"
		}
		log.Printf("alert: %s %s (value=%.2f)", a.Kind, state, a.Value)

		if a.Raised {
			c.send(protocol.Encode(alertOpcodes[a.Kind], nil))
		}
		if c.deps.Publisher != nil {
			if err := c.deps.Publisher.PublishAlert(a); err != nil {
				log.Printf("station: publish alert: %v", err)
			}
		}
	}

	if err := c.deps.Switchboard.Refresh(); err != nil {
		log.Printf("station: refresh lines: %v", err)
	}
	c.update()
}

// ScheduleTick applies the day/night light level while auto-light is on.
// A manual level that disagrees with the schedule is overwritten here.
func (c *Controller) ScheduleTick(now time.Time) {
	sb := c.deps.Switchboard

	auto, err := sb.State(switchboard.AutoLight)
	if err != nil {
		panic(err)
	}
	if err := c.loadSchedule(); err != nil {
		log.Printf("station: load schedule: %v", err)
		return
	}

	tod := clock.SecondsOfDay(c.deps.Clock.Now())
	d, changed := c.scheduler.Tick(tod, c.dayTime, c.nightTime, auto)
	if !auto {
		c.update()
		return
	}

	if changed {
		period := "night"
		if d.Day {
			period = "day"
		}
		log.Printf("schedule: %s at %s, light level %d", period, status.ClockTime(tod), d.Level)
	}
	if sb.LightLevel() != d.Level {
		if err := sb.SetLightLevel(d.Level); err != nil {
			log.Printf("station: set light level %d: %v", d.Level, err)
		}
	}
	c.update()
}

// HeartbeatTick publishes a HEARTBEAT event when the interval has elapsed.
func (c *Controller) HeartbeatTick(now time.Time) {
	hb := c.monitor.CheckHeartbeat(now, c.opts.Heartbeat)
	if hb == nil {
		return
	}
	log.Printf("heartbeat: uptime=%v low_voltage=%d low_pressure=%d station_open=%d",
		hb.Uptime, hb.Counts.LowVoltage, hb.Counts.LowPressure, hb.Counts.StationOpen)

	c.update()
	c.publishSystem(hb.Timestamp, "HEARTBEAT", "", false)
}

// Shutdown stops every actuator and publishes SHUTDOWN.
func (c *Controller) Shutdown(reason string) {
	if err := c.deps.Switchboard.StopAll(); err != nil {
		log.Printf("station: stop all: %v", err)
	}
	c.update()
	c.publishSystem(c.now(), "SHUTDOWN", reason, true)
}

// Run is the station loop. It returns nil on a signal and ErrLinkClosed
// when rx is closed. A nil tick channel never fires.
func (c *Controller) Run(rx <-chan []byte, sensorTick, scheduleTick, heartbeatTick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			c.Shutdown(signalName(s))
			return nil

		case chunk, ok := <-rx:
			if !ok {
				c.Shutdown("LINK_CLOSED")
				return ErrLinkClosed
			}
			c.HandleBytes(chunk)

		case t := <-sensorTick:
			c.SensorTick(t)

		case t := <-scheduleTick:
			c.ScheduleTick(t)

		case t := <-heartbeatTick:
			c.HeartbeatTick(t)
		}
	}
}

// Dispatcher exposes the dispatcher for diagnostics.
func (c *Controller) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// send writes f to the link. The sender logs its own failures and the
// loop carries on.
func (c *Controller) send(f protocol.Frame) {
	_ = c.deps.Link.Send(f)
}

// loadSchedule refreshes the cached day and night times. On error the
// cache keeps the last good values.
func (c *Controller) loadSchedule() error {
	day, err := c.deps.Store.DayTime()
	if err != nil {
		return err
	}
	night, err := c.deps.Store.NightTime()
	if err != nil {
		return err
	}
	c.dayTime, c.nightTime = day, night
	return nil
}

func (c *Controller) publishSystem(ts time.Time, event, reason string, retained bool) {
	if c.deps.Publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{
		Timestamp: ts,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if c.deps.Tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(c.deps.Tracker.Snapshot(), event, reason)
	}
	if err := c.deps.Publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else {
		log.Printf("published %s event", event)
	}
}

// update pushes the current state to the tracker.
func (c *Controller) update() {
	t := c.deps.Tracker
	if t == nil {
		return
	}
	if c.deps.MQTTStatus != nil {
		t.SetMQTTConnected(c.deps.MQTTStatus.IsConnected())
	}
	t.Update(c.Station())
}

// Station assembles the status view of the controller.
func (c *Controller) Station() status.Station {
	sb := c.deps.Switchboard
	_ = c.loadSchedule()

	interlock, err := sb.Interlock()
	if err != nil {
		log.Printf("station: %v", err)
	}

	subs := sb.Snapshot()
	out := make([]status.Subsystem, 0, len(subs))
	auto := false
	for _, s := range subs {
		out = append(out, status.Subsystem{
			Name:    s.ID.String(),
			Line:    s.Line,
			HasLine: s.HasLine,
			Enabled: s.Enabled,
			Sensed:  s.Sensed,
		})
		if s.ID == switchboard.AutoLight {
			auto = s.Enabled
		}
	}

	stationTime := c.deps.Clock.Now()
	lowV, lowP, open := c.monitor.Active()
	counters := c.dispatcher.Counters()
	_, failed := c.deps.Link.Stats()

	return status.Station{
		Subsystems:  out,
		Interlock:   interlock,
		LightLevel:  sb.LightLevel(),
		AutoLight:   auto,
		Day:         logic.IsDay(clock.SecondsOfDay(stationTime), c.dayTime, c.nightTime),
		DayTime:     c.dayTime,
		NightTime:   c.nightTime,
		StationTime: stationTime,
		Alerts: status.Alerts{
			LowVoltage:  lowV,
			LowPressure: lowP,
			StationOpen: open,
		},
		AlertCounts: c.monitor.Counts(),
		Link: status.LinkCounts{
			Frames:              counters.Frames,
			FrameErrors:         counters.FrameErrors,
			UnknownOpcodes:      counters.UnknownOpcodes,
			InterlockRejections: counters.InterlockRejections,
			NotReady:            counters.NotReady,
			Replies:             counters.Replies,
			SendFailures:        failed,
		},
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
