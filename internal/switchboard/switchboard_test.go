package switchboard

import (
	"errors"
	"testing"

	"github.com/sweeney/station-controller/internal/gpio"
)

// newBoard returns a switchboard over fake lines with the interlock set as given.
func newBoard(t *testing.T, interlock bool) (*Switchboard, *gpio.FakeLines) {
	t.Helper()
	lines := gpio.NewFakeLines()
	lines.Levels[gpio.PinRelayBlock] = interlock
	sb := New(lines, DefaultPins())
	if err := sb.StopAll(); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	return sb, lines
}

func TestSetEnabledActiveLow(t *testing.T) {
	sb, lines := newBoard(t, true)

	if err := sb.SetEnabled(Heater, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines.Levels[gpio.PinHeatModule] {
		t.Error("heater running: line should be low")
	}

	if err := sb.SetEnabled(Heater, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lines.Levels[gpio.PinHeatModule] {
		t.Error("heater stopped: line should be high")
	}
}

func TestStopAllDrivesEveryLineHigh(t *testing.T) {
	_, lines := newBoard(t, false)

	for _, pin := range DefaultPins().Outputs() {
		if !lines.Levels[pin] {
			t.Errorf("line %d: expected high after StopAll", pin)
		}
	}
}

func TestInterlockGatesWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		prior   bool
		request bool
	}{
		{"off->on", false, true},
		{"on->off", true, false},
		{"on->on", true, true},
		{"off->off", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb, lines := newBoard(t, true)
			if err := sb.SetEnabled(PumpValve, tt.prior); err != nil {
				t.Fatalf("prior: %v", err)
			}
			level := lines.Levels[gpio.PinPumpValve]
			writes := lines.Writes

			lines.Levels[gpio.PinRelayBlock] = false

			err := sb.SetEnabled(PumpValve, tt.request)
			if !errors.Is(err, ErrInterlockDisengaged) {
				t.Fatalf("expected ErrInterlockDisengaged, got %v", err)
			}

			state, _ := sb.State(PumpValve)
			if state != tt.prior {
				t.Errorf("state changed: got %v, want %v", state, tt.prior)
			}
			if lines.Levels[gpio.PinPumpValve] != level {
				t.Error("line level changed")
			}
			if lines.Writes != writes {
				t.Errorf("expected no writes, got %d", lines.Writes-writes)
			}
		})
	}
}

func TestInterlockReadEveryCall(t *testing.T) {
	sb, lines := newBoard(t, true)

	if err := sb.SetEnabled(Fan, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines.Levels[gpio.PinRelayBlock] = false
	if err := sb.SetEnabled(Fan, false); !errors.Is(err, ErrInterlockDisengaged) {
		t.Fatalf("expected interlock error after disengage, got %v", err)
	}

	lines.Levels[gpio.PinRelayBlock] = true
	if err := sb.SetEnabled(Fan, false); err != nil {
		t.Fatalf("expected success after re-engage, got %v", err)
	}
}

func TestInterlockReadError(t *testing.T) {
	sb, lines := newBoard(t, true)
	lines.ReadError = errors.New("bus fault")

	err := sb.SetEnabled(Cameras, true)
	if !errors.Is(err, lines.ReadError) {
		t.Fatalf("expected read error, got %v", err)
	}
	if on, _ := sb.State(Cameras); on {
		t.Error("state should not change on read error")
	}
}

func TestUnknownSubsystem(t *testing.T) {
	sb, _ := newBoard(t, true)

	if _, err := sb.State(Subsystem(99)); !errors.Is(err, ErrUnknownSubsystem) {
		t.Errorf("State: expected ErrUnknownSubsystem, got %v", err)
	}
	if err := sb.SetEnabled(Subsystem(99), true); !errors.Is(err, ErrUnknownSubsystem) {
		t.Errorf("SetEnabled: expected ErrUnknownSubsystem, got %v", err)
	}
	if err := sb.SetUnguarded(Subsystem(-1), true); !errors.Is(err, ErrUnknownSubsystem) {
		t.Errorf("SetUnguarded: expected ErrUnknownSubsystem, got %v", err)
	}
}

func TestSetUnguarded(t *testing.T) {
	sb, _ := newBoard(t, false)

	if err := sb.SetUnguarded(AutoLight, true); err != nil {
		t.Fatalf("AutoLight: %v", err)
	}
	if on, _ := sb.State(AutoLight); !on {
		t.Error("AutoLight should be enabled")
	}

	if err := sb.SetUnguarded(Heater, true); !errors.Is(err, ErrGuarded) {
		t.Errorf("Heater: expected ErrGuarded, got %v", err)
	}
}

func TestLightLevel(t *testing.T) {
	sb, lines := newBoard(t, false)

	if err := sb.SetLightLevel(128); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.LightLevel() != 128 {
		t.Errorf("level: got %d, want 128", sb.LightLevel())
	}
	if lines.Levels[gpio.PinLightControl] {
		t.Error("light running: line should be low")
	}

	sb.SetLightLevel(0)
	if !lines.Levels[gpio.PinLightControl] {
		t.Error("light off: line should be high")
	}
	if on, _ := sb.State(Light); on {
		t.Error("Light should be disabled at level 0")
	}
}

func TestRefreshReadsBack(t *testing.T) {
	sb, lines := newBoard(t, true)
	sb.SetEnabled(Fan, true)

	// Something outside the switchboard stopped the fan.
	lines.Levels[gpio.PinFan] = true

	if err := sb.Refresh(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, st := range sb.Snapshot() {
		if st.ID == Fan {
			if !st.Enabled || st.Sensed {
				t.Errorf("fan: enabled=%v sensed=%v, want true/false", st.Enabled, st.Sensed)
			}
		}
	}
}

func TestSnapshotOrdered(t *testing.T) {
	sb, _ := newBoard(t, true)

	snap := sb.Snapshot()
	if len(snap) != 9 {
		t.Fatalf("expected 9 subsystems, got %d", len(snap))
	}
	for i, st := range snap {
		if st.ID != Subsystem(i) {
			t.Errorf("index %d: got %s", i, st.ID)
		}
	}
	if snap[AutoLight].HasLine {
		t.Error("AutoLight should have no line")
	}
}
