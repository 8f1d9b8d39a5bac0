package protocol

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEncodeLayout(t *testing.T) {
	f := Encode(OpReqTemperature, []byte{1, 2, 3})

	want := Frame{0xF4, 0xA3, 1, 2, 3, 0, 0, 0, 0x0A, 0x0D}
	if f != want {
		t.Errorf("Encode: got % X, want % X", f[:], want[:])
	}
}

func TestEncodeEmptyPayload(t *testing.T) {
	f := Encode(OpLowVoltage, nil)
	for i := 2; i < 8; i++ {
		if f[i] != 0 {
			t.Errorf("byte %d: got 0x%02X, want 0x00", i, f[i])
		}
	}
}

func TestEncodePanicsOnOversizedPayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for 7-byte payload")
		}
	}()
	Encode(OpSetTime, make([]byte, 7))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		op := Opcode(rng.Intn(256))
		payload := make([]byte, rng.Intn(PayloadSize+1))
		rng.Read(payload)

		p, err := Decode(Encode(op, payload))
		if err != nil {
			t.Fatalf("round %d: decode error: %v", i, err)
		}
		if p.Opcode != op {
			t.Errorf("round %d: opcode got 0x%02X, want 0x%02X", i, byte(p.Opcode), byte(op))
		}
		if !bytes.Equal(p.Payload[:len(payload)], payload) {
			t.Errorf("round %d: payload got % X, want % X", i, p.Payload[:len(payload)], payload)
		}
		for j := len(payload); j < PayloadSize; j++ {
			if p.Payload[j] != 0 {
				t.Errorf("round %d: padding byte %d not zero", i, j)
			}
		}
	}
}

func TestDecodeTemperatureRequest(t *testing.T) {
	f := Frame{0xF4, 0xA3, 0, 0, 0, 0, 0, 0, EndFirst, EndSecond}

	p, err := Decode(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Opcode != OpReqTemperature {
		t.Errorf("opcode: got %s, want REQ_TEMP", p.Opcode)
	}
	if p.Payload != [PayloadSize]byte{} {
		t.Errorf("payload: got % X, want zeros", p.Payload[:])
	}
}

func TestDecodeBadStartMarker(t *testing.T) {
	f := Encode(OpReqCO2, nil)
	f[0] = 0x00

	_, err := Decode(f)
	if !errors.Is(err, ErrBadStartMarker) {
		t.Fatalf("expected ErrBadStartMarker, got %v", err)
	}

	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if fe.ExceptionOpcode() != OpErrStartMarker {
		t.Errorf("exception opcode: got %s, want PE_PACKAGE_ERR_MAGIC", fe.ExceptionOpcode())
	}
}

func TestDecodeBadTerminator(t *testing.T) {
	tests := []struct {
		name       string
		end1, end2 byte
	}{
		{"swapped", EndSecond, EndFirst},
		{"first wrong", 0x00, EndSecond},
		{"second wrong", EndFirst, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Encode(OpReqCO2, nil)
			f[8], f[9] = tt.end1, tt.end2

			_, err := Decode(f)
			if !errors.Is(err, ErrBadTerminator) {
				t.Fatalf("expected ErrBadTerminator, got %v", err)
			}
			var fe *FrameError
			errors.As(err, &fe)
			if fe.ExceptionOpcode() != OpErrTerminator {
				t.Errorf("exception opcode: got %s, want PE_PACKAGE_ERR_CRLF", fe.ExceptionOpcode())
			}
		})
	}
}

func TestDecodeStartMarkerCheckedFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 500; i++ {
		var f Frame
		rng.Read(f[:])
		if f[0] == StartMarker {
			f[0] = StartMarker ^ 0xFF
		}

		_, err := Decode(f)
		if !errors.Is(err, ErrBadStartMarker) {
			t.Fatalf("round %d: expected ErrBadStartMarker, got %v", i, err)
		}
		if errors.Is(err, ErrBadTerminator) {
			t.Fatalf("round %d: start-marker error also matched terminator error", i)
		}
	}
}

func TestDecodeUnknownOpcodeIsWellFormed(t *testing.T) {
	f := Frame{StartMarker, 0x99, 0, 0, 0, 0, 0, 0, EndFirst, EndSecond}
	p, err := Decode(f)
	if err != nil {
		t.Fatalf("unknown opcode must still decode, got %v", err)
	}
	if p.Opcode.Known() {
		t.Error("0x99 should not be a known opcode")
	}
}

func TestAssemblerWindows(t *testing.T) {
	var a Assembler
	stream := append(Encode(OpReqCO2, nil).Bytes(), Encode(OpReqHumidity, nil).Bytes()...)

	var frames []Frame
	for _, b := range stream {
		if f, ok := a.Push(b); ok {
			frames = append(frames, f)
		}
	}

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0][1] != byte(OpReqCO2) || frames[1][1] != byte(OpReqHumidity) {
		t.Errorf("unexpected opcodes: 0x%02X 0x%02X", frames[0][1], frames[1][1])
	}
	if a.Pending() != 0 {
		t.Errorf("pending: got %d, want 0", a.Pending())
	}
}

func TestAssemblerReset(t *testing.T) {
	var a Assembler
	for i := 0; i < 4; i++ {
		a.Push(0xAA)
	}
	a.Reset()
	if a.Pending() != 0 {
		t.Fatalf("pending after reset: got %d", a.Pending())
	}

	var got []Frame
	for _, b := range Encode(OpReqPressure, nil) {
		if f, ok := a.Push(b); ok {
			got = append(got, f)
		}
	}
	if len(got) != 1 || got[0] != Encode(OpReqPressure, nil) {
		t.Errorf("expected one clean frame after reset, got %v", got)
	}
}

func TestAssemblerResync(t *testing.T) {
	var a Assembler
	a.Push(0x55)
	a.Resync()
	if !a.Hunting() {
		t.Fatal("expected hunting after Resync")
	}

	stream := append([]byte{0x0D, 0x00, 0xA3}, Encode(OpReqTemperature, nil).Bytes()...)
	var got []Frame
	for _, b := range stream {
		if f, ok := a.Push(b); ok {
			got = append(got, f)
		}
	}

	if len(got) != 1 || got[0] != Encode(OpReqTemperature, nil) {
		t.Fatalf("expected one aligned frame, got %v", got)
	}
	if a.Skipped() != 3 {
		t.Errorf("skipped: got %d, want 3", a.Skipped())
	}
	if a.Hunting() {
		t.Error("still hunting after a start marker")
	}
}

func TestAssemblerResetStopsHunting(t *testing.T) {
	var a Assembler
	a.Resync()
	a.Reset()
	if a.Hunting() {
		t.Fatal("Reset should stop hunting")
	}
	if _, ok := a.Push(0x00); ok || a.Pending() != 1 {
		t.Errorf("byte after Reset not buffered: pending %d", a.Pending())
	}
}

func TestUint32LittleEndian(t *testing.T) {
	b := make([]byte, 4)
	PutUint32(b, 0xAABBCCDD)
	if !bytes.Equal(b, []byte{0xDD, 0xCC, 0xBB, 0xAA}) {
		t.Errorf("PutUint32: got % X", b)
	}
	if Uint32(b) != 0xAABBCCDD {
		t.Errorf("Uint32: got 0x%08X", Uint32(b))
	}
}

func TestReplyUint32(t *testing.T) {
	p := ReplyUint32(StatusSuccess, 28800)
	want := []byte{0x00, 0x80, 0x70, 0x00, 0x00}
	if !bytes.Equal(p, want) {
		t.Errorf("ReplyUint32: got % X, want % X", p, want)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{21.49, 21},
		{21.5, 22},
		{21.51, 22},
		{-3.5, -4},
		{-3.4, -3},
		{12600.0, 12600},
	}
	for _, tt := range tests {
		if got := RoundHalfUp(tt.in); got != tt.want {
			t.Errorf("RoundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStateByte(t *testing.T) {
	if StateByte(true) != SystemEnabled {
		t.Error("StateByte(true) should be SystemEnabled")
	}
	if StateByte(false) != SystemDisabled {
		t.Error("StateByte(false) should be SystemDisabled")
	}
}
