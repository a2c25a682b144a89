package engine

import (
	"errors"
	"testing"
	"time"

	"padbeat/audio"
)

func TestLoadSampleDecodeFailureLeavesPadEmpty(t *testing.T) {
	e, out := newTestEngine()
	err := e.LoadSample(2, "noise.bin", []byte("definitely not audio"))

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, does not unwrap to ErrDecode", err)
	}
	if derr.Pad != 2 || derr.Name != "noise.bin" {
		t.Fatalf("DecodeError = %+v", derr)
	}

	info, _ := e.Pad(2)
	if info.Loaded {
		t.Fatal("failed decode left a buffer on the pad")
	}
	if err := e.TriggerPad(2, 1); !errors.Is(err, ErrUnloadedPad) {
		t.Fatalf("trigger err = %v, want ErrUnloadedPad", err)
	}
	if len(out.allPlays()) != 0 {
		t.Fatal("unloaded pad produced a voice")
	}
}

func TestLoadSampleResetsTrimKeepsMix(t *testing.T) {
	e, _ := newTestEngine()
	if err := e.ApplyPadCommand(0, SetVolume{0.5}); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(0, SetPan{-0.25}); err != nil {
		t.Fatal(err)
	}
	if err := loadTestSample(e, 0, audio.SampleRate); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(0, SetStartTime{0.3}); err != nil {
		t.Fatal(err)
	}

	// Reloading resets the trim window but keeps volume and pan.
	if err := loadTestSample(e, 0, audio.SampleRate/2); err != nil {
		t.Fatal(err)
	}
	info, err := e.Pad(0)
	if err != nil {
		t.Fatal(err)
	}
	if info.Start != 0 || info.End != 1 {
		t.Fatalf("trim = [%v,%v], want [0,1]", info.Start, info.End)
	}
	if info.Volume != 0.5 || info.Pan != -0.25 {
		t.Fatalf("mix = vol %v pan %v, want 0.5/-0.25", info.Volume, info.Pan)
	}
	if !durationCloseTo(info.Duration, 500*time.Millisecond, 10*time.Millisecond) {
		t.Fatalf("duration = %v, want ~500ms", info.Duration)
	}
}

func TestTriggerTrimArithmetic(t *testing.T) {
	e, out := newTestEngine()
	if err := loadTestSample(e, 4, audio.SampleRate); err != nil { // 1s sample
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(4, SetStartTime{0.25}); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(4, SetEndTime{0.75}); err != nil {
		t.Fatal(err)
	}
	if err := e.TriggerPad(4, 0.8); err != nil {
		t.Fatal(err)
	}

	plays := out.playsFor(4)
	if len(plays) != 1 {
		t.Fatalf("plays = %d, want 1", len(plays))
	}
	p := plays[0]
	if !durationCloseTo(p.offset, 250*time.Millisecond, 10*time.Millisecond) {
		t.Fatalf("offset = %v, want ~250ms", p.offset)
	}
	if !durationCloseTo(p.length, 500*time.Millisecond, 10*time.Millisecond) {
		t.Fatalf("length = %v, want ~500ms", p.length)
	}
	if !closeTo(p.gain, 0.8, 1e-9) { // velocity 0.8 at volume 1
		t.Fatalf("gain = %v, want 0.8", p.gain)
	}
}

func TestTriggerEmptyTrimWindow(t *testing.T) {
	e, out := newTestEngine()
	if err := loadTestSample(e, 0, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(0, SetStartTime{0.6}); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(0, SetEndTime{0.6}); err != nil {
		t.Fatal(err)
	}
	if err := e.TriggerPad(0, 1); !errors.Is(err, ErrInvalidTrim) {
		t.Fatalf("err = %v, want ErrInvalidTrim", err)
	}
	if len(out.playsFor(0)) != 0 {
		t.Fatal("empty trim window still produced a voice")
	}
}

func TestChokePadSilencesOutput(t *testing.T) {
	e, out := newTestEngine()
	if err := loadTestSample(e, 5, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}
	if err := e.TriggerPad(5, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.ChokePad(5); err != nil {
		t.Fatal(err)
	}

	silences := out.allSilences()
	if len(silences) != 1 || silences[0] != 5 {
		t.Fatalf("silences = %v, want [5]", silences)
	}

	// Choking an unloaded pad is a no-op, not an error.
	if err := e.ChokePad(0); err != nil {
		t.Fatal(err)
	}
	if err := e.ChokePad(NumPads); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestGainFor(t *testing.T) {
	floor := 0.001 // -60 dB
	cases := []struct {
		name             string
		velocity, volume float64
		want             float64
	}{
		{"unity", 1, 1, 1},
		{"product", 0.5, 0.5, 0.25},
		{"at floor", 0.001, 1, floor},
		{"below floor", 0.0001, 1, floor},
		{"zero", 0, 1, floor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gainFor(tc.velocity, tc.volume); !closeTo(got, tc.want, 1e-9) {
				t.Fatalf("gainFor(%v, %v) = %v, want %v", tc.velocity, tc.volume, got, tc.want)
			}
		})
	}
}

func TestApplyPadCommandUpdatesOutput(t *testing.T) {
	e, out := newTestEngine()
	if err := e.ApplyPadCommand(7, SetPan{2.5}); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyPadCommand(7, SetVolume{0.5}); err != nil {
		t.Fatal(err)
	}

	out.mu.Lock()
	updates := append([]updateCall(nil), out.updates...)
	out.mu.Unlock()
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].pan != 1 {
		t.Fatalf("pan = %v, want clamp to 1", updates[0].pan)
	}
	last := updates[1]
	if last.pad != 7 {
		t.Fatalf("update pad = %d, want 7", last.pad)
	}
	if !closeTo(last.gain, gainFor(DefaultVelocity, 0.5), 1e-9) {
		t.Fatalf("gain = %v, want %v", last.gain, gainFor(DefaultVelocity, 0.5))
	}

	if err := e.ApplyPadCommand(NumPads, SetVolume{1}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}
