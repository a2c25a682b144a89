package engine

import (
	"errors"
	"testing"
	"time"

	"padbeat/audio"
)

func TestSetBPMValidation(t *testing.T) {
	e, _ := newTestEngine()
	for _, bpm := range []int{MinBPM - 1, 0, -10, MaxBPM + 1, 1000} {
		if err := e.SetBPM(bpm); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("SetBPM(%d) err = %v, want ErrOutOfRange", bpm, err)
		}
	}
	if e.BPM() != 120 {
		t.Fatalf("rejected SetBPM changed tempo to %d", e.BPM())
	}
	if err := e.SetBPM(MaxBPM); err != nil {
		t.Fatal(err)
	}
	if e.BPM() != MaxBPM {
		t.Fatalf("bpm = %d, want %d", e.BPM(), MaxBPM)
	}
}

func TestSetBPMWhilePlayingKeepsStep(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	e.Play()

	// 200 BPM: 75ms per step. Let a few steps pass.
	if err := e.SetBPM(200); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	before := e.CurrentStep()
	if before == 0 {
		t.Fatal("playhead never advanced")
	}
	if err := e.SetBPM(60); err != nil {
		t.Fatal(err)
	}
	if !e.IsPlaying() {
		t.Fatal("SetBPM stopped the transport")
	}
	if got := e.CurrentStep(); got < before {
		t.Fatalf("step went backwards: %d -> %d", before, got)
	}
}

func TestStopResetsPauseResumes(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	if err := e.SetBPM(200); err != nil {
		t.Fatal(err)
	}
	e.Play()
	time.Sleep(200 * time.Millisecond)

	e.Pause()
	paused := e.CurrentStep()
	if paused == 0 {
		t.Fatal("playhead never advanced before pause")
	}
	if e.State() != Paused {
		t.Fatalf("state = %v, want paused", e.State())
	}
	time.Sleep(100 * time.Millisecond)
	if got := e.CurrentStep(); got != paused {
		t.Fatalf("step moved while paused: %d -> %d", paused, got)
	}

	e.Play()
	if e.State() != Playing {
		t.Fatalf("state = %v, want playing", e.State())
	}
	time.Sleep(100 * time.Millisecond)
	if got := e.CurrentStep(); got < paused {
		t.Fatalf("resume reset the playhead: %d -> %d", paused, got)
	}

	e.Stop()
	if e.State() != Stopped || e.CurrentStep() != 0 {
		t.Fatalf("stop left state=%v step=%d", e.State(), e.CurrentStep())
	}
}

func TestOneCycleFiresEnabledStepOnce(t *testing.T) {
	e, out := newTestEngine()
	defer e.Close()
	if err := loadTestSample(e, 0, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}
	if err := e.ToggleStep(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.SetBPM(200); err != nil { // 75ms per step, 1.2s per cycle
		t.Fatal(err)
	}

	e.Play()
	time.Sleep(1 * time.Second) // most of one cycle
	e.Stop()

	plays := out.playsFor(0)
	if len(plays) != 1 {
		t.Fatalf("pad fired %d times in one cycle, want 1", len(plays))
	}
	if !closeTo(plays[0].gain, gainFor(DefaultVelocity, 1), 1e-9) {
		t.Fatalf("scheduled gain = %v, want default velocity gain", plays[0].gain)
	}
}

func TestScheduledTriggersKeepTickOrder(t *testing.T) {
	e, out := newTestEngine()
	defer e.Close()
	for pad := 0; pad < 2; pad++ {
		if err := loadTestSample(e, pad, audio.SampleRate/10); err != nil {
			t.Fatal(err)
		}
		for step := 0; step < 4; step++ {
			if err := e.ToggleStep(pad, step); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := e.SetBPM(200); err != nil {
		t.Fatal(err)
	}

	e.Play()
	time.Sleep(400 * time.Millisecond)
	e.Stop()

	plays := out.allPlays()
	if len(plays) < 4 {
		t.Fatalf("plays = %d, want at least 4", len(plays))
	}
	for i := 1; i < len(plays); i++ {
		if plays[i].at.Before(plays[i-1].at) {
			t.Fatalf("trigger %d scheduled for %v before trigger %d at %v",
				i, plays[i].at, i-1, plays[i-1].at)
		}
	}
}

func TestStopDiscardsQueuedTriggers(t *testing.T) {
	e, out := newTestEngine()
	defer e.Close()
	if err := loadTestSample(e, 0, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}
	for step := 0; step < DefaultSteps; step++ {
		if err := e.ToggleStep(0, step); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.SetBPM(60); err != nil { // 250ms per step
		t.Fatal(err)
	}

	e.Play()
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	fired := len(out.playsFor(0))

	// The lookahead had already queued later steps; none of them may
	// fire after Stop.
	time.Sleep(400 * time.Millisecond)
	if got := len(out.playsFor(0)); got != fired {
		t.Fatalf("%d triggers fired after Stop", got-fired)
	}
}

func TestRecordingQuantizesToCurrentStep(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	if err := loadTestSample(e, 3, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}

	// Recording from Stopped starts the transport at step 0.
	e.StartRecording()
	if !e.IsPlaying() || !e.IsRecording() {
		t.Fatalf("playing=%v recording=%v, want true/true", e.IsPlaying(), e.IsRecording())
	}
	if err := e.TriggerPad(3, 0.9); err != nil {
		t.Fatal(err)
	}
	e.Stop()

	p := e.CurrentPattern()
	if !p.Steps[3][0] {
		t.Fatal("hit was not quantized onto step 0")
	}
	if p.Velocities[3][0] != 0.9 {
		t.Fatalf("recorded velocity = %v, want 0.9", p.Velocities[3][0])
	}
}

func TestStopRecordingKeepsPlaying(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	e.StartRecording()
	e.StopRecording()
	if e.IsRecording() {
		t.Fatal("still recording")
	}
	if !e.IsPlaying() {
		t.Fatal("StopRecording stopped playback")
	}
}

func TestTriggerWhilePausedIsNotRecorded(t *testing.T) {
	e, out := newTestEngine()
	defer e.Close()
	if err := loadTestSample(e, 2, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}

	e.StartRecording()
	e.Pause()
	if !e.IsRecording() {
		t.Fatal("pause disarmed recording")
	}
	if err := e.TriggerPad(2, 1); err != nil {
		t.Fatal(err)
	}
	e.Stop()

	// The hit sounds but has no clock position to land on.
	if len(out.playsFor(2)) != 1 {
		t.Fatal("paused hit did not sound")
	}
	p := e.CurrentPattern()
	for step := 0; step < p.Length; step++ {
		if p.Steps[2][step] {
			t.Fatalf("paused hit wrote step %d", step)
		}
	}
}

func TestTriggerWhileNotRecordingLeavesPattern(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	if err := loadTestSample(e, 1, audio.SampleRate/10); err != nil {
		t.Fatal(err)
	}
	e.Play()
	if err := e.TriggerPad(1, 1); err != nil {
		t.Fatal(err)
	}
	e.Stop()

	p := e.CurrentPattern()
	for step := 0; step < p.Length; step++ {
		if p.Steps[1][step] {
			t.Fatalf("unarmed trigger wrote step %d", step)
		}
	}
}
