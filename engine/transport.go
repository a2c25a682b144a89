package engine

import (
	"math"
	"time"
)

// TransportState is the playback state. Recording is orthogonal to it.
type TransportState int

const (
	Stopped TransportState = iota
	Playing
	Paused
)

func (s TransportState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

const (
	// MinBPM and MaxBPM bound SetBPM and project imports.
	MinBPM = 60
	MaxBPM = 200

	// lookahead is how far ahead of real time the fill loop schedules
	// triggers; fillInterval is how often it tops the queue up.
	lookahead    = 100 * time.Millisecond
	fillInterval = 25 * time.Millisecond
)

// trigger is one queued dispatch. pad -1 marks a step boundary, used to
// advance the UI step exactly when the tick fires.
type trigger struct {
	pad      int
	velocity float64
	at       time.Time
	tick     int64
}

// Play starts the transport. From Stopped it starts at step 0; from
// Paused it resumes at the exact phase where Pause left off.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Playing || e.closed {
		return
	}
	e.playLocked()
	e.emit(Event{Type: TransportChanged})
}

func (e *Engine) playLocked() {
	now := time.Now()
	var startTick int64
	if e.state == Paused {
		e.t0 = now.Add(-time.Duration(e.pausedAt * float64(e.stepDurationLocked())))
		startTick = int64(math.Ceil(e.pausedAt))
	} else {
		e.t0 = now
		e.step = 0
		startTick = 0
	}
	e.state = Playing
	e.startScheduleLocked(startTick)
}

// Stop halts playback and resets the position to step 0. In-flight
// voices play out; queued triggers are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Stopped {
		return
	}
	e.state = Stopped
	e.step = 0
	e.pausedAt = 0
	e.stopScheduleLocked()
	e.emit(Event{Type: TransportChanged})
	e.emit(Event{Type: StepChanged, Step: 0})
}

// Pause halts playback but keeps the position, so Play resumes where the
// pattern left off.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Playing {
		return
	}
	e.pausedAt = e.positionLocked(time.Now())
	e.state = Paused
	e.stopScheduleLocked()
	e.emit(Event{Type: TransportChanged})
}

// StartRecording arms quantized recording and starts the transport if it
// is not already running.
func (e *Engine) StartRecording() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.recording = true
	if e.state != Playing {
		e.playLocked()
	}
	e.emit(Event{Type: TransportChanged})
}

// StopRecording disarms recording. Playback continues.
func (e *Engine) StopRecording() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = false
	e.emit(Event{Type: TransportChanged})
}

// SetBPM changes the tempo. While playing, the clock is re-anchored so
// the playback phase and current step are preserved and the new rate
// applies from the next scheduled tick.
func (e *Engine) SetBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return rangeErr("bpm", bpm, MaxBPM+1)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Playing {
		now := time.Now()
		pos := e.positionLocked(now)
		e.bpm = bpm
		e.t0 = now.Add(-time.Duration(pos * float64(e.stepDurationLocked())))
		e.rebuildLocked()
	} else {
		e.bpm = bpm
	}
	e.emit(Event{Type: TransportChanged})
	return nil
}

// stepDurationLocked is the wall duration of one 16th-note step.
func (e *Engine) stepDurationLocked() time.Duration {
	return time.Duration(float64(time.Second) * 60.0 / float64(e.bpm) / 4.0)
}

// positionLocked is the playback position in steps, possibly fractional,
// relative to the current clock anchor.
func (e *Engine) positionLocked(now time.Time) float64 {
	return float64(now.Sub(e.t0)) / float64(e.stepDurationLocked())
}

// tickTimeLocked is the wall deadline of an absolute tick.
func (e *Engine) tickTimeLocked(tick int64) time.Time {
	return e.t0.Add(time.Duration(tick) * e.stepDurationLocked())
}

// startScheduleLocked opens a new schedule generation beginning at the
// given absolute tick and spawns its fill and dispatch loops.
func (e *Engine) startScheduleLocked(startTick int64) {
	e.stopScheduleLocked()
	e.gen++
	e.nextTick = startTick
	e.queue = nil
	e.quit = make(chan struct{})
	e.wake = make(chan struct{}, 1)
	go e.fillLoop(e.gen, e.quit, e.wake)
	go e.dispatchLoop(e.gen, e.quit, e.wake)
}

// stopScheduleLocked invalidates the current generation and drains the
// queue. Loops from the old generation notice the bump and exit.
func (e *Engine) stopScheduleLocked() {
	if e.quit != nil {
		close(e.quit)
		e.quit = nil
	}
	e.gen++
	e.queue = nil
}

// rebuildLocked discards queued triggers and reschedules from the next
// unfired tick under the current pattern. Called after structural edits
// while playing; a no-op otherwise.
func (e *Engine) rebuildLocked() {
	if e.state != Playing {
		return
	}
	next := int64(math.Ceil(e.positionLocked(time.Now())))
	e.startScheduleLocked(next)
}

// fillLoop tops the trigger queue up to the lookahead horizon until its
// generation is torn down.
func (e *Engine) fillLoop(gen uint64, quit <-chan struct{}, wake chan<- struct{}) {
	ticker := time.NewTicker(fillInterval)
	defer ticker.Stop()
	for {
		if !e.fill(gen, wake) {
			return
		}
		select {
		case <-quit:
			return
		case <-ticker.C:
		}
	}
}

// fill schedules every tick whose deadline falls inside the lookahead
// window. Within a tick, pad triggers are queued in pad order; ticks are
// queued strictly in order.
func (e *Engine) fill(gen uint64, wake chan<- struct{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || e.state != Playing {
		return false
	}
	p := e.patterns[e.current]
	horizon := time.Now().Add(lookahead)
	added := false
	for {
		at := e.tickTimeLocked(e.nextTick)
		if at.After(horizon) {
			break
		}
		step := int(e.nextTick % int64(p.Length))
		e.queue = append(e.queue, trigger{pad: -1, at: at, tick: e.nextTick})
		for pad := 0; pad < NumPads; pad++ {
			if p.Steps[pad][step] {
				e.queue = append(e.queue, trigger{
					pad:      pad,
					velocity: p.Velocities[pad][step],
					at:       at,
					tick:     e.nextTick,
				})
			}
		}
		added = true
		e.nextTick++
	}
	if added {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	return true
}

// dispatchLoop sleeps until the earliest queued trigger is due and fires
// it. A generation bump mid-sleep makes the loop exit on wake, leaving
// the new generation's loops in charge.
func (e *Engine) dispatchLoop(gen uint64, quit <-chan struct{}, wake <-chan struct{}) {
	for {
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			select {
			case <-quit:
				return
			case <-wake:
			}
			continue
		}
		tr := e.queue[0]
		if wait := time.Until(tr.at); wait > 0 {
			e.mu.Unlock()
			select {
			case <-quit:
				return
			case <-time.After(wait):
			}
			continue
		}
		e.queue = e.queue[1:]
		if tr.pad < 0 {
			e.step = int(tr.tick % int64(e.patterns[e.current].Length))
			e.emit(Event{Type: StepChanged, Step: e.step})
			e.mu.Unlock()
			continue
		}
		// firePadLocked logs its own failures; a bad slot skips the
		// trigger but never stalls the schedule.
		_ = e.firePadLocked(tr.pad, tr.velocity, tr.at)
		e.mu.Unlock()
	}
}
