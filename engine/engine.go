package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"padbeat/audio"
)

// Output is the audio sink the engine fires voices into. audio.Device is
// the real implementation; tests substitute a recorder.
type Output interface {
	// Play starts a voice on the pad channel at the given wall-clock
	// deadline, cutting any voice already sounding there.
	Play(pad int, buf *audio.Buffer, offset, length time.Duration, gain, pan float64, at time.Time)
	// UpdateChannel applies gain to the pad's sounding voice and records
	// pan for the next one.
	UpdateChannel(pad int, gain, pan float64)
	// Silence cuts the pad's sounding voice.
	Silence(pad int)
	Close() error
}

// EventType enumerates state-change notifications.
type EventType int

const (
	StepChanged EventType = iota
	TransportChanged
	PatternChanged
	PadChanged
)

// Event is pushed on the engine's event channel after a state change.
// Step is set for StepChanged, Pad for PadChanged.
type Event struct {
	Type EventType
	Step int
	Pad  int
}

// Engine owns all sequencer state: the 16 pad slots, the pattern list,
// the transport, and the lookahead scheduler. Everything is guarded by
// one mutex; the scheduler goroutines serialize through it.
type Engine struct {
	mu sync.RWMutex

	out Output

	projectID   string
	projectName string

	pads     [NumPads]Sample
	patterns []*Pattern
	current  int

	bpm       int
	state     TransportState
	recording bool

	t0       time.Time // wall time of tick 0 under the current anchor
	pausedAt float64   // playback position in steps when paused
	step     int       // last dispatched step, for the UI

	gen      uint64
	nextTick int64
	queue    []trigger
	quit     chan struct{}
	wake     chan struct{}

	events chan Event
	closed bool
}

// NewEngine creates an engine with one empty pattern, 120 BPM, and all
// pads unloaded.
func NewEngine(out Output) *Engine {
	e := &Engine{
		out:       out,
		projectID: uuid.NewString(),
		bpm:       120,
		events:    make(chan Event, 16),
	}
	for pad := 0; pad < NumPads; pad++ {
		e.pads[pad] = emptySample()
	}
	e.patterns = []*Pattern{newPattern("Pattern 1")}
	return e
}

// Events returns the engine's notification channel. Sends never block;
// a slow consumer drops events rather than stalling the scheduler.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Close tears down the schedule, silences the output, and closes the
// event channel. The engine is unusable afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	e.stopScheduleLocked()
	close(e.events)
	return e.out.Close()
}

// emit pushes an event without blocking. Callers hold the lock.
func (e *Engine) emit(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

// ProjectName returns the name exported snapshots carry.
func (e *Engine) ProjectName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.projectName
}

// SetProjectName sets the name carried by exported snapshots.
func (e *Engine) SetProjectName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.projectName = name
}

// BPM returns the current tempo.
func (e *Engine) BPM() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bpm
}

// CurrentStep returns the last step the scheduler dispatched.
func (e *Engine) CurrentStep() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.step
}

// IsPlaying reports whether the transport is running.
func (e *Engine) IsPlaying() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == Playing
}

// IsRecording reports whether manual triggers are being written into the
// active pattern.
func (e *Engine) IsRecording() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recording
}

// State returns the transport state.
func (e *Engine) State() TransportState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}
