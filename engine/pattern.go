package engine

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// NumPads is the fixed number of sample channels.
	NumPads = 16
	// DefaultSteps is the length of a freshly created pattern.
	DefaultSteps = 16
	// DefaultVelocity seeds every step's velocity; it is retained even
	// while the step is off, so re-enabling a step restores it.
	DefaultVelocity = 0.8
)

// Pattern is a fixed-height step grid: 16 pad rows by Length columns.
// Steps and Velocities always have exactly NumPads rows and Length
// columns each.
type Pattern struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Length     int                `json:"length"`
	Steps      [NumPads][]bool    `json:"steps"`
	Velocities [NumPads][]float64 `json:"velocities"`
}

func newPattern(name string) *Pattern {
	p := &Pattern{
		ID:     uuid.NewString(),
		Name:   name,
		Length: DefaultSteps,
	}
	for pad := 0; pad < NumPads; pad++ {
		p.Steps[pad] = make([]bool, p.Length)
		p.Velocities[pad] = make([]float64, p.Length)
		for s := 0; s < p.Length; s++ {
			p.Velocities[pad][s] = DefaultVelocity
		}
	}
	return p
}

// clone deep-copies the pattern so callers can never alias the engine's
// live matrices.
func (p *Pattern) clone() Pattern {
	out := Pattern{
		ID:     p.ID,
		Name:   p.Name,
		Length: p.Length,
	}
	for pad := 0; pad < NumPads; pad++ {
		out.Steps[pad] = append([]bool(nil), p.Steps[pad]...)
		out.Velocities[pad] = append([]float64(nil), p.Velocities[pad]...)
	}
	return out
}

// validate checks the matrix shape invariant on imported patterns.
func (p *Pattern) validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("%w: pattern %q has length %d", ErrInvalidProject, p.Name, p.Length)
	}
	for pad := 0; pad < NumPads; pad++ {
		if len(p.Steps[pad]) != p.Length || len(p.Velocities[pad]) != p.Length {
			return fmt.Errorf("%w: pattern %q row %d has %dx%d cells (want %d)",
				ErrInvalidProject, p.Name, pad, len(p.Steps[pad]), len(p.Velocities[pad]), p.Length)
		}
	}
	return nil
}

// AddPattern appends a new empty pattern and returns a copy of it. The
// new pattern is not activated.
func (e *Engine) AddPattern() Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := newPattern(fmt.Sprintf("Pattern %d", len(e.patterns)+1))
	e.patterns = append(e.patterns, p)
	e.emit(Event{Type: PatternChanged})
	return p.clone()
}

// PatternCount returns the number of patterns.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// CurrentPattern returns a deep copy of the active pattern. All mutation
// goes through ToggleStep / SetStepVelocity.
func (e *Engine) CurrentPattern() Pattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.patterns[e.current].clone()
}

// CurrentPatternIndex returns the index of the active pattern.
func (e *Engine) CurrentPatternIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// SetCurrentPattern activates the pattern at index and rebuilds the
// schedule. Out-of-bounds indices are ignored.
func (e *Engine) SetCurrentPattern(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.patterns) {
		return
	}
	e.current = index
	e.rebuildLocked()
	e.emit(Event{Type: PatternChanged})
}

// ToggleStep flips the step at (pad, step) on the active pattern. The
// step's velocity is untouched, so toggling twice restores the cell
// exactly.
func (e *Engine) ToggleStep(pad, step int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.patterns[e.current]
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}
	if step < 0 || step >= p.Length {
		return rangeErr("step", step, p.Length)
	}
	p.Steps[pad][step] = !p.Steps[pad][step]
	e.rebuildLocked()
	e.emit(Event{Type: PatternChanged})
	return nil
}

// SetStepVelocity sets the velocity at (pad, step) independently of the
// step's on/off flag. Velocity is clamped to [0,1].
func (e *Engine) SetStepVelocity(pad, step int, velocity float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.patterns[e.current]
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}
	if step < 0 || step >= p.Length {
		return rangeErr("step", step, p.Length)
	}
	p.Velocities[pad][step] = clamp01(velocity)
	e.emit(Event{Type: PatternChanged})
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
