package engine

import (
	"math"
	"time"
)

// recordHitLocked writes a live trigger into the active pattern at the
// step the playhead is currently inside (floor quantization), then
// reschedules so the new step sounds on the pattern's next pass.
func (e *Engine) recordHitLocked(pad int, velocity float64, at time.Time) {
	p := e.patterns[e.current]
	pos := e.positionLocked(at)
	if pos < 0 {
		pos = 0
	}
	step := int(math.Floor(pos)) % p.Length
	p.Steps[pad][step] = true
	p.Velocities[pad][step] = velocity
	e.rebuildLocked()
	e.emit(Event{Type: PatternChanged})
}
