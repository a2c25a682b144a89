package engine

import (
	"fmt"

	"github.com/google/uuid"

	"padbeat/audio"
)

// ProjectSample is one pad slot in a project snapshot. The decoded
// buffer travels with in-memory snapshots but is never serialized; Path
// lets a loader re-decode the source file instead.
type ProjectSample struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Path   string  `json:"path,omitempty"`
	Start  float64 `json:"startTime"`
	End    float64 `json:"endTime"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`

	Buffer *audio.Buffer `json:"-"`
}

// Project is a full engine snapshot: identity, 16 pad slots, the
// pattern list, the active pattern index, and the tempo.
type Project struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Samples  []ProjectSample `json:"samples"`
	Patterns []Pattern       `json:"patterns"`
	Current  int             `json:"currentPatternIndex"`
	BPM      int             `json:"bpm"`
}

// ExportProject snapshots the engine. Pattern matrices are deep-copied,
// so later edits never show through an exported snapshot; decoded
// buffers are shared by reference since they are immutable.
func (e *Engine) ExportProject() Project {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := Project{
		ID:       e.projectID,
		Name:     e.projectName,
		Samples:  make([]ProjectSample, NumPads),
		Patterns: make([]Pattern, len(e.patterns)),
		Current:  e.current,
		BPM:      e.bpm,
	}
	for pad := 0; pad < NumPads; pad++ {
		s := &e.pads[pad]
		p.Samples[pad] = ProjectSample{
			ID:     s.ID,
			Name:   s.Name,
			Path:   s.Path,
			Start:  s.Start,
			End:    s.End,
			Volume: s.Volume,
			Pan:    s.Pan,
			Buffer: s.buf,
		}
	}
	for i, pat := range e.patterns {
		p.Patterns[i] = pat.clone()
	}
	return p
}

// LoadProject validates the snapshot and replaces the engine's state
// wholesale. A snapshot that fails validation leaves the engine
// untouched. If the transport is playing, the schedule is rebuilt over
// the imported state.
func (e *Engine) LoadProject(p Project) error {
	if err := validateProject(p); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.projectID = p.ID
	if e.projectID == "" {
		// Snapshots predating project identity get a fresh one.
		e.projectID = uuid.NewString()
	}
	e.projectName = p.Name
	for pad := 0; pad < NumPads; pad++ {
		ps := p.Samples[pad]
		e.pads[pad] = Sample{
			ID:      ps.ID,
			Name:    ps.Name,
			Path:    ps.Path,
			Start:   ps.Start,
			End:     ps.End,
			Volume:  ps.Volume,
			Pan:     ps.Pan,
			buf:     ps.Buffer,
			lastVel: DefaultVelocity,
		}
		e.out.UpdateChannel(pad, gainFor(DefaultVelocity, ps.Volume), ps.Pan)
	}
	e.patterns = make([]*Pattern, len(p.Patterns))
	for i := range p.Patterns {
		c := p.Patterns[i].clone()
		e.patterns[i] = &c
	}
	e.current = p.Current
	e.bpm = p.BPM
	e.rebuildLocked()
	e.emit(Event{Type: PatternChanged})
	e.emit(Event{Type: TransportChanged})
	return nil
}

func validateProject(p Project) error {
	if len(p.Samples) != NumPads {
		return fmt.Errorf("%w: %d samples (want %d)", ErrInvalidProject, len(p.Samples), NumPads)
	}
	if len(p.Patterns) == 0 {
		return fmt.Errorf("%w: no patterns", ErrInvalidProject)
	}
	if p.Current < 0 || p.Current >= len(p.Patterns) {
		return fmt.Errorf("%w: active pattern %d of %d", ErrInvalidProject, p.Current, len(p.Patterns))
	}
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("%w: bpm %d (want %d..%d)", ErrInvalidProject, p.BPM, MinBPM, MaxBPM)
	}
	for i := range p.Patterns {
		if err := p.Patterns[i].validate(); err != nil {
			return err
		}
	}
	for i, s := range p.Samples {
		if s.Start < 0 || s.Start > 1 || s.End < 0 || s.End > 1 {
			return fmt.Errorf("%w: sample %d trim [%v,%v] outside [0,1]", ErrInvalidProject, i, s.Start, s.End)
		}
		// An inverted or empty window on a loadable slot would leave the
		// pad permanently untriggerable.
		if (s.Buffer != nil || s.Path != "") && s.Start >= s.End {
			return fmt.Errorf("%w: sample %d trim [%v,%v] is empty", ErrInvalidProject, i, s.Start, s.End)
		}
		if s.Volume < 0 || s.Volume > 1 {
			return fmt.Errorf("%w: sample %d volume %v outside [0,1]", ErrInvalidProject, i, s.Volume)
		}
		if s.Pan < -1 || s.Pan > 1 {
			return fmt.Errorf("%w: sample %d pan %v outside [-1,1]", ErrInvalidProject, i, s.Pan)
		}
	}
	return nil
}
