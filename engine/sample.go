package engine

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"padbeat/audio"
	"padbeat/debug"
)

// minGainDB is the floor for the velocity*volume to gain conversion.
// Anything quieter plays at the floor instead of vanishing entirely.
const minGainDB = -60.0

// Sample is one pad slot. Start and End are normalized trim fractions of
// the buffer; a slot with a nil buffer is unloaded but keeps its volume
// and pan so loading a sample into it later inherits them.
type Sample struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Path   string  `json:"path,omitempty"`
	Start  float64 `json:"startTime"`
	End    float64 `json:"endTime"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`

	buf     *audio.Buffer
	lastVel float64
}

func emptySample() Sample {
	return Sample{Start: 0, End: 1, Volume: 1, Pan: 0, lastVel: DefaultVelocity}
}

// PadCommand is a pad property mutation. The concrete types are the only
// mutations the engine accepts; ApplyPadCommand dispatches exhaustively.
type PadCommand interface {
	isPadCommand()
}

// SetVolume sets the pad's volume in [0,1].
type SetVolume struct{ Volume float64 }

// SetPan sets the pad's stereo position in [-1,1].
type SetPan struct{ Pan float64 }

// SetStartTime sets the trim start as a fraction of the buffer in [0,1].
type SetStartTime struct{ Start float64 }

// SetEndTime sets the trim end as a fraction of the buffer in [0,1].
type SetEndTime struct{ End float64 }

func (SetVolume) isPadCommand()    {}
func (SetPan) isPadCommand()       {}
func (SetStartTime) isPadCommand() {}
func (SetEndTime) isPadCommand()   {}

// LoadSample decodes raw WAV or MP3 bytes into the pad slot. On success
// the slot's buffer is replaced and its trim reset to the full window;
// volume and pan are preserved. On failure the slot is left untouched
// and a DecodeError is returned.
func (e *Engine) LoadSample(pad int, name string, data []byte) error {
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}

	// Decoding is the expensive part; keep it off the engine lock.
	buf, err := audio.Decode(data)
	if err != nil {
		debug.Log("engine", "decode failed pad=%d name=%s: %v", pad, name, err)
		return &DecodeError{Pad: pad, Name: name, Cause: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.pads[pad]
	s.ID = uuid.NewString()
	s.Name = name
	s.buf = buf
	s.Start = 0
	s.End = 1
	e.emit(Event{Type: PadChanged, Pad: pad})
	return nil
}

// LoadSampleFile reads a sample file and loads it into the pad slot,
// recording the path so project loads can re-decode it.
func (e *Engine) LoadSampleFile(pad int, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := e.LoadSample(pad, filepath.Base(path), data); err != nil {
		return err
	}
	e.mu.Lock()
	e.pads[pad].Path = path
	e.mu.Unlock()
	return nil
}

// TriggerPad fires the pad immediately at the given velocity. While the
// transport is playing and recording, the hit is also quantized into the
// active pattern. An unloaded pad or empty trim window logs and returns
// the matching sentinel without firing.
func (e *Engine) TriggerPad(pad int, velocity float64) error {
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}
	velocity = clamp01(velocity)

	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	if err := e.firePadLocked(pad, velocity, now); err != nil {
		return err
	}
	if e.recording && e.state == Playing {
		e.recordHitLocked(pad, velocity, now)
	}
	return nil
}

// ChokePad cuts the pad's sounding voice immediately. Choking an idle or
// unloaded pad is a no-op.
func (e *Engine) ChokePad(pad int) error {
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}
	e.out.Silence(pad)
	return nil
}

// firePadLocked hands a voice to the output. It is the single trigger
// path for both manual hits and scheduled steps.
func (e *Engine) firePadLocked(pad int, velocity float64, at time.Time) error {
	s := &e.pads[pad]
	if s.buf == nil {
		debug.Log("engine", "trigger on unloaded pad %d", pad)
		return ErrUnloadedPad
	}
	dur := s.buf.Duration()
	offset := time.Duration(s.Start * float64(dur))
	length := time.Duration((s.End - s.Start) * float64(dur))
	if length <= 0 {
		debug.Log("engine", "trigger on pad %d with empty trim [%0.3f,%0.3f]", pad, s.Start, s.End)
		return ErrInvalidTrim
	}
	s.lastVel = velocity
	e.out.Play(pad, s.buf, offset, length, gainFor(velocity, s.Volume), s.Pan, at)
	return nil
}

// ApplyPadCommand mutates one pad property. Volume and gain changes are
// pushed to the output so a sounding voice follows them; pan takes
// effect on the pad's next voice.
func (e *Engine) ApplyPadCommand(pad int, cmd PadCommand) error {
	if pad < 0 || pad >= NumPads {
		return rangeErr("pad", pad, NumPads)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.pads[pad]
	switch c := cmd.(type) {
	case SetVolume:
		s.Volume = clamp01(c.Volume)
	case SetPan:
		s.Pan = clampPan(c.Pan)
	case SetStartTime:
		s.Start = clamp01(c.Start)
	case SetEndTime:
		s.End = clamp01(c.End)
	}
	e.out.UpdateChannel(pad, gainFor(s.lastVel, s.Volume), s.Pan)
	e.emit(Event{Type: PadChanged, Pad: pad})
	return nil
}

// PadInfo is a read-only snapshot of a pad slot.
type PadInfo struct {
	Name     string
	Path     string
	Loaded   bool
	Start    float64
	End      float64
	Volume   float64
	Pan      float64
	Duration time.Duration
}

// Pad returns a snapshot of the pad slot.
func (e *Engine) Pad(pad int) (PadInfo, error) {
	if pad < 0 || pad >= NumPads {
		return PadInfo{}, rangeErr("pad", pad, NumPads)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := &e.pads[pad]
	info := PadInfo{
		Name:   s.Name,
		Path:   s.Path,
		Loaded: s.buf != nil,
		Start:  s.Start,
		End:    s.End,
		Volume: s.Volume,
		Pan:    s.Pan,
	}
	if s.buf != nil {
		info.Duration = s.buf.Duration()
	}
	return info, nil
}

// gainFor converts velocity*volume into a linear gain through the dB
// domain, floored at minGainDB so quiet hits stay audible.
func gainFor(velocity, volume float64) float64 {
	lin := velocity * volume
	if lin <= 0 {
		return math.Pow(10, minGainDB/20)
	}
	db := 20 * math.Log10(lin)
	if db < minGainDB {
		db = minGainDB
	}
	return math.Pow(10, db/20)
}

func clampPan(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
