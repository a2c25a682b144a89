package engine

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"padbeat/audio"
)

// fakeOutput records every call the engine makes so tests can assert on
// scheduling and gain behavior without a sound card.
type fakeOutput struct {
	mu       sync.Mutex
	plays    []playCall
	updates  []updateCall
	silences []int
}

type playCall struct {
	pad            int
	offset, length time.Duration
	gain, pan      float64
	at             time.Time
}

type updateCall struct {
	pad       int
	gain, pan float64
}

func (f *fakeOutput) Play(pad int, buf *audio.Buffer, offset, length time.Duration, gain, pan float64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, playCall{pad, offset, length, gain, pan, at})
}

func (f *fakeOutput) UpdateChannel(pad int, gain, pan float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{pad, gain, pan})
}

func (f *fakeOutput) Silence(pad int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silences = append(f.silences, pad)
}

func (f *fakeOutput) Close() error { return nil }

func (f *fakeOutput) playsFor(pad int) []playCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []playCall
	for _, p := range f.plays {
		if p.pad == pad {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeOutput) allSilences() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.silences...)
}

func (f *fakeOutput) allPlays() []playCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]playCall(nil), f.plays...)
}

func newTestEngine() (*Engine, *fakeOutput) {
	out := &fakeOutput{}
	return NewEngine(out), out
}

// makeWAV builds a PCM16 stereo WAV at the device rate with the given
// number of frames, all at half amplitude.
func makeWAV(frames int) []byte {
	dataLen := frames * 4
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 2) // stereo
	binary.LittleEndian.PutUint32(buf[24:28], audio.SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], audio.SampleRate*4)
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[44+i*4:], uint16(int16(16384)))
		binary.LittleEndian.PutUint16(buf[46+i*4:], uint16(int16(16384)))
	}
	return buf
}

func loadTestSample(e *Engine, pad, frames int) error {
	return e.LoadSample(pad, "test.wav", makeWAV(frames))
}

func closeTo(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func durationCloseTo(a, b, eps time.Duration) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
