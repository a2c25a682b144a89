package audio

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"padbeat/debug"
)

const (
	// SampleRate is the fixed output rate; decoded buffers are resampled
	// to match it.
	SampleRate   = 44100
	channelCount = 2
	bitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)
)

// NumChannels is the number of independent pad channels the device mixes.
const NumChannels = 16

// Device renders pad voices through the system audio output. Each pad
// channel is monophonic: starting a voice cuts the one already sounding.
type Device struct {
	ctx   *oto.Context
	ready chan struct{}

	mu    sync.Mutex
	chans [NumChannels]channel
}

type channel struct {
	player oto.Player
	gain   float64
	pan    float64
}

// NewDevice opens the system audio output. The context resumes
// asynchronously; voices requested before it is ready are retried once
// when it resumes.
func NewDevice() (*Device, error) {
	ctx, ready, err := oto.NewContext(SampleRate, channelCount, bitDepth)
	if err != nil {
		return nil, err
	}
	return &Device{ctx: ctx, ready: ready}, nil
}

// Play starts a voice on the pad channel. offset/length select the trim
// window, gain is the final linear playback gain, pan is in [-1,1]. A
// zero `at` starts as soon as possible; a future `at` delays the start
// until that deadline.
func (d *Device) Play(pad int, buf *Buffer, offset, length time.Duration, gain, pan float64, at time.Time) {
	if pad < 0 || pad >= NumChannels || buf == nil {
		return
	}
	go d.startVoice(pad, buf, offset, length, gain, pan, at)
}

func (d *Device) startVoice(pad int, buf *Buffer, offset, length time.Duration, gain, pan float64, at time.Time) {
	if !d.waitReady() {
		debug.Log("audio", "context never resumed, dropping voice pad=%d", pad)
		return
	}
	if wait := time.Until(at); wait > 0 {
		time.Sleep(wait)
	}

	data := renderVoice(buf, offset, length, pan)
	if len(data) == 0 {
		return
	}

	d.mu.Lock()
	ch := &d.chans[pad]
	if ch.player != nil {
		ch.player.Close() // retrigger cuts the previous voice
	}
	p := d.ctx.NewPlayer(&voiceReader{data: data})
	p.SetVolume(gain)
	ch.player = p
	ch.gain = gain
	ch.pan = pan
	d.mu.Unlock()

	p.Play()
	go reap(p)
}

// waitReady blocks until the audio context has resumed. If the context is
// not ready on the first check, the voice waits for resumption exactly
// once rather than failing outright.
func (d *Device) waitReady() bool {
	select {
	case <-d.ready:
		return true
	default:
	}
	debug.Log("audio", "context suspended, retrying after resume")
	select {
	case <-d.ready:
		return true
	case <-time.After(5 * time.Second):
		return false
	}
}

// reap closes the player once it has drained.
func reap(p oto.Player) {
	for p.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	p.Close()
}

// UpdateChannel applies a new gain to the pad's sounding voice (if any)
// and records the pan used for the next voice. Pan of already-rendered
// audio cannot change mid-voice; it takes effect on the next trigger.
func (d *Device) UpdateChannel(pad int, gain, pan float64) {
	if pad < 0 || pad >= NumChannels {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := &d.chans[pad]
	ch.gain = gain
	ch.pan = pan
	if ch.player != nil {
		ch.player.SetVolume(gain)
	}
}

// Silence cuts the pad's sounding voice.
func (d *Device) Silence(pad int) {
	if pad < 0 || pad >= NumChannels {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silenceLocked(pad)
}

func (d *Device) silenceLocked(pad int) {
	ch := &d.chans[pad]
	if ch.player != nil {
		ch.player.Close()
		ch.player = nil
	}
}

// Close silences all channels. The underlying context stays open for the
// lifetime of the process.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.chans {
		d.silenceLocked(i)
	}
	return nil
}

// renderVoice renders the trim window into interleaved float32 LE stereo
// bytes with equal-power panning applied.
func renderVoice(buf *Buffer, offset, length time.Duration, pan float64) []byte {
	start := int(offset.Seconds() * float64(buf.rate))
	n := int(length.Seconds() * float64(buf.rate))
	if start < 0 {
		start = 0
	}
	if start >= len(buf.frames) || n <= 0 {
		return nil
	}
	if start+n > len(buf.frames) {
		n = len(buf.frames) - start
	}

	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	lg := math.Cos(angle)
	rg := math.Sin(angle)

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		f := buf.frames[start+i]
		putStereoF32LR(out, i, f[0]*lg, f[1]*rg)
	}
	return out
}

// putStereoF32LR writes independent left/right samples in [-1,1] as
// float32 LE at frame i.
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}

type voiceReader struct {
	data []byte
	pos  int
}

func (r *voiceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
