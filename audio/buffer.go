package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Buffer holds a fully decoded stereo sample at the device rate.
// Buffers are immutable after decoding; sharing a *Buffer between the
// engine and an exported project snapshot is safe.
type Buffer struct {
	frames [][2]float64
	rate   int
}

// NewBuffer wraps pre-rendered frames (used by tests and generators).
func NewBuffer(rate int, frames [][2]float64) *Buffer {
	return &Buffer{frames: frames, rate: rate}
}

// NumFrames returns the number of stereo frames.
func (b *Buffer) NumFrames() int {
	return len(b.frames)
}

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int {
	return b.rate
}

// Duration returns the playable length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.frames)) / float64(b.rate) * float64(time.Second))
}

// FrameAt returns the left/right sample pair at frame i.
func (b *Buffer) FrameAt(i int) [2]float64 {
	return b.frames[i]
}

// Decode decodes raw WAV or MP3 bytes into a Buffer at the device sample
// rate. The container is sniffed by attempting WAV first, then MP3.
func Decode(data []byte) (*Buffer, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != beep.SampleRate(SampleRate) {
		src = beep.Resample(4, format.SampleRate, beep.SampleRate(SampleRate), streamer)
	}

	var frames [][2]float64
	chunk := make([][2]float64, 512)
	for {
		n, ok := src.Stream(chunk)
		frames = append(frames, chunk[:n]...)
		if !ok {
			break
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("decode sample: empty audio stream")
	}
	return &Buffer{frames: frames, rate: SampleRate}, nil
}
