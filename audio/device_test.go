package audio

import (
	"math"
	"testing"
	"time"
)

func constBuffer(frames int, left, right float64) *Buffer {
	f := make([][2]float64, frames)
	for i := range f {
		f[i] = [2]float64{left, right}
	}
	return NewBuffer(SampleRate, f)
}

func frameAt(data []byte, i int) (float64, float64) {
	l := math.Float32frombits(uint32(data[i*8]) | uint32(data[i*8+1])<<8 | uint32(data[i*8+2])<<16 | uint32(data[i*8+3])<<24)
	r := math.Float32frombits(uint32(data[i*8+4]) | uint32(data[i*8+5])<<8 | uint32(data[i*8+6])<<16 | uint32(data[i*8+7])<<24)
	return float64(l), float64(r)
}

func TestRenderVoiceTrimWindow(t *testing.T) {
	buf := constBuffer(SampleRate, 0.5, 0.5) // 1s

	data := renderVoice(buf, 250*time.Millisecond, 500*time.Millisecond, 0)
	wantFrames := SampleRate / 2
	if got := len(data) / 8; got != wantFrames {
		t.Fatalf("rendered %d frames, want %d", got, wantFrames)
	}

	// A window reaching past the end is clipped to the buffer.
	data = renderVoice(buf, 750*time.Millisecond, time.Second, 0)
	if got := len(data) / 8; got != SampleRate/4 {
		t.Fatalf("clipped render = %d frames, want %d", got, SampleRate/4)
	}

	if out := renderVoice(buf, 2*time.Second, time.Second, 0); out != nil {
		t.Fatal("offset past the end still rendered frames")
	}
	if out := renderVoice(buf, 0, 0, 0); out != nil {
		t.Fatal("zero-length window still rendered frames")
	}
}

func TestRenderVoiceEqualPowerPan(t *testing.T) {
	buf := constBuffer(64, 1, 1)
	center := math.Cos(math.Pi / 4)

	cases := []struct {
		name                string
		pan                 float64
		wantLeft, wantRight float64
	}{
		{"center", 0, center, center},
		{"hard left", -1, 1, 0},
		{"hard right", 1, 0, 1},
		{"clamped left", -3, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := renderVoice(buf, 0, time.Second, tc.pan)
			l, r := frameAt(data, 10)
			if math.Abs(l-tc.wantLeft) > 1e-6 || math.Abs(r-tc.wantRight) > 1e-6 {
				t.Fatalf("pan %v rendered %v/%v, want %v/%v", tc.pan, l, r, tc.wantLeft, tc.wantRight)
			}
		})
	}
}

func TestVoiceReaderDrains(t *testing.T) {
	r := &voiceReader{data: []byte{1, 2, 3, 4, 5}}
	p := make([]byte, 2)

	total := 0
	for {
		n, err := r.Read(p)
		total += n
		if err != nil {
			break
		}
	}
	if total != 5 {
		t.Fatalf("read %d bytes, want 5", total)
	}
}
