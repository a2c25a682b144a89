package main

import (
	"fmt"
	"os"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"padbeat/audio"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "ports":
		listPorts()
	case "decode":
		if len(os.Args) < 3 {
			usage()
			return
		}
		decodeFile(os.Args[2])
	case "play":
		if len(os.Args) < 3 {
			usage()
			return
		}
		playFile(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("padbeat diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports          - List MIDI input ports")
	fmt.Println("  decode <file>  - Decode a sample and print its format")
	fmt.Println("  play <file>    - Decode a sample and play it")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ins := <-ch:
		if len(ins) == 0 {
			fmt.Println("  (none)")
		}
		for i, p := range ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func decodeFile(path string) *audio.Buffer {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	start := time.Now()
	buf, err := audio.Decode(data)
	if err != nil {
		fmt.Printf("Decode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  frames:   %d\n", buf.NumFrames())
	fmt.Printf("  rate:     %d Hz\n", buf.SampleRate())
	fmt.Printf("  duration: %v\n", buf.Duration().Round(time.Millisecond))
	fmt.Printf("  decoded in %v\n", time.Since(start).Round(time.Millisecond))
	return buf
}

func playFile(path string) {
	buf := decodeFile(path)

	device, err := audio.NewDevice()
	if err != nil {
		fmt.Printf("Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	fmt.Println("Playing...")
	device.Play(0, buf, 0, buf.Duration(), 1, 0, time.Time{})
	time.Sleep(buf.Duration() + 500*time.Millisecond)
	fmt.Println("Done!")
}
