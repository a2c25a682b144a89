package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"padbeat/audio"
	"padbeat/config"
	"padbeat/debug"
	"padbeat/engine"
	"padbeat/midi"
	"padbeat/store"
	"padbeat/theme"
	"padbeat/tui"
)

func main() {
	if os.Getenv("PADBEAT_DEBUG") != "" {
		debug.Enable()
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Theme: built-in palette unless the config points at a GPL file
	palette := theme.Default()
	if cfg.UI.PalettePath != "" {
		if p, err := theme.LoadGPL(cfg.UI.PalettePath); err == nil {
			palette = p
		}
	}
	th := theme.New(palette)

	// Audio output
	device, err := audio.NewDevice()
	if err != nil {
		fmt.Printf("Error opening audio device: %v\n", err)
		os.Exit(1)
	}

	// Engine
	eng := engine.NewEngine(device)
	defer eng.Close()
	if cfg.UI.LastTempo >= engine.MinBPM && cfg.UI.LastTempo <= engine.MaxBPM {
		eng.SetBPM(cfg.UI.LastTempo)
	}

	// Project store
	st, err := store.New()
	if err != nil {
		fmt.Printf("Error opening project store: %v\n", err)
		os.Exit(1)
	}

	// MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MIDI.AutoConnect {
		go deviceMgr.Run(ctx)
	}

	fmt.Println("padbeat")
	fmt.Println("Connect MIDI pad controllers any time - they'll be detected automatically")
	fmt.Println("")

	m := tui.NewModel(eng, st, deviceMgr, cfg, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Remember the tempo for next launch
	cfg.UI.LastTempo = eng.BPM()
	cfg.Save()
}
