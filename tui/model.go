package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"padbeat/config"
	"padbeat/engine"
	"padbeat/midi"
	"padbeat/store"
	"padbeat/theme"
	"padbeat/widgets"
)

type viewMode int

const (
	viewGrid viewMode = iota
	viewSave
	viewBrowser
)

type Model struct {
	Engine    *engine.Engine
	Store     *store.Store
	DeviceMgr *midi.DeviceManager
	Config    *config.Config
	Theme     *theme.Theme

	view    viewMode
	save    *saveScreen
	browser *sampleBrowser

	selPad int // pad row the cursor is on
	cursor int // step column the cursor is on

	controller midi.Controller // current controller (may be nil)
	status     string
	quitting   bool
}

type EngineMsg engine.Event

type DeviceEventMsg midi.DeviceEvent

func NewModel(eng *engine.Engine, st *store.Store, deviceMgr *midi.DeviceManager, cfg *config.Config, th *theme.Theme) Model {
	return Model{
		Engine:    eng,
		Store:     st,
		DeviceMgr: deviceMgr,
		Config:    cfg,
		Theme:     th,
		save:      newSaveScreen(st),
		browser:   newSampleBrowser(cfg.SampleDir),
	}
}

func ListenForEngine(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		return EngineMsg(<-eng.Events())
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		return DeviceEventMsg(<-deviceMgr.Events())
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForEngine(m.Engine),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case EngineMsg:
		return m, ListenForEngine(m.Engine)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.controller = event.Controller
			m.status = "MIDI: " + event.ID

			// Feed controller hits straight into the engine so they
			// sound (and record) without a round trip through the UI.
			eng := m.Engine
			go func(c midi.Controller) {
				for hit := range c.Events() {
					eng.TriggerPad(hit.Pad, hit.Velocity)
				}
			}(event.Controller)
		} else if event.Type == midi.DeviceDisconnected {
			if m.controller != nil && m.controller.ID() == event.ID {
				m.controller = nil
				m.status = "MIDI disconnected"
			}
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	// Global keys work in every view unless a text input is active.
	if !(m.view == viewSave && m.save.IsInputMode()) {
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit
		}
	}

	switch m.view {
	case viewSave:
		if done := m.save.HandleKey(key, m.Engine); done {
			m.view = viewGrid
		}
		m.status = m.save.status
		return m, nil
	case viewBrowser:
		if done := m.browser.HandleKey(key, m.Engine, m.selPad); done {
			m.view = viewGrid
		}
		m.status = m.browser.status
		return m, nil
	}

	pattern := m.Engine.CurrentPattern()

	switch key {
	case "p":
		if m.Engine.IsPlaying() {
			m.Engine.Stop()
		} else {
			m.Engine.Play()
		}

	case ".":
		if m.Engine.IsPlaying() {
			m.Engine.Pause()
		} else {
			m.Engine.Play()
		}

	case "r":
		if m.Engine.IsRecording() {
			m.Engine.StopRecording()
		} else {
			m.Engine.StartRecording()
		}

	case "+", "=":
		m.setBPM(m.Engine.BPM() + 5)
	case "-", "_":
		m.setBPM(m.Engine.BPM() - 5)

	case "h", "left":
		if m.cursor > 0 {
			m.cursor--
		}
	case "l", "right":
		if m.cursor < pattern.Length-1 {
			m.cursor++
		}
	case "k", "up":
		if m.selPad > 0 {
			m.selPad--
		}
	case "j", "down":
		if m.selPad < engine.NumPads-1 {
			m.selPad++
		}

	case " ":
		if err := m.Engine.ToggleStep(m.selPad, m.cursor); err != nil {
			m.status = err.Error()
		}

	case "v":
		m.nudgeVelocity(pattern, -0.1)
	case "V":
		m.nudgeVelocity(pattern, 0.1)

	case "t":
		if err := m.Engine.TriggerPad(m.selPad, engine.DefaultVelocity); err != nil {
			m.status = err.Error()
		}
	case "x":
		if err := m.Engine.ChokePad(m.selPad); err != nil {
			m.status = err.Error()
		}

	case "<", ",":
		m.Engine.SetCurrentPattern(m.Engine.CurrentPatternIndex() - 1)
	case ">":
		m.Engine.SetCurrentPattern(m.Engine.CurrentPatternIndex() + 1)
	case "n":
		m.Engine.AddPattern()
		m.Engine.SetCurrentPattern(m.Engine.PatternCount() - 1)

	case "1":
		m.nudgePad(engine.SetVolume{Volume: m.padInfo().Volume - 0.05})
	case "2":
		m.nudgePad(engine.SetVolume{Volume: m.padInfo().Volume + 0.05})
	case "3":
		m.nudgePad(engine.SetPan{Pan: m.padInfo().Pan - 0.1})
	case "4":
		m.nudgePad(engine.SetPan{Pan: m.padInfo().Pan + 0.1})
	case "5":
		m.nudgePad(engine.SetStartTime{Start: m.padInfo().Start - 0.05})
	case "6":
		m.nudgePad(engine.SetStartTime{Start: m.padInfo().Start + 0.05})
	case "7":
		m.nudgePad(engine.SetEndTime{End: m.padInfo().End - 0.05})
	case "8":
		m.nudgePad(engine.SetEndTime{End: m.padInfo().End + 0.05})

	case "b":
		m.browser.Refresh()
		m.view = viewBrowser
	case "w":
		m.save.Refresh()
		m.view = viewSave
	}

	return m, nil
}

func (m *Model) setBPM(bpm int) {
	if err := m.Engine.SetBPM(bpm); err != nil {
		m.status = err.Error()
		return
	}
	m.Config.UI.LastTempo = bpm
}

func (m *Model) padInfo() engine.PadInfo {
	info, _ := m.Engine.Pad(m.selPad)
	return info
}

func (m *Model) nudgePad(cmd engine.PadCommand) {
	if err := m.Engine.ApplyPadCommand(m.selPad, cmd); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) nudgeVelocity(p engine.Pattern, delta float64) {
	v := p.Velocities[m.selPad][m.cursor] + delta
	if err := m.Engine.SetStepVelocity(m.selPad, m.cursor, v); err != nil {
		m.status = err.Error()
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case viewSave:
		return m.save.View()
	case viewBrowser:
		return m.browser.View()
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	recStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	pattern := m.Engine.CurrentPattern()
	step := m.Engine.CurrentStep()
	playing := m.Engine.IsPlaying()

	playState := "STOP"
	switch m.Engine.State() {
	case engine.Playing:
		playState = "PLAY"
	case engine.Paused:
		playState = "PAUSE"
	}
	recState := ""
	if m.Engine.IsRecording() {
		recState = recStyle.Render("  REC")
	}
	midiState := ""
	if m.controller != nil {
		midiState = "  midi"
	}

	header := headerStyle.Render(fmt.Sprintf("padbeat  %s  %3dbpm  step:%02d  pattern %d/%d%s%s",
		playState, m.Engine.BPM(), step+1,
		m.Engine.CurrentPatternIndex()+1, m.Engine.PatternCount(), recState, midiState))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	sym := m.Theme.Symbols
	for pad := 0; pad < engine.NumPads; pad++ {
		info, _ := m.Engine.Pad(pad)
		out.WriteString(widgets.RenderPadLabel(sym, pad, info.Loaded, pad == m.selPad, info.Name, 14))
		out.WriteString(" ")
		for s := 0; s < pattern.Length; s++ {
			out.WriteRune(widgets.StepCell(sym, widgets.CellState{
				Active:   pattern.Steps[pad][s],
				Playhead: playing && s == step,
				Cursor:   pad == m.selPad && s == m.cursor,
			}))
		}
		out.WriteString("\n")
	}

	// Selected pad detail
	info := m.padInfo()
	out.WriteString("\n")
	out.WriteString(widgets.RenderMeter(m.Theme, "vol", info.Volume, 10))
	out.WriteString("   ")
	out.WriteString(widgets.RenderMeter(m.Theme, "pan", (info.Pan+1)/2, 10))
	out.WriteString("   ")
	out.WriteString(fmt.Sprintf("trim %.2f-%.2f", info.Start, info.End))
	if info.Loaded {
		out.WriteString(fmt.Sprintf("   %v", info.Duration.Round(10*time.Millisecond)))
	}
	out.WriteString("\n")

	velocity := pattern.Velocities[m.selPad][m.cursor]
	out.WriteString(fmt.Sprintf("step %02d velocity %.1f\n", m.cursor+1, velocity))

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("hjkl:nav  space:toggle  t:hit  x:choke  v/V:velocity  p:play  .:pause  r:rec  +/-:tempo  </>:pattern  n:new  b:samples  w:projects  q:quit"))

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}

	return out.String()
}
