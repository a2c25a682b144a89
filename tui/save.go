package tui

import (
	"fmt"
	"strings"

	"padbeat/engine"
	"padbeat/store"
	"padbeat/widgets"
)

// InputMode for text input
type InputMode int

const (
	InputNone InputMode = iota
	InputNewProject
	InputRenameProject
	InputRenameSave
)

// saveScreen manages project save/load
type saveScreen struct {
	store *store.Store

	// Cached data
	projects []string
	saves    []store.SaveInfo

	// Selection state
	projectIdx int // selected project
	saveIdx    int // selected save
	column     int // 0=projects, 1=saves

	// Current project (saves go here)
	projectName string

	// Input mode (for new project / rename)
	inputMode   InputMode
	inputBuffer string

	// Confirmation dialog
	confirmMode   bool
	confirmMsg    string
	confirmAction func()

	status string
}

func newSaveScreen(st *store.Store) *saveScreen {
	s := &saveScreen{store: st}
	s.Refresh()
	return s
}

// IsInputMode returns true if the screen is accepting text input
func (s *saveScreen) IsInputMode() bool {
	return s.inputMode != InputNone || s.confirmMode
}

// Refresh reloads project and save lists
func (s *saveScreen) Refresh() {
	projects, _ := s.store.ListProjects()
	s.projects = projects

	// Clamp selection
	if s.projectIdx >= len(s.projects) {
		s.projectIdx = max(0, len(s.projects)-1)
	}

	if len(s.projects) > 0 && s.projectIdx < len(s.projects) {
		saves, _ := s.store.ListSaves(s.projects[s.projectIdx])
		s.saves = saves
	} else {
		s.saves = nil
	}

	if s.saveIdx >= len(s.saves) {
		s.saveIdx = max(0, len(s.saves)-1)
	}
}

// HandleKey processes a key press. Returns true when the screen should
// close.
func (s *saveScreen) HandleKey(key string, eng *engine.Engine) bool {
	// Confirmation mode
	if s.confirmMode {
		switch key {
		case "y", "Y":
			if s.confirmAction != nil {
				s.confirmAction()
			}
			s.confirmMode = false
			s.confirmAction = nil
			s.Refresh()
		case "n", "N", "esc", "q":
			s.confirmMode = false
			s.confirmAction = nil
		}
		return false
	}

	// Input mode
	if s.inputMode != InputNone {
		switch key {
		case "enter":
			s.commitInput()
		case "esc":
			s.inputMode = InputNone
			s.inputBuffer = ""
		case "backspace":
			if len(s.inputBuffer) > 0 {
				s.inputBuffer = s.inputBuffer[:len(s.inputBuffer)-1]
			}
		default:
			// Only accept printable characters, no path separators
			if len(key) == 1 && key[0] >= 32 && key[0] < 127 && key != "/" && key != "\\" {
				s.inputBuffer += key
			}
		}
		return false
	}

	// Normal navigation
	switch key {
	case "esc", "w":
		return true
	case "h", "left":
		s.column = 0
	case "l", "right":
		if len(s.projects) > 0 {
			s.column = 1
		}
	case "j", "down":
		if s.column == 0 {
			if s.projectIdx < len(s.projects)-1 {
				s.projectIdx++
				s.Refresh() // reload saves for new project
			}
		} else if s.saveIdx < len(s.saves)-1 {
			s.saveIdx++
		}
	case "k", "up":
		if s.column == 0 {
			if s.projectIdx > 0 {
				s.projectIdx--
				s.Refresh()
			}
		} else if s.saveIdx > 0 {
			s.saveIdx--
		}
	case "enter", " ":
		return s.loadSelected(eng)
	case "s":
		s.saveSnapshot(eng)
	case "n":
		s.inputMode = InputNewProject
		s.inputBuffer = ""
	case "r":
		if s.column == 0 && len(s.projects) > 0 {
			s.inputMode = InputRenameProject
			s.inputBuffer = s.projects[s.projectIdx]
		} else if s.column == 1 && len(s.saves) > 0 {
			s.inputMode = InputRenameSave
			s.inputBuffer = s.saves[s.saveIdx].Name
		}
	case "d":
		s.deleteSelected()
	}
	return false
}

func (s *saveScreen) commitInput() {
	name := strings.TrimSpace(s.inputBuffer)

	switch s.inputMode {
	case InputNewProject:
		if name != "" {
			s.store.CreateProject(name)
			s.projectName = name
		}
	case InputRenameProject:
		if name != "" && len(s.projects) > 0 {
			oldName := s.projects[s.projectIdx]
			s.store.RenameProject(oldName, name)
			if s.projectName == oldName {
				s.projectName = name
			}
		}
	case InputRenameSave:
		// Empty name is allowed (removes the name)
		if len(s.saves) > 0 {
			s.store.RenameSave(s.projects[s.projectIdx], s.saves[s.saveIdx].Filename, name)
		}
	}

	s.inputMode = InputNone
	s.inputBuffer = ""
	s.Refresh()
}

func (s *saveScreen) saveSnapshot(eng *engine.Engine) {
	name := s.projectName
	if name == "" && len(s.projects) > 0 {
		name = s.projects[s.projectIdx]
	}
	if name == "" {
		name = "untitled"
	}
	eng.SetProjectName(name)
	filename, err := s.store.Save(name, eng.ExportProject())
	if err != nil {
		s.status = "save failed: " + err.Error()
		return
	}
	s.projectName = name
	s.status = "saved " + filename
	s.Refresh()
}

func (s *saveScreen) loadSelected(eng *engine.Engine) bool {
	if len(s.projects) == 0 {
		return false
	}

	projectName := s.projects[s.projectIdx]
	filename := ""
	if s.column == 1 && len(s.saves) > 0 {
		filename = s.saves[s.saveIdx].Filename
	}

	p, err := s.store.Load(projectName, filename)
	if err != nil {
		s.status = "load failed: " + err.Error()
		return false
	}
	if err := eng.LoadProject(p); err != nil {
		s.status = "load failed: " + err.Error()
		return false
	}

	s.projectName = projectName
	s.status = "loaded " + projectName
	return true
}

func (s *saveScreen) deleteSelected() {
	if s.column == 0 {
		if len(s.projects) == 0 {
			return
		}
		name := s.projects[s.projectIdx]
		s.confirmMsg = fmt.Sprintf("Delete project '%s' and all saves?", name)
		s.confirmAction = func() {
			s.store.DeleteProject(name)
			if s.projectName == name {
				s.projectName = ""
			}
		}
		s.confirmMode = true
	} else {
		if len(s.saves) == 0 {
			return
		}
		save := s.saves[s.saveIdx]
		s.confirmMsg = fmt.Sprintf("Delete save '%s'?", save.Timestamp.Format("2006-01-02 15:04:05"))
		s.confirmAction = func() {
			s.store.DeleteSave(s.projects[s.projectIdx], save.Filename)
		}
		s.confirmMode = true
	}
}

func (s *saveScreen) View() string {
	var out strings.Builder

	projectName := "(none)"
	if s.projectName != "" {
		projectName = s.projectName
	}
	out.WriteString(fmt.Sprintf("PROJECTS  Current: %s\n\n", projectName))

	// Confirmation dialog takes over
	if s.confirmMode {
		out.WriteString("─────────────────────────────────────────────────\n")
		out.WriteString(fmt.Sprintf("\n%s\n\n", s.confirmMsg))
		out.WriteString("  [y] Yes    [n] No\n")
		out.WriteString("\n─────────────────────────────────────────────────\n")
		return out.String()
	}

	// Input mode takes over
	if s.inputMode != InputNone {
		var label string
		switch s.inputMode {
		case InputNewProject:
			label = "New project name"
		case InputRenameProject:
			label = "Rename project to"
		case InputRenameSave:
			label = "Name this save"
		}
		out.WriteString("─────────────────────────────────────────────────\n")
		out.WriteString(fmt.Sprintf("\n%s: %s_\n", label, s.inputBuffer))
		out.WriteString("\n[enter] confirm  [esc] cancel\n")
		out.WriteString("\n─────────────────────────────────────────────────\n")
		return out.String()
	}

	// Two column layout
	out.WriteString("Projects                    Saves\n")
	out.WriteString("─────────────────────────────────────────────────\n")

	maxRows := 12
	projectRows := min(maxRows, max(1, len(s.projects)))
	saveRows := min(maxRows, max(1, len(s.saves)))
	rows := max(projectRows, saveRows)

	for row := 0; row < rows; row++ {
		// Project column
		if row < len(s.projects) {
			prefix := "  "
			if row == s.projectIdx {
				if s.column == 0 {
					prefix = "> "
				} else {
					prefix = "* "
				}
			}
			name := s.projects[row]
			if len(name) > 20 {
				name = name[:17] + "..."
			}
			out.WriteString(fmt.Sprintf("%s%-20s", prefix, name))
		} else {
			out.WriteString("                      ")
		}

		out.WriteString("    ")

		// Saves column
		if row < len(s.saves) {
			prefix := "  "
			if row == s.saveIdx {
				if s.column == 1 {
					prefix = "> "
				} else {
					prefix = "* "
				}
			}
			save := s.saves[row]
			display := save.Timestamp.Format("01-02 15:04")
			if save.Name != "" {
				display += " " + save.Name
			}
			if len(display) > 24 {
				display = display[:21] + "..."
			}
			out.WriteString(prefix + display)
		}

		out.WriteString("\n")
	}

	if len(s.projects) == 0 {
		out.WriteString("  (no projects yet)\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "switch columns"},
			{Key: "j / k", Desc: "navigate list"},
			{Key: "enter", Desc: "load selected"},
			{Key: "s", Desc: "save snapshot"},
			{Key: "n", Desc: "new project"},
			{Key: "r", Desc: "rename"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back to grid"},
		}},
	}))

	if s.status != "" {
		out.WriteString("\n\n" + s.status)
	}

	return out.String()
}
