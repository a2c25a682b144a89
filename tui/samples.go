package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"padbeat/engine"
	"padbeat/widgets"
)

// sampleBrowser lists audio files from the sample directory and loads
// the selection onto a pad.
type sampleBrowser struct {
	dir    string
	files  []string
	idx    int
	status string
}

func newSampleBrowser(dir string) *sampleBrowser {
	b := &sampleBrowser{dir: dir}
	b.Refresh()
	return b
}

// Refresh rescans the sample directory
func (b *sampleBrowser) Refresh() {
	b.files = nil
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		b.status = "cannot read " + b.dir
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".mp3":
			b.files = append(b.files, e.Name())
		}
	}
	sort.Strings(b.files)
	if b.idx >= len(b.files) {
		b.idx = max(0, len(b.files)-1)
	}
	b.status = ""
}

// HandleKey processes a key press. Returns true when the browser should
// close.
func (b *sampleBrowser) HandleKey(key string, eng *engine.Engine, pad int) bool {
	switch key {
	case "esc", "b":
		return true
	case "j", "down":
		if b.idx < len(b.files)-1 {
			b.idx++
		}
	case "k", "up":
		if b.idx > 0 {
			b.idx--
		}
	case "enter", " ":
		if len(b.files) == 0 {
			return false
		}
		path := filepath.Join(b.dir, b.files[b.idx])
		if err := eng.LoadSampleFile(pad, path); err != nil {
			b.status = err.Error()
			return false
		}
		b.status = fmt.Sprintf("loaded %s onto pad %d", b.files[b.idx], pad+1)
		return true
	case "t":
		// Audition before committing: load and hit, stay in browser.
		if len(b.files) == 0 {
			return false
		}
		path := filepath.Join(b.dir, b.files[b.idx])
		if err := eng.LoadSampleFile(pad, path); err != nil {
			b.status = err.Error()
			return false
		}
		eng.TriggerPad(pad, engine.DefaultVelocity)
	}
	return false
}

func (b *sampleBrowser) View() string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("SAMPLES  %s\n\n", b.dir))

	if len(b.files) == 0 {
		out.WriteString("  (no .wav or .mp3 files found)\n")
	}

	// Window the list around the selection
	maxRows := 16
	start := 0
	if b.idx >= maxRows {
		start = b.idx - maxRows + 1
	}
	for i := start; i < len(b.files) && i < start+maxRows; i++ {
		prefix := "  "
		if i == b.idx {
			prefix = "> "
		}
		out.WriteString(prefix + b.files[i] + "\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "j / k", Desc: "navigate"},
			{Key: "enter", Desc: "load onto selected pad"},
			{Key: "t", Desc: "load and audition"},
			{Key: "esc", Desc: "back to grid"},
		}},
	}))

	if b.status != "" {
		out.WriteString("\n\n" + b.status)
	}

	return out.String()
}
