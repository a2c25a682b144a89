package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"padbeat/audio"
	"padbeat/debug"
	"padbeat/engine"
)

const timestampLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Store persists project snapshots as timestamped JSON files, one
// directory per project under Dir.
type Store struct {
	Dir string
}

// DefaultDir returns ~/.config/padbeat/projects.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "padbeat", "projects"), nil
}

// New opens a store rooted at the default projects directory.
func New() (*Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) projectDir(projectName string) string {
	return filepath.Join(s.Dir, projectName)
}

// ListProjects returns all project folder names
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (s *Store) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.projectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		// Filename: 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
		baseName := strings.TrimSuffix(name, ".json")
		if len(baseName) < len(timestampLayout) {
			continue
		}

		ts, err := time.Parse(timestampLayout, baseName[:len(timestampLayout)])
		if err != nil {
			// Not a timestamped file, skip
			continue
		}

		saveName := ""
		if len(baseName) > len(timestampLayout)+1 && baseName[len(timestampLayout)] == '_' {
			saveName = baseName[len(timestampLayout)+1:]
		}

		saves = append(saves, SaveInfo{
			Filename:  name,
			Name:      saveName,
			Timestamp: ts,
		})
	}

	// Newest first
	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// Save writes a snapshot into the project as a new timestamped save and
// returns the save's filename. Audio buffers are not persisted; each
// sample's source path is, so Load can re-decode it.
func (s *Store) Save(projectName string, p engine.Project) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	if p.Name == "" {
		p.Name = projectName
	}

	dir := s.projectDir(projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}

	filename := time.Now().Format(timestampLayout) + ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads a specific save (or the most recent if filename is empty)
// and re-decodes each sample whose source file is still present. A
// sample whose file has moved comes back unloaded but keeps its trim
// and mix settings.
func (s *Store) Load(projectName, filename string) (engine.Project, error) {
	var p engine.Project

	if filename == "" {
		saves, err := s.ListSaves(projectName)
		if err != nil || len(saves) == 0 {
			return p, fmt.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename // newest first
	}

	data, err := os.ReadFile(filepath.Join(s.projectDir(projectName), filename))
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}

	for i := range p.Samples {
		path := p.Samples[i].Path
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			debug.Log("store", "sample file missing: %s", path)
			continue
		}
		buf, err := audio.Decode(raw)
		if err != nil {
			debug.Log("store", "sample re-decode failed: %s: %v", path, err)
			continue
		}
		p.Samples[i].Buffer = buf
	}

	return p, nil
}

// CreateProject creates a new empty project folder
func (s *Store) CreateProject(name string) error {
	return os.MkdirAll(s.projectDir(name), 0755)
}

// DeleteSave deletes a specific save file
func (s *Store) DeleteSave(projectName, filename string) error {
	return os.Remove(filepath.Join(s.projectDir(projectName), filename))
}

// RenameSave renames a save file (changes the name part, keeps timestamp)
func (s *Store) RenameSave(projectName, oldFilename, newName string) error {
	baseName := strings.TrimSuffix(oldFilename, ".json")
	if len(baseName) < len(timestampLayout) {
		return fmt.Errorf("invalid save filename")
	}
	tsStr := baseName[:len(timestampLayout)]

	var newFilename string
	if newName == "" {
		newFilename = tsStr + ".json"
	} else {
		newFilename = tsStr + "_" + sanitizeFilename(newName) + ".json"
	}

	dir := s.projectDir(projectName)
	return os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename))
}

// DeleteProject deletes entire project folder
func (s *Store) DeleteProject(name string) error {
	return os.RemoveAll(s.projectDir(name))
}

// RenameProject renames a project folder
func (s *Store) RenameProject(oldName, newName string) error {
	return os.Rename(s.projectDir(oldName), s.projectDir(newName))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "<", "")
	name = strings.ReplaceAll(name, ">", "")
	name = strings.ReplaceAll(name, "|", "")
	return name
}
