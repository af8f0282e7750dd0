package atomic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// definitionExts are tried in order when looking up <dir>/<id>/<id>.<ext>.
// JSON files decode through the YAML parser.
var definitionExts = []string{".yaml", ".yml", ".json"}

// TechniquePath returns the definition file for a technique inside dir,
// or "" when none exists.
func TechniquePath(dir, id string) string {
	for _, ext := range definitionExts {
		path := filepath.Join(dir, id, id+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadTechnique reads and validates a single technique definition file.
func LoadTechnique(path string) (*Technique, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var t Technique
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if t.ID == "" {
		t.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := validateTechnique(&t); err != nil {
		return nil, &ParseError{Technique: t.ID, Path: path, Err: err}
	}
	return &t, nil
}

func validateTechnique(t *Technique) error {
	if !ValidTechniqueID(t.ID) {
		return fmt.Errorf("invalid technique id %q", t.ID)
	}
	seen := make(map[string]bool, len(t.AtomicTests))
	for i, test := range t.AtomicTests {
		if !ValidGUID(test.GUID) {
			return fmt.Errorf("atomic test %d (%q): invalid auto_generated_guid %q", i+1, test.Name, test.GUID)
		}
		key := strings.ToLower(test.GUID)
		if seen[key] {
			return fmt.Errorf("atomic test %d (%q): duplicate guid %s", i+1, test.Name, test.GUID)
		}
		seen[key] = true
	}
	return nil
}

// DiscoverTechniqueIDs lists the technique folders present in any of dirs,
// sorted by ID. Missing directories are skipped.
func DiscoverTechniqueIDs(dirs []string) ([]string, error) {
	found := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading tests dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || !ValidTechniqueID(entry.Name()) {
				continue
			}
			if TechniquePath(dir, entry.Name()) != "" {
				found[entry.Name()] = true
			}
		}
	}
	return sortedKeys(found), nil
}

// loadMerged loads id from every directory that defines it. Later
// directories append their atomic tests after earlier ones.
func loadMerged(dirs []string, id string) (*Technique, error) {
	var merged *Technique
	for _, dir := range dirs {
		path := TechniquePath(dir, id)
		if path == "" {
			continue
		}
		t, err := LoadTechnique(path)
		if err != nil {
			return nil, err
		}
		if t.ID != id {
			return nil, &ParseError{Technique: id, Path: path, Err: fmt.Errorf("file declares technique %s", t.ID)}
		}
		if merged == nil {
			merged = t
			continue
		}
		if merged.DisplayName == "" {
			merged.DisplayName = t.DisplayName
		}
		merged.AtomicTests = append(merged.AtomicTests, t.AtomicTests...)
	}
	if merged == nil {
		return nil, &ParseError{Technique: id, Err: ErrTechniqueNotFound}
	}
	return merged, nil
}
