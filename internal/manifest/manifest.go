// Package manifest reads and writes the YAML file that maps sound ids to
// asset paths.
//
//	root: sounds
//	sounds:
//	  match: effects/match.mp3
//	  number1: numbers/1.mp3
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for manifests that fail validation.
var ErrInvalid = errors.New("invalid manifest")

// Manifest maps sound ids to paths relative to the sound root.
type Manifest struct {
	// Root is informational; the cache's own root decides resolution.
	Root    string            `yaml:"root,omitempty"`
	Entries map[string]string `yaml:"sounds"`
}

// New returns an empty manifest.
func New(root string) *Manifest {
	return &Manifest{Root: root, Entries: make(map[string]string)}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save validates m and writes it to path, creating parent directories.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Validate rejects empty ids and paths, and paths that are absolute or
// escape the sound root.
func (m *Manifest) Validate() error {
	var errs []error
	for _, id := range m.IDs() {
		if err := validateEntry(id, m.Entries[id]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func validateEntry(id, soundPath string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("empty sound id for path %q", soundPath)
	}
	if strings.TrimSpace(soundPath) == "" {
		return fmt.Errorf("sound %q: empty path", id)
	}

	p := filepath.ToSlash(soundPath)
	if path.IsAbs(p) || filepath.IsAbs(soundPath) {
		return fmt.Errorf("sound %q: path %q must be relative", id, soundPath)
	}
	if clean := path.Clean(p); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("sound %q: path %q escapes the sound root", id, soundPath)
	}
	return nil
}

// Add sets id to soundPath.
func (m *Manifest) Add(id, soundPath string) {
	if m.Entries == nil {
		m.Entries = make(map[string]string)
	}
	m.Entries[id] = filepath.ToSlash(soundPath)
}

// Merge copies every entry of other into m, overwriting duplicates.
func (m *Manifest) Merge(other *Manifest) {
	for id, p := range other.Entries {
		m.Add(id, p)
	}
}

// Sounds returns a copy of the id to path mapping, ready for Cache.Preload.
func (m *Manifest) Sounds() map[string]string {
	out := make(map[string]string, len(m.Entries))
	for id, p := range m.Entries {
		out[id] = p
	}
	return out
}

// IDs returns the sound ids in sorted order.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.Entries))
	for id := range m.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}
