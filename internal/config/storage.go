package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"habitat/pkg/logging"
)

// Storage provides file-backed persistence for dynamic entities, one YAML
// file per entity under <configDir>/<entityType>/<name>.yaml. The template
// catalog uses it so user-defined templates survive a process restart; the
// environment registry itself stays in memory (a documented data-loss risk,
// see the Store interface in internal/environment).
type Storage struct {
	mu        sync.RWMutex
	configDir string
}

// NewStorage creates a Storage rooted at configDir.
func NewStorage(configDir string) *Storage {
	return &Storage{configDir: configDir}
}

// Save writes data for the given entity type and name, creating directories
// as needed.
func (s *Storage) Save(entityType, name string, data []byte) error {
	if entityType == "" {
		return fmt.Errorf("entityType cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	targetDir := filepath.Join(s.configDir, entityType)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}

	path := filepath.Join(targetDir, sanitizeFilename(name)+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	logging.Debug("Storage", "Saved %s/%s to %s", entityType, name, path)
	return nil
}

// Load reads the data stored for the given entity type and name.
func (s *Storage) Load(entityType, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.configDir, entityType, sanitizeFilename(name)+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("entity %s/%s not found", entityType, name)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the file for the given entity type and name. Deleting a file
// that does not exist returns the underlying os.IsNotExist error so callers
// can treat it as a no-op.
func (s *Storage) Delete(entityType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.configDir, entityType, sanitizeFilename(name)+".yaml")
	if err := os.Remove(path); err != nil {
		return err
	}

	logging.Debug("Storage", "Deleted %s/%s", entityType, name)
	return nil
}

// List returns the entity names present for the given entity type.
func (s *Storage) List(entityType string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.configDir, entityType)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		} else if strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(name, ".yml"))
		}
	}
	return names, nil
}

// EntityDir returns the directory that holds files for the given entity type.
func (s *Storage) EntityDir(entityType string) string {
	return filepath.Join(s.configDir, entityType)
}

// sanitizeFilename strips path separators so entity names cannot escape the
// entity directory.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")
	name = strings.ReplaceAll(name, "..", "-")
	return name
}
