package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/mockup/pkg/payload"
)

// FileStore stores designs as JSON files in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store.
// If baseDir is empty, defaults to ~/.config/mockup/designs/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "mockup", "designs")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create design dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) designPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) SaveDesign(ctx context.Context, d *payload.Design) (string, error) {
	data, err := prepare(d)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.designPath(d.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", persistence(err, "write design %s", d.ID)
	}
	if err := os.Rename(tmp, s.designPath(d.ID)); err != nil {
		os.Remove(tmp)
		return "", persistence(err, "write design %s", d.ID)
	}
	return d.ID, nil
}

func (s *FileStore) GetDesign(ctx context.Context, id string) (*payload.Design, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.designPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, persistence(err, "read design %s", id)
	}
	return payload.DecodeDesign(data)
}

// List returns the ids of all stored designs, sorted.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, persistence(err, "read design dir")
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for design files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Designs = (*FileStore)(nil)
