package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// SnapshotStore persists the last known conversation list on the device.
// It is a display fallback only, never authoritative: every successful
// server fetch overwrites it.
type SnapshotStore interface {
	Save(convs []*Conversation) error
	Load() ([]*Conversation, error)
}

// FileSnapshotStore keeps the snapshot as a JSON file, written atomically
// via a temp file rename.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (s *FileSnapshotStore) Save(convs []*Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(convs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSnapshotStore) Load() ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	var convs []*Conversation
	if err := json.Unmarshal(b, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
