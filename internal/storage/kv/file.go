package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notevault/internal/storeerr"
)

// FileStore keeps one file per key under a root directory. A byte budget
// of zero means unlimited; a positive budget makes Set fail with
// ErrCapacityExceeded once total stored bytes would exceed it, mirroring
// a browser quota rejection.
type FileStore struct {
	root     string
	maxBytes int64
}

func NewFileStore(root string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create kv root: %w", err)
	}
	return &FileStore{root: root, maxBytes: maxBytes}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are internal identifiers ([a-z0-9_]); path separators are
	// rejected rather than escaped.
	return filepath.Join(s.root, key+".json")
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid kv key %q", key)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", storeerr.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if s.maxBytes > 0 {
		used, err := s.usedBytes(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.maxBytes {
			return fmt.Errorf("%w: writing %s (%d bytes over %d budget)",
				storeerr.ErrCapacityExceeded, key, used+int64(len(value))-s.maxBytes, s.maxBytes)
		}
	}

	// Write-then-rename keeps a crashed write from leaving a torn value.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// usedBytes sums stored sizes excluding the key about to be replaced.
func (s *FileStore) usedBytes(replacing string) (int64, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == replacing+".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}
