package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Store reads and writes the snapshot as a whole JSON document. Writes go
// through a temp file and rename, so a crash mid-write never leaves a torn
// snapshot behind.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the given snapshot path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the snapshot, default-filling any missing symbols or fields.
// A missing file yields a fresh default snapshot (persisted immediately). A
// malformed file is moved aside rather than overwritten and the error is
// returned along with defaults, so the caller can prefer its in-memory
// state over a silent reset.
func (s *Store) Load(symbols []string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			snap := NewSnapshot(symbols)
			if err := s.save(snap); err != nil {
				return snap, fmt.Errorf("write initial snapshot: %w", err)
			}
			log.Printf("ledger: created %s with defaults", s.path)
			return snap, nil
		}
		return NewSnapshot(symbols), fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		aside := s.path + ".corrupt"
		if renameErr := os.Rename(s.path, aside); renameErr == nil {
			log.Printf("ledger: malformed snapshot moved to %s", aside)
		}
		return NewSnapshot(symbols), fmt.Errorf("parse snapshot: %w", err)
	}

	snap.EnsureSymbols(symbols)
	return &snap, nil
}

// Save atomically replaces the snapshot document on disk.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(snap)
}

func (s *Store) save(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
