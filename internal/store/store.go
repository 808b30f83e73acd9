package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Namespace names. The sync namespace holds small values that follow the
// user around (the credential); local holds settings and history.
const (
	NamespaceSync  = "sync"
	NamespaceLocal = "local"
)

// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
var ErrInvalidKey = errors.New("store: invalid key")

// FileStore is one key-value namespace. Each key is stored as <key>.json
// under Dir and replaced atomically on write.
type FileStore struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the namespace directory and
	// 0600 on value files.
	StrictPerms bool

	mu sync.Mutex
}

// Stores bundles the two namespaces rooted at one data directory.
type Stores struct {
	Sync  *FileStore
	Local *FileStore
}

// Open returns the sync and local namespaces under root. Directories are
// created lazily on first write.
func Open(root string, strictPerms bool) Stores {
	return Stores{
		Sync:  &FileStore{Dir: filepath.Join(root, NamespaceSync), StrictPerms: strictPerms},
		Local: &FileStore{Dir: filepath.Join(root, NamespaceLocal), StrictPerms: strictPerms},
	}
}

func (s *FileStore) ensureDir() error {
	if s == nil || s.Dir == "" {
		return errors.New("store dir not configured")
	}
	perm := os.FileMode(0o755)
	if s.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(s.Dir, perm); err != nil {
		return err
	}
	// Tighten a directory that existed before strict mode was switched on.
	if s.StrictPerms {
		if info, err := os.Stat(s.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(s.Dir, 0o700)
		}
	}
	return nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.Dir, key+".json"), nil
}

// Get decodes the value stored under key into dst. When the key is absent
// dst is left untouched and found is false, so callers pre-fill dst with
// their default.
func (s *FileStore) Get(_ context.Context, key string, dst any) (found bool, err error) {
	p, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes v and stores it under key.
func (s *FileStore) Set(_ context.Context, key string, v any) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if s.StrictPerms {
		mode = 0o600
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return os.Rename(tmp, p)
}

// Delete removes key. Deleting an absent key is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
