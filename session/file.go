package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists the token as JSON in <dir>/<scope>/<name>.json.
//
// The file exists only while a token is stored. Writes go through a temp file and
// rename so a crashed write never leaves a torn token behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileRecord struct {
	Token string `json:"token"`
}

// NewFileStore returns a FileStore rooted at dir for the given scope. An empty name
// selects [DefaultStorageName].
func NewFileStore(dir, scope, name string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session: file store directory is empty")
	}
	if strings.TrimSpace(scope) == "" {
		return nil, errors.New("session: file store scope is empty")
	}
	if name == "" {
		name = DefaultStorageName
	}

	return &FileStore{
		path: filepath.Join(dir, scopeDir(scope), sanitize(name)+".json"),
	}, nil
}

// Path returns the file the token is persisted in.
func (s *FileStore) Path() string {
	return s.path
}

// Get reads the stored token. A missing file is an empty slot.
func (s *FileStore) Get(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", false, fmt.Errorf("%w: corrupt token file: %v", ErrStoreUnavailable, err)
	}
	return rec.Token, true, nil
}

// Set writes token, replacing any prior value.
func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(fileRecord{Token: token})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes the token file. Removing an absent file succeeds.
func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func scopeDir(scope string) string {
	scope = strings.Replace(scope, "://", "_", 1)
	return sanitize(scope)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
