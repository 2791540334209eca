package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/quotabar/internal/provider"
)

// FileStore keeps one JSON file per (provider, kind) key under a private
// directory. The directory must be 0700 and files are written 0600; looser
// permissions are treated as a store error rather than silently accepted.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore opens (creating if needed) a file-backed store at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return nil, fmt.Errorf("%w: %s has group/world permissions (%o), want 0700",
			ErrPermissionDenied, dir, info.Mode().Perm())
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func credKey(id provider.ProviderID, kind provider.CredentialKind) string {
	return string(id) + "." + string(kind)
}

func (s *FileStore) path(key string) string {
	// Keys are built from catalog ids and fixed kind names, but keep the
	// filename inert regardless.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// Get reads the credential for (id, kind).
func (s *FileStore) Get(id provider.ProviderID, kind provider.CredentialKind) (Credential, error) {
	key := credKey(id, kind)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Credential{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return Credential{}, fmt.Errorf("%w: %s has group/world permissions (%o), want 0600",
			ErrPermissionDenied, path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return Credential{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: corrupt entry %s: %v", ErrUnavailable, key, err)
	}
	return cred, nil
}

// Put writes the credential atomically: temp file with 0600, then rename.
func (s *FileStore) Put(cred Credential) error {
	if cred.ProviderID == "" || cred.Kind == "" {
		return fmt.Errorf("credstore: credential needs provider id and kind")
	}
	key := credKey(cred.ProviderID, cred.Kind)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".cred-*")
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes the credential for (id, kind). Deleting a missing entry
// is not an error.
func (s *FileStore) Delete(id provider.ProviderID, kind provider.CredentialKind) error {
	key := credKey(id, kind)
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.path(key))
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
