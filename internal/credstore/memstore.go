package credstore

import (
	"fmt"
	"sync"

	"github.com/user/quotabar/internal/provider"
)

// MemStore is an in-memory Store for tests and ephemeral runs.
type MemStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewMemStore() *MemStore {
	return &MemStore{creds: make(map[string]Credential)}
}

func (s *MemStore) Get(id provider.ProviderID, kind provider.CredentialKind) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[credKey(id, kind)]
	if !ok {
		return Credential{}, fmt.Errorf("%w: %s/%s", ErrNotFound, id, kind)
	}
	return cred, nil
}

func (s *MemStore) Put(cred Credential) error {
	if cred.ProviderID == "" || cred.Kind == "" {
		return fmt.Errorf("credstore: credential needs provider id and kind")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[credKey(cred.ProviderID, cred.Kind)] = cred
	return nil
}

func (s *MemStore) Delete(id provider.ProviderID, kind provider.CredentialKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, credKey(id, kind))
	return nil
}
