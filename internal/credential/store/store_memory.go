package store

import (
	"context"
	"sync"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/sentinel"
)

// InMemoryStore keeps credentials in an insertion-ordered slice.
// It is safe for concurrent access but does not persist across restarts.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials []models.Credential
	nextID      int64
}

// NewInMemoryStore constructs an empty in-memory credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, req models.IssueRequest) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := models.NewCredential(s.nextID, req)
	s.nextID++
	s.credentials = append(s.credentials, cred)
	out := cred.Clone()
	return &out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return firstMatch(s.credentials, func(c models.Credential) bool { return c.ID == id })
}

func (s *InMemoryStore) FindByCredentialID(_ context.Context, credentialID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return firstMatch(s.credentials, func(c models.Credential) bool { return c.CredentialID == credentialID })
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.credentials), nil
}

func (s *InMemoryStore) Revoke(_ context.Context, credentialID, reason, date string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return revokeFirst(s.credentials, credentialID, reason, date)
}

func (s *InMemoryStore) Health(context.Context) error {
	return nil
}

// firstMatch returns a copy of the first record in insertion order satisfying match.
func firstMatch(creds []models.Credential, match func(models.Credential) bool) (*models.Credential, error) {
	for _, c := range creds {
		if match(c) {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// revokeFirst revokes the first record with credentialID in place.
func revokeFirst(creds []models.Credential, credentialID, reason, date string) (*models.Credential, error) {
	for i := range creds {
		if creds[i].CredentialID == credentialID {
			creds[i].Revoke(date, reason)
			out := creds[i].Clone()
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func cloneAll(creds []models.Credential) []*models.Credential {
	out := make([]*models.Credential, 0, len(creds))
	for _, c := range creds {
		clone := c.Clone()
		out = append(out, &clone)
	}
	return out
}
