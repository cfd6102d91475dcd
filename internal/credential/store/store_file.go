package store

import (
	"context"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/storage/filedb"
)

// FileStore persists credentials as a JSON array in the data directory and
// draws ids from the shared counters file.
type FileStore struct {
	db *filedb.DB
}

// NewFileStore constructs a file-backed credential store on db.
func NewFileStore(db *filedb.DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) Create(ctx context.Context, req models.IssueRequest) (*models.Credential, error) {
	var created models.Credential
	err := s.db.Update(ctx, func(tx *filedb.Tx) error {
		creds, err := readCredentials(tx)
		if err != nil {
			return err
		}
		counters, err := tx.Counters()
		if err != nil {
			return err
		}

		created = models.NewCredential(counters.CredentialCurrentID, req)
		counters.CredentialCurrentID++

		// Counters first: a failed collection write then skips an id
		// instead of handing it out twice.
		if err := tx.WriteCounters(counters); err != nil {
			return err
		}
		return tx.WriteCollection(filedb.CredentialsFile, append(creds, created))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *FileStore) FindByID(ctx context.Context, id int64) (*models.Credential, error) {
	return s.find(ctx, func(c models.Credential) bool { return c.ID == id })
}

func (s *FileStore) FindByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error) {
	return s.find(ctx, func(c models.Credential) bool { return c.CredentialID == credentialID })
}

func (s *FileStore) find(ctx context.Context, match func(models.Credential) bool) (*models.Credential, error) {
	var found *models.Credential
	err := s.db.View(ctx, func(tx *filedb.Tx) error {
		creds, err := readCredentials(tx)
		if err != nil {
			return err
		}
		found, err = firstMatch(creds, match)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *FileStore) List(ctx context.Context) ([]*models.Credential, error) {
	var out []*models.Credential
	err := s.db.View(ctx, func(tx *filedb.Tx) error {
		creds, err := readCredentials(tx)
		if err != nil {
			return err
		}
		out = cloneAll(creds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileStore) Revoke(ctx context.Context, credentialID, reason, date string) (*models.Credential, error) {
	var revoked *models.Credential
	err := s.db.Update(ctx, func(tx *filedb.Tx) error {
		creds, err := readCredentials(tx)
		if err != nil {
			return err
		}
		revoked, err = revokeFirst(creds, credentialID, reason, date)
		if err != nil {
			return err
		}
		return tx.WriteCollection(filedb.CredentialsFile, creds)
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

func (s *FileStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func readCredentials(tx *filedb.Tx) ([]models.Credential, error) {
	creds := []models.Credential{}
	if err := tx.ReadCollection(filedb.CredentialsFile, &creds); err != nil {
		return nil, err
	}
	if creds == nil {
		creds = []models.Credential{}
	}
	return creds, nil
}
