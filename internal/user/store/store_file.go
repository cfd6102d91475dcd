package store

import (
	"context"

	"vcdemo/internal/storage/filedb"
	"vcdemo/internal/user/models"
)

// FileStore persists users in the users collection of the data directory,
// sharing the counters file with the credential store.
type FileStore struct {
	db *filedb.DB
}

// NewFileStore constructs a file-backed user store on db.
func NewFileStore(db *filedb.DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) Create(ctx context.Context, u models.NewUser) (*models.User, error) {
	var created models.User
	err := s.db.Update(ctx, func(tx *filedb.Tx) error {
		users, err := readUsers(tx)
		if err != nil {
			return err
		}
		counters, err := tx.Counters()
		if err != nil {
			return err
		}

		created, err = appendUser(users, counters.UserCurrentID, u)
		if err != nil {
			return err
		}
		counters.UserCurrentID++

		// Counters first, as in the credential store.
		if err := tx.WriteCounters(counters); err != nil {
			return err
		}
		return tx.WriteCollection(filedb.UsersFile, append(users, created))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *FileStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.find(ctx, func(u models.User) bool { return u.ID == id })
}

func (s *FileStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(ctx, func(u models.User) bool { return u.Username == username })
}

func (s *FileStore) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	var found *models.User
	err := s.db.View(ctx, func(tx *filedb.Tx) error {
		users, err := readUsers(tx)
		if err != nil {
			return err
		}
		found, err = findUser(users, match)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func readUsers(tx *filedb.Tx) ([]models.User, error) {
	var users []models.User
	if err := tx.ReadCollection(filedb.UsersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}
