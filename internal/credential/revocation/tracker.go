// Package revocation answers whether a credential has been revoked.
package revocation

import (
	"context"
	"errors"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/sentinel"
)

// CredentialFinder is the store capability the tracker needs.
type CredentialFinder interface {
	FindByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error)
}

// Tracker reports revocation status from the credential store.
type Tracker struct {
	store CredentialFinder
}

// NewTracker constructs a tracker over store.
func NewTracker(store CredentialFinder) *Tracker {
	return &Tracker{store: store}
}

// CheckStatus returns the revocation status of credentialID. An unknown
// credential is reported as not revoked with no error.
func (t *Tracker) CheckStatus(ctx context.Context, credentialID string) (models.RevocationStatus, error) {
	cred, err := t.store.FindByCredentialID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.RevocationStatus{IsRevoked: false}, nil
		}
		return models.RevocationStatus{}, err
	}
	return cred.Status(), nil
}
