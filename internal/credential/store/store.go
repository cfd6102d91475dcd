// Package store persists credentials. Every backend assigns sequential numeric
// ids, keeps insertion order, and resolves credentialId lookups to the first
// matching record.
package store

import (
	"context"

	"vcdemo/internal/credential/models"
)

// Store is the credential persistence contract. Implementations return
// sentinel.ErrNotFound (possibly wrapped) for missing records.
//
// Create does not check credentialId uniqueness; callers that need unique ids
// must generate them.
type Store interface {
	Create(ctx context.Context, req models.IssueRequest) (*models.Credential, error)
	FindByID(ctx context.Context, id int64) (*models.Credential, error)
	FindByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	// Revoke sets revoked, revocationDate and revocationReason together.
	// Revoking twice overwrites date and reason.
	Revoke(ctx context.Context, credentialID, reason, date string) (*models.Credential, error)
	Health(ctx context.Context) error
}
