// Package seeder populates a store with demo data.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"vcdemo/internal/credential/models"
	usermodels "vcdemo/internal/user/models"
	dErrors "vcdemo/pkg/domain-errors"
)

// DemoUsername and DemoPassword identify the seeded account.
const (
	DemoUsername = "demo"
	DemoPassword = "demo-password"
)

// UserService defines the user operations used for seeding.
type UserService interface {
	Register(ctx context.Context, username, password string) (*usermodels.User, error)
}

// CredentialService defines the credential operations used for seeding.
type CredentialService interface {
	Issue(ctx context.Context, req models.IssueRequest) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Revoke(ctx context.Context, credentialID, reason string) (*models.Credential, error)
}

type demoCredential struct {
	req          models.IssueRequest
	revokeReason string
}

var demoCredentials = []demoCredential{
	{req: models.IssueRequest{
		CredentialID: "VC-2024-100001",
		FullName:     "Sarah Johnson",
		DOB:          "1985-03-15",
		Nationality:  "United States",
		IDNumber:     "P1234567",
		KYCStatus:    models.KYCVerified,
		NetWorth:     750000,
		Languages:    []string{"English", "Spanish"},
		IssueDate:    "2024-01-10",
	}},
	{req: models.IssueRequest{
		CredentialID: "VC-2024-100002",
		FullName:     "Michael Chen",
		DOB:          "2008-11-02",
		Nationality:  "Canada",
		IDNumber:     "C7654321",
		KYCStatus:    models.KYCPending,
		NetWorth:     12000,
		Languages:    []string{"English", "Mandarin", "French"},
		IssueDate:    "2024-02-21",
	}},
	{req: models.IssueRequest{
		CredentialID:   "VC-2024-100003",
		FullName:       "Emma Wilson",
		DOB:            "1972-07-30",
		Nationality:    "United Kingdom",
		IDNumber:       "GB9988776",
		KYCStatus:      models.KYCRejected,
		NetWorth:       2400000,
		Languages:      []string{"English"},
		AdditionalInfo: ptr("Sanctions screening flagged a name match"),
		IssueDate:      "2024-03-05",
	}, revokeReason: "Identity document reported stolen"},
}

func ptr(s string) *string { return &s }

// Seeder populates stores with demo data.
type Seeder struct {
	users       UserService
	credentials CredentialService
	logger      *slog.Logger
}

// New creates a new seeder.
func New(users UserService, credentials CredentialService, logger *slog.Logger) *Seeder {
	return &Seeder{
		users:       users,
		credentials: credentials,
		logger:      logger,
	}
}

// SeedAll seeds the demo user and demo credentials. It is safe to run twice:
// an existing demo user is kept and credentials are only seeded into an
// empty store.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.InfoContext(ctx, "seeding demo data")

	if err := s.seedUser(ctx); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	seeded, err := s.seedCredentials(ctx)
	if err != nil {
		return fmt.Errorf("seed credentials: %w", err)
	}

	s.logger.InfoContext(ctx, "demo data seeded", "credentials", seeded)
	return nil
}

func (s *Seeder) seedUser(ctx context.Context) error {
	_, err := s.users.Register(ctx, DemoUsername, DemoPassword)
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		s.logger.InfoContext(ctx, "demo user already present", "username", DemoUsername)
		return nil
	}
	return err
}

func (s *Seeder) seedCredentials(ctx context.Context) (int, error) {
	existing, err := s.credentials.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.InfoContext(ctx, "credentials already present, skipping", "count", len(existing))
		return 0, nil
	}

	for _, demo := range demoCredentials {
		cred, err := s.credentials.Issue(ctx, demo.req)
		if err != nil {
			return 0, fmt.Errorf("issue %s: %w", demo.req.CredentialID, err)
		}
		if demo.revokeReason == "" {
			continue
		}
		if _, err := s.credentials.Revoke(ctx, cred.CredentialID, demo.revokeReason); err != nil {
			return 0, fmt.Errorf("revoke %s: %w", cred.CredentialID, err)
		}
	}
	return len(demoCredentials), nil
}
