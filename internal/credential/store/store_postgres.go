package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/sentinel"
)

const credentialColumns = `id, credential_id, full_name, dob, nationality, id_number, kyc_status,
	net_worth, languages, additional_info, issue_date, revoked, revocation_date, revocation_reason`

// PostgresStore persists credentials in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req models.IssueRequest) (*models.Credential, error) {
	cred := models.NewCredential(0, req)
	languages, err := json.Marshal(cred.Languages)
	if err != nil {
		return nil, fmt.Errorf("marshal languages: %w", err)
	}

	query := `
		INSERT INTO credentials (credential_id, full_name, dob, nationality, id_number, kyc_status,
			net_worth, languages, additional_info, issue_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		cred.CredentialID,
		cred.FullName,
		cred.DOB,
		cred.Nationality,
		cred.IDNumber,
		string(cred.KYCStatus),
		cred.NetWorth,
		languages,
		nullString(cred.AdditionalInfo),
		cred.IssueDate,
	).Scan(&cred.ID)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return &cred, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by id: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) FindByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE credential_id = $1 ORDER BY id LIMIT 1`
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, credentialID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by credential id: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	out := []*models.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, credentialID, reason, date string) (*models.Credential, error) {
	query := `
		UPDATE credentials
		SET revoked = TRUE, revocation_date = $2, revocation_reason = $3
		WHERE id = (SELECT id FROM credentials WHERE credential_id = $1 ORDER BY id LIMIT 1)
		RETURNING ` + credentialColumns
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, credentialID, date, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("revoke credential: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type credentialRow interface {
	Scan(dest ...any) error
}

func scanCredential(row credentialRow) (*models.Credential, error) {
	var cred models.Credential
	var kycStatus string
	var languages []byte
	var additionalInfo, revocationDate, revocationReason sql.NullString
	err := row.Scan(
		&cred.ID,
		&cred.CredentialID,
		&cred.FullName,
		&cred.DOB,
		&cred.Nationality,
		&cred.IDNumber,
		&kycStatus,
		&cred.NetWorth,
		&languages,
		&additionalInfo,
		&cred.IssueDate,
		&cred.Revoked,
		&revocationDate,
		&revocationReason,
	)
	if err != nil {
		return nil, err
	}

	cred.KYCStatus = models.KYCStatus(kycStatus)
	if err := json.Unmarshal(languages, &cred.Languages); err != nil {
		return nil, fmt.Errorf("unmarshal languages: %w: %w", sentinel.ErrCorrupt, err)
	}
	cred.AdditionalInfo = stringPtr(additionalInfo)
	cred.RevocationDate = stringPtr(revocationDate)
	cred.RevocationReason = stringPtr(revocationReason)
	return &cred, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
