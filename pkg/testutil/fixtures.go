package testutil

import (
	"vcdemo/internal/credential/models"
)

// CredentialBuilder builds issuance requests with sensible defaults.
type CredentialBuilder struct {
	req models.IssueRequest
}

// NewCredentialBuilder starts from a verified, adult, wealthy holder.
func NewCredentialBuilder() *CredentialBuilder {
	return &CredentialBuilder{
		req: models.IssueRequest{
			CredentialID: "VC-2024-1",
			FullName:     "Jane Doe",
			DOB:          "1990-05-20",
			Nationality:  "United Kingdom",
			IDNumber:     "GB1234567",
			KYCStatus:    models.KYCVerified,
			NetWorth:     750000,
			Languages:    []string{"English"},
			IssueDate:    "2024-01-10",
		},
	}
}

func (b *CredentialBuilder) WithCredentialID(credentialID string) *CredentialBuilder {
	b.req.CredentialID = credentialID
	return b
}

func (b *CredentialBuilder) WithFullName(name string) *CredentialBuilder {
	b.req.FullName = name
	return b
}

func (b *CredentialBuilder) WithDOB(dob string) *CredentialBuilder {
	b.req.DOB = dob
	return b
}

func (b *CredentialBuilder) WithKYCStatus(status models.KYCStatus) *CredentialBuilder {
	b.req.KYCStatus = status
	return b
}

func (b *CredentialBuilder) WithNetWorth(netWorth int64) *CredentialBuilder {
	b.req.NetWorth = netWorth
	return b
}

func (b *CredentialBuilder) WithLanguages(languages ...string) *CredentialBuilder {
	b.req.Languages = languages
	return b
}

func (b *CredentialBuilder) WithAdditionalInfo(info string) *CredentialBuilder {
	b.req.AdditionalInfo = &info
	return b
}

func (b *CredentialBuilder) WithIssueDate(date string) *CredentialBuilder {
	b.req.IssueDate = date
	return b
}

// Build returns the issuance request.
func (b *CredentialBuilder) Build() models.IssueRequest {
	req := b.req
	req.Languages = append([]string(nil), b.req.Languages...)
	return req
}

// BuildCredential returns the stored form with internal id.
func (b *CredentialBuilder) BuildCredential(id int64) models.Credential {
	return models.NewCredential(id, b.Build())
}
