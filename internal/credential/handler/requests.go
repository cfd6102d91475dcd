package handler

import (
	"strings"

	"github.com/samber/lo"

	"vcdemo/internal/credential/disclosure"
	"vcdemo/internal/credential/models"
	"vcdemo/internal/credential/service"
	dErrors "vcdemo/pkg/domain-errors"
	pkgstrings "vcdemo/pkg/platform/strings"
	"vcdemo/pkg/validation"
)

// IssueCredentialRequest is the body of POST /api/credentials: every
// credential attribute except the store-owned id and revocation fields.
// credentialId and issueDate are optional and filled by the service.
type IssueCredentialRequest struct {
	CredentialID   string   `json:"credentialId" validate:"omitempty,max=64"`
	FullName       string   `json:"fullName" validate:"required,notblank,max=200"`
	DOB            string   `json:"dob" validate:"required,isodate"`
	Nationality    string   `json:"nationality" validate:"required,notblank,max=64"`
	IDNumber       string   `json:"idNumber" validate:"required,notblank,max=64"`
	KYCStatus      string   `json:"kycStatus" validate:"required,oneof=verified pending rejected"`
	NetWorth       *int64   `json:"netWorth" validate:"required,min=0"`
	Languages      []string `json:"languages" validate:"required,min=1,max=50,dive,required,max=64"`
	AdditionalInfo *string  `json:"additionalInfo" validate:"omitempty,max=2000"`
	IssueDate      string   `json:"issueDate" validate:"omitempty,isodate"`
}

// Normalize trims surrounding whitespace. Language order and duplicates are kept.
func (r *IssueCredentialRequest) Normalize() {
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.DOB = strings.TrimSpace(r.DOB)
	r.Nationality = strings.TrimSpace(r.Nationality)
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.KYCStatus = strings.TrimSpace(r.KYCStatus)
	r.IssueDate = strings.TrimSpace(r.IssueDate)
	r.Languages = pkgstrings.TrimAll(r.Languages)
}

func (r *IssueCredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.CredentialID != "" && !models.CredentialIDPattern.MatchString(r.CredentialID) {
		return dErrors.New(dErrors.CodeValidation, "Validation error: credentialId must match VC-<year>-<number>")
	}
	return nil
}

func (r *IssueCredentialRequest) toModel() models.IssueRequest {
	return models.IssueRequest{
		CredentialID:   r.CredentialID,
		FullName:       r.FullName,
		DOB:            r.DOB,
		Nationality:    r.Nationality,
		IDNumber:       r.IDNumber,
		KYCStatus:      models.KYCStatus(r.KYCStatus),
		NetWorth:       lo.FromPtr(r.NetWorth),
		Languages:      r.Languages,
		AdditionalInfo: r.AdditionalInfo,
		IssueDate:      r.IssueDate,
	}
}

// DisclosureRequest is the body of POST /api/verify-disclosure.
type DisclosureRequest struct {
	CredentialID      string   `json:"credentialId"`
	DisclosedFields   []string `json:"disclosedFields"`
	Proofs            []string `json:"proofs"`
	NetWorthThreshold *int64   `json:"netWorthThreshold"`
}

// Normalize trims the id and de-duplicates the field and proof lists.
// Unknown field names and proof tags are dropped here, so they never count
// against anything downstream.
func (r *DisclosureRequest) Normalize() {
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.DisclosedFields = lo.Filter(pkgstrings.DedupeAndTrim(r.DisclosedFields), func(name string, _ int) bool {
		return models.IsDisclosable(name)
	})
	r.Proofs = lo.Filter(pkgstrings.DedupeAndTrim(r.Proofs), func(tag string, _ int) bool {
		return disclosure.ProofTag(tag).Known()
	})
}

func (r *DisclosureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	// Phase 1: Size validation (fail fast on oversized input)
	if err := validation.CheckStringLength("credentialId", r.CredentialID, validation.MaxCredentialIDLength); err != nil {
		return err
	}

	// Phase 2: Required fields
	if r.CredentialID == "" {
		return dErrors.New(dErrors.CodeValidation, service.MsgCredentialIDRequired)
	}

	// Phase 3: Values
	if r.NetWorthThreshold != nil && *r.NetWorthThreshold < 0 {
		return dErrors.New(dErrors.CodeValidation, "netWorthThreshold must not be negative")
	}
	return nil
}

func (r *DisclosureRequest) toModel() disclosure.Request {
	return disclosure.Request{
		DisclosedFields: r.DisclosedFields,
		Proofs: lo.Map(r.Proofs, func(p string, _ int) disclosure.ProofTag {
			return disclosure.ProofTag(p)
		}),
		NetWorthThreshold: lo.FromPtr(r.NetWorthThreshold),
	}
}

// RevokeRequest is the body of POST /api/revoke.
type RevokeRequest struct {
	CredentialID string `json:"credentialId"`
	Reason       string `json:"reason"`
}

func (r *RevokeRequest) Normalize() {
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("credentialId", r.CredentialID, validation.MaxCredentialIDLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("reason", r.Reason, validation.MaxReasonLength); err != nil {
		return err
	}
	if r.CredentialID == "" {
		return dErrors.New(dErrors.CodeValidation, service.MsgCredentialIDRequired)
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, service.MsgReasonRequired)
	}
	return nil
}
