package models

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	dErrors "vcdemo/pkg/domain-errors"
)

// KYCStatus is the outcome of the issuer's know-your-customer check.
type KYCStatus string

const (
	KYCVerified KYCStatus = "verified"
	KYCPending  KYCStatus = "pending"
	KYCRejected KYCStatus = "rejected"
)

// maxCredentialSuffix bounds the random part of a credential ID (inclusive).
const maxCredentialSuffix = 999_999_999

// CredentialIDPattern matches identifiers produced by NewCredentialID.
var CredentialIDPattern = regexp.MustCompile(`^VC-\d{4}-\d{1,9}$`)

// NewCredentialID generates an identifier of the form VC-<year>-<0..999999999>.
func NewCredentialID(now time.Time) string {
	return fmt.Sprintf("VC-%d-%d", now.UTC().Year(), rand.IntN(maxCredentialSuffix+1))
}

// Credential is the persisted credential record. JSON names are the wire and
// file format; nullable attributes are pointers and serialize as null.
type Credential struct {
	ID               int64     `json:"id"`
	CredentialID     string    `json:"credentialId"`
	FullName         string    `json:"fullName"`
	DOB              string    `json:"dob"`
	Nationality      string    `json:"nationality"`
	IDNumber         string    `json:"idNumber"`
	KYCStatus        KYCStatus `json:"kycStatus"`
	NetWorth         int64     `json:"netWorth"`
	Languages        []string  `json:"languages"`
	AdditionalInfo   *string   `json:"additionalInfo"`
	IssueDate        string    `json:"issueDate"`
	Revoked          bool      `json:"revoked"`
	RevocationDate   *string   `json:"revocationDate"`
	RevocationReason *string   `json:"revocationReason"`
}

// IssueRequest is the store input for a new credential: every attribute
// except the store-owned id and revocation fields. CredentialID and IssueDate
// must already be populated.
type IssueRequest struct {
	CredentialID   string
	FullName       string
	DOB            string
	Nationality    string
	IDNumber       string
	KYCStatus      KYCStatus
	NetWorth       int64
	Languages      []string
	AdditionalInfo *string
	IssueDate      string
}

// NewCredential builds the active record a store persists for req.
func NewCredential(id int64, req IssueRequest) Credential {
	var info *string
	if req.AdditionalInfo != nil && *req.AdditionalInfo != "" {
		v := *req.AdditionalInfo
		info = &v
	}
	return Credential{
		ID:             id,
		CredentialID:   req.CredentialID,
		FullName:       req.FullName,
		DOB:            req.DOB,
		Nationality:    req.Nationality,
		IDNumber:       req.IDNumber,
		KYCStatus:      req.KYCStatus,
		NetWorth:       req.NetWorth,
		Languages:      append([]string(nil), req.Languages...),
		AdditionalInfo: info,
		IssueDate:      req.IssueDate,
	}
}

// Revoke applies the one-way revocation transition. All three fields change
// together. A second call overwrites date and reason.
func (c *Credential) Revoke(date, reason string) {
	c.Revoked = true
	c.RevocationDate = &date
	c.RevocationReason = &reason
}

// Clone returns a deep copy so callers cannot mutate store-owned slices or pointers.
func (c Credential) Clone() Credential {
	out := c
	out.Languages = append([]string(nil), c.Languages...)
	out.AdditionalInfo = clonePtr(c.AdditionalInfo)
	out.RevocationDate = clonePtr(c.RevocationDate)
	out.RevocationReason = clonePtr(c.RevocationReason)
	return out
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate checks the record-level invariants.
func (c Credential) Validate() error {
	if c.NetWorth < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "netWorth must not be negative")
	}
	if !c.Revoked {
		if c.RevocationDate != nil || c.RevocationReason != nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "active credential carries revocation data")
		}
		return nil
	}
	if c.RevocationDate == nil || c.RevocationReason == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "revoked credential is missing revocation data")
	}
	// ISO dates compare correctly as strings.
	if *c.RevocationDate < c.IssueDate {
		return dErrors.New(dErrors.CodeInvariantViolation, "revocationDate precedes issueDate")
	}
	return nil
}

// Field returns the value of a disclosable attribute by its JSON name.
// The store-internal numeric id is not disclosable.
func (c Credential) Field(name string) (any, bool) {
	switch name {
	case "credentialId":
		return c.CredentialID, true
	case "fullName":
		return c.FullName, true
	case "dob":
		return c.DOB, true
	case "nationality":
		return c.Nationality, true
	case "idNumber":
		return c.IDNumber, true
	case "kycStatus":
		return c.KYCStatus, true
	case "netWorth":
		return c.NetWorth, true
	case "languages":
		return append([]string(nil), c.Languages...), true
	case "additionalInfo":
		return c.AdditionalInfo, true
	case "issueDate":
		return c.IssueDate, true
	case "revoked":
		return c.Revoked, true
	case "revocationDate":
		return c.RevocationDate, true
	case "revocationReason":
		return c.RevocationReason, true
	default:
		return nil, false
	}
}

// IsDisclosable reports whether name is a disclosable attribute.
func IsDisclosable(name string) bool {
	_, ok := Credential{}.Field(name)
	return ok
}

// Status projects the revocation view of the credential.
func (c Credential) Status() RevocationStatus {
	return RevocationStatus{
		IsRevoked:        c.Revoked,
		RevocationDate:   clonePtr(c.RevocationDate),
		RevocationReason: clonePtr(c.RevocationReason),
	}
}

// RevocationStatus is the tracker's view of a credential. Unknown credentials
// report IsRevoked=false with both optional fields absent.
type RevocationStatus struct {
	IsRevoked        bool    `json:"isRevoked"`
	RevocationDate   *string `json:"revocationDate,omitempty"`
	RevocationReason *string `json:"revocationReason,omitempty"`
}
