package disclosure

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vcdemo/internal/credential/models"
)

// ProofTag is a requested proof kind.
type ProofTag string

const (
	ProofAdult  ProofTag = "adult"
	ProofWealth ProofTag = "wealth"
	ProofKYC    ProofTag = "kyc"
)

// proofOrder is the fixed output order regardless of request order.
var proofOrder = []ProofTag{ProofAdult, ProofWealth, ProofKYC}

// Known reports whether the engine can generate this proof.
func (t ProofTag) Known() bool {
	return lo.Contains(proofOrder, t)
}

// Proof types as reported in the output.
const (
	TypeAgeVerification    = "AgeVerification"
	TypeWealthVerification = "WealthVerification"
	TypeKYCVerification    = "KYCVerification"
)

// Proof status values.
const (
	StatusVerified    = "verified"
	StatusNotVerified = "not verified"
)

// DefaultNetWorthThreshold applies when a wealth proof is requested without
// a positive threshold.
const DefaultNetWorthThreshold int64 = 500_000

// Proof is a mock zero-knowledge proof. The payload only encodes the boolean
// outcome; it is not a cryptographic construction.
type Proof struct {
	Type   string `json:"type"`
	Claim  string `json:"claim"`
	Status string `json:"status"`
	Proof  string `json:"proof"`
}

// Verified reports whether the proof status is verified.
func (p Proof) Verified() bool {
	return p.Status == StatusVerified
}

type proofPayload struct {
	Verified bool `json:"verified"`
}

// Encode returns base64 of {"verified":<v>}.
func Encode(verified bool) string {
	raw, _ := json.Marshal(proofPayload{Verified: verified}) //nolint:errchkjson // fixed struct
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode reverses Encode.
func Decode(payload string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false, fmt.Errorf("decode proof payload: %w", err)
	}
	var p proofPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, fmt.Errorf("decode proof payload: %w", err)
	}
	return p.Verified, nil
}

func newProof(proofType, claim string, verified bool) Proof {
	status := StatusNotVerified
	if verified {
		status = StatusVerified
	}
	return Proof{
		Type:   proofType,
		Claim:  claim,
		Status: status,
		Proof:  Encode(verified),
	}
}

// IsAdult applies the year-difference rule: older than 18 by year count, or
// exactly 18 with both current month and day at or past the birth month and
// day. It is stricter than calendar age when the current day of month is
// smaller than the birth day in a later month.
func IsAdult(dob, now time.Time) bool {
	age := now.Year() - dob.Year()
	if age > 18 {
		return true
	}
	return age == 18 && now.Month() >= dob.Month() && now.Day() >= dob.Day()
}

func adultProof(cred models.Credential, now time.Time) Proof {
	verified := false
	if dob, err := models.ParseDate(cred.DOB); err == nil {
		verified = IsAdult(dob, now.UTC())
	}
	return newProof(TypeAgeVerification, "Subject is over 18 years old", verified)
}

// WealthClaim renders the wealth claim with thousands separators.
func WealthClaim(threshold int64) string {
	return message.NewPrinter(language.English).Sprintf("Subject net worth exceeds $%d", threshold)
}

func wealthProof(cred models.Credential, threshold int64) Proof {
	return newProof(TypeWealthVerification, WealthClaim(threshold), cred.NetWorth >= threshold)
}

func kycProof(cred models.Credential) Proof {
	return newProof(TypeKYCVerification, "Subject has completed KYC verification", cred.KYCStatus == models.KYCVerified)
}
