// Package disclosure projects a credential onto a requested subset of fields
// and attaches mock proofs about attributes that stay hidden.
package disclosure

import (
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"vcdemo/internal/credential/models"
	dErrors "vcdemo/pkg/domain-errors"
)

// Envelope constants. The signature is a static placeholder.
const (
	Issuer             = "https://demo-bank-authority.example"
	VerificationMethod = "https://demo-bank-authority.example/keys/1"
	SignatureType      = "Ed25519Signature2020"
	ProofPurpose       = "assertionMethod"
	PlaceholderJWS     = "eyJhbGciOiJFZERTQSIsImI2NCI6ZmFsc2UsImNyaXQiOlsiYjY0Il19..YtqjEYnFENT7fNW-COD0HAACxeuQxPKAmp4nIl8jYyUx_GZC-X1IaRMm5-Xv__YKRI6i_2cfCIFtkp1swkaYBw"

	createdLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	// Contexts are the JSON-LD contexts of every envelope.
	Contexts = []string{
		"https://www.w3.org/2018/credentials/v1",
		"https://www.w3.org/2018/credentials/examples/v1",
	}
	// Types are the envelope types of every envelope.
	Types = []string{"VerifiableCredential", "IdentityCredential"}

	whitespace = regexp.MustCompile(`\s+`)
)

// ErrCredentialRevoked is returned for disclosure against a revoked credential.
var ErrCredentialRevoked = dErrors.New(dErrors.CodeForbidden, "Cannot generate proof for a revoked credential")

// Request selects what to disclose. Unknown field names and proof tags are ignored.
type Request struct {
	DisclosedFields   []string
	Proofs            []ProofTag
	NetWorthThreshold int64
}

// Result is the selective disclosure output.
type Result struct {
	VerifiableCredential VerifiableCredential `json:"verifiableCredential"`
	ZeroKnowledgeProofs  []Proof              `json:"zeroKnowledgeProofs"`
}

// VerifiableCredential is the credential envelope.
type VerifiableCredential struct {
	Context           []string       `json:"@context"`
	ID                string         `json:"id"`
	Type              []string       `json:"type"`
	Issuer            string         `json:"issuer"`
	IssuanceDate      string         `json:"issuanceDate"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	Proof             EnvelopeProof  `json:"proof"`
}

// EnvelopeProof is the placeholder issuer signature block.
type EnvelopeProof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	JWS                string `json:"jws"`
}

// Engine builds selective disclosures. It holds no state.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Disclose builds the disclosure for cred at time now. A revoked credential is
// refused before any projection happens.
func (e *Engine) Disclose(cred models.Credential, req Request, now time.Time) (*Result, error) {
	if cred.Revoked {
		return nil, ErrCredentialRevoked
	}

	return &Result{
		VerifiableCredential: VerifiableCredential{
			Context:           append([]string(nil), Contexts...),
			ID:                cred.CredentialID,
			Type:              append([]string(nil), Types...),
			Issuer:            Issuer,
			IssuanceDate:      cred.IssueDate,
			CredentialSubject: project(cred, req.DisclosedFields),
			Proof: EnvelopeProof{
				Type:               SignatureType,
				Created:            now.UTC().Format(createdLayout),
				VerificationMethod: VerificationMethod,
				ProofPurpose:       ProofPurpose,
				JWS:                PlaceholderJWS,
			},
		},
		ZeroKnowledgeProofs: generateProofs(cred, req, now),
	}, nil
}

// SubjectDID derives the holder DID from the full name.
func SubjectDID(fullName string) string {
	return "did:example:" + whitespace.ReplaceAllString(strings.ToLower(fullName), ".")
}

func project(cred models.Credential, fields []string) map[string]any {
	subject := map[string]any{
		"id":           SubjectDID(cred.FullName),
		"credentialId": cred.CredentialID,
		"issueDate":    cred.IssueDate,
	}
	for _, name := range fields {
		if v, ok := cred.Field(name); ok {
			subject[name] = v
		}
	}
	return subject
}

func generateProofs(cred models.Credential, req Request, now time.Time) []Proof {
	ordered := lo.Filter(proofOrder, func(tag ProofTag, _ int) bool {
		return lo.Contains(req.Proofs, tag)
	})

	return lo.Map(ordered, func(tag ProofTag, _ int) Proof {
		switch tag {
		case ProofAdult:
			return adultProof(cred, now)
		case ProofWealth:
			threshold := req.NetWorthThreshold
			if threshold <= 0 {
				threshold = DefaultNetWorthThreshold
			}
			return wealthProof(cred, threshold)
		default:
			return kycProof(cred)
		}
	})
}
