package credential

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/tidwall/gjson"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTRaw(path, body string) error
	GET(path string) error
	GetResponseField(path string) (gjson.Result, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Save(name, value string)
	Saved(name string) (string, bool)
}

const savedCredential = "credential"

// RegisterSteps registers credential lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &credentialSteps{tc: tc}

	// Issuance steps
	ctx.Step(`^I issue a credential with:$`, steps.issueCredentialWithTable)
	ctx.Step(`^a credential has been issued for "([^"]*)" born on "([^"]*)" with KYC status "([^"]*)" and net worth (\d+)$`, steps.credentialHasBeenIssued)
	ctx.Step(`^I POST to "([^"]*)" with body '([^']*)'$`, steps.postRawBody)

	// Retrieval steps
	ctx.Step(`^I fetch the credential$`, steps.fetchCredential)
	ctx.Step(`^I fetch the credential "([^"]*)"$`, steps.fetchCredentialByID)
	ctx.Step(`^I list credentials$`, steps.listCredentials)
	ctx.Step(`^the credential list should include the credential$`, steps.listShouldIncludeCredential)

	// Disclosure steps
	ctx.Step(`^I request a disclosure of fields "([^"]*)" with proofs "([^"]*)"$`, steps.requestDisclosure)
	ctx.Step(`^I request a wealth proof with threshold (\d+)$`, steps.requestWealthProof)
	ctx.Step(`^I request a disclosure for credential "([^"]*)"$`, steps.requestDisclosureFor)
	ctx.Step(`^the proof "([^"]*)" should have status "([^"]*)"$`, steps.proofShouldHaveStatus)
	ctx.Step(`^the proof "([^"]*)" should claim "([^"]*)"$`, steps.proofShouldClaim)
	ctx.Step(`^the proof types should be "([^"]*)"$`, steps.proofTypesShouldBe)
	ctx.Step(`^the disclosed subject should contain "([^"]*)"$`, steps.subjectShouldContain)
	ctx.Step(`^the disclosed subject should not contain "([^"]*)"$`, steps.subjectShouldNotContain)

	// Revocation steps
	ctx.Step(`^I revoke the credential with reason "([^"]*)"$`, steps.revokeCredential)
	ctx.Step(`^the credential has been revoked with reason "([^"]*)"$`, steps.credentialHasBeenRevoked)
	ctx.Step(`^I check the revocation status of the credential$`, steps.checkRevocationStatus)
	ctx.Step(`^I check the revocation status of "([^"]*)"$`, steps.checkRevocationStatusOf)
	ctx.Step(`^the response field "([^"]*)" should be today$`, steps.fieldShouldBeToday)
}

type credentialSteps struct {
	tc TestContext
}

func (s *credentialSteps) credentialID() (string, error) {
	id, ok := s.tc.Saved(savedCredential)
	if !ok {
		return "", fmt.Errorf("no credential issued in this scenario")
	}
	return id, nil
}

func (s *credentialSteps) issueCredentialWithTable(ctx context.Context, table *godog.Table) error {
	body := map[string]any{}
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected field | value rows")
		}
		field, value := row.Cells[0].Value, row.Cells[1].Value
		switch field {
		case "netWorth":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("netWorth: %w", err)
			}
			body[field] = n
		case "languages":
			body[field] = strings.Split(value, ",")
		default:
			body[field] = value
		}
	}
	return s.issue(body)
}

func (s *credentialSteps) credentialHasBeenIssued(ctx context.Context, fullName, dob, kyc string, netWorth int64) error {
	err := s.issue(map[string]any{
		"fullName":    fullName,
		"dob":         dob,
		"nationality": "United Kingdom",
		"idNumber":    "GB1234567",
		"kycStatus":   kyc,
		"netWorth":    netWorth,
		"languages":   []string{"English"},
	})
	if err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
		return fmt.Errorf("issue failed with %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *credentialSteps) issue(body map[string]any) error {
	if err := s.tc.POST("/api/credentials", body); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() == http.StatusCreated {
		id, err := s.tc.GetResponseField("credentialId")
		if err != nil {
			return err
		}
		s.tc.Save(savedCredential, id.String())
	}
	return nil
}

func (s *credentialSteps) postRawBody(ctx context.Context, path, body string) error {
	return s.tc.POSTRaw(path, body)
}

func (s *credentialSteps) fetchCredential(ctx context.Context) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	return s.fetchCredentialByID(ctx, id)
}

func (s *credentialSteps) fetchCredentialByID(ctx context.Context, id string) error {
	return s.tc.GET("/api/credentials/" + url.PathEscape(id))
}

func (s *credentialSteps) listCredentials(ctx context.Context) error {
	return s.tc.GET("/api/credentials")
}

func (s *credentialSteps) listShouldIncludeCredential(ctx context.Context) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	ids := gjson.GetBytes(s.tc.GetLastResponseBody(), "#.credentialId").Array()
	for _, v := range ids {
		if v.String() == id {
			return nil
		}
	}
	return fmt.Errorf("credential %s not listed", id)
}

func (s *credentialSteps) requestDisclosure(ctx context.Context, fields, proofs string) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	return s.tc.POST("/api/verify-disclosure", map[string]any{
		"credentialId":    id,
		"disclosedFields": splitList(fields),
		"proofs":          splitList(proofs),
	})
}

func (s *credentialSteps) requestWealthProof(ctx context.Context, threshold int64) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	return s.tc.POST("/api/verify-disclosure", map[string]any{
		"credentialId":      id,
		"proofs":            []string{"wealth"},
		"netWorthThreshold": threshold,
	})
}

func (s *credentialSteps) requestDisclosureFor(ctx context.Context, id string) error {
	return s.tc.POST("/api/verify-disclosure", map[string]any{
		"credentialId": id,
		"proofs":       []string{"adult"},
	})
}

func (s *credentialSteps) proof(proofType string) (gjson.Result, error) {
	p := gjson.GetBytes(s.tc.GetLastResponseBody(), fmt.Sprintf(`zeroKnowledgeProofs.#(type==%q)`, proofType))
	if !p.Exists() {
		return gjson.Result{}, fmt.Errorf("no %s proof in response: %s", proofType, s.tc.GetLastResponseBody())
	}
	return p, nil
}

func (s *credentialSteps) proofShouldHaveStatus(ctx context.Context, proofType, status string) error {
	p, err := s.proof(proofType)
	if err != nil {
		return err
	}
	if got := p.Get("status").String(); got != status {
		return fmt.Errorf("%s status: expected %q, got %q", proofType, status, got)
	}
	return nil
}

func (s *credentialSteps) proofShouldClaim(ctx context.Context, proofType, claim string) error {
	p, err := s.proof(proofType)
	if err != nil {
		return err
	}
	if got := p.Get("claim").String(); got != claim {
		return fmt.Errorf("%s claim: expected %q, got %q", proofType, claim, got)
	}
	return nil
}

func (s *credentialSteps) proofTypesShouldBe(ctx context.Context, expected string) error {
	var got []string
	for _, t := range gjson.GetBytes(s.tc.GetLastResponseBody(), "zeroKnowledgeProofs.#.type").Array() {
		got = append(got, t.String())
	}
	if strings.Join(got, ",") != strings.Join(splitList(expected), ",") {
		return fmt.Errorf("proof types: expected %s, got %v", expected, got)
	}
	return nil
}

func (s *credentialSteps) subjectShouldContain(ctx context.Context, fields string) error {
	for _, f := range splitList(fields) {
		if _, err := s.tc.GetResponseField("verifiableCredential.credentialSubject." + f); err != nil {
			return err
		}
	}
	return nil
}

func (s *credentialSteps) subjectShouldNotContain(ctx context.Context, fields string) error {
	for _, f := range splitList(fields) {
		if _, err := s.tc.GetResponseField("verifiableCredential.credentialSubject." + f); err == nil {
			return fmt.Errorf("subject unexpectedly discloses %s", f)
		}
	}
	return nil
}

func (s *credentialSteps) revokeCredential(ctx context.Context, reason string) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	return s.tc.POST("/api/revoke", map[string]any{"credentialId": id, "reason": reason})
}

func (s *credentialSteps) credentialHasBeenRevoked(ctx context.Context, reason string) error {
	if err := s.revokeCredential(ctx, reason); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("revoke failed with %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *credentialSteps) checkRevocationStatus(ctx context.Context) error {
	id, err := s.credentialID()
	if err != nil {
		return err
	}
	return s.checkRevocationStatusOf(ctx, id)
}

func (s *credentialSteps) checkRevocationStatusOf(ctx context.Context, id string) error {
	return s.tc.GET("/api/revocation-status/" + url.PathEscape(id))
}

func (s *credentialSteps) fieldShouldBeToday(ctx context.Context, field string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	today := time.Now().UTC().Format("2006-01-02")
	if value.String() != today {
		return fmt.Errorf("field %s: expected %s, got %s", field, today, value.String())
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
