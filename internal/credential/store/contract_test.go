package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/suite"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/sentinel"
)

// ContractSuite exercises the Store contract. Backend suites embed it and set
// newStore to return an empty store.
type ContractSuite struct {
	suite.Suite
	newStore func() Store
	store    Store
	ctx      context.Context
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func issueRequest(credentialID, fullName string) models.IssueRequest {
	return models.IssueRequest{
		CredentialID: credentialID,
		FullName:     fullName,
		DOB:          "1985-03-15",
		Nationality:  "United States",
		IDNumber:     "P1234567",
		KYCStatus:    models.KYCVerified,
		NetWorth:     750000,
		Languages:    []string{"English", "Spanish"},
		IssueDate:    "2024-01-10",
	}
}

func (s *ContractSuite) TestCreateAssignsSequentialIDs() {
	first, err := s.store.Create(s.ctx, issueRequest("VC-2024-1", "Sarah Johnson"))
	s.Require().NoError(err)
	second, err := s.store.Create(s.ctx, issueRequest("VC-2024-2", "Michael Chen"))
	s.Require().NoError(err)

	s.Equal(first.ID+1, second.ID)
	s.False(first.Revoked)
	s.Nil(first.RevocationDate)
	s.Nil(first.RevocationReason)
	s.Nil(first.AdditionalInfo)
	s.Equal([]string{"English", "Spanish"}, first.Languages)
}

func (s *ContractSuite) TestCreateKeepsAdditionalInfo() {
	req := issueRequest("VC-2024-3", "Emma Wilson")
	info := "Relationship manager: J. Doe"
	req.AdditionalInfo = &info

	created, err := s.store.Create(s.ctx, req)
	s.Require().NoError(err)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.AdditionalInfo)
	s.Equal(info, *found.AdditionalInfo)
}

func (s *ContractSuite) TestFindByIDAndCredentialID() {
	created, err := s.store.Create(s.ctx, issueRequest("VC-2024-10", "Sarah Johnson"))
	s.Require().NoError(err)

	byID, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, byID)

	byCredentialID, err := s.store.FindByCredentialID(s.ctx, "VC-2024-10")
	s.Require().NoError(err)
	s.Equal(created, byCredentialID)
}

func (s *ContractSuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByCredentialID(s.ctx, "VC-1999-0")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Revoke(s.ctx, "VC-1999-0", "reason", "2024-02-01")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ContractSuite) TestDuplicateCredentialIDResolvesToFirst() {
	first, err := s.store.Create(s.ctx, issueRequest("VC-2024-77", "First Holder"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, issueRequest("VC-2024-77", "Second Holder"))
	s.Require().NoError(err)

	found, err := s.store.FindByCredentialID(s.ctx, "VC-2024-77")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)

	revoked, err := s.store.Revoke(s.ctx, "VC-2024-77", "Duplicate", "2024-02-01")
	s.Require().NoError(err)
	s.Equal(first.ID, revoked.ID)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.True(all[0].Revoked)
	s.False(all[1].Revoked, "only the first match is revoked")
}

func (s *ContractSuite) TestListPreservesInsertionOrder() {
	empty, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	for i := range 5 {
		_, err := s.store.Create(s.ctx, issueRequest(fmt.Sprintf("VC-2024-%d", 100-i), "Holder"))
		s.Require().NoError(err)
	}

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 5)
	for i, c := range all {
		s.Equal(fmt.Sprintf("VC-2024-%d", 100-i), c.CredentialID)
		if i > 0 {
			s.Greater(c.ID, all[i-1].ID)
		}
	}
}

func (s *ContractSuite) TestRevoke() {
	_, err := s.store.Create(s.ctx, issueRequest("VC-2024-5", "Sarah Johnson"))
	s.Require().NoError(err)

	revoked, err := s.store.Revoke(s.ctx, "VC-2024-5", "Lost document", "2024-02-01")
	s.Require().NoError(err)
	s.True(revoked.Revoked)
	s.Equal("2024-02-01", *revoked.RevocationDate)
	s.Equal("Lost document", *revoked.RevocationReason)
	s.NoError(revoked.Validate())

	found, err := s.store.FindByCredentialID(s.ctx, "VC-2024-5")
	s.Require().NoError(err)
	s.Equal(revoked, found)

	again, err := s.store.Revoke(s.ctx, "VC-2024-5", "Fraud", "2024-03-01")
	s.Require().NoError(err)
	s.True(again.Revoked)
	s.Equal("2024-03-01", *again.RevocationDate)
	s.Equal("Fraud", *again.RevocationReason)
}

func (s *ContractSuite) TestReturnedRecordsAreCopies() {
	created, err := s.store.Create(s.ctx, issueRequest("VC-2024-8", "Sarah Johnson"))
	s.Require().NoError(err)
	created.Languages[0] = "Klingon"
	created.Revoked = true

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("English", found.Languages[0])
	s.False(found.Revoked)
}

func (s *ContractSuite) TestConcurrentCreatesGetDistinctIDs() {
	const workers = 10
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := s.store.Create(s.ctx, issueRequest(fmt.Sprintf("VC-2024-%d", i), "Holder"))
			if err == nil {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		s.False(seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	s.Len(seen, workers)
}

func (s *ContractSuite) TestHealth() {
	s.NoError(s.store.Health(s.ctx))
}
