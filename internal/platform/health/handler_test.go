package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HealthHandlerSuite struct {
	suite.Suite
	handler *Handler
	router  chi.Router
}

func TestHealthHandlerSuite(t *testing.T) {
	suite.Run(t, new(HealthHandlerSuite))
}

func (s *HealthHandlerSuite) SetupTest() {
	s.handler = New("test")
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *HealthHandlerSuite) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *HealthHandlerSuite) TestLiveness() {
	rec := s.get("/health/live")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"alive"}`, rec.Body.String())
}

func (s *HealthHandlerSuite) TestStatus() {
	rec := s.get("/health")
	s.Equal(http.StatusOK, rec.Code)

	var body StatusResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("healthy", body.Status)
	s.Equal("test", body.Environment)
	s.Equal(Version, body.Version)
}

func (s *HealthHandlerSuite) TestReadiness() {
	s.Run("all checks up", func() {
		s.handler.RegisterCheck("store", func(context.Context) error { return nil })
		rec := s.get("/health/ready")
		s.Equal(http.StatusOK, rec.Code)

		var body ReadinessResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("ready", body.Status)
		s.Equal("up", body.Checks["store"])
	})

	s.Run("failing check reports not ready", func() {
		s.handler.RegisterCheck("kafka", func(context.Context) error { return errors.New("no brokers") })
		rec := s.get("/health/ready")
		s.Equal(http.StatusServiceUnavailable, rec.Code)

		var body ReadinessResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("not_ready", body.Status)
		s.Equal("down: no brokers", body.Checks["kafka"])
		s.Equal("up", body.Checks["store"])
	})
}

func TestReadinessChecksReceiveDeadline(t *testing.T) {
	h := New("test")
	h.RegisterCheck("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if !ok {
			return errors.New("missing deadline")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deadline":"up"`)
}
