package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/platform/opatool"
)

type stubValidationService struct {
	validation *opatool.ValidationResult
	evaluation *opatool.EvaluationResult
	err        error
	lastRego   string
}

func (s *stubValidationService) ValidateRego(_ context.Context, rego string) (*opatool.ValidationResult, error) {
	s.lastRego = rego
	return s.validation, s.err
}

func (s *stubValidationService) EvaluateRego(_ context.Context, rego string, _ map[string]any) (*opatool.EvaluationResult, error) {
	s.lastRego = rego
	return s.evaluation, s.err
}

func newValidationRouter(t *testing.T, svc *stubValidationService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	require.NoError(t, err)

	h := NewValidationHandler(log, svc)
	r := gin.New()
	r.POST("/api/validation/rego", h.ValidateRego)
	r.POST("/api/validation/rego/eval", h.EvaluateRego)
	return r
}

func TestValidationHandlerEmptyRegoReturnsInvalidResult(t *testing.T) {
	svc := &stubValidationService{
		validation: &opatool.ValidationResult{Errors: []string{"rego content is empty"}},
	}
	r := newValidationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/validation/rego", strings.NewReader(`{"rego":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", svc.lastRego)

	var body opatool.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.Contains(t, body.Errors, "rego content is empty")
}

func TestValidationHandlerValidRego(t *testing.T) {
	svc := &stubValidationService{validation: &opatool.ValidationResult{Valid: true}}
	r := newValidationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/validation/rego", strings.NewReader(`{"rego":"package p"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "package p", svc.lastRego)

	var body opatool.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Valid)
}

func TestValidationHandlerEvalPassesInput(t *testing.T) {
	svc := &stubValidationService{
		evaluation: &opatool.EvaluationResult{Result: map[string]any{"allow": true}},
	}
	r := newValidationRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/validation/rego/eval", strings.NewReader(`{"rego":"package p","input":{"x":1}}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body opatool.EvaluationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body.Result["allow"])
}
