package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/apierr"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/services"
)

type stubTemplateService struct {
	template *types.Template
	result   *services.PublishResult
	err      error
}

func (s *stubTemplateService) Create(context.Context, *gorm.DB, services.TemplateInput) (*types.Template, error) {
	return s.template, s.err
}

func (s *stubTemplateService) Update(context.Context, *gorm.DB, uuid.UUID, services.TemplateInput) (*types.Template, error) {
	return s.template, s.err
}

func (s *stubTemplateService) Get(context.Context, *gorm.DB, uuid.UUID) (*types.Template, error) {
	return s.template, s.err
}

func (s *stubTemplateService) List(context.Context, *gorm.DB) ([]*types.Template, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*types.Template{s.template}, nil
}

func (s *stubTemplateService) Delete(context.Context, *gorm.DB, uuid.UUID) error {
	return s.err
}

func (s *stubTemplateService) ListVersions(context.Context, *gorm.DB, uuid.UUID) ([]*types.TemplateVersion, error) {
	return nil, s.err
}

func (s *stubTemplateService) GetVersion(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*types.TemplateVersion, error) {
	return nil, s.err
}

func (s *stubTemplateService) Diff(context.Context, *gorm.DB, uuid.UUID, uuid.UUID, *uuid.UUID) (*services.VersionDiff, error) {
	return nil, s.err
}

func (s *stubTemplateService) Publish(context.Context, *gorm.DB, uuid.UUID) (*services.PublishResult, error) {
	return s.result, s.err
}

func newTestRouter(t *testing.T, svc services.TemplateService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	require.NoError(t, err)

	h := NewTemplateHandler(log, svc)
	r := gin.New()
	r.POST("/api/templates", h.Create)
	r.GET("/api/templates/:id", h.Get)
	r.DELETE("/api/templates/:id", h.Delete)
	r.POST("/api/templates/:id/publish", h.Publish)
	return r
}

func decodeEnvelope(t *testing.T, body string) map[string]map[string]any {
	t.Helper()
	var envelope map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	return envelope
}

func TestTemplateHandlerNotFoundMapsTo404(t *testing.T) {
	r := newTestRouter(t, &stubTemplateService{err: apierr.NotFound("template missing")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/templates/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w.Body.String())
	assert.Equal(t, "not_found", envelope["error"]["code"])
}

func TestTemplateHandlerConflictMapsTo409(t *testing.T) {
	r := newTestRouter(t, &stubTemplateService{err: apierr.Conflict("rules still attached")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/templates/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	envelope := decodeEnvelope(t, w.Body.String())
	assert.Equal(t, "conflict", envelope["error"]["code"])
}

func TestTemplateHandlerRemoteErrorMapsTo502(t *testing.T) {
	r := newTestRouter(t, &stubTemplateService{err: apierr.Remote(assert.AnError)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/templates/"+uuid.NewString()+"/publish", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	envelope := decodeEnvelope(t, w.Body.String())
	assert.Equal(t, "remote_error", envelope["error"]["code"])
}

func TestTemplateHandlerRejectsBadID(t *testing.T) {
	r := newTestRouter(t, &stubTemplateService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/templates/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w.Body.String())
	assert.Equal(t, "invalid_template_id", envelope["error"]["code"])
}

func TestTemplateHandlerRejectsMissingBodyFields(t *testing.T) {
	r := newTestRouter(t, &stubTemplateService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(`{"name":"no-rego"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w.Body.String())
	assert.Equal(t, "invalid_request_body", envelope["error"]["code"])
}

func TestTemplateHandlerCreateReturns201(t *testing.T) {
	template := &types.Template{ID: uuid.New(), Name: "prov-check", Status: types.StatusDraft}
	r := newTestRouter(t, &stubTemplateService{template: template})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(`{"name":"prov-check","rego":"package p"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]types.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, template.ID, body["template"].ID)
}
