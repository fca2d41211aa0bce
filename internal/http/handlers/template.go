package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policyforge/policyforge-backend/internal/http/response"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/services"
)

type TemplateHandler struct {
	log             *logger.Logger
	templateService services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:             log.With("handler", "TemplateHandler"),
		templateService: templateService,
	}
}

type templateRequest struct {
	Name           string                       `json:"name" binding:"required"`
	Description    string                       `json:"description"`
	Category       string                       `json:"category"`
	DataSourceType string                       `json:"data_source_type"`
	Version        string                       `json:"version"`
	Rego           string                       `json:"rego" binding:"required"`
	Parameters     []services.TemplateParameter `json:"parameters"`
	Scanners       []string                     `json:"scanners"`
	CommitMessage  string                       `json:"commit_message"`
	Author         string                       `json:"author"`
}

func (r *templateRequest) toInput() services.TemplateInput {
	return services.TemplateInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		DataSourceType: r.DataSourceType,
		Version:        r.Version,
		Rego:           r.Rego,
		Parameters:     r.Parameters,
		Scanners:       r.Scanners,
		CommitMessage:  r.CommitMessage,
		Author:         r.Author,
	}
}

// POST /api/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	template, err := h.templateService.Create(c.Request.Context(), nil, req.toInput())
	if err != nil {
		h.log.Error("Create failed", "error", err)
		response.RespondServiceError(c, "create_template_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"template": template})
}

// GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, "list_templates_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"templates": templates})
}

// GET /api/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	template, err := h.templateService.Get(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondServiceError(c, "load_template_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"template": template})
}

// PUT /api/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	template, err := h.templateService.Update(c.Request.Context(), nil, id, req.toInput())
	if err != nil {
		h.log.Error("Update failed", "error", err, "template_id", id)
		response.RespondServiceError(c, "update_template_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"template": template})
}

// DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), nil, id); err != nil {
		h.log.Warn("Delete failed", "error", err, "template_id", id)
		response.RespondServiceError(c, "delete_template_failed", err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/templates/:id/versions
func (h *TemplateHandler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	versions, err := h.templateService.ListVersions(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondServiceError(c, "list_template_versions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

// GET /api/templates/:id/versions/:versionID
func (h *TemplateHandler) GetVersion(c *gin.Context) {
	id, versionID, ok := parseVersionParams(c)
	if !ok {
		return
	}
	version, err := h.templateService.GetVersion(c.Request.Context(), nil, id, versionID)
	if err != nil {
		response.RespondServiceError(c, "load_template_version_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

// GET /api/templates/:id/versions/:versionID/diff?compare_to=<uuid>
func (h *TemplateHandler) DiffVersion(c *gin.Context) {
	id, versionID, ok := parseVersionParams(c)
	if !ok {
		return
	}
	compareTo, ok := parseCompareTo(c)
	if !ok {
		return
	}
	diff, err := h.templateService.Diff(c.Request.Context(), nil, id, versionID, compareTo)
	if err != nil {
		response.RespondServiceError(c, "diff_template_version_failed", err)
		return
	}
	response.RespondOK(c, diff)
}

// POST /api/templates/:id/publish
func (h *TemplateHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	result, err := h.templateService.Publish(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Warn("Publish failed", "error", err, "template_id", id)
		response.RespondServiceError(c, "publish_template_failed", err)
		return
	}
	response.RespondOK(c, result)
}
