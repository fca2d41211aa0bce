package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policyforge/policyforge-backend/internal/http/response"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/services"
)

type RuleHandler struct {
	log         *logger.Logger
	ruleService services.RuleService
}

func NewRuleHandler(log *logger.Logger, ruleService services.RuleService) *RuleHandler {
	return &RuleHandler{
		log:         log.With("handler", "RuleHandler"),
		ruleService: ruleService,
	}
}

type ruleRequest struct {
	TemplateID    uuid.UUID                `json:"template_id" binding:"required"`
	Name          string                   `json:"name" binding:"required"`
	Description   string                   `json:"description"`
	IsCustom      bool                     `json:"is_custom"`
	Version       string                   `json:"version"`
	Parameters    []services.RuleParameter `json:"parameters"`
	CommitMessage string                   `json:"commit_message"`
	Author        string                   `json:"author"`
}

func (r *ruleRequest) toInput() services.RuleInput {
	return services.RuleInput{
		TemplateID:    r.TemplateID,
		Name:          r.Name,
		Description:   r.Description,
		IsCustom:      r.IsCustom,
		Version:       r.Version,
		Parameters:    r.Parameters,
		CommitMessage: r.CommitMessage,
		Author:        r.Author,
	}
}

// POST /api/rules
func (h *RuleHandler) Create(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	rule, err := h.ruleService.Create(c.Request.Context(), nil, req.toInput())
	if err != nil {
		h.log.Error("Create failed", "error", err)
		response.RespondServiceError(c, "create_rule_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"rule": rule})
}

// GET /api/rules
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.ruleService.List(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, "list_rules_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rules": rules})
}

// GET /api/rules/:id
func (h *RuleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	rule, err := h.ruleService.Get(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondServiceError(c, "load_rule_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rule": rule})
}

// PUT /api/rules/:id
func (h *RuleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	rule, err := h.ruleService.Update(c.Request.Context(), nil, id, req.toInput())
	if err != nil {
		h.log.Error("Update failed", "error", err, "rule_id", id)
		response.RespondServiceError(c, "update_rule_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rule": rule})
}

// DELETE /api/rules/:id
func (h *RuleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	if err := h.ruleService.Delete(c.Request.Context(), nil, id); err != nil {
		h.log.Warn("Delete failed", "error", err, "rule_id", id)
		response.RespondServiceError(c, "delete_rule_failed", err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/rules/:id/versions
func (h *RuleHandler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	versions, err := h.ruleService.ListVersions(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondServiceError(c, "list_rule_versions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

// GET /api/rules/:id/versions/:versionID
func (h *RuleHandler) GetVersion(c *gin.Context) {
	id, versionID, ok := parseVersionParams(c)
	if !ok {
		return
	}
	version, err := h.ruleService.GetVersion(c.Request.Context(), nil, id, versionID)
	if err != nil {
		response.RespondServiceError(c, "load_rule_version_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

// GET /api/rules/:id/versions/:versionID/diff?compare_to=<uuid>
func (h *RuleHandler) DiffVersion(c *gin.Context) {
	id, versionID, ok := parseVersionParams(c)
	if !ok {
		return
	}
	compareTo, ok := parseCompareTo(c)
	if !ok {
		return
	}
	diff, err := h.ruleService.Diff(c.Request.Context(), nil, id, versionID, compareTo)
	if err != nil {
		response.RespondServiceError(c, "diff_rule_version_failed", err)
		return
	}
	response.RespondOK(c, diff)
}

// POST /api/rules/:id/publish
func (h *RuleHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	result, err := h.ruleService.Publish(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Warn("Publish failed", "error", err, "rule_id", id)
		response.RespondServiceError(c, "publish_rule_failed", err)
		return
	}
	response.RespondOK(c, result)
}
