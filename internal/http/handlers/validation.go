package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/policyforge/policyforge-backend/internal/http/response"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/services"
)

type ValidationHandler struct {
	log               *logger.Logger
	validationService services.ValidationService
}

func NewValidationHandler(log *logger.Logger, validationService services.ValidationService) *ValidationHandler {
	return &ValidationHandler{
		log:               log.With("handler", "ValidationHandler"),
		validationService: validationService,
	}
}

// An empty rego string is accepted here; it comes back as an invalid
// result rather than a rejected request.
type validateRegoRequest struct {
	Rego string `json:"rego"`
}

type evaluateRegoRequest struct {
	Rego  string         `json:"rego"`
	Input map[string]any `json:"input"`
}

// POST /api/validation/rego
func (h *ValidationHandler) ValidateRego(c *gin.Context) {
	var req validateRegoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.validationService.ValidateRego(c.Request.Context(), req.Rego)
	if err != nil {
		response.RespondServiceError(c, "validate_rego_failed", err)
		return
	}
	response.RespondOK(c, result)
}

// POST /api/validation/rego/eval
func (h *ValidationHandler) EvaluateRego(c *gin.Context) {
	var req evaluateRegoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.validationService.EvaluateRego(c.Request.Context(), req.Rego, req.Input)
	if err != nil {
		h.log.Warn("EvaluateRego failed", "error", err)
		response.RespondServiceError(c, "evaluate_rego_failed", err)
		return
	}
	response.RespondOK(c, result)
}
