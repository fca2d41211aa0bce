package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policyforge/policyforge-backend/internal/http/response"
)

func parseVersionParams(c *gin.Context) (id, versionID uuid.UUID, ok bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	versionID, err = uuid.Parse(c.Param("versionID"))
	if err != nil || versionID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return id, versionID, true
}

func parseCompareTo(c *gin.Context) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query("compare_to"))
	if raw == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_compare_to", err)
		return nil, false
	}
	return &parsed, true
}
