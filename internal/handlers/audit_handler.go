package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pocketledger/internal/pagination"
	"pocketledger/internal/services"
)

// AuditHandler exposes the caller's audit trail.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs returns the caller's audit entries newest first
// @Summary     List audit logs
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number" default(1)
// @Param       page_size query int false "Items per page (max 100)" default(20)
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Audit entries"
// @Failure     400 {object} ErrorResponse "Invalid pagination"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	logs, err := h.auditService.ListAuditLogs(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
