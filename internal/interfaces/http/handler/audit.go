package handler

import (
	"github.com/foodontracks/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the status audit trail to admins
type AuditHandler struct {
	BaseHandler
	queries *audit.QueryService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(queries *audit.QueryService) *AuditHandler {
	return &AuditHandler{queries: queries}
}

// List godoc
// @Summary      Status audit trail
// @Description  Transitions of one order or batch, oldest first
// @Tags         audit
// @Produce      json
// @Param        entityType path string true "Entity type" Enums(order, batch)
// @Param        id         path string true "Entity ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]audit.StatusAuditResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /audit/{entityType}/{id} [get]
func (h *AuditHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	records, err := h.queries.ListByEntity(c.Request.Context(), actor, c.Param("entityType"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
