// internal/handlers/audit.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GET /products/:id/history
func (h *AuditHandler) GetProductHistory(c *gin.Context) {
	entries, err := h.auditService.ListForResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, productResource)
		return
	}

	utils.SuccessResponse(c, entries)
}
