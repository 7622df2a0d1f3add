package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/pagination"
	"cryptostock/internal/services"
)

// AuditHandler serves a user's mutation trail.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetAuditLog returns a page of the user's audit entries, newest first.
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	email, err := authorizeUser(c, c.Param("user"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.List(email, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
