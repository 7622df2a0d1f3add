package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "cryptostock/internal/errors"
	"cryptostock/internal/logger"
	"cryptostock/internal/models"
	"cryptostock/internal/pagination"
)

// auditService keeps the mutation trail of holdings, trades and wallets.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log writes one audit entry. A failed write is logged and swallowed; the
// mutation it describes has already been committed.
func (s *auditService) Log(email, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		Email:        email,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("audit entry dropped",
			"error", err,
			"email", email,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}

// List returns a page of the user's audit trail, newest first.
func (s *auditService) List(email string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditLog{}).Where("email = ?", email)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func encodeChanges(changes map[string]interface{}) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return "{}"
	}
	return string(data)
}
