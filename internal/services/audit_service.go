package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"pocketledger/internal/logger"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
)

// Audit actions.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	// The entry outlives a client disconnect.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.FromContext(ctx).Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// ListAuditLogs returns a page of the user's audit entries, newest first.
func (s *auditService) ListAuditLogs(ctx context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page = page.Normalize()

	base := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError(err)
	}

	var entries []models.AuditLog
	if err := base.Order("created_at DESC").Order("id DESC").
		Scopes(page.Scope).
		Find(&entries).Error; err != nil {
		return nil, storeError(err)
	}

	result := pagination.NewPage(entries, page, totalItems)
	return &result, nil
}
