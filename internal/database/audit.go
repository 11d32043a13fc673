package database

import (
	"field-report/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog writes an audit row on the given handle, usually the
// transaction that performed the change so both commit or neither does.
func CreateAuditLog(tx *gorm.DB, userID *uint, entity string, entityID uint, action, details string) error {
	if tx == nil {
		return nil
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return tx.Create(&record).Error
}
