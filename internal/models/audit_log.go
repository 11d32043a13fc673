package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID *uint `gorm:"index" json:"user_id"` // nil for anonymous callers

	Entity   string `gorm:"size:50;not null" json:"entity"` // "entry", "project", "catalog"
	EntityID uint   `json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "stage", "confirm", "reject" ...
	Details  string `gorm:"type:text" json:"details"`
}
