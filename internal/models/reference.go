package models

import "gorm.io/gorm"

// ActivityCode with a nil ProjectID is a global code usable by every project.
type ActivityCode struct {
	gorm.Model
	ProjectID   *uint  `gorm:"index" json:"project_id"`
	Code        string `gorm:"size:50;not null;index" json:"code"`
	Description string `gorm:"size:255;not null" json:"description"`
	Unit        string `gorm:"size:50" json:"unit,omitempty"`
}

type PaymentItem struct {
	gorm.Model
	ProjectID      uint    `gorm:"not null;index" json:"project_id"`
	PaymentCode    string  `gorm:"size:50;not null;index" json:"payment_code"`
	ItemName       string  `gorm:"size:255;not null" json:"item_name"`
	ActivityCodeID *uint   `json:"activity_code_id,omitempty"`
	Unit           string  `gorm:"size:50" json:"unit,omitempty"`
	RatePerUnit    float64 `json:"rate_per_unit"`
}

// WorkPackage is a construction work package (CWP).
type WorkPackage struct {
	gorm.Model
	ProjectID   uint   `gorm:"not null;index" json:"project_id"`
	Code        string `gorm:"size:50;not null" json:"code"`
	Name        string `gorm:"size:255;not null" json:"name"`
	DefaultUnit string `gorm:"size:20" json:"default_unit,omitempty"`
}
