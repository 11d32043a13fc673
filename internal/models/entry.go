package models

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryLabor         Category = "labor"
	CategoryEquipment     Category = "equipment"
	CategoryMaterial      Category = "material"
	CategorySubcontractor Category = "subcontractor"
	CategoryWorkOrder     Category = "work_order"
	CategoryNote          Category = "note"
)

// Categories lists every tab of a daily report in display order.
var Categories = []Category{
	CategoryLabor,
	CategoryEquipment,
	CategoryMaterial,
	CategorySubcontractor,
	CategoryWorkOrder,
	CategoryNote,
}

// ParseCategory accepts the canonical names plus "work-order".
func ParseCategory(s string) (Category, error) {
	if s == "work-order" {
		return CategoryWorkOrder, nil
	}
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %s", s)
}

// CatalogKind reports which catalog backs the category. Notes have none.
func (c Category) CatalogKind() (CatalogKind, bool) {
	switch c {
	case CategoryLabor:
		return KindWorker, true
	case CategoryEquipment:
		return KindEquipment, true
	case CategoryMaterial:
		return KindMaterial, true
	case CategorySubcontractor:
		return KindSubcontractor, true
	case CategoryWorkOrder:
		return KindWorkOrder, true
	}
	return "", false
}

type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCommitted EntryStatus = "committed"
	EntryRejected  EntryStatus = "rejected"
)

func ParseEntryStatus(s string) (EntryStatus, error) {
	switch EntryStatus(s) {
	case EntryPending, EntryCommitted, EntryRejected:
		return EntryStatus(s), nil
	}
	return "", fmt.Errorf("unknown entry status: %s", s)
}

var entryTransitions = map[EntryStatus]map[EntryStatus]bool{
	EntryPending:   {EntryCommitted: true, EntryRejected: true},
	EntryCommitted: {},
	EntryRejected:  {},
}

func CanTransition(from, to EntryStatus) bool {
	return entryTransitions[from][to]
}

// Entry is one staged usage line of a daily report.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID  uint        `gorm:"not null;index:idx_entry_scope,priority:1" json:"project_id"`
	ReportDate time.Time   `gorm:"type:date;not null;index:idx_entry_scope,priority:2" json:"report_date"`
	Category   Category    `gorm:"type:varchar(20);not null;index:idx_entry_scope,priority:3" json:"category"`
	Status     EntryStatus `gorm:"type:varchar(20);not null;default:pending;index:idx_entry_scope,priority:4" json:"status"`

	CatalogEntityID *uint  `gorm:"index" json:"catalog_entity_id"`
	EntityName      string `gorm:"type:text" json:"entity_name"`

	Quantity float64 `gorm:"not null;default:0" json:"quantity"`

	ActivityCodeID *uint `json:"activity_code_id"`
	PaymentItemID  *uint `json:"payment_item_id"`
	WorkPackageID  *uint `json:"work_package_id"`

	Description     string     `gorm:"type:text" json:"description,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CreatedBy       *uint      `json:"created_by,omitempty"`
}

func (Entry) TableName() string { return "operational_entries" }

func (e Entry) IsPending() bool { return e.Status == EntryPending }
