package models

import "gorm.io/gorm"

type CatalogKind string

const (
	KindWorker        CatalogKind = "worker"
	KindEquipment     CatalogKind = "equipment"
	KindMaterial      CatalogKind = "material"
	KindSubcontractor CatalogKind = "subcontractor"
	KindWorkOrder     CatalogKind = "work_order"
)

func (k CatalogKind) Valid() bool {
	switch k {
	case KindWorker, KindEquipment, KindMaterial, KindSubcontractor, KindWorkOrder:
		return true
	}
	return false
}

// CatalogEntity is a worker, equipment item, material, subcontractor or work
// order. ProjectID nil means the row is shared by every project.
type CatalogEntity struct {
	gorm.Model
	ProjectID *uint       `gorm:"uniqueIndex:idx_catalog_project_kind_name,priority:1" json:"project_id"`
	Kind      CatalogKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_catalog_project_kind_name,priority:2" json:"kind"`
	Name      string      `gorm:"size:255;not null;uniqueIndex:idx_catalog_project_kind_name,priority:3" json:"name"`
	Unit      string      `gorm:"size:50" json:"unit,omitempty"`
	AdHoc     bool        `gorm:"not null;default:false" json:"ad_hoc"` // created from a free-text name
}
