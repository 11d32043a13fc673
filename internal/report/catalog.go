package report

import (
	"errors"

	"field-report/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogResolver maps an EntityRef to a catalog row, materializing ad-hoc
// names on first use.
type CatalogResolver struct{}

// Resolve returns the catalog id (nil for notes) and the display name to store
// on the entry. It must run on the caller's transaction.
func (CatalogResolver) Resolve(tx *gorm.DB, category models.Category, projectID uint, ref EntityRef) (*uint, string, error) {
	if ref.IsZero() {
		return nil, "", invalidReference("either a catalog id or a manual name is required")
	}

	kind, ok := category.CatalogKind()
	if !ok {
		if ref.IsCatalog() {
			return nil, "", invalidReference("notes take free text, not a catalog id")
		}
		return nil, ref.Name(), nil
	}

	if ref.IsCatalog() {
		var ent models.CatalogEntity
		err := tx.Where("id = ? AND kind = ? AND (project_id IS NULL OR project_id = ?)", ref.ID(), kind, projectID).
			First(&ent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", referenceNotFound(ref.ID())
		}
		if err != nil {
			return nil, "", err
		}
		return &ent.ID, ent.Name, nil
	}

	ent, err := findOrCreate(tx, kind, projectID, ref.Name())
	if err != nil {
		return nil, "", err
	}
	return &ent.ID, ent.Name, nil
}

func findOrCreate(tx *gorm.DB, kind models.CatalogKind, projectID uint, name string) (*models.CatalogEntity, error) {
	var ent models.CatalogEntity

	// project row first, including soft-deleted ones so the unique index never trips
	err := tx.Unscoped().
		Where("project_id = ? AND kind = ? AND name = ?", projectID, kind, name).
		First(&ent).Error
	switch {
	case err == nil:
		if ent.DeletedAt.Valid {
			if err := tx.Unscoped().Model(&ent).Update("deleted_at", nil).Error; err != nil {
				return nil, err
			}
			ent.DeletedAt = gorm.DeletedAt{}
		}
		return &ent, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	err = tx.Where("project_id IS NULL AND kind = ? AND name = ?", kind, name).First(&ent).Error
	if err == nil {
		return &ent, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pid := projectID
	ent = models.CatalogEntity{ProjectID: &pid, Kind: kind, Name: name, AdHoc: true}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ent).Error; err != nil {
		return nil, err
	}
	if ent.ID != 0 {
		return &ent, nil
	}

	// a concurrent stage inserted the same name first
	if err := tx.Unscoped().
		Where("project_id = ? AND kind = ? AND name = ?", projectID, kind, name).
		First(&ent).Error; err != nil {
		return nil, err
	}
	return &ent, nil
}
