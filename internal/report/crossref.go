package report

import (
	"field-report/internal/models"

	"gorm.io/gorm"
)

// Refs are the optional cross-references of an entry.
type Refs struct {
	ActivityCodeID *uint
	PaymentItemID  *uint
	WorkPackageID  *uint
}

// normalized treats zero ids as absent.
func (r Refs) normalized() Refs {
	clean := func(id *uint) *uint {
		if id == nil || *id == 0 {
			return nil
		}
		v := *id
		return &v
	}
	return Refs{
		ActivityCodeID: clean(r.ActivityCodeID),
		PaymentItemID:  clean(r.PaymentItemID),
		WorkPackageID:  clean(r.WorkPackageID),
	}
}

func refsOf(e *models.Entry) Refs {
	return Refs{
		ActivityCodeID: e.ActivityCodeID,
		PaymentItemID:  e.PaymentItemID,
		WorkPackageID:  e.WorkPackageID,
	}
}

// CrossRefValidator checks that every present reference belongs to the
// project. It only reads.
type CrossRefValidator struct{}

func (CrossRefValidator) Validate(tx *gorm.DB, projectID uint, refs Refs) error {
	refs = refs.normalized()

	if id := refs.ActivityCodeID; id != nil {
		ok, err := exists(tx, &models.ActivityCode{}, "id = ? AND (project_id IS NULL OR project_id = ?)", *id, projectID)
		if err != nil {
			return err
		}
		if !ok {
			return invalidCrossReference("activity_code_ref", *id)
		}
	}

	if id := refs.PaymentItemID; id != nil {
		var item models.PaymentItem
		err := tx.Where("id = ? AND project_id = ?", *id, projectID).Limit(1).Find(&item).Error
		if err != nil {
			return err
		}
		if item.ID == 0 {
			return invalidCrossReference("payment_item_ref", *id)
		}
		// a payment item bound to an activity code cannot be booked under another one
		if item.ActivityCodeID != nil && refs.ActivityCodeID != nil && *item.ActivityCodeID != *refs.ActivityCodeID {
			return &Error{
				Kind:    KindInvalidCrossReference,
				Field:   "payment_item_ref",
				ID:      *id,
				Message: "payment item belongs to a different activity code",
			}
		}
	}

	if id := refs.WorkPackageID; id != nil {
		ok, err := exists(tx, &models.WorkPackage{}, "id = ? AND project_id = ?", *id, projectID)
		if err != nil {
			return err
		}
		if !ok {
			return invalidCrossReference("work_package_ref", *id)
		}
	}
	return nil
}

func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
