package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"field-report/internal/database"
	"field-report/internal/models"

	"gorm.io/gorm"
)

// Confirm commits every pending entry of the scope, or of one category when
// category is set. Either all of them pass re-validation and move to
// committed, or nothing changes.
func (s *Store) Confirm(ctx context.Context, scope Scope, category *models.Category, actor *uint) (int, error) {
	var committed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := forUpdate(tx).
			Where("project_id = ? AND report_date = ? AND status = ?", scope.ProjectID, scope.ReportDate, models.EntryPending)
		if category != nil {
			q = q.Where("category = ?", *category)
		}

		var batch []models.Entry
		if err := q.Order("id").Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(batch))
		for i := range batch {
			if err := s.revalidate(tx, &batch[i]); err != nil {
				var e *Error
				if !errors.As(err, &e) || e.Kind == KindStorage {
					return err
				}
				return confirmationRejected(batch[i].ID, err)
			}
			ids = append(ids, batch[i].ID)
		}

		at := now()
		res := tx.Model(&models.Entry{}).
			Where("id IN ? AND status = ?", ids, models.EntryPending).
			Updates(map[string]any{
				"status":       models.EntryCommitted,
				"confirmed_at": at,
				"updated_at":   at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return &Error{
				Kind:    KindConfirmationRejected,
				Message: "entries changed while confirming, retry",
			}
		}

		details := fmt.Sprintf("%d entries on %s", len(ids), scope.Date())
		if category != nil {
			details = fmt.Sprintf("%s entries on %s: %d", *category, scope.Date(), len(ids))
		}
		for _, id := range ids {
			if err := database.CreateAuditLog(tx, actor, "entry", id, "confirm", details); err != nil {
				return err
			}
		}
		committed = len(ids)
		return nil
	})
	if err != nil {
		return 0, s.fail("Confirm", scope.String(), category, err)
	}

	if committed > 0 {
		s.invalidate(ctx, scope)
		s.log.WithField("scope", scope.String()).WithField("committed", committed).Info("entries confirmed")
	}
	return committed, nil
}

// revalidate repeats the staging checks against the current catalog and
// reference tables.
func (s *Store) revalidate(tx *gorm.DB, e *models.Entry) error {
	if _, hasCatalog := e.Category.CatalogKind(); hasCatalog {
		if e.CatalogEntityID == nil {
			return invalidReference("entry has no catalog entity")
		}
		ok, err := exists(tx, &models.CatalogEntity{}, "id = ?", *e.CatalogEntityID)
		if err != nil {
			return err
		}
		if !ok {
			return referenceNotFound(*e.CatalogEntityID)
		}
	}
	return s.xref.Validate(tx, e.ProjectID, refsOf(e))
}

// Reject moves one pending entry to rejected. Siblings are untouched.
func (s *Store) Reject(ctx context.Context, id uint, reason string, actor *uint) (*models.Entry, error) {
	reason = strings.TrimSpace(reason)

	var entry models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadPending(tx, id, &entry); err != nil {
			return err
		}
		if !models.CanTransition(entry.Status, models.EntryRejected) {
			return immutableEntry(entry.ID, entry.Status)
		}

		entry.Status = models.EntryRejected
		entry.RejectionReason = reason
		if err := tx.Model(&entry).Updates(map[string]any{
			"status":           entry.Status,
			"rejection_reason": reason,
			"updated_at":       now(),
		}).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actor, "entry", entry.ID, "reject", reason)
	})
	if err != nil {
		return nil, s.fail("Reject", "reject entry", id, err)
	}

	s.invalidate(ctx, NewScope(entry.ProjectID, entry.ReportDate))
	return &entry, nil
}
