package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"field-report/internal/cache"
	"field-report/internal/config"
	"field-report/internal/database"
	"field-report/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const moduleName = "report"

// Draft is one usage line to stage.
type Draft struct {
	Ref         EntityRef
	Quantity    *float64
	Refs        Refs
	Description string
}

// Patch changes a pending entry. Nil fields are left alone; a zero reference
// id clears the reference.
type Patch struct {
	Quantity       *float64
	ActivityCodeID *uint
	PaymentItemID  *uint
	WorkPackageID  *uint
	Description    *string
}

type ListFilter struct {
	Category *models.Category
	Status   *models.EntryStatus
}

type requirement struct {
	quantity     bool
	activityCode bool
	manualName   bool
}

var requirements = map[models.Category]requirement{
	models.CategoryLabor:         {quantity: true, activityCode: true},
	models.CategoryEquipment:     {quantity: true, activityCode: true},
	models.CategoryMaterial:      {quantity: true, activityCode: true},
	models.CategorySubcontractor: {quantity: true},
	models.CategoryWorkOrder:     {quantity: true, activityCode: true},
	models.CategoryNote:          {manualName: true},
}

// checkRequired reports every missing field at once, then malformed values.
func checkRequired(category models.Category, ref EntityRef, quantity *float64, refs Refs) error {
	req := requirements[category]

	var missing []string
	if req.manualName && ref.IsZero() {
		missing = append(missing, "manual_name")
	}
	if req.quantity && quantity == nil {
		missing = append(missing, "quantity")
	}
	if req.activityCode && refs.ActivityCodeID == nil {
		missing = append(missing, "activity_code_ref")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	if quantity != nil && *quantity < 0 {
		return invalidField("quantity", "must not be negative")
	}
	return nil
}

// Store persists operational entries and enforces the pending lifecycle.
type Store struct {
	db    *gorm.DB
	cache *cache.Store
	log   *logrus.Logger

	catalog CatalogResolver
	xref    CrossRefValidator
}

func NewStore(db *gorm.DB, c *cache.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{db: db, cache: c, log: log}
}

// Stage validates and inserts a single pending entry.
func (s *Store) Stage(ctx context.Context, scope Scope, category models.Category, d Draft, actor *uint) (*models.Entry, error) {
	entries, err := s.StageBatch(ctx, scope, category, []Draft{d}, actor)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// StageBatch stages every draft in one transaction. One bad line rejects the
// whole batch.
func (s *Store) StageBatch(ctx context.Context, scope Scope, category models.Category, drafts []Draft, actor *uint) ([]models.Entry, error) {
	if len(drafts) == 0 {
		return nil, missingFields("entries")
	}

	entries := make([]models.Entry, 0, len(drafts))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, d := range drafts {
			entry, err := s.stageOne(tx, scope, category, d, actor)
			if err != nil {
				if len(drafts) > 1 {
					return atLine(err, i)
				}
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("StageBatch", scope.String(), category, err)
	}

	s.invalidate(ctx, scope)
	return entries, nil
}

func (s *Store) stageOne(tx *gorm.DB, scope Scope, category models.Category, d Draft, actor *uint) (*models.Entry, error) {
	refs := d.Refs.normalized()
	if err := checkRequired(category, d.Ref, d.Quantity, refs); err != nil {
		return nil, err
	}

	entityID, name, err := s.catalog.Resolve(tx, category, scope.ProjectID, d.Ref)
	if err != nil {
		return nil, err
	}
	if err := s.xref.Validate(tx, scope.ProjectID, refs); err != nil {
		return nil, err
	}

	entry := models.Entry{
		ProjectID:       scope.ProjectID,
		ReportDate:      scope.ReportDate,
		Category:        category,
		Status:          models.EntryPending,
		CatalogEntityID: entityID,
		EntityName:      name,
		ActivityCodeID:  refs.ActivityCodeID,
		PaymentItemID:   refs.PaymentItemID,
		WorkPackageID:   refs.WorkPackageID,
		Description:     d.Description,
		CreatedBy:       actor,
	}
	if d.Quantity != nil {
		entry.Quantity = *d.Quantity
	}

	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	details := fmt.Sprintf("%s %q qty=%g on %s", category, name, entry.Quantity, scope.Date())
	if err := database.CreateAuditLog(tx, actor, "entry", entry.ID, "stage", details); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the scope's entries ordered by id. An empty filter returns all.
func (s *Store) List(ctx context.Context, scope Scope, filter ListFilter) ([]models.Entry, error) {
	q := s.db.WithContext(ctx).
		Where("project_id = ? AND report_date = ?", scope.ProjectID, scope.ReportDate)
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var entries []models.Entry
	if err := q.Order("id").Find(&entries).Error; err != nil {
		return nil, s.fail("List", scope.String(), filter, err)
	}
	return entries, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entryNotFound(id)
	}
	if err != nil {
		return nil, s.fail("Get", "load entry", id, err)
	}
	return &entry, nil
}

// Update applies the patch to a pending entry and re-validates it.
func (s *Store) Update(ctx context.Context, id uint, p Patch, actor *uint) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadPending(tx, id, &entry); err != nil {
			return err
		}

		if p.Quantity != nil {
			entry.Quantity = *p.Quantity
		}
		if p.ActivityCodeID != nil {
			entry.ActivityCodeID = p.ActivityCodeID
		}
		if p.PaymentItemID != nil {
			entry.PaymentItemID = p.PaymentItemID
		}
		if p.WorkPackageID != nil {
			entry.WorkPackageID = p.WorkPackageID
		}
		if p.Description != nil {
			entry.Description = *p.Description
		}

		refs := refsOf(&entry).normalized()
		entry.ActivityCodeID = refs.ActivityCodeID
		entry.PaymentItemID = refs.PaymentItemID
		entry.WorkPackageID = refs.WorkPackageID

		quantity := entry.Quantity
		if err := checkRequired(entry.Category, storedRef(&entry), &quantity, refs); err != nil {
			return err
		}
		if err := s.xref.Validate(tx, entry.ProjectID, refs); err != nil {
			return err
		}

		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("qty=%g", entry.Quantity)
		return database.CreateAuditLog(tx, actor, "entry", entry.ID, "update", details)
	})
	if err != nil {
		return nil, s.fail("Update", "update entry", id, err)
	}

	s.invalidate(ctx, NewScope(entry.ProjectID, entry.ReportDate))
	return &entry, nil
}

// Delete removes a pending entry.
func (s *Store) Delete(ctx context.Context, id uint, actor *uint) error {
	var entry models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadPending(tx, id, &entry); err != nil {
			return err
		}
		if err := tx.Delete(&models.Entry{}, entry.ID).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("%s %q", entry.Category, entry.EntityName)
		return database.CreateAuditLog(tx, actor, "entry", entry.ID, "delete", details)
	})
	if err != nil {
		return s.fail("Delete", "delete entry", id, err)
	}

	s.invalidate(ctx, NewScope(entry.ProjectID, entry.ReportDate))
	return nil
}

// loadPending reads the entry under a row lock and refuses anything that has
// left the pending state.
func loadPending(tx *gorm.DB, id uint, entry *models.Entry) error {
	err := forUpdate(tx).First(entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entryNotFound(id)
	}
	if err != nil {
		return err
	}
	if !entry.IsPending() {
		return immutableEntry(entry.ID, entry.Status)
	}
	return nil
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has it. SQLite
// serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func storedRef(e *models.Entry) EntityRef {
	if e.CatalogEntityID != nil {
		return CatalogRef(*e.CatalogEntityID)
	}
	return ManualRef(e.EntityName)
}

func atLine(err error, i int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Message = fmt.Sprintf("line %d: %s", i+1, e.Message)
	return &cp
}

// fail passes engine errors through and turns everything else into a logged
// StorageError.
func (s *Store) fail(funcName, where string, data any, err error) error {
	return failWith(s.log, funcName, where, data, err)
}

func failWith(log *logrus.Logger, funcName, where string, data any, err error) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindStorage {
			config.LogError(log, moduleName, funcName, where, data, err)
		}
		return e
	}
	config.LogError(log, moduleName, funcName, where, data, err)
	return storageError(where, err)
}

func (s *Store) invalidate(ctx context.Context, scope Scope) {
	if err := s.cache.Bump(ctx, cache.DayStatusGenKey(scope.ProjectID, scope.ReportDate)); err != nil {
		s.log.WithError(err).WithField("scope", scope.String()).Warn("status cache invalidation failed")
	}
}

func now() time.Time { return time.Now().UTC() }
