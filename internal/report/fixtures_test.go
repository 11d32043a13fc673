package report

import (
	"context"
	"testing"
	"time"

	"field-report/internal/database/dbtest"
	"field-report/internal/models"

	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store *Store
	agg   *Aggregator

	project models.Project
	other   models.Project
	scope   Scope

	globalCode  models.ActivityCode
	projectCode models.ActivityCode
	otherCode   models.ActivityCode
	payItem     models.PaymentItem
	cwp         models.WorkPackage
	otherCWP    models.WorkPackage
	excavator   models.CatalogEntity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:    db,
		store: NewStore(db, nil, nil),
		agg:   NewAggregator(db, nil, nil),
	}

	f.project = models.Project{ProjectNumber: "24-401", Name: "North Yard"}
	f.other = models.Project{ProjectNumber: "24-402", Name: "Pump Station"}
	mustCreate(t, db, &f.project)
	mustCreate(t, db, &f.other)

	f.globalCode = models.ActivityCode{Code: "01-100", Description: "Site prep"}
	f.projectCode = models.ActivityCode{ProjectID: &f.project.ID, Code: "03-300", Description: "Concrete"}
	f.otherCode = models.ActivityCode{ProjectID: &f.other.ID, Code: "03-300", Description: "Concrete"}
	mustCreate(t, db, &f.globalCode)
	mustCreate(t, db, &f.projectCode)
	mustCreate(t, db, &f.otherCode)

	f.payItem = models.PaymentItem{ProjectID: f.project.ID, PaymentCode: "P-10", ItemName: "Formwork", ActivityCodeID: &f.projectCode.ID}
	mustCreate(t, db, &f.payItem)

	f.cwp = models.WorkPackage{ProjectID: f.project.ID, Code: "CWP-1", Name: "Foundations"}
	f.otherCWP = models.WorkPackage{ProjectID: f.other.ID, Code: "CWP-1", Name: "Foundations"}
	mustCreate(t, db, &f.cwp)
	mustCreate(t, db, &f.otherCWP)

	f.excavator = models.CatalogEntity{Kind: models.KindEquipment, Name: "Excavator 320"}
	mustCreate(t, db, &f.excavator)

	f.scope = NewScope(f.project.ID, mustDate(t, "2025-03-14"))
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func qty(v float64) *float64 { return &v }

func uptr(v uint) *uint { return &v }

// labor stages a valid labor line for the given worker name.
func (f *fixture) labor(t *testing.T, name string, hours float64) *models.Entry {
	t.Helper()
	e, err := f.store.Stage(context.Background(), f.scope, models.CategoryLabor, Draft{
		Ref:      ManualRef(name),
		Quantity: qty(hours),
		Refs:     Refs{ActivityCodeID: &f.projectCode.ID},
	}, nil)
	if err != nil {
		t.Fatalf("Stage(labor %q) error = %v, want nil", name, err)
	}
	return e
}

func wantKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if got := KindOf(err); got != want {
		t.Fatalf("error = %v (kind %q), want kind %q", err, got, want)
	}
}
