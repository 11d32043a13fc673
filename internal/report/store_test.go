package report

import (
	"context"
	"errors"
	"testing"

	"field-report/internal/models"
)

func TestStage_PendingAndListed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.labor(t, "J. Alvarez", 8)
	if e.Status != models.EntryPending {
		t.Errorf("Status = %s, want pending", e.Status)
	}
	if e.CatalogEntityID == nil || e.EntityName != "J. Alvarez" {
		t.Errorf("entity = %v %q", e.CatalogEntityID, e.EntityName)
	}

	list, err := f.store.List(ctx, f.scope, ListFilter{})
	if err != nil {
		t.Fatalf("List error = %v, want nil", err)
	}
	if len(list) != 1 || list[0].ID != e.ID {
		t.Fatalf("List = %+v, want entry %d", list, e.ID)
	}
	if !list[0].ReportDate.Equal(f.scope.ReportDate) {
		t.Errorf("ReportDate = %s, want %s", list[0].ReportDate, f.scope.ReportDate)
	}

	var audits int64
	f.db.Model(&models.AuditLog{}).Where("entity = ? AND entity_id = ? AND action = ?", "entry", e.ID, "stage").Count(&audits)
	if audits != 1 {
		t.Errorf("audit rows = %d, want 1", audits)
	}
}

func TestStage_MissingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Stage(ctx, f.scope, models.CategoryLabor, Draft{Ref: ManualRef("J. Alvarez")}, nil)
	wantKind(t, err, KindValidation)

	var e *Error
	errors.As(err, &e)
	if len(e.Fields) != 2 || e.Fields[0] != "quantity" || e.Fields[1] != "activity_code_ref" {
		t.Errorf("Fields = %v, want [quantity activity_code_ref]", e.Fields)
	}

	_, err = f.store.Stage(ctx, f.scope, models.CategoryNote, Draft{}, nil)
	wantKind(t, err, KindValidation)

	_, err = f.store.Stage(ctx, f.scope, models.CategorySubcontractor, Draft{
		Ref:      ManualRef("Acme Electric"),
		Quantity: qty(-1),
	}, nil)
	wantKind(t, err, KindValidation)

	// subcontractors need only a head count, and zero is allowed
	if _, err := f.store.Stage(ctx, f.scope, models.CategorySubcontractor, Draft{
		Ref:      ManualRef("Acme Electric"),
		Quantity: qty(0),
	}, nil); err != nil {
		t.Errorf("Stage(subcontractor) error = %v, want nil", err)
	}
}

func TestStage_AdHocNameIsIdempotent(t *testing.T) {
	f := newFixture(t)

	a := f.labor(t, "J. Alvarez", 8)
	b := f.labor(t, "  J. Alvarez ", 4)

	if a.CatalogEntityID == nil || b.CatalogEntityID == nil || *a.CatalogEntityID != *b.CatalogEntityID {
		t.Fatalf("catalog ids differ: %v vs %v", a.CatalogEntityID, b.CatalogEntityID)
	}

	var n int64
	f.db.Model(&models.CatalogEntity{}).Where("kind = ? AND name = ?", models.KindWorker, "J. Alvarez").Count(&n)
	if n != 1 {
		t.Errorf("catalog rows = %d, want 1", n)
	}

	var ent models.CatalogEntity
	f.db.First(&ent, *a.CatalogEntityID)
	if !ent.AdHoc || ent.ProjectID == nil || *ent.ProjectID != f.project.ID {
		t.Errorf("ad-hoc row = %+v", ent)
	}
}

func TestStage_AdHocRestoresDeletedRow(t *testing.T) {
	f := newFixture(t)

	a := f.labor(t, "J. Alvarez", 8)
	if err := f.db.Delete(&models.CatalogEntity{}, *a.CatalogEntityID).Error; err != nil {
		t.Fatalf("delete catalog row: %v", err)
	}

	b := f.labor(t, "J. Alvarez", 2)
	if *b.CatalogEntityID != *a.CatalogEntityID {
		t.Errorf("catalog id = %d, want restored %d", *b.CatalogEntityID, *a.CatalogEntityID)
	}
}

func TestStage_CatalogReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.store.Stage(ctx, f.scope, models.CategoryEquipment, Draft{
		Ref:      CatalogRef(f.excavator.ID),
		Quantity: qty(6),
		Refs:     Refs{ActivityCodeID: &f.globalCode.ID},
	}, nil)
	if err != nil {
		t.Fatalf("Stage(equipment) error = %v, want nil", err)
	}
	if *e.CatalogEntityID != f.excavator.ID || e.EntityName != "Excavator 320" {
		t.Errorf("entity = %d %q", *e.CatalogEntityID, e.EntityName)
	}

	// wrong kind
	_, err = f.store.Stage(ctx, f.scope, models.CategoryMaterial, Draft{
		Ref:      CatalogRef(f.excavator.ID),
		Quantity: qty(1),
		Refs:     Refs{ActivityCodeID: &f.globalCode.ID},
	}, nil)
	wantKind(t, err, KindReferenceNotFound)

	// missing row
	_, err = f.store.Stage(ctx, f.scope, models.CategoryEquipment, Draft{
		Ref:      CatalogRef(9999),
		Quantity: qty(1),
		Refs:     Refs{ActivityCodeID: &f.globalCode.ID},
	}, nil)
	wantKind(t, err, KindReferenceNotFound)

	// another project's equipment
	foreign := models.CatalogEntity{ProjectID: &f.other.ID, Kind: models.KindEquipment, Name: "Loader"}
	mustCreate(t, f.db, &foreign)
	_, err = f.store.Stage(ctx, f.scope, models.CategoryEquipment, Draft{
		Ref:      CatalogRef(foreign.ID),
		Quantity: qty(1),
		Refs:     Refs{ActivityCodeID: &f.globalCode.ID},
	}, nil)
	wantKind(t, err, KindReferenceNotFound)

	_, err = f.store.Stage(ctx, f.scope, models.CategoryNote, Draft{Ref: CatalogRef(f.excavator.ID)}, nil)
	wantKind(t, err, KindInvalidReference)
}

func TestStage_CrossReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := func(refs Refs) Draft {
		return Draft{Ref: ManualRef("Rebar #5"), Quantity: qty(40), Refs: refs}
	}

	if _, err := f.store.Stage(ctx, f.scope, models.CategoryMaterial, draft(Refs{
		ActivityCodeID: &f.projectCode.ID,
		PaymentItemID:  &f.payItem.ID,
		WorkPackageID:  &f.cwp.ID,
	}), nil); err != nil {
		t.Fatalf("Stage with valid refs error = %v, want nil", err)
	}

	cases := []struct {
		name  string
		refs  Refs
		field string
	}{
		{"foreign activity code", Refs{ActivityCodeID: &f.otherCode.ID}, "activity_code_ref"},
		{"missing activity code", Refs{ActivityCodeID: uptr(9999)}, "activity_code_ref"},
		{"foreign work package", Refs{ActivityCodeID: &f.projectCode.ID, WorkPackageID: &f.otherCWP.ID}, "work_package_ref"},
		{"missing payment item", Refs{ActivityCodeID: &f.projectCode.ID, PaymentItemID: uptr(9999)}, "payment_item_ref"},
		{"payment item under other code", Refs{ActivityCodeID: &f.globalCode.ID, PaymentItemID: &f.payItem.ID}, "payment_item_ref"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.store.Stage(ctx, f.scope, models.CategoryMaterial, draft(tc.refs), nil)
			wantKind(t, err, KindInvalidCrossReference)
			var e *Error
			errors.As(err, &e)
			if e.Field != tc.field {
				t.Errorf("Field = %q, want %q", e.Field, tc.field)
			}
		})
	}

	list, _ := f.store.List(ctx, f.scope, ListFilter{})
	if len(list) != 1 {
		t.Errorf("entries = %d, want only the valid one", len(list))
	}
}

func TestStageBatch_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	drafts := []Draft{
		{Ref: ManualRef("Crew A"), Quantity: qty(5)},
		{Ref: ManualRef("Crew B")},
	}
	_, err := f.store.StageBatch(ctx, f.scope, models.CategorySubcontractor, drafts, nil)
	wantKind(t, err, KindValidation)

	list, _ := f.store.List(ctx, f.scope, ListFilter{})
	if len(list) != 0 {
		t.Fatalf("entries after failed batch = %d, want 0", len(list))
	}
	var n int64
	f.db.Model(&models.CatalogEntity{}).Where("name = ?", "Crew A").Count(&n)
	if n != 0 {
		t.Errorf("catalog rows after failed batch = %d, want 0", n)
	}

	drafts[1].Quantity = qty(3)
	entries, err := f.store.StageBatch(ctx, f.scope, models.CategorySubcontractor, drafts, nil)
	if err != nil || len(entries) != 2 {
		t.Fatalf("StageBatch = %d entries, %v", len(entries), err)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.labor(t, "J. Alvarez", 8)
	note, err := f.store.Stage(ctx, f.scope, models.CategoryNote, Draft{Ref: ManualRef("Rain after 2pm")}, nil)
	if err != nil {
		t.Fatalf("Stage(note) error = %v, want nil", err)
	}
	if note.CatalogEntityID != nil {
		t.Errorf("note has catalog id %d", *note.CatalogEntityID)
	}
	if _, err := f.store.Reject(ctx, note.ID, "duplicate", nil); err != nil {
		t.Fatalf("Reject error = %v, want nil", err)
	}

	cat := models.CategoryNote
	list, _ := f.store.List(ctx, f.scope, ListFilter{Category: &cat})
	if len(list) != 1 || list[0].ID != note.ID {
		t.Errorf("category filter = %+v", list)
	}

	pending := models.EntryPending
	list, _ = f.store.List(ctx, f.scope, ListFilter{Status: &pending})
	if len(list) != 1 || list[0].Category != models.CategoryLabor {
		t.Errorf("status filter = %+v", list)
	}

	otherDay := NewScope(f.project.ID, mustDate(t, "2025-03-15"))
	list, _ = f.store.List(ctx, otherDay, ListFilter{})
	if len(list) != 0 {
		t.Errorf("other day = %d entries, want 0", len(list))
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.labor(t, "J. Alvarez", 8)

	updated, err := f.store.Update(ctx, e.ID, Patch{Quantity: qty(9.5), WorkPackageID: &f.cwp.ID}, nil)
	if err != nil {
		t.Fatalf("Update error = %v, want nil", err)
	}
	if updated.ID != e.ID || updated.Status != models.EntryPending {
		t.Errorf("Update changed identity: %+v", updated)
	}

	list, _ := f.store.List(ctx, f.scope, ListFilter{})
	if len(list) != 1 || list[0].Quantity != 9.5 || list[0].ID != e.ID || list[0].Status != models.EntryPending {
		t.Fatalf("List after update = %+v", list)
	}
	if list[0].WorkPackageID == nil || *list[0].WorkPackageID != f.cwp.ID {
		t.Errorf("WorkPackageID = %v, want %d", list[0].WorkPackageID, f.cwp.ID)
	}

	// zero clears an optional reference
	cleared, err := f.store.Update(ctx, e.ID, Patch{WorkPackageID: uptr(0)}, nil)
	if err != nil || cleared.WorkPackageID != nil {
		t.Errorf("clear work package = %v, %v", cleared, err)
	}
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.labor(t, "J. Alvarez", 8)

	_, err := f.store.Update(ctx, e.ID, Patch{ActivityCodeID: uptr(0)}, nil)
	wantKind(t, err, KindValidation)

	_, err = f.store.Update(ctx, e.ID, Patch{Quantity: qty(-2)}, nil)
	wantKind(t, err, KindValidation)

	_, err = f.store.Update(ctx, e.ID, Patch{ActivityCodeID: &f.otherCode.ID}, nil)
	wantKind(t, err, KindInvalidCrossReference)

	_, err = f.store.Update(ctx, 9999, Patch{Quantity: qty(1)}, nil)
	wantKind(t, err, KindNotFound)

	got, _ := f.store.Get(ctx, e.ID)
	if got.Quantity != 8 {
		t.Errorf("Quantity after failed updates = %g, want 8", got.Quantity)
	}
}

func TestDelete_Pending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.labor(t, "J. Alvarez", 8)

	if err := f.store.Delete(ctx, e.ID, nil); err != nil {
		t.Fatalf("Delete error = %v, want nil", err)
	}
	_, err := f.store.Get(ctx, e.ID)
	wantKind(t, err, KindNotFound)

	err = f.store.Delete(ctx, e.ID, nil)
	wantKind(t, err, KindNotFound)
}

func TestNonPendingEntriesAreImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	committed := f.labor(t, "J. Alvarez", 8)
	if _, err := f.store.Confirm(ctx, f.scope, nil, nil); err != nil {
		t.Fatalf("Confirm error = %v, want nil", err)
	}
	rejected := f.labor(t, "K. Osei", 4)
	if _, err := f.store.Reject(ctx, rejected.ID, "wrong day", nil); err != nil {
		t.Fatalf("Reject error = %v, want nil", err)
	}

	for _, e := range []*models.Entry{committed, rejected} {
		_, err := f.store.Update(ctx, e.ID, Patch{Quantity: qty(1)}, nil)
		wantKind(t, err, KindImmutableEntry)
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("errors.Is(err, ErrImmutable) = false for %v", err)
		}

		wantKind(t, f.store.Delete(ctx, e.ID, nil), KindImmutableEntry)

		_, err = f.store.Reject(ctx, e.ID, "again", nil)
		wantKind(t, err, KindImmutableEntry)
	}
}
