package report

import (
	"context"
	"testing"

	"field-report/internal/models"
)

func TestAggregator_DayStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.agg.DayStatus(ctx, f.scope)
	if err != nil {
		t.Fatalf("DayStatus error = %v, want nil", err)
	}
	if st.Status != DayPending {
		t.Errorf("empty day = %s, want pending", st.Status)
	}

	f.labor(t, "J. Alvarez", 8)
	f.labor(t, "K. Osei", 7.5)

	tab, err := f.agg.CategoryStatus(ctx, f.scope, models.CategoryLabor)
	if err != nil || tab != TabInProgress {
		t.Errorf("CategoryStatus(labor) = %s, %v, want in_progress", tab, err)
	}

	cat := models.CategoryLabor
	if _, err := f.store.Confirm(ctx, f.scope, &cat, nil); err != nil {
		t.Fatalf("Confirm error = %v, want nil", err)
	}

	st, err = f.agg.DayStatus(ctx, f.scope)
	if err != nil {
		t.Fatalf("DayStatus error = %v, want nil", err)
	}
	if st.Status != DayInProgress {
		t.Errorf("day = %s, want in_progress", st.Status)
	}
	labor := st.Categories[0]
	if labor.Status != TabCompleted || labor.Committed != 2 || labor.Quantity.String() != "15.5" {
		t.Errorf("labor summary = %+v", labor)
	}
	if st.Tabs()[models.CategoryEquipment] != TabIncomplete {
		t.Errorf("equipment = %s, want incomplete", st.Tabs()[models.CategoryEquipment])
	}
}

func TestAggregator_DayCompletedWhenEveryTabCommitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code := Refs{ActivityCodeID: &f.projectCode.ID}
	for _, c := range models.Categories {
		d := Draft{Ref: ManualRef("line for " + string(c)), Quantity: qty(1), Refs: code}
		if _, err := f.store.Stage(ctx, f.scope, c, d, nil); err != nil {
			t.Fatalf("Stage(%s) error = %v, want nil", c, err)
		}
	}

	status, err := f.agg.DailyStatus(ctx, f.scope)
	if err != nil || status != DayInProgress {
		t.Fatalf("DailyStatus before confirm = %s, %v", status, err)
	}

	if _, err := f.store.Confirm(ctx, f.scope, nil, nil); err != nil {
		t.Fatalf("Confirm error = %v, want nil", err)
	}
	status, err = f.agg.DailyStatus(ctx, f.scope)
	if err != nil || status != DayCompleted {
		t.Errorf("DailyStatus after confirm = %s, %v, want completed", status, err)
	}
}

func TestAggregator_Calendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.labor(t, "J. Alvarez", 8)

	nextDay := NewScope(f.other.ID, mustDate(t, "2025-03-15"))
	if _, err := f.store.Stage(ctx, nextDay, models.CategoryNote, Draft{Ref: ManualRef("Mobilized")}, nil); err != nil {
		t.Fatalf("Stage error = %v, want nil", err)
	}
	if _, err := f.store.Confirm(ctx, nextDay, nil, nil); err != nil {
		t.Fatalf("Confirm error = %v, want nil", err)
	}

	cal, err := f.agg.Calendar(ctx, mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"))
	if err != nil {
		t.Fatalf("Calendar error = %v, want nil", err)
	}
	if got := cal["2025-03-14"]["24-401"]; got != DayInProgress {
		t.Errorf("2025-03-14 24-401 = %q, want in_progress", got)
	}
	if got := cal["2025-03-15"]["24-402"]; got != DayInProgress {
		t.Errorf("2025-03-15 24-402 = %q, want in_progress", got)
	}
	if len(cal) != 2 {
		t.Errorf("calendar days = %d, want 2", len(cal))
	}

	cal, err = f.agg.Calendar(ctx, mustDate(t, "2025-04-01"), mustDate(t, "2025-04-30"))
	if err != nil || len(cal) != 0 {
		t.Errorf("empty range = %v, %v", cal, err)
	}

	_, err = f.agg.Calendar(ctx, mustDate(t, "2025-03-31"), mustDate(t, "2025-03-01"))
	wantKind(t, err, KindInvalidDate)
}
