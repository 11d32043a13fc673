package report

import (
	"context"
	"time"

	"field-report/internal/cache"
	"field-report/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TabStatus is the status of one category of a project-day.
type TabStatus string

const (
	TabIncomplete TabStatus = "incomplete"
	TabInProgress TabStatus = "in_progress"
	TabCompleted  TabStatus = "completed"
)

// DayReportStatus colors one project cell of the calendar.
type DayReportStatus string

const (
	DayPending    DayReportStatus = "pending"
	DayInProgress DayReportStatus = "in_progress"
	DayCompleted  DayReportStatus = "completed"
)

// maxCalendarDays bounds a calendar query.
const maxCalendarDays = 400

// CategoryStatusOf rolls entry statuses up to a tab status. Rejected entries
// are dropped before the rollup, so {committed, rejected} is completed and a
// tab holding only rejected entries is incomplete. A rejected line never
// blocks a tab and never counts as work done.
func CategoryStatusOf(statuses []models.EntryStatus) TabStatus {
	total, committed := 0, 0
	for _, st := range statuses {
		switch st {
		case models.EntryRejected:
			continue
		case models.EntryCommitted:
			committed++
		}
		total++
	}
	switch {
	case total == 0:
		return TabIncomplete
	case committed == total:
		return TabCompleted
	}
	return TabInProgress
}

// DailyStatusOf rolls tab statuses up over every category. A category missing
// from tabs is incomplete.
func DailyStatusOf(tabs map[models.Category]TabStatus) DayReportStatus {
	completed, inProgress := 0, 0
	for _, c := range models.Categories {
		switch tabs[c] {
		case TabCompleted:
			completed++
		case TabInProgress:
			inProgress++
		}
	}
	switch {
	case completed == len(models.Categories):
		return DayCompleted
	case inProgress > 0 || completed > 0:
		return DayInProgress
	}
	return DayPending
}

type CategorySummary struct {
	Category  models.Category `json:"category"`
	Status    TabStatus       `json:"status"`
	Pending   int             `json:"pending"`
	Committed int             `json:"committed"`
	Rejected  int             `json:"rejected"`
	// Quantity sums pending and committed lines.
	Quantity decimal.Decimal `json:"quantity"`
}

type DayStatus struct {
	ProjectID  uint              `json:"project_id"`
	ReportDate string            `json:"report_date"`
	Status     DayReportStatus   `json:"status"`
	Categories []CategorySummary `json:"categories"`
}

// Tabs returns the per-category statuses keyed by category.
func (d *DayStatus) Tabs() map[models.Category]TabStatus {
	tabs := make(map[models.Category]TabStatus, len(d.Categories))
	for _, c := range d.Categories {
		tabs[c.Category] = c.Status
	}
	return tabs
}

type statusRow struct {
	Category models.Category
	Status   models.EntryStatus
	Quantity float64
}

func summarize(scope Scope, rows []statusRow) *DayStatus {
	byCategory := make(map[models.Category][]statusRow, len(models.Categories))
	for _, r := range rows {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	out := &DayStatus{
		ProjectID:  scope.ProjectID,
		ReportDate: scope.Date(),
		Categories: make([]CategorySummary, 0, len(models.Categories)),
	}
	for _, c := range models.Categories {
		sum := CategorySummary{Category: c, Quantity: decimal.Zero}
		statuses := make([]models.EntryStatus, 0, len(byCategory[c]))
		for _, r := range byCategory[c] {
			statuses = append(statuses, r.Status)
			switch r.Status {
			case models.EntryPending:
				sum.Pending++
			case models.EntryCommitted:
				sum.Committed++
			case models.EntryRejected:
				sum.Rejected++
				continue
			}
			sum.Quantity = sum.Quantity.Add(decimal.NewFromFloat(r.Quantity))
		}
		sum.Status = CategoryStatusOf(statuses)
		out.Categories = append(out.Categories, sum)
	}
	out.Status = DailyStatusOf(out.Tabs())
	return out
}

// Aggregator derives tab and day statuses from the stored entries on every
// call. The Redis copy is advisory: every write bumps the project-day
// generation and readers only trust snapshots of the current one.
type Aggregator struct {
	db    *gorm.DB
	cache *cache.Store
	log   *logrus.Logger
}

func NewAggregator(db *gorm.DB, c *cache.Store, log *logrus.Logger) *Aggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{db: db, cache: c, log: log}
}

func (a *Aggregator) DayStatus(ctx context.Context, scope Scope) (*DayStatus, error) {
	// The generation is read before the SELECT, so a write that commits
	// in between moves readers to a new key and this snapshot is never served.
	useCache := a.cache.Enabled()
	gen, err := a.cache.Generation(ctx, cache.DayStatusGenKey(scope.ProjectID, scope.ReportDate))
	if err != nil {
		a.log.WithError(err).Warn("status cache generation read failed")
		useCache = false
	}
	key := cache.DayStatusKey(scope.ProjectID, scope.ReportDate, gen)

	if useCache {
		var cached DayStatus
		if found, err := a.cache.GetObject(ctx, key, &cached); err != nil {
			a.log.WithError(err).Warn("status cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	var rows []statusRow
	err = a.db.WithContext(ctx).
		Model(&models.Entry{}).
		Select("category, status, quantity").
		Where("project_id = ? AND report_date = ?", scope.ProjectID, scope.ReportDate).
		Find(&rows).Error
	if err != nil {
		return nil, failWith(a.log, "DayStatus", scope.String(), nil, err)
	}

	status := summarize(scope, rows)
	if useCache {
		if err := a.cache.SetObject(ctx, key, status); err != nil {
			a.log.WithError(err).Warn("status cache write failed")
		}
	}
	return status, nil
}

func (a *Aggregator) DailyStatus(ctx context.Context, scope Scope) (DayReportStatus, error) {
	st, err := a.DayStatus(ctx, scope)
	if err != nil {
		return "", err
	}
	return st.Status, nil
}

func (a *Aggregator) CategoryStatus(ctx context.Context, scope Scope, category models.Category) (TabStatus, error) {
	var statuses []models.EntryStatus
	err := a.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("project_id = ? AND report_date = ? AND category = ?", scope.ProjectID, scope.ReportDate, category).
		Pluck("status", &statuses).Error
	if err != nil {
		return "", failWith(a.log, "CategoryStatus", scope.String(), category, err)
	}
	return CategoryStatusOf(statuses), nil
}

type calendarRow struct {
	ProjectNumber string
	ReportDate    time.Time
	Category      models.Category
	Status        models.EntryStatus
}

// Calendar maps date -> project number -> daily status for every project-day
// between from and to (inclusive) that has entries.
func (a *Aggregator) Calendar(ctx context.Context, from, to time.Time) (map[string]map[string]DayReportStatus, error) {
	from, to = day(from), day(to)
	if to.Before(from) {
		return nil, &Error{Kind: KindInvalidDate, Field: "to", Message: "range ends before it starts"}
	}
	if to.Sub(from) > maxCalendarDays*24*time.Hour {
		return nil, &Error{Kind: KindInvalidDate, Field: "to", Message: "range is too long"}
	}

	var rows []calendarRow
	err := a.db.WithContext(ctx).
		Table("operational_entries AS e").
		Select("p.project_number, e.report_date, e.category, e.status").
		Joins("JOIN projects p ON p.id = e.project_id AND p.deleted_at IS NULL").
		Where("e.report_date >= ? AND e.report_date <= ?", from, to).
		Order("e.report_date, p.project_number").
		Scan(&rows).Error
	if err != nil {
		return nil, failWith(a.log, "Calendar", "load calendar rows", map[string]string{
			"from": from.Format(DateLayout), "to": to.Format(DateLayout),
		}, err)
	}

	type cell struct{ date, project string }
	statuses := make(map[cell]map[models.Category][]models.EntryStatus)
	for _, r := range rows {
		k := cell{date: r.ReportDate.UTC().Format(DateLayout), project: r.ProjectNumber}
		if statuses[k] == nil {
			statuses[k] = make(map[models.Category][]models.EntryStatus)
		}
		statuses[k][r.Category] = append(statuses[k][r.Category], r.Status)
	}

	out := make(map[string]map[string]DayReportStatus)
	for k, byCategory := range statuses {
		tabs := make(map[models.Category]TabStatus, len(byCategory))
		for c, sts := range byCategory {
			tabs[c] = CategoryStatusOf(sts)
		}
		if out[k.date] == nil {
			out[k.date] = make(map[string]DayReportStatus)
		}
		out[k.date][k.project] = DailyStatusOf(tabs)
	}
	return out, nil
}
