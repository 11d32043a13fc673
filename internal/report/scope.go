package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"field-report/internal/models"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// Scope is a resolved project-day. Every engine operation takes one instead of
// raw identifiers.
type Scope struct {
	ProjectID  uint
	ReportDate time.Time
}

func NewScope(projectID uint, date time.Time) Scope {
	return Scope{ProjectID: projectID, ReportDate: day(date)}
}

func (s Scope) Date() string { return s.ReportDate.Format(DateLayout) }

func (s Scope) String() string { return fmt.Sprintf("project %d on %s", s.ProjectID, s.Date()) }

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalidDate("report_date", s)
	}
	return day(t), nil
}

// ContextResolver turns user-supplied project references and dates into a Scope.
type ContextResolver struct {
	db *gorm.DB
}

func NewContextResolver(db *gorm.DB) *ContextResolver {
	return &ContextResolver{db: db}
}

func (r *ContextResolver) Resolve(ctx context.Context, projectRef, dateStr string) (Scope, error) {
	project, err := r.Project(ctx, projectRef)
	if err != nil {
		return Scope{}, err
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		return Scope{}, err
	}
	return Scope{ProjectID: project.ID, ReportDate: date}, nil
}

// Project looks the reference up as a primary key first and falls back to the
// project number when it is not numeric or no such id exists.
func (r *ContextResolver) Project(ctx context.Context, projectRef string) (*models.Project, error) {
	ref := strings.TrimSpace(projectRef)
	if ref == "" {
		return nil, unknownProject(ref)
	}
	db := r.db.WithContext(ctx)

	var p models.Project
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		err := db.First(&p, uint(id)).Error
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storageError("load project", err)
		}
	}

	err := db.Where("project_number = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unknownProject(ref)
	}
	if err != nil {
		return nil, storageError("load project", err)
	}
	return &p, nil
}
