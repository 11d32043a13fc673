package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "planned"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCanceled   ProjectStatus = "canceled"
)

// Project is a construction site. ProjectNumber is the human reference
// ("24-401") used by field staff instead of the numeric id.
type Project struct {
	gorm.Model
	ProjectNumber string        `gorm:"size:50;uniqueIndex;not null" json:"project_number"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Category      string        `gorm:"size:100" json:"category"` // residential, commercial ...
	Status        ProjectStatus `gorm:"type:varchar(20);not null;default:planned" json:"status"`
	ClientName    string        `gorm:"size:255" json:"client_name"`
	Manager       string        `gorm:"size:255" json:"manager"`

	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanned, ProjectInProgress, ProjectCompleted, ProjectOnHold, ProjectCanceled:
		return true
	}
	return false
}
