package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"field-report/internal/database"
	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewProjectHandler(db *gorm.DB, log *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{DB: db, Log: log}
}

// List handles GET /api/projects with optional status and category filters.
func (h *ProjectHandler) List(c *gin.Context) {
	dbq := h.DB.WithContext(c.Request.Context()).Order("project_number asc")

	if st := c.Query("status"); st != "" {
		dbq = dbq.Where("status = ?", st)
	}
	if cat := c.Query("category"); cat != "" {
		dbq = dbq.Where("category = ?", cat)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		h.Log.WithError(err).Error("list projects")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type projectRequest struct {
	ProjectNumber string `json:"project_number" binding:"required,max=50"`
	Name          string `json:"name" binding:"required,min=3,max=255"`
	Category      string `json:"category" binding:"max=100"`
	Status        string `json:"status"`
	ClientName    string `json:"client_name" binding:"max=255"`
	Manager       string `json:"manager" binding:"max=255"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project := models.Project{
		ProjectNumber: strings.TrimSpace(req.ProjectNumber),
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		Status:        models.ProjectPlanned,
		ClientName:    strings.TrimSpace(req.ClientName),
		Manager:       strings.TrimSpace(req.Manager),
	}
	if req.Status != "" {
		project.Status = models.ProjectStatus(req.Status)
		if !project.Status.Valid() {
			fieldError(c, "status", "unknown project status")
			return
		}
	}

	var ok bool
	if project.StartDate, ok = optionalDate(c, "start_date", req.StartDate); !ok {
		return
	}
	if project.EndDate, ok = optionalDate(c, "end_date", req.EndDate); !ok {
		return
	}
	if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
		fieldError(c, "end_date", "end date is before start date")
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID(c), "project", project.ID, "create",
			"created project "+project.ProjectNumber)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fieldError(c, "project_number", "project number already exists")
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("create project")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus handles POST /api/projects/:id/status.
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
	pid, err := strconv.Atoi(c.Param("id"))
	if err != nil || pid <= 0 {
		Error(c, http.StatusBadRequest, CodeBadRequest, "invalid project id")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	next := models.ProjectStatus(req.Status)
	if !next.Valid() {
		fieldError(c, "status", "unknown project status")
		return
	}

	var project models.Project
	if err := h.DB.First(&project, pid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Error(c, http.StatusNotFound, string(report.KindNotFound), "project not found")
			return
		}
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}

	var role models.UserRole
	if u := currentUser(c); u != nil {
		role = u.Role
	}
	if !canChangeProjectStatus(role, project.Status, next) {
		Error(c, http.StatusForbidden, CodeForbidden, "status change not allowed")
		return
	}

	if next == models.ProjectCompleted && project.EndDate == nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		project.EndDate = &today
	}
	project.Status = next

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID(c), "project", project.ID, "status_change",
			"status changed to "+string(next))
	})
	if err != nil {
		h.Log.WithError(err).Error("change project status")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// admins move projects freely, superintendents only run the site lifecycle
func canChangeProjectStatus(role models.UserRole, current, next models.ProjectStatus) bool {
	if current == next {
		return false
	}

	switch role {
	case models.RoleAdmin:
		return true

	case models.RoleSuperintendent:
		switch current {
		case models.ProjectPlanned:
			return next == models.ProjectInProgress
		case models.ProjectInProgress:
			return next == models.ProjectOnHold || next == models.ProjectCompleted
		case models.ProjectOnHold:
			return next == models.ProjectInProgress
		}
		return false

	default:
		return false
	}
}

func optionalDate(c *gin.Context, field, v string) (*time.Time, bool) {
	if v == "" {
		return nil, true
	}
	t, err := report.ParseDate(v)
	if err != nil {
		fail(c, nil, withField(err, field))
		return nil, false
	}
	return &t, true
}

func fieldError(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"code":    string(report.KindValidation),
		"field":   field,
		"message": msg,
	})
}
