package handlers

import (
	"net/http"

	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CatalogHandler feeds the entry form dropdowns.
type CatalogHandler struct {
	DB     *gorm.DB
	Scopes *report.ContextResolver
	Log    *logrus.Logger
}

func NewCatalogHandler(db *gorm.DB, scopes *report.ContextResolver, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{DB: db, Scopes: scopes, Log: log}
}

// projectID resolves the optional project_ref query. Zero means global only.
func (h *CatalogHandler) projectID(c *gin.Context) (uint, bool) {
	ref := c.Query("project_ref")
	if ref == "" {
		return 0, true
	}
	p, err := h.Scopes.Project(c.Request.Context(), ref)
	if err != nil {
		fail(c, h.Log, err)
		return 0, false
	}
	return p.ID, true
}

// List handles GET /api/catalog/:kind: global rows plus the project's own.
func (h *CatalogHandler) List(c *gin.Context) {
	kind := models.CatalogKind(c.Param("kind"))
	if !kind.Valid() {
		fieldError(c, "kind", "unknown catalog kind")
		return
	}
	pid, ok := h.projectID(c)
	if !ok {
		return
	}

	dbq := h.DB.WithContext(c.Request.Context()).Where("kind = ?", kind)
	if pid != 0 {
		dbq = dbq.Where("project_id IS NULL OR project_id = ?", pid)
	} else {
		dbq = dbq.Where("project_id IS NULL")
	}

	var items []models.CatalogEntity
	if err := dbq.Order("name asc").Find(&items).Error; err != nil {
		h.Log.WithError(err).Error("list catalog")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "items": items})
}

// References handles GET /api/references: activity codes, payment items and
// work packages usable by one project.
func (h *CatalogHandler) References(c *gin.Context) {
	if c.Query("project_ref") == "" {
		fieldError(c, "project_ref", "project_ref is required")
		return
	}
	pid, ok := h.projectID(c)
	if !ok {
		return
	}
	db := h.DB.WithContext(c.Request.Context())

	var codes []models.ActivityCode
	var items []models.PaymentItem
	var packages []models.WorkPackage

	err := db.Where("project_id IS NULL OR project_id = ?", pid).Order("code asc").Find(&codes).Error
	if err == nil {
		err = db.Where("project_id = ?", pid).Order("payment_code asc").Find(&items).Error
	}
	if err == nil {
		err = db.Where("project_id = ?", pid).Order("code asc").Find(&packages).Error
	}
	if err != nil {
		h.Log.WithError(err).Error("list references")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_codes": codes,
		"payment_items":  items,
		"work_packages":  packages,
	})
}
