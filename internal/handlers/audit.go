package handlers

import (
	"net/http"
	"strconv"

	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

// List handles GET /api/audit?entity=&entity_id=&limit=.
func (h *AuditHandler) List(c *gin.Context) {
	dbq := h.DB.WithContext(c.Request.Context()).Order("id desc")

	if entity := c.Query("entity"); entity != "" {
		dbq = dbq.Where("entity = ?", entity)
	}
	if idStr := c.Query("entity_id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			fieldError(c, "entity_id", "invalid id")
			return
		}
		dbq = dbq.Where("entity_id = ?", id)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	var logs []models.AuditLog
	if err := dbq.Limit(limit).Find(&logs).Error; err != nil {
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
