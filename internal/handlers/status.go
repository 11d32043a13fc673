package handlers

import (
	"errors"
	"net/http"

	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StatusHandler struct {
	Scopes *report.ContextResolver
	Agg    *report.Aggregator
	Log    *logrus.Logger
}

func NewStatusHandler(scopes *report.ContextResolver, agg *report.Aggregator, log *logrus.Logger) *StatusHandler {
	return &StatusHandler{Scopes: scopes, Agg: agg, Log: log}
}

// Day handles GET /api/status/day.
func (h *StatusHandler) Day(c *gin.Context) {
	var q scopeFields
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	scope, err := h.Scopes.Resolve(c.Request.Context(), q.ProjectRef, q.ReportDate)
	if err != nil {
		fail(c, h.Log, err)
		return
	}

	st, err := h.Agg.DayStatus(c.Request.Context(), scope)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":  st.ProjectID,
		"report_date": st.ReportDate,
		"status":      st.Status,
		"tabs":        st.Tabs(),
		"categories":  st.Categories,
	})
}

type calendarQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Calendar handles GET /api/status/calendar.
func (h *StatusHandler) Calendar(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	from, err := report.ParseDate(q.From)
	if err != nil {
		fail(c, h.Log, withField(err, "from"))
		return
	}
	to, err := report.ParseDate(q.To)
	if err != nil {
		fail(c, h.Log, withField(err, "to"))
		return
	}

	days, err := h.Agg.Calendar(c.Request.Context(), from, to)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from": from.Format(report.DateLayout),
		"to":   to.Format(report.DateLayout),
		"days": days,
	})
}

func withField(err error, field string) error {
	var e *report.Error
	if errors.As(err, &e) {
		cp := *e
		cp.Field = field
		return &cp
	}
	return err
}
