package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

type EntryHandler struct {
	Scopes *report.ContextResolver
	Store  *report.Store
	Log    *logrus.Logger
}

func NewEntryHandler(scopes *report.ContextResolver, store *report.Store, log *logrus.Logger) *EntryHandler {
	return &EntryHandler{Scopes: scopes, Store: store, Log: log}
}

type scopeFields struct {
	ProjectRef string `json:"project_ref" form:"project_ref" binding:"required"`
	ReportDate string `json:"report_date" form:"report_date" binding:"required"`
}

// line is a category-specific request row.
type line interface {
	draft() (report.Draft, error)
}

type refFields struct {
	EntityRef       *uint  `json:"entity_ref"`
	ManualName      string `json:"manual_name" binding:"max=255"`
	ActivityCodeRef *uint  `json:"activity_code_ref"`
	PaymentItemRef  *uint  `json:"payment_item_ref"`
	WorkPackageRef  *uint  `json:"work_package_ref"`
	Description     string `json:"description" binding:"max=2000"`
}

func (f refFields) draft(quantity *float64) (report.Draft, error) {
	ref, err := report.NewEntityRef(f.EntityRef, f.ManualName)
	if err != nil {
		return report.Draft{}, err
	}
	return report.Draft{
		Ref:      ref,
		Quantity: quantity,
		Refs: report.Refs{
			ActivityCodeID: f.ActivityCodeRef,
			PaymentItemID:  f.PaymentItemRef,
			WorkPackageID:  f.WorkPackageRef,
		},
		Description: f.Description,
	}, nil
}

// hours worked by one worker
type laborLine struct {
	refFields
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0,lte=24"`
}

func (l *laborLine) draft() (report.Draft, error) { return l.refFields.draft(l.Quantity) }

// machine hours
type equipmentLine struct {
	refFields
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0,lte=24"`
}

func (l *equipmentLine) draft() (report.Draft, error) { return l.refFields.draft(l.Quantity) }

type materialLine struct {
	refFields
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0"`
}

func (l *materialLine) draft() (report.Draft, error) { return l.refFields.draft(l.Quantity) }

// employees on site
type subcontractorLine struct {
	refFields
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0,lte=10000"`
}

func (l *subcontractorLine) draft() (report.Draft, error) { return l.refFields.draft(l.Quantity) }

type workOrderLine struct {
	refFields
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0,lte=24"`
}

func (l *workOrderLine) draft() (report.Draft, error) { return l.refFields.draft(l.Quantity) }

type noteLine struct {
	EntityRef       *uint  `json:"entity_ref"`
	Text            string `json:"manual_name" binding:"max=5000"`
	ActivityCodeRef *uint  `json:"activity_code_ref"`
	WorkPackageRef  *uint  `json:"work_package_ref"`
	Description     string `json:"description" binding:"max=2000"`
}

// draft passes a stray entity_ref on so the note is refused rather than
// stored with the id dropped.
func (l *noteLine) draft() (report.Draft, error) {
	ref := report.ManualRef(l.Text)
	if l.EntityRef != nil && *l.EntityRef != 0 {
		var err error
		if ref, err = report.NewEntityRef(l.EntityRef, l.Text); err != nil {
			return report.Draft{}, err
		}
	}
	return report.Draft{
		Ref: ref,
		Refs: report.Refs{
			ActivityCodeID: l.ActivityCodeRef,
			WorkPackageID:  l.WorkPackageRef,
		},
		Description: l.Description,
	}, nil
}

func newLine(c models.Category) line {
	switch c {
	case models.CategoryLabor:
		return &laborLine{}
	case models.CategoryEquipment:
		return &equipmentLine{}
	case models.CategoryMaterial:
		return &materialLine{}
	case models.CategorySubcontractor:
		return &subcontractorLine{}
	case models.CategoryWorkOrder:
		return &workOrderLine{}
	}
	return &noteLine{}
}

func (h *EntryHandler) category(c *gin.Context) (models.Category, bool) {
	cat, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		fieldError(c, "category", err.Error())
		return "", false
	}
	return cat, true
}

func (h *EntryHandler) scope(c *gin.Context, f scopeFields) (report.Scope, bool) {
	scope, err := h.Scopes.Resolve(c.Request.Context(), f.ProjectRef, f.ReportDate)
	if err != nil {
		fail(c, h.Log, err)
		return report.Scope{}, false
	}
	return scope, true
}

// Stage handles POST /api/entries/:category.
func (h *EntryHandler) Stage(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}

	var sf scopeFields
	if err := c.ShouldBindBodyWith(&sf, binding.JSON); err != nil {
		bindFailed(c, err)
		return
	}
	l := newLine(cat)
	if err := c.ShouldBindBodyWith(l, binding.JSON); err != nil {
		bindFailed(c, err)
		return
	}

	scope, ok := h.scope(c, sf)
	if !ok {
		return
	}
	d, err := l.draft()
	if err != nil {
		fail(c, h.Log, err)
		return
	}

	entry, err := h.Store.Stage(c.Request.Context(), scope, cat, d, actorID(c))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": entry.ID, "entry": entry})
}

type batchRequest struct {
	scopeFields
	Entries []json.RawMessage `json:"entries" binding:"required,min=1,max=200"`
}

// StageBatch handles POST /api/entries/:category/batch. The whole batch is
// rejected when one line is invalid.
func (h *EntryHandler) StageBatch(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	drafts := make([]report.Draft, 0, len(req.Entries))
	for i, raw := range req.Entries {
		l := newLine(cat)
		if err := json.Unmarshal(raw, l); err != nil {
			Error(c, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("line %d: malformed entry", i+1))
			return
		}
		if err := binding.Validator.ValidateStruct(l); err != nil {
			bindFailed(c, err)
			return
		}
		d, err := l.draft()
		if err != nil {
			fail(c, h.Log, err)
			return
		}
		drafts = append(drafts, d)
	}

	scope, ok := h.scope(c, req.scopeFields)
	if !ok {
		return
	}
	entries, err := h.Store.StageBatch(c.Request.Context(), scope, cat, drafts, actorID(c))
	if err != nil {
		fail(c, h.Log, err)
		return
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids, "entries": entries})
}

type listQuery struct {
	scopeFields
	Status string `form:"status"`
}

// List handles GET /api/entries/:category and GET /api/entries.
func (h *EntryHandler) List(c *gin.Context) {
	var filter report.ListFilter
	if c.Param("category") != "" {
		cat, ok := h.category(c)
		if !ok {
			return
		}
		filter.Category = &cat
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	if q.Status != "" {
		st, err := models.ParseEntryStatus(q.Status)
		if err != nil {
			fieldError(c, "status", err.Error())
			return
		}
		filter.Status = &st
	}

	scope, ok := h.scope(c, q.scopeFields)
	if !ok {
		return
	}
	entries, err := h.Store.List(c.Request.Context(), scope, filter)
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project_id":  scope.ProjectID,
		"report_date": scope.Date(),
		"entries":     entries,
	})
}

type patchRequest struct {
	Quantity        *float64 `json:"quantity" binding:"omitempty,gte=0"`
	ActivityCodeRef *uint    `json:"activity_code_ref"`
	PaymentItemRef  *uint    `json:"payment_item_ref"`
	WorkPackageRef  *uint    `json:"work_package_ref"`
	Description     *string  `json:"description" binding:"omitempty,max=2000"`
}

// entryInCategory loads the :id entry and checks it belongs to :category.
func (h *EntryHandler) entryInCategory(c *gin.Context) (*models.Entry, bool) {
	cat, ok := h.category(c)
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, CodeBadRequest, "invalid entry id")
		return nil, false
	}

	entry, err := h.Store.Get(c.Request.Context(), uint(id))
	if err != nil {
		fail(c, h.Log, err)
		return nil, false
	}
	if entry.Category != cat {
		Error(c, http.StatusNotFound, string(report.KindNotFound), fmt.Sprintf("entry %d is not a %s entry", id, cat))
		return nil, false
	}
	return entry, true
}

// Update handles PUT /api/entries/:category/:id.
func (h *EntryHandler) Update(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	entry, ok := h.entryInCategory(c)
	if !ok {
		return
	}

	updated, err := h.Store.Update(c.Request.Context(), entry.ID, report.Patch{
		Quantity:       req.Quantity,
		ActivityCodeID: req.ActivityCodeRef,
		PaymentItemID:  req.PaymentItemRef,
		WorkPackageID:  req.WorkPackageRef,
		Description:    req.Description,
	}, actorID(c))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": updated})
}

// Delete handles DELETE /api/entries/:category/:id.
func (h *EntryHandler) Delete(c *gin.Context) {
	entry, ok := h.entryInCategory(c)
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), entry.ID, actorID(c)); err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": entry.ID})
}

type confirmRequest struct {
	scopeFields
	Category string `json:"category"`
}

// Confirm handles POST /api/entries/confirm.
func (h *EntryHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	var category *models.Category
	if req.Category != "" {
		cat, err := models.ParseCategory(req.Category)
		if err != nil {
			fieldError(c, "category", err.Error())
			return
		}
		category = &cat
	}

	scope, ok := h.scope(c, req.scopeFields)
	if !ok {
		return
	}
	n, err := h.Store.Confirm(c.Request.Context(), scope, category, actorID(c))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"committed": n})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// Reject handles POST /api/entries/:category/:id/reject.
func (h *EntryHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}
	entry, ok := h.entryInCategory(c)
	if !ok {
		return
	}

	rejected, err := h.Store.Reject(c.Request.Context(), entry.ID, req.Reason, actorID(c))
	if err != nil {
		fail(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": rejected})
}
