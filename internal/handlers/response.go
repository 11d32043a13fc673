package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// error codes used outside the engine taxonomy
const (
	CodeBadRequest   = "BadRequest"
	CodeUnauthorized = "Unauthorized"
	CodeForbidden    = "Forbidden"
)

var statusByKind = map[report.Kind]int{
	report.KindValidation:            http.StatusBadRequest,
	report.KindInvalidReference:      http.StatusBadRequest,
	report.KindUnknownProject:        http.StatusBadRequest,
	report.KindInvalidDate:           http.StatusBadRequest,
	report.KindInvalidCrossReference: http.StatusBadRequest,
	report.KindReferenceNotFound:     http.StatusBadRequest,
	report.KindImmutableEntry:        http.StatusForbidden,
	report.KindNotFound:              http.StatusNotFound,
	report.KindConfirmationRejected:  http.StatusConflict,
	report.KindStorage:               http.StatusInternalServerError,
}

func StatusFor(kind report.Kind) int {
	if st, ok := statusByKind[kind]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// Error writes {"code","message"} and aborts.
func Error(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": msg,
	})
}

// fail maps engine errors to their HTTP status. Storage details never reach
// the client.
func fail(c *gin.Context, log *logrus.Logger, err error) {
	var e *report.Error
	if !errors.As(err, &e) {
		if log != nil {
			log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		}
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "internal error")
		return
	}

	body := gin.H{"code": string(e.Kind), "message": e.Message}
	if e.Kind == report.KindStorage {
		body["message"] = "storage error"
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	if len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}
	if e.ID != 0 {
		body["id"] = e.ID
	}
	if e.Kind == report.KindConfirmationRejected && e.Err != nil {
		var cause *report.Error
		if errors.As(e.Err, &cause) {
			body["cause"] = gin.H{"code": string(cause.Kind), "field": cause.Field, "message": cause.Message}
		}
	}
	c.AbortWithStatusJSON(StatusFor(e.Kind), body)
}

// bindFailed reports binding errors field by field when the validator
// produced them.
func bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Error(c, http.StatusBadRequest, CodeBadRequest, "malformed request body")
		return
	}

	problems := ValidationProblems(verrs)
	fields := make([]string, 0, len(problems))
	for f := range problems {
		fields = append(fields, f)
	}
	body := gin.H{
		"code":     string(report.KindValidation),
		"message":  "invalid fields",
		"fields":   fields,
		"problems": problems,
	}
	if len(fields) == 1 {
		body["field"] = fields[0]
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// ValidationProblems maps each failing field to the rule it broke.
func ValidationProblems(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

var tagNameOnce sync.Once

// UseJSONFieldNames makes validator errors name fields by their json tag.
func UseJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// currentUser returns the user middleware.InjectUser put in the context.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("CurrentUser")
	if !ok {
		return nil
	}
	switch u := v.(type) {
	case models.User:
		return &u
	case *models.User:
		return u
	}
	return nil
}

func actorID(c *gin.Context) *uint {
	if u := currentUser(c); u != nil {
		id := u.ID
		return &id
	}
	return nil
}
