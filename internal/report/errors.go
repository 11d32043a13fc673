package report

import (
	"errors"
	"fmt"
	"strings"

	"field-report/internal/models"
)

type Kind string

const (
	KindValidation            Kind = "ValidationError"
	KindInvalidReference      Kind = "InvalidReference"
	KindUnknownProject        Kind = "UnknownProject"
	KindInvalidDate           Kind = "InvalidDate"
	KindInvalidCrossReference Kind = "InvalidCrossReference"
	KindImmutableEntry        Kind = "ImmutableEntry"
	KindReferenceNotFound     Kind = "ReferenceNotFound"
	KindNotFound              Kind = "NotFound"
	KindConfirmationRejected  Kind = "ConfirmationRejected"
	KindStorage               Kind = "StorageError"
)

// Error is the structured failure returned by every engine operation.
// Field names the offending request field, Fields lists every missing one for
// validation failures and ID carries the offending entry or reference id.
type Error struct {
	Kind    Kind
	Field   string
	Fields  []string
	ID      uint
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" (" + e.Field + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, report.ErrImmutable).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrImmutable      = &Error{Kind: KindImmutableEntry}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConfirmation   = &Error{Kind: KindConfirmationRejected}
	ErrStorage        = &Error{Kind: KindStorage}
	ErrUnknownProject = &Error{Kind: KindUnknownProject}
)

// KindOf returns the kind of a report error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func missingFields(fields ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Fields:  fields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}

func invalidField(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Fields: []string{field}, Message: msg}
}

func invalidReference(msg string) *Error {
	return &Error{Kind: KindInvalidReference, Field: "entity_ref", Message: msg}
}

func referenceNotFound(id uint) *Error {
	return &Error{
		Kind:    KindReferenceNotFound,
		Field:   "entity_ref",
		ID:      id,
		Message: fmt.Sprintf("catalog entity %d does not exist", id),
	}
}

func invalidCrossReference(field string, id uint) *Error {
	return &Error{
		Kind:    KindInvalidCrossReference,
		Field:   field,
		ID:      id,
		Message: fmt.Sprintf("%d does not exist in this project", id),
	}
}

func unknownProject(ref string) *Error {
	return &Error{Kind: KindUnknownProject, Field: "project_ref", Message: fmt.Sprintf("no project %q", ref)}
}

func invalidDate(field, value string) *Error {
	return &Error{Kind: KindInvalidDate, Field: field, Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", value)}
}

func immutableEntry(id uint, status models.EntryStatus) *Error {
	return &Error{Kind: KindImmutableEntry, ID: id, Message: fmt.Sprintf("entry is %s", status)}
}

func entryNotFound(id uint) *Error {
	return &Error{Kind: KindNotFound, ID: id, Message: fmt.Sprintf("entry %d not found", id)}
}

func confirmationRejected(id uint, cause error) *Error {
	return &Error{Kind: KindConfirmationRejected, ID: id, Message: fmt.Sprintf("entry %d failed validation", id), Err: cause}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}
