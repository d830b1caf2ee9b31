// Package apperr defines the error taxonomy shared by the stores and the HTTP layer.
//
// Every failure leaving a store carries a Kind and a machine-readable Code, plus
// the offending field or id when there is one, so callers can render a precise
// message without parsing strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindInfrastructure Kind = "infrastructure"
)

type Error struct {
	Kind  Kind
	Code  string
	Field string
	ID    uint
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Code
	if e.Field != "" {
		msg += " (" + e.Field
		if e.ID != 0 {
			msg += fmt.Sprintf("=%d", e.ID)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable: только инфраструктурные ошибки имеет смысл повторять с тем же вводом.
func (e *Error) Retryable() bool { return e.Kind == KindInfrastructure }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func Validation(code, field string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field}
}

func InvalidReference(field string, id uint) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_reference", Field: field, ID: id}
}

func Conflict(code, field string, id uint) *Error {
	return &Error{Kind: KindConflict, Code: code, Field: field, ID: id}
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Code: entity + "_not_found", Field: "id", ID: id}
}

// Infra оборачивает ошибку хранилища. Уже типизированные ошибки не переоборачиваются.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInfrastructure, Code: "storage_unavailable", Err: err}
}

// As извлекает *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// HasCode reports whether err carries the given kind and code.
func HasCode(err error, k Kind, code string) bool {
	e, ok := As(err)
	return ok && e.Kind == k && e.Code == code
}
