// Package apperr — единая классификация ошибок сервиса.
// Все ошибки бизнес-логики проходят через этот пакет, чтобы наружу
// уходил только вид ошибки и код, без внутренних деталей БД.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindAllocation
	KindPermission
)

// Error несет вид ошибки, стабильный код и сообщение с идентификаторами.
// Err — внутренняя причина (например, ошибка БД), клиенту не отдается.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Permission(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Allocation — сбой выдачи номера документа. Повторяемая ошибка:
// клиент может безопасно повторить запрос, дубликат не будет выдан.
func Allocation(err error) *Error {
	return &Error{Kind: KindAllocation, Code: "ALLOCATION_FAILED", Msg: "sequence allocation failed, retry", Err: err}
}

// KindOf возвращает вид ошибки или 0, если ошибка не из этого пакета.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus отображает вид ошибки в HTTP-статус.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	case KindAllocation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public возвращает сообщение для клиента: код и текст без Err.
func Public(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code + ": " + e.Msg
	}
	return "internal error"
}
