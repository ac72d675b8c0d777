// Package apperr defines the tagged errors returned by services and their
// mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindUnauthenticated
	KindConflict
)

// Error is a service error tagged with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func BadRequest(format string, args ...any) *Error {
	return newError(KindBadRequest, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return newError(KindUnauthenticated, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Internal wraps an unexpected failure. The message is what clients see; err is
// only logged.
func Internal(err error, format string, args ...any) *Error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf reports the Kind of err, or KindInternal when err carries no tag.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromDB converts gorm.ErrRecordNotFound into a NotFound error naming what,
// and anything else into an Internal error.
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s not found", what)
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(err, "failed to load %s", what)
}

// Status maps a Kind onto an HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a {"message": ...} body. Internal errors are logged and
// replaced by a generic message.
func Respond(ctx *gin.Context, err error, logger *slog.Logger) {
	kind := KindOf(err)
	status := Status(kind)
	if kind == KindInternal {
		if logger != nil {
			logger.Error("Request failed",
				"method", ctx.Request.Method,
				"path", ctx.FullPath(),
				"error", err,
			)
		}
		ctx.AbortWithStatusJSON(status, gin.H{"message": "Internal server error"})
		return
	}
	var e *Error
	errors.As(err, &e)
	ctx.AbortWithStatusJSON(status, gin.H{"message": e.Message})
}
