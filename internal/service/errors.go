package service

import (
	"errors"

	"github.com/d60-Lab/gin-blog/pkg/domain"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrForbidden          = errors.New("post belongs to another user")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")
	ErrEmailTaken         = errors.New("email has already been taken")
)

// ValidationError 输入校验失败，Fields 以 JSON 字段名为 key
type ValidationError struct {
	Fields domain.FieldErrors
}

func (e *ValidationError) Error() string {
	if msg := e.Fields.First(); msg != "" {
		return msg
	}
	return "the given data was invalid"
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: domain.FieldErrors{field: {msg}}}
}
