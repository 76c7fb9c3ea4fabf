package workflow

import "errors"

// ErrorCode classifies a failed workflow operation so the HTTP layer can
// pick the right status or redirect.
type ErrorCode string

const (
	ErrorForbidden ErrorCode = "forbidden"
	ErrorInvalid   ErrorCode = "invalid"
	ErrorNotFound  ErrorCode = "not_found"
	ErrorStorage   ErrorCode = "storage"
	ErrorUpload    ErrorCode = "upload"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewStorageError(msg string, err error) error {
	return &ServiceError{Code: ErrorStorage, Message: msg, Err: err}
}

func NewUploadError(msg string, err error) error {
	return &ServiceError{Code: ErrorUpload, Message: msg, Err: err}
}

// AsServiceError unwraps err into a *ServiceError if possible.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the error's code, or ErrorStorage for untyped errors.
func CodeOf(err error) ErrorCode {
	if se, ok := AsServiceError(err); ok {
		return se.Code
	}
	return ErrorStorage
}
