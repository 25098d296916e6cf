// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"errors"
	"fmt"

	"github.com/devmy/leadgate/app/services"
)

// Business flow error constants
var (
	// Lead and tracking errors
	ErrLeadNotFound = errors.New("lead not found")
	ErrEmptyPdfURL  = errors.New("pdf url is empty")

	// Nonce errors
	ErrCacheNotAvailable = errors.New("cache not available")

	// Admin errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("invalid captcha")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError carries the full per-field error map plus its headline.
// The lead is never created when one of these is returned.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Headline()
}

func NewValidationError(fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

func IsEmptyPdfURL(err error) bool {
	return errors.Is(err, ErrEmptyPdfURL)
}

func IsLeadTokenInvalid(err error) bool {
	return errors.Is(err, services.ErrLeadTokenInvalid)
}

func IsInvalidNonce(err error) bool {
	return errors.Is(err, services.ErrNonceInvalid)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}
