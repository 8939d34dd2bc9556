package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// AppError is an error that can be rendered to API clients.
// Status is the HTTP status, Code the stable service code ("A001", "C500", ...),
// Message the user-safe text and Detail optional developer-facing context.
type AppError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e carrying detail.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Wrap returns a copy of e carrying err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Common errors
var (
	ErrInvalidInput     = &AppError{Status: http.StatusBadRequest, Code: "C001", Message: "invalid input value"}
	ErrMethodNotAllowed = &AppError{Status: http.StatusMethodNotAllowed, Code: "C002", Message: "method not allowed"}
	ErrTooManyRequests  = &AppError{Status: http.StatusTooManyRequests, Code: "C003", Message: "too many requests, please try again later"}
	ErrInternal         = &AppError{Status: http.StatusInternalServerError, Code: "C500", Message: "internal server error"}
)

// Auth errors
var (
	ErrBadCredential          = &AppError{Status: http.StatusUnauthorized, Code: "A001", Message: "email or password does not match"}
	ErrTokenExpired           = &AppError{Status: http.StatusUnauthorized, Code: "A002", Message: "token has expired"}
	ErrInvalidRefreshToken    = &AppError{Status: http.StatusUnauthorized, Code: "A003", Message: "invalid refresh token"}
	ErrExpiredRefreshToken    = &AppError{Status: http.StatusUnauthorized, Code: "A004", Message: "refresh token has expired, please log in again"}
	ErrSocialAccountNotFound  = &AppError{Status: http.StatusNotFound, Code: "A005", Message: "linked social account not found"}
	ErrDuplicateEmail         = &AppError{Status: http.StatusConflict, Code: "A006", Message: "email is already registered"}
	ErrRefreshTokenNotFound   = &AppError{Status: http.StatusUnauthorized, Code: "A007", Message: "refresh token is missing"}
	ErrUnsupportedProvider    = &AppError{Status: http.StatusBadRequest, Code: "A008", Message: "unsupported OAuth2 provider"}
	ErrOAuthResponseMalformed = &AppError{Status: http.StatusBadGateway, Code: "A009", Message: "OAuth2 provider response is malformed"}
	ErrTokenInvalid           = &AppError{Status: http.StatusUnauthorized, Code: "A010", Message: "invalid token"}
	ErrOAuthStateMismatch     = &AppError{Status: http.StatusBadRequest, Code: "A011", Message: "OAuth2 state does not match"}
	ErrUnauthorized           = &AppError{Status: http.StatusUnauthorized, Code: "A012", Message: "authentication required"}
)

// NewAppError creates an internal error with a custom message wrapping err.
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{Status: status, Code: ErrInternal.Code, Message: message, Err: err}
}

// NewBadRequestError creates an invalid-input error carrying detail.
func NewBadRequestError(detail string) *AppError {
	return ErrInvalidInput.WithDetail(detail)
}

// AsAppError extracts the AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
