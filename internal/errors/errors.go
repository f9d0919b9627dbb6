package errors

import (
	stderrors "errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind classifies failures the bot knows how to answer.
type Kind string

const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindUpstream   Kind = "upstream"
	KindLookupMiss Kind = "lookup_miss"
)

// Sentinels for errors.Is matching against an AppError kind.
var (
	ErrValidation = &AppError{Kind: KindValidation}
	ErrStorage    = &AppError{Kind: KindStorage}
	ErrUpstream   = &AppError{Kind: KindUpstream}
	ErrLookupMiss = &AppError{Kind: KindLookupMiss}
)

type AppError struct {
	Kind     Kind
	Code     string
	Message  string
	Severity Severity
	// MessageKey is the translation key answered to the user, if any.
	MessageKey string
	Retryable  bool
	cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.Message == "" {
		return string(e.Kind)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Is matches any AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !stderrors.As(target, &other) || other == nil || e == nil {
		return false
	}

	return e.Kind == other.Kind
}

// Detail returns the most specific message for "Error: <detail>" replies.
func (e *AppError) Detail() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return e.cause.Error()
	}

	return e.Message
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Code:       "E100",
		Message:    msg,
		Severity:   SeverityLow,
		MessageKey: "errors.validation",
	}
}

// NewInvalid wraps cause as a validation error so callers can match both.
func NewInvalid(cause error) *AppError {
	appErr := NewValidationError(cause.Error())
	appErr.cause = cause
	return appErr
}

func NewStorageError(op string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Kind:       KindStorage,
		Code:       "E200",
		Message:    fmt.Sprintf("storage error: %s: %s", op, underlyingMsg),
		Severity:   SeverityHigh,
		MessageKey: "errors.generic",
		Retryable:  true,
		cause:      cause,
	}
}

func NewUpstreamError(apiName string, cause error) *AppError {
	return &AppError{
		Kind:       KindUpstream,
		Code:       "E300",
		Message:    fmt.Sprintf("upstream error: %s", apiName),
		Severity:   SeverityMedium,
		MessageKey: "errors.upstream",
		cause:      cause,
	}
}

// NewLookupMiss reports an unknown FAQ id or coin id; messageKey is the reply text.
func NewLookupMiss(what, messageKey string) *AppError {
	return &AppError{
		Kind:       KindLookupMiss,
		Code:       "E400",
		Message:    fmt.Sprintf("not found: %s", what),
		Severity:   SeverityLow,
		MessageKey: messageKey,
	}
}
