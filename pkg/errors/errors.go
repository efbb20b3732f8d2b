package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures (dial, timeout, reset)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeStatus represents a non-2xx HTTP response
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ErrUnknownCategory is wrapped by the configuration error returned for a
// category identifier outside the fixed section table.
var ErrUnknownCategory = stderrors.New("unknown category")

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Section    string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	scope := e.Section
	if scope == "" {
		scope = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, scope, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if another fetch attempt may succeed.
// Any transport failure and any non-2xx answer qualify.
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeStatus, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// CrawlerError.
func IsRetryable(err error) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}

// IsType reports whether err wraps a CrawlerError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

// New creates a new CrawlerError
func New(errType ErrorType, section, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Section: section,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(section, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, section, message, err)
}

// NewStatus creates an error for an unexpected HTTP status code
func NewStatus(section string, statusCode int) *CrawlerError {
	e := New(ErrorTypeStatus, section, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(section string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, section, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(section, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, section, message, err)
}

// NewCache creates a new cache error
func NewCache(section, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, section, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(section, message string) *CrawlerError {
	return New(ErrorTypeValidation, section, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewUnknownCategory creates the configuration error for an unknown section id
func NewUnknownCategory(id string) *CrawlerError {
	return New(ErrorTypeConfiguration, id, "no section configured for this category", ErrUnknownCategory)
}
