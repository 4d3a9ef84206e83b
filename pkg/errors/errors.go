package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "SQDK1001"
	ErrCodeConnectionTimeout    ErrorCode = "SQDK1002"
	ErrCodeAuthenticationFailed ErrorCode = "SQDK1003"
	ErrCodeNetworkUnavailable   ErrorCode = "SQDK1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "SQDK2001"
	ErrCodeConfigInvalid  ErrorCode = "SQDK2002"

	// Catalog errors (3xxx)
	ErrCodeCatalogParse      ErrorCode = "SQDK3001"
	ErrCodeCatalogBadName    ErrorCode = "SQDK3002"
	ErrCodeCatalogDependency ErrorCode = "SQDK3003"
	ErrCodeGit               ErrorCode = "SQDK3004"

	// SQL execution errors (4xxx)
	ErrCodeSQLSyntax         ErrorCode = "SQDK4001"
	ErrCodeSQLPermission     ErrorCode = "SQDK4002"
	ErrCodeSQLTimeout        ErrorCode = "SQDK4003"
	ErrCodeSQLTransaction    ErrorCode = "SQDK4004"
	ErrCodeSQLObjectNotFound ErrorCode = "SQDK4005"
	ErrCodeTestFailed        ErrorCode = "SQDK4006"

	// File system errors (5xxx)
	ErrCodeFileNotFound   ErrorCode = "SQDK5001"
	ErrCodeFilePermission ErrorCode = "SQDK5002"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "SQDK6001"
	ErrCodeInvalidInput     ErrorCode = "SQDK6002"

	// Secret storage errors (7xxx)
	ErrCodeSecretStore ErrorCode = "SQDK7001"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "SQDK9001"
	ErrCodeTimeout            ErrorCode = "SQDK9002"
	ErrCodeResourceExhausted  ErrorCode = "SQDK9003"
	ErrCodeServiceUnavailable ErrorCode = "SQDK9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the warehouse endpoint is accessible",
			"Check firewall settings",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'sqldeck setup' to reconfigure",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLSyntax, message).
		WithContext("query", truncateString(query, 200))

	if strings.Contains(message, "permission") || strings.Contains(message, "access denied") {
		err.Code = ErrCodeSQLPermission
		_ = err.WithSuggestions(
			"Check user permissions in the warehouse",
			"Verify the role has required privileges",
		)
	} else if strings.Contains(message, "timeout") {
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions(
			"Optimize the query for better performance",
			"Increase the query timeout setting",
		)
	}

	return err
}

// InvalidInputError creates an invalid-input error for a named argument
func InvalidInputError(argument string, value interface{}, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", argument, reason)).
		WithContext("argument", argument).
		WithContext("value", value)
}

// CatalogError creates a catalog parsing error for a definition file
func CatalogError(message string, path string, cause error) *AppError {
	return Wrap(cause, ErrCodeCatalogParse, message).
		WithContext("path", path)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
