package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/calcbot/internal/analysis"
	"github.com/ZanzyTHEbar/calcbot/internal/cipher"
	"github.com/ZanzyTHEbar/calcbot/internal/regression"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryDomain        ErrorCategory = "domain"
	CategoryComputation   ErrorCategory = "computation"
	CategoryUnauthorized  ErrorCategory = "unauthorized"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// requestIDKey is the gin context key the request ID middleware writes.
const requestIDKey = "request_id"

// AppError wraps an errbuilder error with the context the presentation
// layer needs: a category, an HTTP status and a timestamp.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	StackTrace string        `json:"-"`

	// Fields holds per-field messages for validation errors that report
	// several problems at once.
	Fields map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Code returns the stable upper-case identifier of the error's category.
func (e *AppError) Code() string {
	switch e.Category {
	case CategoryValidation:
		return "VALIDATION_ERROR"
	case CategoryNotFound:
		return "NOT_FOUND"
	case CategoryDomain:
		return "DOMAIN_ERROR"
	case CategoryComputation:
		return "COMPUTATION_ERROR"
	case CategoryUnauthorized:
		return "UNAUTHORIZED"
	case CategoryRateLimit:
		return "RATE_LIMIT_EXCEEDED"
	case CategoryTimeout:
		return "TIMEOUT_ERROR"
	case CategoryConfiguration:
		return "CONFIGURATION_ERROR"
	case CategoryInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Response is the JSON body written for a failed request.
type Response struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Category  ErrorCategory     `json:"category"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Response builds the body for this error.
func (e *AppError) Response(requestID string) Response {
	return Response{
		Error:     e.Code(),
		Message:   e.ErrBuilder.Msg,
		Category:  e.Category,
		RequestID: requestID,
		Timestamp: e.Timestamp,
		Details:   e.Fields,
	}
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func withCause(builder *errbuilder.ErrBuilder, cause error) *errbuilder.ErrBuilder {
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

// NewValidationError creates an error for malformed or insufficient input.
func NewValidationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return NewAppError(withCause(builder, cause), CategoryValidation, http.StatusBadRequest)
}

// NewValidationErrorWithMap creates a validation error carrying one message
// per offending field in an errbuilder ErrorMap. The fields also appear as
// details in the response body.
func NewValidationErrorWithMap(message string, validationErrors map[string]string, cause error) *AppError {
	errMap := errbuilder.ErrorMap{}

	fields := make(map[string]string, len(validationErrors))
	for field, msg := range validationErrors {
		errMap.Set(field, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(msg))
		fields[field] = msg
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message).
		WithDetails(errbuilder.NewErrDetails(errMap))

	appErr := NewAppError(withCause(builder, cause), CategoryValidation, http.StatusBadRequest)
	appErr.Fields = fields
	return appErr
}

// NewNotFoundError reports an unknown command or route target.
func NewNotFoundError(what string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found", what))

	return NewAppError(withCause(builder, cause), CategoryNotFound, http.StatusNotFound)
}

// NewDomainError reports input outside a model's mathematical domain.
func NewDomainError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return NewAppError(withCause(builder, cause), CategoryDomain, http.StatusUnprocessableEntity)
}

// NewComputationError reports well-formed input the numerics cannot solve.
func NewComputationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)

	return NewAppError(withCause(builder, cause), CategoryComputation, http.StatusUnprocessableEntity)
}

// NewUnauthorizedError reports a missing or invalid gateway token.
func NewUnauthorizedError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)

	return NewAppError(withCause(builder, cause), CategoryUnauthorized, http.StatusUnauthorized)
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	return NewAppError(withCause(builder, cause), CategoryTimeout, http.StatusGatewayTimeout)
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))
	builder = withCause(builder, cause)

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("config_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Configuration error").
		WithDetails(errbuilder.NewErrDetails(errorMap))
	builder = withCause(builder, cause)

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ToAppError converts any error to an AppError. Errors from the statistics,
// regression and cipher packages keep their meaning; anything else becomes
// an internal error.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, regression.ErrInsufficientData):
		// Covers ErrDimensionMismatch, which wraps it.
		return NewValidationError("X and Y must be equal in length and at least 2 pairs.", err)
	case errors.Is(err, analysis.ErrInsufficientData):
		return NewValidationError("Please provide at least two numbers.", err)
	case errors.Is(err, analysis.ErrUnknownKind):
		return NewValidationError("Type must be parameter or statistic.", err)
	case errors.Is(err, regression.ErrUnknownModel):
		return NewValidationError("Unknown regression type.", err)
	case errors.Is(err, cipher.ErrInvalidBinary):
		return NewValidationError("Binary input must be space-separated 8-bit groups.", err)
	case errors.Is(err, cipher.ErrUnknownVariant):
		return NewValidationError("Baconian variant must be 24 or 26.", err)
	case errors.Is(err, regression.ErrDomain):
		return NewDomainError("Logarithmic models need every x value to be positive.", err)
	case errors.Is(err, regression.ErrSingularMatrix):
		return NewComputationError("The data cannot determine a unique fit for this model. Try more distinct x values or a lower degree.", err)
	case errors.Is(err, regression.ErrDegenerateFit):
		return NewComputationError("All x values are identical, so no line can be fitted.", err)
	case errors.Is(err, regression.ErrUndefinedCorrelation):
		return NewComputationError("All y values are identical, so the correlation is undefined.", err)
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("Request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("Request deadline exceeded", err)
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// UserMessage returns the text shown to a chat user for err. Internal
// failures get a generic message so no implementation detail leaks.
func UserMessage(err error) string {
	appErr := ToAppError(err)
	if appErr == nil {
		return ""
	}

	switch appErr.Category {
	case CategoryInternal, CategoryConfiguration:
		return "Something went wrong while computing that. Please try again later."
	case CategoryTimeout:
		return "That took too long. Please try again with less data."
	default:
		return appErr.ErrBuilder.Msg
	}
}

// ErrorHandler is a Gin middleware that renders the last handler error
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr.Response(c.GetString(requestIDKey)))
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response(c.GetString(requestIDKey)))
	})
}

// LogError logs an error with a level chosen by its category
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
	)

	errorMsg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryDomain, CategoryComputation,
		CategoryUnauthorized, CategoryRateLimit:
		if cause != nil {
			logEntry.Warn(errorMsg, "cause", cause)
		} else {
			logEntry.Warn(errorMsg)
		}
	case CategoryTimeout:
		logEntry.Info(errorMsg, "cause", cause)
	default:
		if cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}
