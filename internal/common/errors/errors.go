// Package errors provides the error taxonomy shared by providers, the pipeline and the job workers.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorKind is the coarse classification callers branch on.
type ErrorKind string

const (
	KindConfig                ErrorKind = "CONFIG"
	KindTimeout               ErrorKind = "TIMEOUT"
	KindBadResponse           ErrorKind = "BAD_RESPONSE"
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindAutomationUnavailable ErrorKind = "AUTOMATION_UNAVAILABLE"
	KindValidation            ErrorKind = "VALIDATION"
	KindInternal              ErrorKind = "INTERNAL"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProviderNotConfigured  ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeProviderTimeout        ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderRequestFailed  ErrorCode = "PROVIDER_REQUEST_FAILED"
	ErrCodeProviderBadStatus      ErrorCode = "PROVIDER_BAD_STATUS"
	ErrCodeProviderMalformed      ErrorCode = "PROVIDER_MALFORMED_RESPONSE"
	ErrCodeNoResults              ErrorCode = "NO_RESULTS"
	ErrCodeImageNotFound          ErrorCode = "IMAGE_NOT_FOUND"
	ErrCodeUploadFailed           ErrorCode = "UPLOAD_FAILED"
	ErrCodePlaceNotFound          ErrorCode = "PLACE_NOT_FOUND"
	ErrCodeReviewsUnavailable     ErrorCode = "REVIEWS_UNAVAILABLE"
	ErrCodeAutomationUnavailable  ErrorCode = "AUTOMATION_UNAVAILABLE"
	ErrCodeAutomationFailed       ErrorCode = "AUTOMATION_FAILED"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
// Message is the text surfaced to the end user; Details carries diagnostics.
type StandardError struct {
	Kind      ErrorKind              `json:"kind"`
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Provider  string                 `json:"provider,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches on code so sentinel values can be compared with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(kind ErrorKind, code ErrorCode, provider, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Details:   details,
		Provider:  provider,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNotConfiguredError reports a missing credential. The message is shown verbatim.
func NewNotConfiguredError(provider, message string) *StandardError {
	return newError(KindConfig, ErrCodeProviderNotConfigured, provider, message,
		fmt.Sprintf("provider %s has no credential", provider), false, nil)
}

// NewProviderTimeoutError creates a retryable timeout error.
func NewProviderTimeoutError(provider string, timeout time.Duration, err error) *StandardError {
	return newError(KindTimeout, ErrCodeProviderTimeout, provider,
		fmt.Sprintf("API 요청 시간 초과 (%d초)", int(timeout.Seconds())),
		causeText(err), true, err)
}

// NewProviderRequestError wraps a transport failure other than a timeout.
func NewProviderRequestError(provider string, err error) *StandardError {
	return newError(KindBadResponse, ErrCodeProviderRequestFailed, provider,
		fmt.Sprintf("API 요청 실패: %s", causeText(err)), causeText(err), true, err)
}

// NewProviderStatusError reports a non-200 reply.
func NewProviderStatusError(provider string, status int) *StandardError {
	return newError(KindBadResponse, ErrCodeProviderBadStatus, provider,
		fmt.Sprintf("API 요청 실패: HTTP %d", status),
		fmt.Sprintf("status: %d", status), status >= 500, nil)
}

// NewMalformedResponseError reports a body that could not be decoded.
func NewMalformedResponseError(provider string, err error) *StandardError {
	return newError(KindBadResponse, ErrCodeProviderMalformed, provider,
		fmt.Sprintf("API 요청 실패: %s", causeText(err)), causeText(err), false, err)
}

// NewNoResultsError reports that every provider answered but none had results.
func NewNoResultsError(message string) *StandardError {
	return newError(KindNotFound, ErrCodeNoResults, "", message, "", false, nil)
}

// NewImageNotFoundError reports a local image path that does not exist.
func NewImageNotFoundError(path string) *StandardError {
	return newError(KindNotFound, ErrCodeImageNotFound, "",
		fmt.Sprintf("파일을 찾을 수 없습니다: %s", path), path, false, nil)
}

// NewUploadFailedError reports that every hosting backend failed.
func NewUploadFailedError(details string) *StandardError {
	return newError(KindBadResponse, ErrCodeUploadFailed, "upload",
		"모든 이미지 호스팅 업로드 실패", details, true, nil)
}

// NewPlaceNotFoundError reports an empty place search.
func NewPlaceNotFoundError(query string) *StandardError {
	return newError(KindNotFound, ErrCodePlaceNotFound, "kakao",
		fmt.Sprintf("'%s' 식당을 찾을 수 없습니다.", query), query, false, nil)
}

// NewReviewsUnavailableError reports a place whose review tab is absent.
func NewReviewsUnavailableError() *StandardError {
	return newError(KindNotFound, ErrCodeReviewsUnavailable, "browser",
		"매장주 요청으로 후기가 제공되지 않는 장소입니다.", "", false, nil)
}

// NewAutomationUnavailableError reports a browser runtime that cannot be started.
func NewAutomationUnavailableError(details string) *StandardError {
	return newError(KindAutomationUnavailable, ErrCodeAutomationUnavailable, "browser",
		"브라우저 자동화를 사용할 수 없습니다", details, false, nil)
}

// NewAutomationFailedError wraps an error raised inside a browser flow.
func NewAutomationFailedError(err error) *StandardError {
	return newError(KindAutomationUnavailable, ErrCodeAutomationFailed, "browser",
		fmt.Sprintf("브라우저 자동화 실패: %s", causeText(err)), causeText(err), false, err)
}

// NewInvalidInputError reports malformed job variables.
func NewInvalidInputError(details string) *StandardError {
	return newError(KindValidation, ErrCodeInvalidInput, "", "Invalid job input", details, false, nil)
}

// NewSchemaValidationError reports variables rejected by the activity schema.
func NewSchemaValidationError(details string) *StandardError {
	return newError(KindValidation, ErrCodeSchemaValidationFailed, "", "Job input failed schema validation", details, false, nil)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(KindInternal, ErrCodeInternal, "", "Unexpected error", causeText(err), false, err)
}

// ClassifyTransportError maps an HTTP client failure to a timeout or request error.
func ClassifyTransportError(ctx context.Context, provider string, timeout time.Duration, err error) *StandardError {
	if IsTimeout(ctx, err) {
		return NewProviderTimeoutError(provider, timeout, err)
	}
	return NewProviderRequestError(provider, err)
}

// IsTimeout reports whether err stems from a deadline.
func IsTimeout(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Client.Timeout") || strings.Contains(msg, "deadline")
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Inspection helpers
// ==========================

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Message
	}
	return err.Error()
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderRequestFailed,
		ErrCodeProviderBadStatus,
		ErrCodeUploadFailed:
		return 3
	case ErrCodeProviderTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorKind": string(stdErr.Kind),
			"timestamp": stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups error codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.HasPrefix(codeStr, "AUTOMATION"):
		return "BROWSER"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeUploadFailed || code == ErrCodeImageNotFound:
		return "UPLOAD"
	case code == ErrCodeNoResults || code == ErrCodePlaceNotFound || code == ErrCodeReviewsUnavailable:
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
