package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a provider-neutral LLM error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	StatusCode  int      // Last observed HTTP status, if any
	Name        string   // Model or provider name the caller asked for
	Candidates  []string // Partial-match candidates for unknown model names
	EnvVar      string   // Environment variable that was looked up
	Attempts    int      // Attempts made before giving up
	ProviderErr error    // Underlying error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeInvalidProvider    ErrorType = "invalid_provider"
	ErrorTypeCredentialNotFound ErrorType = "credential_not_found"
	ErrorTypeUnknownModel       ErrorType = "unknown_model"
	ErrorTypeMalformedResponse  ErrorType = "malformed_response"
	ErrorTypeTransport          ErrorType = "transport"
	ErrorTypeRetryExhausted     ErrorType = "retry_exhausted"
	ErrorTypeSchemaExhausted    ErrorType = "schema_exhausted"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// Ambiguous reports whether an unknown-model error had more than one candidate.
func (e *Error) Ambiguous() bool {
	return e.Type == ErrorTypeUnknownModel && len(e.Candidates) > 1
}

// ContractViolation is raised (via panic) when a caller breaks a precondition
// that can only fail through a programming error. It is never returned.
type ContractViolation struct {
	Op       string
	Provider string
}

func (c ContractViolation) Error() string {
	return fmt.Sprintf("contract violation: %s called for %s provider", c.Op, c.Provider)
}

func isType(err error, t ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == t
	}
	return false
}

// IsInvalidProviderError checks if an error is an invalid provider error.
func IsInvalidProviderError(err error) bool { return isType(err, ErrorTypeInvalidProvider) }

// IsCredentialNotFoundError checks if an error is a missing credential error.
func IsCredentialNotFoundError(err error) bool { return isType(err, ErrorTypeCredentialNotFound) }

// IsUnknownModelError checks if an error is an unknown (or ambiguous) model name error.
func IsUnknownModelError(err error) bool { return isType(err, ErrorTypeUnknownModel) }

// IsMalformedResponseError checks if an error is a response deserialization error.
func IsMalformedResponseError(err error) bool { return isType(err, ErrorTypeMalformedResponse) }

// IsTransportError checks if an error is a network or status error.
func IsTransportError(err error) bool { return isType(err, ErrorTypeTransport) }

// IsRetryExhaustedError checks if the transport retry budget ran out.
func IsRetryExhaustedError(err error) bool { return isType(err, ErrorTypeRetryExhausted) }

// IsSchemaExhaustedError checks if the schema validation budget ran out.
func IsSchemaExhaustedError(err error) bool { return isType(err, ErrorTypeSchemaExhausted) }

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// NewInvalidProviderError creates an error for an unrecognized provider string.
func NewInvalidProviderError(name string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidProvider,
		Message: fmt.Sprintf("invalid api provider: %q", name),
		Name:    name,
	}
}

// NewCredentialNotFoundError creates an error for a missing environment variable.
func NewCredentialNotFoundError(envVar string) *Error {
	return &Error{
		Type:    ErrorTypeCredentialNotFound,
		Message: fmt.Sprintf("api key not found: environment variable %s is not set", envVar),
		EnvVar:  envVar,
	}
}

// NewUnknownModelError creates an error for a model name that did not resolve.
func NewUnknownModelError(name string, candidates []string) *Error {
	msg := fmt.Sprintf("unknown model name: %q", name)
	if len(candidates) > 1 {
		msg = fmt.Sprintf("ambiguous model name %q, candidates: %s", name, strings.Join(candidates, ", "))
	}
	if candidates == nil {
		candidates = []string{}
	}
	return &Error{
		Type:       ErrorTypeUnknownModel,
		Message:    msg,
		Name:       name,
		Candidates: candidates,
	}
}

// NewMalformedResponseError creates an error for a body that failed deserialization.
func NewMalformedResponseError(provider string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeMalformedResponse,
		Message:     fmt.Sprintf("malformed %s response", provider),
		Retryable:   true,
		Name:        provider,
		ProviderErr: providerErr,
	}
}

// NewTransportError creates an error for a failed HTTP attempt.
// statusCode is zero when no response was received.
func NewTransportError(statusCode int, detail string, providerErr error) *Error {
	msg := "request failed"
	if statusCode != 0 {
		msg = fmt.Sprintf("request failed with status %d", statusCode)
	}
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{
		Type:        ErrorTypeTransport,
		Message:     msg,
		Retryable:   true,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewRetryExhaustedError wraps the last attempt's error once the retry budget is spent.
func NewRetryExhaustedError(attempts int, last error) *Error {
	status := 0
	var llmErr *Error
	if errors.As(last, &llmErr) {
		status = llmErr.StatusCode
	}
	return &Error{
		Type:        ErrorTypeRetryExhausted,
		Message:     fmt.Sprintf("giving up after %d attempt(s)", attempts),
		StatusCode:  status,
		Attempts:    attempts,
		ProviderErr: last,
	}
}

// NewSchemaExhaustedError wraps the last validation error once the schema budget is spent.
func NewSchemaExhaustedError(attempts int, last error) *Error {
	return &Error{
		Type:        ErrorTypeSchemaExhausted,
		Message:     fmt.Sprintf("response did not match schema after %d attempt(s)", attempts),
		Attempts:    attempts,
		ProviderErr: last,
	}
}
