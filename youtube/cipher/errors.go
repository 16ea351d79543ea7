package cipher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytget/ytresolve/errs"
)

// Error codes
const (
	ErrCodePlayerJSNotFound   = "PLAYER_JS_NOT_FOUND"
	ErrCodePlayerJSDownload   = "PLAYER_JS_DOWNLOAD_FAILED"
	ErrCodeEntryPointNotFound = "ENTRY_POINT_NOT_FOUND"
	ErrCodePartialCoverage    = "PARTIAL_COVERAGE"
	ErrCodeSignatureMissing   = "SIGNATURE_MISSING"
	ErrCodeJSExecutionFailed  = "JS_EXECUTION_FAILED"
)

// Error represents a structured error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Err is the sentinel or cause the error unwraps to.
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is matches the errs sentinels.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
		Err:     sentinelFor(code),
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// Wrap is NewError with an explicit cause.
func Wrap(code string, message string, cause error, details ...any) *Error {
	e := NewError(code, message, details...)
	if cause != nil {
		e.Err = cause
	}
	return e
}

func sentinelFor(code string) error {
	switch code {
	case ErrCodeEntryPointNotFound:
		return errs.ErrEntryPointNotFound
	case ErrCodePartialCoverage:
		return errs.ErrPartialCoverage
	case ErrCodeSignatureMissing:
		return errs.ErrMissingSignatureAndURL
	case ErrCodePlayerJSDownload:
		return errs.ErrNetworkFailure
	}
	return nil
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodePlayerJSNotFound, ErrCodeEntryPointNotFound)
}

// IsPartial returns true if some sub-operations could not be classified.
func IsPartial(err error) bool {
	return hasCode(err, ErrCodePartialCoverage)
}

// IsJSError returns true if the error is a JavaScript execution error
func IsJSError(err error) bool {
	return hasCode(err, ErrCodeJSExecutionFailed)
}

func hasCode(err error, codes ...string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}
