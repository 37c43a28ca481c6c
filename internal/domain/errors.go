package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidInput            ErrorCode = "InvalidInput"
	CodeNotFound                ErrorCode = "NotFound"
	CodeInvalidState            ErrorCode = "InvalidState"
	CodeNoDefaultAddress        ErrorCode = "NoDefaultAddress"
	CodeShippingProviderError   ErrorCode = "ShippingProviderError"
	CodeShippingProviderTimeout ErrorCode = "ShippingProviderTimeout"
	CodeUnexpected              ErrorCode = "Unexpected"
)

// Error is the application error returned by usecases. Handlers map Code to
// an HTTP status; Message is safe to show to the caller.
type Error struct {
	Code    ErrorCode
	Message string
	// StatusCode is the carrier's HTTP status for shipping provider errors.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NoDefaultAddress() *Error {
	return &Error{Code: CodeNoDefaultAddress, Message: "No default shipping address on file."}
}

// ShippingProviderError keeps the carrier's status and message verbatim.
func ShippingProviderError(statusCode int, message string, err error) *Error {
	return &Error{Code: CodeShippingProviderError, StatusCode: statusCode, Message: message, Err: err}
}

func ShippingProviderTimeout(err error) *Error {
	return &Error{Code: CodeShippingProviderTimeout, Message: "Shipping provider did not respond in time.", Err: err}
}

func Unexpected(err error) *Error {
	return &Error{Code: CodeUnexpected, Message: "Something went wrong.", Err: err}
}

// AsError extracts an *Error from the chain.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorCodeOf returns CodeUnexpected for errors that are not *Error.
func ErrorCodeOf(err error) ErrorCode {
	if appErr, ok := AsError(err); ok {
		return appErr.Code
	}
	return CodeUnexpected
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && ErrorCodeOf(err) == code
}
