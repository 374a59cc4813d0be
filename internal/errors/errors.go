package errors

import (
	stderrors "errors"
)

type ErrorCode string

const (
	MissingConfiguration ErrorCode = "missing_configuration"
	InvalidConfiguration ErrorCode = "invalid_configuration"
	InvalidInput         ErrorCode = "invalid_input"
	InvalidAddress       ErrorCode = "invalid_address"
	InvalidAmount        ErrorCode = "invalid_amount"
	NetworkFailure       ErrorCode = "network_failure"
	InsufficientBalance  ErrorCode = "insufficient_balance"
	Locked               ErrorCode = "locked"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func New(code ErrorCode, message string) ServiceError {
	return ServiceError{Code: code, Message: message}
}

// Wrap attaches a code and a message to an underlying error. The message is
// what gets printed to the operator, the cause stays reachable via Unwrap.
func Wrap(code ErrorCode, message string, err error) ServiceError {
	return ServiceError{Code: code, Message: message, Err: err}
}

func (se ServiceError) Error() string {
	if se.Err != nil {
		return se.Message + ": " + se.Err.Error()
	}
	return se.Message
}

func (se ServiceError) Unwrap() error {
	return se.Err
}

// Code returns the code of the outermost ServiceError in the chain.
func Code(err error) (ErrorCode, bool) {
	var se ServiceError
	if stderrors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

func IsCode(err error, code ErrorCode) bool {
	c, ok := Code(err)
	return ok && c == code
}
