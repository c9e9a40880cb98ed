package bridge

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes bridge errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller lacks the custodian or locker role.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeNotValidator indicates a non-validator tried to attest.
	ErrCodeNotValidator ErrorCode = "NOT_VALIDATOR"

	// ErrCodeAlreadyRegistered indicates the identity already holds the role.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"

	// ErrCodeExecuteMessageFailed indicates the outbound call failed.
	// The executable entry is gone either way.
	ErrCodeExecuteMessageFailed ErrorCode = "EXECUTE_MESSAGE_FAILED"

	// ErrCodeFatalSequenceGap indicates an id beyond the chain watermark + 1.
	ErrCodeFatalSequenceGap ErrorCode = "FATAL_SEQUENCE_GAP"

	// ErrCodeAlreadyReceived indicates the validator already reached this id.
	ErrCodeAlreadyReceived ErrorCode = "ALREADY_RECEIVED"

	// ErrCodeAlreadyCompleted indicates a catch-up attestation for a slot
	// that is no longer pending.
	ErrCodeAlreadyCompleted ErrorCode = "ALREADY_COMPLETED"

	// ErrCodeDuplicateAttestation indicates the validator already attested
	// this (slot, hash).
	ErrCodeDuplicateAttestation ErrorCode = "DUPLICATE_ATTESTATION"

	// ErrCodeNotFound indicates the requested entry does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidArgument indicates a malformed request.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeInvalidPayload indicates message data that is not a JSON array
	// of call arguments.
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
)

// Error is a typed bridge error. Operations return *Error for every
// precondition or protocol violation; anything else is an infrastructure
// failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Chain and ID locate the affected slot, when there is one.
	Chain string
	ID    uint64

	// Validator is the attesting identity for sequencing errors.
	Validator string

	// Cause is the underlying failure for EXECUTE_MESSAGE_FAILED.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Chain != "" {
		msg = fmt.Sprintf("%s (chain=%s, id=%d)", msg, e.Chain, e.ID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of a bridge error, or "" if err is not one.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsCode reports whether err is a bridge error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func slotError(code ErrorCode, chain string, id uint64, validator, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Chain:     chain,
		ID:        id,
		Validator: validator,
	}
}
