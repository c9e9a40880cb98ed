package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/roach88/xbridge/internal/bridge"
)

// codeInternal is reported for failures that are not bridge errors.
const codeInternal bridge.ErrorCode = "INTERNAL"

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Code      bridge.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Chain     string           `json:"chain_name,omitempty"`
	ID        uint64           `json:"id,omitempty"`
	Validator string           `json:"validator,omitempty"`
}

// statusFor maps a bridge error code to an HTTP status.
func statusFor(code bridge.ErrorCode) int {
	switch code {
	case bridge.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case bridge.ErrCodeNotValidator:
		return http.StatusForbidden
	case bridge.ErrCodeNotFound:
		return http.StatusNotFound
	case bridge.ErrCodeAlreadyRegistered,
		bridge.ErrCodeAlreadyReceived,
		bridge.ErrCodeAlreadyCompleted,
		bridge.ErrCodeDuplicateAttestation,
		bridge.ErrCodeFatalSequenceGap:
		return http.StatusConflict
	case bridge.ErrCodeInvalidPayload:
		return http.StatusUnprocessableEntity
	case bridge.ErrCodeExecuteMessageFailed:
		return http.StatusBadGateway
	case bridge.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var be *bridge.Error
	if !errors.As(err, &be) {
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Code: codeInternal, Message: err.Error()})
		return
	}

	msg := be.Message
	if be.Cause != nil {
		msg = msg + ": " + be.Cause.Error()
	}
	writeJSON(w, statusFor(be.Code), ErrorBody{
		Code:      be.Code,
		Message:   msg,
		Chain:     be.Chain,
		ID:        be.ID,
		Validator: be.Validator,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

// toError rebuilds a bridge error from a response body.
func (e ErrorBody) toError() *bridge.Error {
	return &bridge.Error{
		Code:      e.Code,
		Message:   e.Message,
		Chain:     e.Chain,
		ID:        e.ID,
		Validator: e.Validator,
	}
}
