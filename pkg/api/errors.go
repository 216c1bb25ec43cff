package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/mockup/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodePayloadSize:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeResourceLoad:
		return http.StatusUnprocessableEntity
	case errors.ErrCodePersistence:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// codeFor maps an HTTP status back to an error code for responses that
// carry none.
func codeFor(status int) errors.Code {
	switch status {
	case http.StatusBadRequest:
		return errors.ErrCodeInvalidInput
	case http.StatusNotFound:
		return errors.ErrCodeNotFound
	case http.StatusRequestEntityTooLarge:
		return errors.ErrCodePayloadSize
	case http.StatusNotImplemented:
		return errors.ErrCodeUnsupported
	}
	if status >= 500 {
		return errors.ErrCodePersistence
	}
	return errors.ErrCodeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Error: errors.UserMessage(err), Code: code})
}
