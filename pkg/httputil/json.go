package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// DefaultBodyLimit caps request bodies at 4 MiB.
const DefaultBodyLimit = 4 << 20

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Code  gerrors.Code `json:"code"`
	Error string       `json:"error"`
}

// DecodeJSON decodes the request body into v. Unknown fields, trailing
// data and bodies over limit bytes are rejected with INVALID_INPUT. A
// limit of 0 uses DefaultBodyLimit.
func DecodeJSON(r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, limit+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "request body truncated or over %d bytes", limit)
		}
		return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "decode request body")
	}
	if dec.More() {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "request body has trailing data")
	}
	return nil
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorBody. Uncoded errors are reported as
// INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, err error) error {
	code := gerrors.GetCode(err)
	if code == "" {
		code = gerrors.ErrCodeInternal
	}
	return WriteJSON(w, Status(code), ErrorBody{Code: code, Error: gerrors.UserMessage(err)})
}

// Status maps an error code to an HTTP status.
func Status(code gerrors.Code) int {
	switch code {
	case gerrors.ErrCodeInvalidInput, gerrors.ErrCodeLoad:
		return http.StatusBadRequest
	case gerrors.ErrCodeGeometry, gerrors.ErrCodeEmptyBoundary, gerrors.ErrCodeDiverged:
		return http.StatusUnprocessableEntity
	case gerrors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
