package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information exposed to clients.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// JSON writes data wrapped in the standard envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Data: data})
}

// JSONError writes an error response. HTTPError values map to their status
// code and key; anything else becomes an opaque 500 so internals never leak.
func JSONError(w http.ResponseWriter, err error) {
	detail := ErrorDetail{Code: ErrInternalServerError.Key}
	status := ErrInternalServerError.Code

	var withMsg HTTPErrorWithMessage
	var httpErr HTTPError
	switch {
	case errors.As(err, &withMsg):
		status = withMsg.Code
		detail.Code = withMsg.Key
		detail.Message = withMsg.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Code = httpErr.Key
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Error: &detail})
}
