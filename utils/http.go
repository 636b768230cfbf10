package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps every 2xx payload under "data"
type SuccessResponse struct {
	Data interface{} `json:"data,omitempty"`
}

type errorKind struct {
	code     string
	fallback string
}

// errorKinds maps each status the API emits to its code and default message
var errorKinds = map[int]errorKind{
	http.StatusBadRequest:          {"bad_request", "Invalid request"},
	http.StatusUnauthorized:        {"unauthorized", "Authentication required"},
	http.StatusForbidden:           {"forbidden", "Access forbidden"},
	http.StatusNotFound:            {"not_found", "Resource not found"},
	http.StatusConflict:            {"conflict", "Resource already exists"},
	http.StatusServiceUnavailable:  {"service_unavailable", "Service temporarily unavailable"},
	http.StatusInternalServerError: {"internal_error", "Internal server error"},
}

// WriteJSON writes data as JSON with the given status. Grant answers change
// whenever an administrator edits the tables, so nothing is cacheable.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	kind, ok := errorKinds[status]
	if !ok {
		status, kind = http.StatusInternalServerError, errorKinds[http.StatusInternalServerError]
	}
	if message == "" {
		message = kind.fallback
	}
	return WriteJSON(w, status, ErrorResponse{Error: kind.code, Message: message, Details: details})
}

// WriteOK answers 200 with data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated answers 201 with the new resource
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteNoContent answers 204
func WriteNoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusBadRequest, message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusUnauthorized, message, nil)
}

func WriteForbidden(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusForbidden, message, nil)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusNotFound, message, nil)
}

func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusConflict, message, details)
}

// WriteServiceUnavailable reports that a backing store cannot answer.
// Callers must not turn this into a denial.
func WriteServiceUnavailable(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusServiceUnavailable, message, nil)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusInternalServerError, message, nil)
}
