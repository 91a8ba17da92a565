package api

import (
	"net/http"

	"stockintel/pkg/stockintel"
)

// envelope is the unified wire format: status is "success" with data set,
// or "error" with message set.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeSuccess writes a successful response with data.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

// writeError writes an error response with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: "error", Message: message})
}

// writeErrorResponse writes an error response, deriving the HTTP status
// from the error classification when the error is structured.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	if coreErr, ok := err.(*stockintel.Error); ok {
		httpStatus = mapErrorCodeToHTTPStatus(coreErr.Code)
	}
	writeError(w, httpStatus, err.Error())
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code stockintel.ErrorCode) int {
	switch code {
	case stockintel.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case stockintel.ErrCodeNotFound:
		return http.StatusNotFound
	case stockintel.ErrCodeInsufficientData:
		return http.StatusUnprocessableEntity
	case stockintel.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case stockintel.ErrCodeSynthesisUnavailable, stockintel.ErrCodeMalformedReport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
