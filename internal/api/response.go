package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hrzones/internal/analysis"
	"hrzones/internal/service"
	"hrzones/internal/source"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps pipeline failures to an HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrFetchTimeout):
		return http.StatusGatewayTimeout, "fetch_timeout"
	case errors.Is(err, analysis.ErrUnsupportedZoneMethod):
		return http.StatusUnprocessableEntity, "unsupported_zone_method"
	case errors.Is(err, source.ErrMalformedActivity):
		return http.StatusBadGateway, "malformed_activity"
	case errors.Is(err, source.ErrFetchFailed):
		return http.StatusBadGateway, "fetch_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
