package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/offer-tracker/internal/errors"
	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/types"
)

// Response is the standard success envelope. Count is set on list responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Success bool                `json:"success"`
	Error   *types.ServiceError `json:"error"`
}

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// respondList sends a success envelope with a count for collection responses
func respondList(w http.ResponseWriter, statusCode int, data interface{}, count int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data, Count: &count})
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error: &types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondServiceError categorizes a service-layer error and writes the
// matching HTTP response. System errors are logged and masked; user errors
// pass their code and message through.
func respondServiceError(w http.ResponseWriter, err error) {
	categorized := apperrors.Categorize(err)

	if apperrors.IsSystemError(err) {
		logging.GetGlobalLogger().WithError(err).Error("request failed")
		respondError(w, categorized.StatusCode, categorized.Code, "An internal error occurred", nil)
		return
	}

	respondError(w, categorized.StatusCode, categorized.Code, categorized.Message, categorized.Details)
}

// parseJSONBody parses a JSON request body, rejecting unknown fields
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
