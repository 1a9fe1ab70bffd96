package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/wayfarer-app/account-api/internal/app/deletion"
	"github.com/wayfarer-app/account-api/internal/app/settings"
)

type errorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er errorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeAppError maps an application-layer error to an HTTP response. The
// app packages each define a structurally identical Error type; anything
// else is an internal failure and deliberately not echoed to the client.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	se := (*settings.Error)(nil)
	if errors.As(err, &se) {
		writeError(w, r, se.Status, se.Code, se.Message, se.Details)
		return
	}
	de := (*deletion.Error)(nil)
	if errors.As(err, &de) {
		writeError(w, r, de.Status, de.Code, de.Message, de.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
