package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cashflow/internal/logging"
	"cashflow/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSONError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

// writeServiceError maps a classified service error to its status code.
// credentialStatus is the status used for KindInvalidCredential, which is 401
// on login and 400 on the recovery steps. Unclassified errors are logged and
// answered with a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, credentialStatus int) {
	var se *services.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Kind {
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindInvalidCredential:
			status = credentialStatus
		case services.KindValidation:
			status = http.StatusBadRequest
		case services.KindConflict:
			status = http.StatusConflict
		}
		writeJSONError(w, status, se.Kind.String(), se.Message)
		return
	}

	log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
