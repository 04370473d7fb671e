package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderbook-engine/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps an engine.Error's Kind to the matching HTTP status
// using a typed switch instead of matching on the error's message text.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		switch engErr.Kind {
		case engine.KindInvalidArgument:
			writeError(w, http.StatusBadRequest, engErr.Error())
			return
		case engine.KindNotFound:
			writeError(w, http.StatusNotFound, engErr.Error())
			return
		case engine.KindConflict:
			writeError(w, http.StatusConflict, engErr.Error())
			return
		}
	}
	logError(op, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
