package utils

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes payload as a JSON body with the given status. A payload that cannot be
// encoded is answered with a 500 error body. The encode or write error is returned.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, werr := w.Write(append(body, '\n')); werr != nil && err == nil {
		err = werr
	}
	return err
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, status int, message string) error {
	return RespondJSON(w, status, map[string]string{"error": message})
}
