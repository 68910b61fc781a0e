package middlewares

import (
	"encoding/json"
	"net/http"
)

// WriteError writes the {"error": message} API body from middleware that runs before any handler
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
