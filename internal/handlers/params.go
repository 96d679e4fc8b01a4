package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// getParam returns a pat path parameter (stored as ":name") or a plain query
// parameter, trimmed.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	q := r.URL.Query()
	if val := q.Get(":" + name); val != "" {
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(q.Get(name))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}
