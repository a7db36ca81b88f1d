package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// The status line is already out; a failed encode means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

type errResponse struct {
	Error  string `json:"error"`
	Notice string `json:"notice,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
