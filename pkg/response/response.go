// Package response writes the envelope the admin dashboard expects:
// every reply carries a status of "success" or "error", with optional
// message and data fields.
package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, APIResponse{Status: "success", Data: data})
}

func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, APIResponse{Status: "error", Message: msg})
}

// ErrorWithData is for failures the dashboard acts on, like an
// already-active game profile whose existing id it must display.
func ErrorWithData(w http.ResponseWriter, status int, msg string, data interface{}) {
	write(w, status, APIResponse{Status: "error", Message: msg, Data: data})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
