package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Response is the envelope every /api/v1 endpoint replies with: either
// Data on success or Error on failure, never both.
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
	Meta  MetaInfo    `json:"meta"`
}

// ErrorInfo describes a failed request in wire-stable terms: Code is
// meant for client branching, Message for a human reading logs.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo travels on every response, success or failure, so a
// complaint about a specific call can be traced back to a log line on
// the host.
type MetaInfo struct {
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes the admin HTTP surface returns in ErrorInfo.Code.
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalError      = "INTERNAL_ERROR"
	ErrConflict           = "CONFLICT"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrForbidden          = "FORBIDDEN"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

func newMeta() MetaInfo {
	return MetaInfo{RequestID: uuid.NewString(), Timestamp: time.Now()}
}

func send(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", resp.Meta.RequestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("handlers: encode response %s: %v", resp.Meta.RequestID, err)
	}
}

// WriteJSON writes a successful response wrapping data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	send(w, status, Response{Data: data, Meta: newMeta()})
}

// WriteError writes an error response, logging it server-side when
// the status indicates the host's own fault rather than the caller's.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	resp := Response{Error: &ErrorInfo{Code: code, Message: message}, Meta: newMeta()}
	if status >= http.StatusInternalServerError {
		log.Printf("handlers: %s (request %s): %s", code, resp.Meta.RequestID, message)
	}
	send(w, status, resp)
}
