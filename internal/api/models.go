package api

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/goodtune/onlinetime/internal/onlinetime"
)

// OnlineTimeResponse is the body returned for an online-time computation.
type OnlineTimeResponse struct {
	ID       int64            `json:"id"`
	FullName string           `json:"fullname"`
	Items    []OnlineTimeItem `json:"items"`
	Partial  bool             `json:"partial,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// OnlineTimeItem is one day of an OnlineTimeResponse.
type OnlineTimeItem struct {
	OnlineTime int64  `json:"onlinetime"`
	Date       string `json:"date"`
}

// SubjectResponse describes a known subject.
type SubjectResponse struct {
	ExternalID int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	FullName   string `json:"fullname"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewOnlineTimeResponse converts a summary, formatting dates with layout.
func NewOnlineTimeResponse(summary *onlinetime.SubjectSummary, layout string) OnlineTimeResponse {
	resp := OnlineTimeResponse{
		ID:       summary.ID,
		FullName: summary.DisplayName,
		Items:    make([]OnlineTimeItem, 0, len(summary.Items)),
		Partial:  summary.Partial,
	}
	for _, item := range summary.Items {
		resp.Items = append(resp.Items, OnlineTimeItem{
			OnlineTime: item.OnlineTimeSeconds,
			Date:       item.Date.Format(layout),
		})
	}
	if summary.Failure != nil {
		resp.Error = summary.Failure.Error()
	}
	return resp
}

// statusFor maps computation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case onlinetime.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, onlinetime.ErrSubjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, onlinetime.ErrCollaboratorFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := sonic.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response","code":500}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: statusCode})
}
