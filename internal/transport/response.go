package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"webstore-be/internal/apperror"
	"webstore-be/internal/logger"
	"webstore-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

func newPagination(p utils.Page, total int64) Pagination {
	return Pagination{
		Current: p.Page,
		Pages:   p.TotalPages(total),
		Total:   total,
		Limit:   p.Limit,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// ignored so clients may send extra keys.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewValidation("body", "Request body is required")
		}
		return apperror.NewValidation("body", "Invalid JSON body")
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code and envelope. Unclassified errors
// are logged and reported as a generic server error; the detail is only
// exposed in development.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, Envelope{
			Message: "Validation failed",
			Errors:  verr.Fields,
		})
		return
	}

	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body := Envelope{Message: "Server error"}
		if h.dev {
			body.Error = err.Error()
		}
		writeJSON(w, status, body)
		return
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	}

	writeJSON(w, status, Envelope{Message: err.Error()})
}
