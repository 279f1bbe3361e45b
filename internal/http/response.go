package http

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// headers are already sent, an encode failure means the client went away
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps err onto the error taxonomy. Untyped errors are reported
// as internal with a public message only.
func respondError(ctx context.Context, log *logger.Logger, w http.ResponseWriter, err error) {
	code := pkgerrors.CodeInternal
	var (
		message string
		details any
	)
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
		message = typed.Message()
		details = typed.Details()
	}

	meta := pkgerrors.MetadataFor(code)
	if code == pkgerrors.CodeInternal || message == "" {
		message = meta.PublicMessage
	}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", err)
	} else {
		log.Warn(ctx, "request rejected", err)
	}

	respondJSON(w, meta.HTTPStatus, ErrorResponse{
		Error:     message,
		Code:      string(code),
		Details:   details,
		RequestID: getRequestID(ctx),
	})
}
