package http

import (
	"context"
	"net/http"
	"time"

	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Sessions is implemented by *session.Manager.
type Sessions interface {
	Establish(ctx context.Context, userID, token string) (*session.Session, error)
	End(userID string)
	Lookup(userID, token string) (*session.Session, error)
}

type SessionHandler struct {
	sessions Sessions
	timeout  time.Duration
	log      *logger.Logger
}

func NewSessionHandler(sessions Sessions, timeout time.Duration, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

// POST /api/v1/session
func (h *SessionHandler) Establish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.sessions.Establish(ctx, getUserIDFromContext(ctx), getTokenFromContext(ctx))
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(sess.Cart.Snapshot()))
}

// DELETE /api/v1/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := currentSession(ctx, h.sessions); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	h.sessions.End(getUserIDFromContext(ctx))
	w.WriteHeader(http.StatusNoContent)
}

func currentSession(ctx context.Context, sessions Sessions) (*session.Session, error) {
	userID := getUserIDFromContext(ctx)
	token := getTokenFromContext(ctx)
	if userID == "" || token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing user authentication")
	}
	return sessions.Lookup(userID, token)
}
