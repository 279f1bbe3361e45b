package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/go-chi/chi/v5"
)

// Settings is implemented by *settings.Accessor.
type Settings interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
}

type SettingsHandler struct {
	settings Settings
	timeout  time.Duration
	log      *logger.Logger
}

func NewSettingsHandler(settings Settings, timeout time.Duration, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		timeout:  timeout,
		log:      log,
	}
}

// GET /api/v1/settings/{key}
func (h *SettingsHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	value, err := h.settings.Get(ctx, chi.URLParam(r, "key"))
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, value)
}
