package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

// Pinger — хранилище, которое умеет проверить соединение.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler отдаёт состояние бота для оркестратора.
type HealthHandler struct {
	store   Pinger
	dialogs func() int
	log     *logger.Logger
}

// NewHealthHandler: store может быть nil, тогда хранилище не проверяется.
func NewHealthHandler(store Pinger, dialogs func() int, log *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, dialogs: dialogs, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"bot": "ok"}
	status := http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.log.Error().Err(err).Msg("health check: store unreachable")
			checks["store"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}
	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.dialogs != nil {
		body["active_dialogs"] = h.dialogs()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/healthz", h.Health)
}

func NewRouter(health *HealthHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	health.RegisterHealth(r)
	return r
}
