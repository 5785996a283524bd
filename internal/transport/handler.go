package transport

import (
	"context"
	"net/http"
	"time"

	"webstore-be/internal/category"
	"webstore-be/internal/logger"
	"webstore-be/internal/order"
	"webstore-be/internal/product"
	"webstore-be/internal/user"

	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	users      user.Service
	products   product.Service
	categories category.Service
	orders     order.Service
	db         Pinger
	dev        bool
	now        func() time.Time
}

type Deps struct {
	Users      user.Service
	Products   product.Service
	Categories category.Service
	Orders     order.Service
	DB         Pinger
	// Development exposes internal error details in 500 responses.
	Development bool
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:      d.Users,
		products:   d.Products,
		categories: d.Categories,
		orders:     d.Orders,
		db:         d.DB,
		dev:        d.Development,
		now:        time.Now,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	DB        string `json:"db,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "Web Store API is running",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "READY",
		DB:        "up",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if err := h.db.PingContext(ctx); err != nil {
		logger.FromCtx(r.Context()).Warn("readiness check failed", zap.Error(err))
		resp.Status = "NOT_READY"
		resp.DB = "down"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Envelope{Message: "Route not found"})
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, Envelope{Message: "Method not allowed"})
}
