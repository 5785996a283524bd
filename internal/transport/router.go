package transport

import (
	"net/http"

	"webstore-be/internal/auth"
	"webstore-be/internal/logger"
	"webstore-be/internal/metrics"
	"webstore-be/internal/middleware"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Verifier    *auth.Verifier
	Limiter     *middleware.RateLimiter
	Metrics     *metrics.AppMetrics
	FrontendURL string
}

func requireAuth(f http.HandlerFunc) http.Handler  { return middleware.RequireAuth(f) }
func requireAdmin(f http.HandlerFunc) http.Handler { return middleware.RequireAdmin(f) }

// NewRouter builds the /api route table and wraps it with the request
// pipeline: request id, access log, panic recovery, CORS, caller
// resolution and rate limiting, in that order.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Noop()
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.Use(middleware.Metrics(m))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/ready", h.ready).Methods(http.MethodGet)

	authR := api.PathPrefix("/auth").Subrouter()
	authR.HandleFunc("/register", h.register).Methods(http.MethodPost)
	authR.HandleFunc("/login", h.login).Methods(http.MethodPost)
	authR.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	authR.Handle("/me", requireAuth(h.me)).Methods(http.MethodGet)

	orders := api.PathPrefix("/orders").Subrouter()
	orders.HandleFunc("", h.createOrder).Methods(http.MethodPost)
	orders.Handle("", requireAuth(h.listMyOrders)).Methods(http.MethodGet)
	orders.Handle("/admin/all", requireAdmin(h.listAllOrders)).Methods(http.MethodGet)
	orders.HandleFunc("/{id}", h.getOrder).Methods(http.MethodGet)
	orders.Handle("/{id}/status", requireAdmin(h.updateOrderStatus)).Methods(http.MethodPut)
	orders.Handle("/{id}/payment", requireAdmin(h.updateOrderPayment)).Methods(http.MethodPut)
	orders.HandleFunc("/{id}", h.cancelOrder).Methods(http.MethodDelete)

	products := api.PathPrefix("/products").Subrouter()
	products.HandleFunc("", h.listProducts).Methods(http.MethodGet)
	products.Handle("", requireAdmin(h.createProduct)).Methods(http.MethodPost)
	products.HandleFunc("/search", h.searchProducts).Methods(http.MethodGet)
	products.HandleFunc("/{id}", h.getProduct).Methods(http.MethodGet)
	products.Handle("/{id}", requireAdmin(h.updateProduct)).Methods(http.MethodPut)
	products.Handle("/{id}", requireAdmin(h.deleteProduct)).Methods(http.MethodDelete)
	products.Handle("/{id}/inventory", requireAdmin(h.adjustInventory)).Methods(http.MethodPut)
	products.HandleFunc("/{id}/reviews", h.listReviews).Methods(http.MethodGet)
	products.Handle("/{id}/reviews", requireAuth(h.addReview)).Methods(http.MethodPost)

	categories := api.PathPrefix("/categories").Subrouter()
	categories.HandleFunc("", h.listCategories).Methods(http.MethodGet)
	categories.Handle("", requireAdmin(h.createCategory)).Methods(http.MethodPost)
	categories.HandleFunc("/tree", h.categoryTree).Methods(http.MethodGet)
	categories.HandleFunc("/{id}", h.getCategory).Methods(http.MethodGet)
	categories.Handle("/{id}", requireAdmin(h.updateCategory)).Methods(http.MethodPut)
	categories.Handle("/{id}", requireAdmin(h.deleteCategory)).Methods(http.MethodDelete)
	categories.HandleFunc("/{id}/products", h.categoryProducts).Methods(http.MethodGet)

	var handler http.Handler = r
	if cfg.Limiter != nil {
		handler = cfg.Limiter.Middleware(handler)
	}
	handler = middleware.Authenticate(cfg.Verifier)(handler)
	handler = middleware.CORS(cfg.FrontendURL)(handler)
	handler = middleware.Recovery(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	return handler
}
