package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"stockflow/internal/api/move"
	"stockflow/internal/api/order"
	"stockflow/internal/api/product"
	"stockflow/internal/api/respond"
	"stockflow/internal/api/stock"
	"stockflow/internal/api/transfer"
	"stockflow/internal/api/warehouse"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"
)

// Pinger é satisfeito por *sqlx.DB; usado pelo /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Products   *product.Handler
	Warehouses *warehouse.Handler
	Stock      *stock.Handler
	Receipts   *order.Handler
	Deliveries *order.Handler
	Transfers  *transfer.Handler
	Moves      *move.Handler
}

// Options controla os middlewares globais.
type Options struct {
	AllowedOrigins  []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, db Pinger, cacheClient cache.Client, log logger.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/ping", PingHandler)
	r.Get("/health", HealthHandler(db, log))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(api chi.Router) {
		if opts.RateLimit > 0 {
			api.Use(middleware.RateLimiter(cacheClient, log, opts.RateLimit, opts.RateLimitWindow))
		}

		api.Route("/products", h.Products.Routes)
		api.Route("/warehouses", h.Warehouses.Routes)
		api.Route("/stock", h.Stock.Routes)
		api.Route("/receipts", h.Receipts.Routes)
		api.Route("/deliveries", h.Deliveries.Routes)
		api.Route("/transfers", h.Transfers.Routes)
		api.Route("/moves", h.Moves.Routes)
	})

	return r
}

// PingHandler responde "pong" para checagens simples de vida.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// HealthHandler verifica a conexão com o banco.
func HealthHandler(db Pinger, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respond.Error(w, r, log, apperror.NewDBError("Banco de dados indisponível", err))
			return
		}
		respond.JSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	}
}
