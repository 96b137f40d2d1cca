package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"coversdk/core/products"
	"coversdk/gateway/middleware"
	"coversdk/observability"
	"coversdk/sdk/cover"
	"coversdk/sdk/pricing"
)

const defaultMaxBodyBytes = 1 << 20

// QuoteService prices cover purchases.
type QuoteService interface {
	Quote(ctx context.Context, req cover.Request) (cover.Response, error)
}

// CapacityService reports the capacity still available for a product.
type CapacityService interface {
	GetCapacity(ctx context.Context, productID, period uint32) (*pricing.Capacity, error)
}

// RouteGroup pairs a path prefix with the rate limiter guarding it.
type RouteGroup struct {
	Prefix       string
	RateLimitKey string
}

type Config struct {
	Quotes        QuoteService
	Capacity      CapacityService
	Catalog       *products.Catalog
	SwapMetrics   *observability.SwapMetrics
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	RateGroups    []RouteGroup
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
	MaxBodyBytes  int64
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Quotes == nil {
		return nil, errors.New("routes: quote service required")
	}
	if cfg.Capacity == nil {
		return nil, errors.New("routes: capacity service required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("routes: catalog required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	h := &handlers{
		quotes:   cfg.Quotes,
		capacity: cfg.Capacity,
		catalog:  cfg.Catalog,
		swaps:    cfg.SwapMetrics,
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))
	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("unmatched"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	r.Group(func(sr chi.Router) {
		sr.Use(cfg.limit("/v1/quote"))
		sr.Use(cfg.authenticate())
		sr.Post("/v1/quote", h.quote)
	})
	r.Group(func(sr chi.Router) {
		sr.Use(cfg.limit("/v1/capacity"))
		sr.Use(cfg.authenticate())
		sr.Get("/v1/capacity/{productId}", h.getCapacity)
	})
	r.Group(func(sr chi.Router) {
		sr.Use(cfg.limit("/v1/products"))
		sr.Use(cfg.authenticate())
		sr.Get("/v1/products/{productId}", h.getProduct)
		sr.Get("/v1/product-types/{productTypeId}/products", h.listProductsByType)
	})
	r.Group(func(sr chi.Router) {
		sr.Use(cfg.limit("/v1/swap"))
		sr.Use(cfg.authenticate())
		sr.Post("/v1/swap/spot-price", h.spotPrice)
		sr.Post("/v1/swap/price-impact", h.priceImpact)
		sr.Post("/v1/swap/{direction}", h.swap)
	})
	r.Group(func(sr chi.Router) {
		sr.Use(cfg.limit("/v1/premium"))
		sr.Use(cfg.authenticate())
		sr.Post("/v1/premium", h.premium)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})
	return r, nil
}

func (cfg Config) limit(path string) func(http.Handler) http.Handler {
	if cfg.RateLimiter == nil {
		return passthrough
	}
	for _, group := range cfg.RateGroups {
		prefix := strings.TrimSuffix(group.Prefix, "/")
		if prefix != "" && (path == prefix || strings.HasPrefix(path, prefix+"/")) {
			return cfg.RateLimiter.Middleware(group.RateLimitKey)
		}
	}
	return passthrough
}

func (cfg Config) authenticate() func(http.Handler) http.Handler {
	if cfg.Authenticator == nil {
		return passthrough
	}
	return cfg.Authenticator.Middleware()
}

func passthrough(next http.Handler) http.Handler { return next }

type handlers struct {
	quotes   QuoteService
	capacity CapacityService
	catalog  *products.Catalog
	swaps    *observability.SwapMetrics
	logger   *slog.Logger
	maxBody  int64
}
