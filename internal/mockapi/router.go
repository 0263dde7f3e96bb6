package mockapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Options configures the mock storefront
type Options struct {
	// MaxPageLimit caps the limit query parameter. Zero means 100.
	MaxPageLimit int
	// BaseURL is used for sitemap locations. Empty means derive from the request.
	BaseURL string
	// Faults, when set, fails requests before they reach the handlers.
	Faults *FaultInjector
}

// NewRouter creates the mock storefront HTTP handler
func NewRouter(catalog *Catalog, opts Options) http.Handler {
	if opts.MaxPageLimit < 1 {
		opts.MaxPageLimit = 100
	}

	h := &handlers{
		catalog:  catalog,
		maxLimit: opts.MaxPageLimit,
		baseURL:  opts.BaseURL,
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	// Health check stays outside fault injection so readiness probes work
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if opts.Faults != nil {
			r.Use(opts.Faults.Middleware)
		}

		r.Get("/", h.home)
		r.Get("/sitemap.xml", h.sitemap)
		r.Get("/products/{id}", h.productPage)

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
		})
	})

	return r
}

// requestLogger logs one line per request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
