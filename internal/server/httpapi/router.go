package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Cart      *CartHandler
	Favorites *FavoritesHandler
	Payments  *PaymentHandler
	JWTSecret []byte
}

// NewRouter assembles the HTTP surface. Everything under /api/v1 requires a
// bearer token; /health stays open for probes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Post("/", cfg.Cart.AddLine)
			r.Put("/{line_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/{line_id}", cfg.Cart.RemoveLine)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", cfg.Favorites.List)
			r.Post("/", cfg.Favorites.Add)
			r.Delete("/{product_id}", cfg.Favorites.Remove)
			r.Get("/check/{product_id}", cfg.Favorites.Check)
		})

		r.Post("/payment-intent", cfg.Payments.CreateIntent)
		r.Post("/klarna/create-session", cfg.Payments.CreateKlarnaSession)
	})

	return otelhttp.NewHandler(r, "store-api")
}
