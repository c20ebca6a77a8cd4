package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/premium-shop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5, "application/json", "text/plain"))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{slug}", h.GetProduct)
		r.Get("/categories", h.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{productID}", h.SetCartItemQuantity)
			r.Delete("/items/{productID}", h.RemoveCartItem)
		})

		r.Post("/checkout", h.Checkout)
		r.Post("/checkout/confirm", h.ConfirmCheckout)

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if h.loginLimiter != nil {
					r.Use(h.loginLimiter.Middleware)
				}
				r.Post("/login", h.Login)
			})
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/orders", h.ListOrders)
				r.Post("/orders", h.CreateOrder)
				r.Get("/orders/expiring", h.ExpiringOrders)
				r.Get("/orders/{id}", h.GetOrder)
				r.Put("/orders/{id}", h.UpdateOrder)
				r.Delete("/orders/{id}", h.DeleteOrder)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
