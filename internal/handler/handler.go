// Package handler exposes the billing counter over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/kart-billing/internal/domain/menu"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/register"
)

// Orders answers read-only order log queries.
type Orders interface {
	Rows(ctx context.Context, f orderlog.Filter) ([]orderlog.Row, error)
	Sales(ctx context.Context, by orderlog.GroupBy) ([]orderlog.Sales, error)
}

// Handler serves the menu, counter sessions and order log queries.
type Handler struct {
	catalog  *menu.Catalog
	counters *register.Manager
	orders   Orders
}

// NewHandler constructs a Handler.
func NewHandler(catalog *menu.Catalog, counters *register.Manager, orders Orders) *Handler {
	return &Handler{
		catalog:  catalog,
		counters: counters,
		orders:   orders,
	}
}

// Mount registers the API routes on r under /api.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.ListMenu)

		r.Post("/bills", h.OpenBill)
		r.Route("/bills/{id}", func(r chi.Router) {
			r.Get("/", h.GetBill)
			r.Delete("/", h.DiscardBill)
			r.Put("/selection", h.SetSelection)
			r.Post("/lines", h.AddLine)
			r.Delete("/lines", h.RemoveLines)
			r.Put("/payment", h.SetPayment)
			r.Post("/confirm", h.Confirm)
		})

		r.Get("/orders", h.ListOrders)
		r.Get("/sales", h.Sales)
	})
}

// Router returns a chi router serving the API.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Mount(r)
	return r
}
