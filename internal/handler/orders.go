package handler

import (
	"net/http"

	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

// ListOrders returns order log rows, optionally filtered by bill and date.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.orders.Rows(r.Context(), orderlog.Filter{
		BillNumber: q.Get("bill"),
		Date:       q.Get("date"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeRows(rows))
}

// Sales returns sales aggregates grouped by item or date.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	by, err := orderlog.ParseGroupBy(r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sales, err := h.orders.Sales(r.Context(), by)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeSales(by, sales))
}
