package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/register"
)

// ListMenu returns the catalog.
func (h *Handler) ListMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, encodeMenu(h.catalog.Items()))
}

// OpenBill starts a counter session.
func (h *Handler) OpenBill(w http.ResponseWriter, r *http.Request) {
	s := h.counters.Open(r.Context())
	writeJSON(w, http.StatusCreated, encodeSession(s))
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	h.session(w, r)(h.counters.Get(chi.URLParam(r, "id")))
}

func (h *Handler) DiscardBill(w http.ResponseWriter, r *http.Request) {
	if err := h.counters.Discard(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSelection records the picked item and quantity and computes its price.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := decodeSelection(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.session(w, r)(h.counters.Select(chi.URLParam(r, "id"), req.Item, req.Quantity))
}

// AddLine adds an explicit line, or the current selection on an empty body.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(body) == 0 {
		h.session(w, r)(h.counters.AddSelection(id))
		return
	}
	req, err := decodeLine(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.session(w, r)(h.counters.Add(id, req.Item, req.Quantity, req.Price))
}

// RemoveLines removes the lines named by the repeated id query parameter.
func (h *Handler) RemoveLines(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["id"]
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, badRequest("line id %q is not a number", v))
			return
		}
		ids = append(ids, n)
	}
	h.session(w, r)(h.counters.Remove(chi.URLParam(r, "id"), ids...))
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pt, err := decodePayment(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.session(w, r)(h.counters.SetPayment(chi.URLParam(r, "id"), pt))
}

// Confirm commits the bill. The body may carry the payment type.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var pt billing.PaymentType
	if len(body) > 0 {
		if pt, err = decodePayment(body); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	c, err := h.counters.Confirm(r.Context(), chi.URLParam(r, "id"), pt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeConfirmation(c))
}

// session returns a sink writing the outcome of a session operation.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) func(register.Session, error) {
	return func(s register.Session, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, encodeSession(s))
	}
}
