package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/register"
)

// BadRequestError is a malformed request.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// fail maps err to a status code and writes the error body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := mapError(err)
	if code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeError(w, code, msg)
}

func mapError(err error) (int, string) {
	var (
		badReq  *BadRequestError
		invalid *orderlog.ValidationError
		persist *orderlog.PersistenceError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest, badReq.Message
	case errors.Is(err, billing.ErrUnknownPaymentType),
		errors.Is(err, orderlog.ErrUnknownGrouping):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, register.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, orderlog.ErrBillClosed):
		return http.StatusConflict, err.Error()
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, invalid.Message
	case errors.As(err, &persist):
		return http.StatusInternalServerError, "order could not be saved"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, code, e.Bytes())
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
