package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/oskarm-dev/backend-parts/internal/common"
	"github.com/oskarm-dev/backend-parts/internal/shipping"
)

// Handler wires the quote service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// PriceCart handles POST /api/v1/cart/price.
func (h *Handler) PriceCart(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart request", validationDetails(err))
			return
		}
	}
	q, err := h.Svc.QuoteCart(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

// GetPartQuote handles GET /api/v1/parts/{id}/quote.
func (h *Handler) GetPartQuote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid part id", nil)
		return
	}
	q, err := h.Svc.QuotePart(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var noOffer *NoOfferError
	switch {
	case errors.As(err, &noOffer):
		common.JSONError(w, http.StatusBadRequest, "NO_OFFER_AVAILABLE", noOffer.Error(), nil)
	case errors.Is(err, ErrPartNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "part not found", nil)
	case errors.Is(err, shipping.ErrZoneNotFound):
		common.JSONError(w, http.StatusBadRequest, "ZONE_NOT_FOUND", "no shipping zone for destination", nil)
	case errors.Is(err, context.DeadlineExceeded):
		common.JSONError(w, http.StatusGatewayTimeout, "TIMEOUT", "quote computation timed out", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to compute quote", nil)
	}
}

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
