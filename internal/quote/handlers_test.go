package quote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/oskarm-dev/backend-parts/internal/catalog"
	"github.com/oskarm-dev/backend-parts/internal/offer"
	"github.com/oskarm-dev/backend-parts/internal/shipping"
)

func newTestRouter(svc *Service) http.Handler {
	h := &Handler{Svc: svc, Validate: validator.New()}
	r := chi.NewRouter()
	r.Post("/api/v1/cart/price", h.PriceCart)
	r.Get("/api/v1/parts/{id}/quote", h.GetPartQuote)
	return r
}

func handlerService() (*Service, *fakeShipping) {
	parts := &fakeParts{parts: map[int64]catalog.Part{
		1: {ID: 1, PartNumber: "BP-100", Name: "Brake pad set"},
	}}
	offers := &fakeOffers{cands: map[int64]*offer.Candidate{
		1: cand(7, 10, "EU", 3, offer.Available),
	}}
	ship := &fakeShipping{est: shipping.Estimate{
		Zone:   "EU",
		Cost:   decimal.RequireFromString("12.50"),
		Window: shipping.Window{MinDays: 5, MaxDays: 8},
	}}
	svc := &Service{
		Parts:        parts,
		Offers:       offers,
		Pricing:      &fakePricing{prices: map[int64]string{1: "100"}},
		Shipping:     ship,
		BaseCurrency: "PLN",
		Logger:       zerolog.Nop(),
		Now:          func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, ship
}

func TestPriceCartHandler(t *testing.T) {
	svc, _ := handlerService()
	router := newTestRouter(svc)

	body := `{"items":[{"part_id":1,"quantity":2}],"destination_country":"DE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data CartQuote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "200.00", resp.Data.Subtotal)
	require.Equal(t, "12.50", resp.Data.ShippingCost)
	require.Equal(t, "212.50", resp.Data.Total)
	require.Equal(t, "EU", resp.Data.Shipping.Zone)
	require.Len(t, resp.Data.Items, 1)

	// Contract keys stay flat at the top level.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["data"], &payload))
	for _, key := range []string{"items", "subtotal", "shipping_cost", "total", "estimated_delivery_days"} {
		require.Contains(t, payload, key)
	}
}

func TestPriceCartHandlerValidation(t *testing.T) {
	svc, _ := handlerService()
	router := newTestRouter(svc)

	cases := []string{
		`{"items":[],"destination_country":"DE"}`,
		`{"items":[{"part_id":1,"quantity":0}],"destination_country":"DE"}`,
		`{"items":[{"part_id":1,"quantity":1}]}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestPriceCartHandlerNoOffer(t *testing.T) {
	svc, _ := handlerService()
	svc.Offers = &fakeOffers{cands: map[int64]*offer.Candidate{}}
	router := newTestRouter(svc)

	body := `{"items":[{"part_id":1,"quantity":1}],"destination_country":"DE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "NO_OFFER_AVAILABLE")
}

func TestPriceCartHandlerZoneNotFound(t *testing.T) {
	svc, ship := handlerService()
	ship.err = shipping.ErrZoneNotFound
	router := newTestRouter(svc)

	body := `{"items":[{"part_id":1,"quantity":1}],"destination_country":"XX"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/price", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "ZONE_NOT_FOUND")
}

func TestGetPartQuoteHandler(t *testing.T) {
	svc, _ := handlerService()
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts/1/quote", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data PartQuote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "100.00", resp.Data.UnitPrice)
	require.Equal(t, "5-8 days", resp.Data.DeliveryEstimate)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/parts/999/quote", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/parts/abc/quote", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
